package midi

const (
	// MergeBlockSize is the maximum number of events emitted per merge
	// block.
	MergeBlockSize = 512
	// mergeWindowSize is how many events are materialized from one track
	// at a time.
	mergeWindowSize = 512
)

// mergeState is the transient per-track view of an in-flight merge: a
// disposable absolute-time window, a cursor into it, the count of events
// already consumed from the track, and the sysex lockout flag.
type mergeState struct {
	window  []Event
	next    int
	taken   int
	inSysex bool
}

// Merger performs a stateful k-way merge of independently-timed tracks
// into a single time-ordered, delta-encoded stream. At most one track
// may hold an open system exclusive dump; while it does, only that
// track's events are eligible, so other channels can never interleave
// into a multi-packet dump.
type Merger struct {
	tracks  []*Track
	states  []mergeState
	lastAbs uint32

	block  []Event
	outPtr int
}

// NewMerger returns a merger over the given tracks. Track order fixes
// the tie break: equal absolute times resolve to the lowest track index.
func NewMerger(tracks ...*Track) *Merger {
	return &Merger{
		tracks: tracks,
		states: make([]mergeState, len(tracks)),
	}
}

// LastAbs returns the absolute time of the last event emitted so far,
// the continuity anchor for delta re-encoding across blocks.
func (m *Merger) LastAbs() uint32 { return m.lastAbs }

// NextBlock produces the next delta-encoded merge block, at most
// MergeBlockSize events. A nil result means the merge is complete: every
// track window is exhausted and none can be refilled.
func (m *Merger) NextBlock() []Event {
	// Refill exhausted windows from each track's last consumed position.
	for i := range m.states {
		st := &m.states[i]
		if st.next >= len(st.window) {
			st.window = m.tracks[i].AbsWindow(st.taken, mergeWindowSize)
			st.next = 0
		}
	}

	// Resume an exclusive dump left open by the previous block.
	active := -1
	for i := range m.states {
		st := &m.states[i]
		if st.inSysex && st.next < len(st.window) {
			active = i
			break
		}
	}

	merged := make([]Event, 0, MergeBlockSize)
	for len(merged) < MergeBlockSize {
		best := -1
		var bestTime uint32
		for i := range m.states {
			st := &m.states[i]
			if st.next >= len(st.window) {
				continue
			}
			if active >= 0 && i != active {
				continue
			}
			ev := st.window[st.next]
			if best < 0 || ev.Time < bestTime {
				best = i
				bestTime = ev.Time
			}
		}
		if best < 0 {
			break
		}

		st := &m.states[best]
		ev := st.window[st.next]
		st.next++
		st.taken++
		merged = append(merged, ev)

		if ev.BeginsSysEx() {
			st.inSysex = true
			active = best
		}
		if ev.EndsSysEx() {
			st.inSysex = false
			active = -1
		}
	}

	if len(merged) == 0 {
		return nil
	}

	newLast := merged[len(merged)-1].Time
	block := AbsToDelta(merged, m.lastAbs)
	m.lastAbs = newLast
	return block
}

// Pump drives the merged stream into put, one delta-encoded event at a
// time. A false return from put is backpressure: the pump halts at that
// event without consuming it, and the next call resumes from the same
// position. Pump returns true once the merge is complete.
func (m *Merger) Pump(put func(Event) bool) bool {
	for {
		if m.outPtr >= len(m.block) {
			m.block = m.NextBlock()
			m.outPtr = 0
			if len(m.block) == 0 {
				return true
			}
		}
		for m.outPtr < len(m.block) {
			if !put(m.block[m.outPtr]) {
				return false
			}
			m.outPtr++
		}
	}
}
