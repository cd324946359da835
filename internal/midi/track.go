package midi

const (
	// DefaultBufferSize is the initial event capacity of a track.
	DefaultBufferSize = 8192
	// BufferGrowSize is the fixed increment added on insert overflow.
	BufferGrowSize = 8192
)

// InsertEnd is the sentinel beforeIndex that appends to the end of a track.
const InsertEnd = -1

// Track is a growable ordered buffer of timed events with independent
// read and write cursors. Events at [outPtr, inPtr) are unread. A track
// is exclusively owned by whichever component currently drives it; the
// type itself does no locking (callers running playback and recording on
// different goroutines must serialize access externally).
type Track struct {
	Name string

	buf    []Event
	inPtr  int
	outPtr int

	mute   bool
	record bool

	// Weak bookkeeping handles to the file/output/input currently using
	// this track. Never ownership.
	fileID   string
	outputID string
	inputID  string
}

// NewTrack returns an empty track with the default capacity.
func NewTrack() *Track {
	return &Track{buf: make([]Event, DefaultBufferSize)}
}

// AttachFile records the handle of the file this track belongs to.
func (t *Track) AttachFile(id string) { t.fileID = id }

// AttachOutput records the handle of the output sink driving this track.
func (t *Track) AttachOutput(id string) { t.outputID = id }

// AttachInput records the handle of the input source recording into this
// track.
func (t *Track) AttachInput(id string) { t.inputID = id }

// FileID returns the attached file handle, if any.
func (t *Track) FileID() string { return t.fileID }

// OutputID returns the attached output handle, if any.
func (t *Track) OutputID() string { return t.outputID }

// InputID returns the attached input handle, if any.
func (t *Track) InputID() string { return t.inputID }

// Detach clears all attachment handles and stops recording.
func (t *Track) Detach() {
	t.fileID = ""
	t.outputID = ""
	t.inputID = ""
	t.record = false
}

// EventCount returns the number of stored events.
func (t *Track) EventCount() int { return t.inPtr }

// PendingEvents returns the number of unread events.
func (t *Track) PendingEvents() int { return t.inPtr - t.outPtr }

// IsEmpty reports whether no unread events remain.
func (t *Track) IsEmpty() bool { return t.inPtr == t.outPtr }

// Capacity returns the current buffer capacity in events.
func (t *Track) Capacity() int { return len(t.buf) }

// Muted reports the mute flag.
func (t *Track) Muted() bool { return t.mute }

// SetMute sets the mute flag.
func (t *Track) SetMute(mute bool) { t.mute = mute }

// Recording reports the record flag.
func (t *Track) Recording() bool { return t.record }

// SetRecording sets the record flag. Reading and recording are mutually
// exclusive; while recording, Read and AbsWindow return nothing.
func (t *Track) SetRecording(record bool) { t.record = record }

// Flush discards all events and resets both cursors.
func (t *Track) Flush() {
	t.inPtr = 0
	t.outPtr = 0
}

// Rewind moves the read cursor back to the first event.
func (t *Track) Rewind() { t.outPtr = 0 }

func (t *Track) grow() {
	next := make([]Event, len(t.buf)+BufferGrowSize)
	copy(next, t.buf)
	t.buf = next
}

// Insert places ev before index before, or appends when before is
// InsertEnd or past the populated range. Capacity grows by a fixed
// increment on overflow; insert never fails.
func (t *Track) Insert(ev Event, before int) {
	if t.inPtr == len(t.buf) {
		t.grow()
	}
	if before == InsertEnd || before >= t.inPtr {
		t.buf[t.inPtr] = ev
		t.inPtr++
		return
	}
	if before < 0 {
		before = 0
	}
	copy(t.buf[before+1:t.inPtr+1], t.buf[before:t.inPtr])
	t.buf[before] = ev
	t.inPtr++
}

// Append adds ev after the last stored event.
func (t *Track) Append(ev Event) { t.Insert(ev, InsertEnd) }

// Delete removes the event at index and shifts the tail down. Out of
// range indices are a no-op.
func (t *Track) Delete(index int) {
	if index < 0 || index >= t.inPtr {
		return
	}
	copy(t.buf[index:t.inPtr-1], t.buf[index+1:t.inPtr])
	t.inPtr--
}

// Get returns the event at index. The second result is false when index
// is outside the populated range; that is not an error.
func (t *Track) Get(index int) (Event, bool) {
	if index < 0 || index >= t.inPtr {
		return Event{}, false
	}
	return t.buf[index], true
}

// Set overwrites the slot at index. Indices outside the buffer capacity
// are a no-op. Writing past the populated range does not make the slot
// visible; only Insert moves the write cursor.
func (t *Track) Set(ev Event, index int) {
	if index < 0 || index >= len(t.buf) {
		return
	}
	t.buf[index] = ev
}

// Time returns the stored delta of the event at index, zero when out of
// range.
func (t *Track) Time(index int) uint32 {
	if index < 0 || index >= t.inPtr {
		return 0
	}
	return t.buf[index].Time
}

// Read pops the next unread event. It returns false when the track is
// empty, muted, or currently recording.
func (t *Track) Read() (Event, bool) {
	if t.outPtr == t.inPtr || t.mute || t.record {
		return Event{}, false
	}
	ev := t.buf[t.outPtr]
	t.outPtr++
	return ev, true
}

// Write appends ev while the track is recording; otherwise it is
// dropped.
func (t *Track) Write(ev Event) {
	if !t.record {
		return
	}
	t.Insert(ev, InsertEnd)
}

// Slide adjusts the stored delta of one event by offset ticks, clamped
// at zero.
func (t *Track) Slide(index int, offset int64) {
	if index < 0 || index >= t.inPtr {
		return
	}
	next := int64(t.buf[index].Time) + offset
	if next < 0 {
		next = 0
	}
	t.buf[index].Time = uint32(next)
}

// AbsAt returns the absolute time of the event at index: the cumulative
// sum of deltas through that event. Zero when out of range.
func (t *Track) AbsAt(index int) uint32 {
	if index < 0 || index >= t.inPtr {
		return 0
	}
	var total uint32
	for i := 0; i <= index; i++ {
		total += t.buf[i].Time
	}
	return total
}

// AbsWindow materializes up to max events starting at start, converted
// to absolute time. The result is a disposable deep copy, never a live
// alias into the track's buffer. Empty when the track is muted,
// recording, or start is past the populated range.
func (t *Track) AbsWindow(start, max int) []Event {
	if start < 0 || start >= t.inPtr || t.mute || t.record {
		return nil
	}
	count := t.inPtr - start
	if count > max {
		count = max
	}
	if count <= 0 {
		return nil
	}
	var base uint32
	if start > 0 {
		base = t.AbsAt(start - 1)
	}
	return DeltaToAbs(t.buf[start:start+count], base)
}
