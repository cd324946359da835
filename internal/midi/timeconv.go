package midi

// DeltaToAbs converts a delta-encoded event sequence to absolute time by
// running a cumulative sum from start, the absolute time preceding
// element 0. Returns a fresh slice of deep copies; the input is never
// modified.
func DeltaToAbs(events []Event, start uint32) []Event {
	out := make([]Event, len(events))
	now := start
	for i, ev := range events {
		c := ev.Clone()
		now += ev.Time
		c.Time = now
		out[i] = c
	}
	return out
}

// AbsToDelta is the inverse of DeltaToAbs: it converts an absolute-time
// sequence back to deltas against prev, the absolute time preceding
// element 0. A computed delta that would go negative (out-of-order
// input) clamps to zero. Returns a fresh slice of deep copies.
func AbsToDelta(events []Event, prev uint32) []Event {
	out := make([]Event, len(events))
	for i, ev := range events {
		c := ev.Clone()
		if ev.Time <= prev {
			c.Time = 0
		} else {
			c.Time = ev.Time - prev
		}
		prev = ev.Time
		out[i] = c
	}
	return out
}
