package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeTwoTracks(t *testing.T) {
	a := NewTrack()
	a.Append(NoteOn(0, 60, 100, 0))
	a.Append(NoteOff(100, 60, 0, 0))

	b := NewTrack()
	b.Append(NoteOn(50, 64, 100, 0))
	b.Append(NoteOff(100, 64, 0, 0))

	m := NewMerger(a, b)
	block := m.NextBlock()
	require.Len(t, block, 4)

	assert.Equal(t, []uint32{0, 50, 50, 50}, eventTimes(block))
	assert.Equal(t, byte(60), block[0].Data[0])
	assert.Equal(t, byte(StatusNoteOn), block[0].Status)
	assert.Equal(t, byte(64), block[1].Data[0])
	assert.Equal(t, byte(StatusNoteOn), block[1].Status)
	assert.Equal(t, byte(60), block[2].Data[0])
	assert.Equal(t, byte(StatusNoteOff), block[2].Status)
	assert.Equal(t, byte(64), block[3].Data[0])
	assert.Equal(t, byte(StatusNoteOff), block[3].Status)

	assert.Equal(t, uint32(150), m.LastAbs())
	assert.Nil(t, m.NextBlock(), "drained merger must signal completion")
}

func TestMergeGlobalOrdering(t *testing.T) {
	tracks := []*Track{NewTrack(), NewTrack(), NewTrack()}
	deltas := [][]uint32{
		{0, 30, 30, 30, 30},
		{15, 45, 45},
		{5, 5, 5, 5, 5, 5, 5, 5},
	}
	for i, track := range tracks {
		for _, d := range deltas[i] {
			track.Append(NoteOn(d, 60+i, 100, i))
		}
	}

	m := NewMerger(tracks...)
	var merged []Event
	for block := m.NextBlock(); block != nil; block = m.NextBlock() {
		merged = append(merged, block...)
	}
	require.Len(t, merged, 16)

	// Reconstructed absolute times are globally non-decreasing.
	abs := DeltaToAbs(merged, 0)
	for i := 1; i < len(abs); i++ {
		assert.GreaterOrEqual(t, abs[i].Time, abs[i-1].Time)
	}
}

func TestMergeStableTieBreak(t *testing.T) {
	a := NewTrack()
	a.Append(NoteOn(100, 60, 100, 0))
	b := NewTrack()
	b.Append(NoteOn(100, 64, 100, 1))

	// Same absolute time: the lower track index wins.
	m := NewMerger(a, b)
	block := m.NextBlock()
	require.Len(t, block, 2)
	assert.Equal(t, byte(60), block[0].Data[0])
	assert.Equal(t, byte(64), block[1].Data[0])

	// Swapping the track order swaps the outcome.
	a.Rewind()
	b.Rewind()
	m = NewMerger(b, a)
	block = m.NextBlock()
	require.Len(t, block, 2)
	assert.Equal(t, byte(64), block[0].Data[0])
}

func TestMergeSysExAtomicity(t *testing.T) {
	// Track 0 sends a multi-packet exclusive dump; track 1 floods cheap
	// notes timed to land inside it.
	dump := NewTrack()
	dump.Append(SysExStart(10, []byte{0x41, 0x10}))
	dump.Append(Event{Time: 5, Status: StatusSysEx, Data: []byte{0x12, 0x40}})
	dump.Append(SysExEnd(5, []byte{0x00, 0x41}))

	noise := NewTrack()
	for i := 0; i < 6; i++ {
		noise.Append(NoteOn(3, 60, 100, 1))
	}

	m := NewMerger(dump, noise)
	var merged []Event
	for block := m.NextBlock(); block != nil; block = m.NextBlock() {
		merged = append(merged, block...)
	}
	require.Len(t, merged, 9)

	inDump := false
	for _, ev := range merged {
		if inDump {
			assert.NotEqual(t, byte(StatusNoteOn)|1, ev.Status,
				"foreign event interleaved into an open exclusive dump")
		}
		if ev.BeginsSysEx() {
			inDump = true
		}
		if ev.EndsSysEx() {
			inDump = false
		}
	}
	assert.False(t, inDump, "dump left open")
}

func TestMergeSelfContainedSysExDoesNotLock(t *testing.T) {
	a := NewTrack()
	a.Append(SysEx(0, []byte{0x7E, 0x09, 0x01}))
	b := NewTrack()
	b.Append(NoteOn(5, 60, 100, 0))
	b.Append(NoteOn(5, 62, 100, 0))

	m := NewMerger(a, b)
	var merged []Event
	for block := m.NextBlock(); block != nil; block = m.NextBlock() {
		merged = append(merged, block...)
	}

	require.Len(t, merged, 3, "a terminated one-event dump must not starve other tracks")
	assert.Equal(t, byte(StatusSysEx), merged[0].Status)
}

func TestMergePumpBackpressure(t *testing.T) {
	a := NewTrack()
	for i := 0; i < 10; i++ {
		a.Append(NoteOn(10, 60, 100, 0))
	}

	m := NewMerger(a)

	var got []Event
	budget := 4
	put := func(ev Event) bool {
		if budget == 0 {
			return false
		}
		budget--
		got = append(got, ev)
		return true
	}

	done := m.Pump(put)
	assert.False(t, done)
	assert.Len(t, got, 4)

	// Resuming delivers the rejected event next; nothing lost or
	// re-ordered.
	budget = 100
	done = m.Pump(put)
	assert.True(t, done)
	require.Len(t, got, 10)
	assert.Equal(t, []uint32{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}, eventTimes(got))
}

func TestMergeSkipsMutedTracks(t *testing.T) {
	a := NewTrack()
	a.Append(NoteOn(0, 60, 100, 0))
	b := NewTrack()
	b.Append(NoteOn(0, 64, 100, 0))
	b.SetMute(true)

	m := NewMerger(a, b)
	block := m.NextBlock()
	require.Len(t, block, 1)
	assert.Equal(t, byte(60), block[0].Data[0])
}

func TestMergeCrossBlockContinuity(t *testing.T) {
	// More events than one merge block so lastAbs must carry across
	// block boundaries.
	a := NewTrack()
	total := MergeBlockSize + 10
	for i := 0; i < total; i++ {
		a.Append(NoteOn(2, 60, 100, 0))
	}

	m := NewMerger(a)
	first := m.NextBlock()
	require.Len(t, first, MergeBlockSize)
	second := m.NextBlock()
	require.Len(t, second, 10)

	// The first delta of the second block continues from the last
	// absolute time of the first, not from zero.
	assert.Equal(t, uint32(2), second[0].Time)
	assert.Equal(t, uint32(2*uint32(total)), m.LastAbs())
}
