package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackInsertAndGet(t *testing.T) {
	track := NewTrack()
	track.Append(NoteOn(0, 60, 100, 0))
	track.Append(NoteOff(100, 60, 0, 0))

	// Insert in front shifts trailing events.
	track.Insert(ProgramChange(0, 5, 0), 0)

	require.Equal(t, 3, track.EventCount())
	ev, ok := track.Get(0)
	require.True(t, ok)
	assert.Equal(t, byte(StatusProgramChange), ev.Status)

	ev, ok = track.Get(2)
	require.True(t, ok)
	assert.Equal(t, byte(StatusNoteOff), ev.Status)

	// Out-of-range reads are "no event", not an error.
	_, ok = track.Get(3)
	assert.False(t, ok)
	_, ok = track.Get(-1)
	assert.False(t, ok)
}

func TestTrackGrowthPreservesOrder(t *testing.T) {
	track := NewTrack()
	total := DefaultBufferSize + 250 // force at least one growth

	for i := 0; i < total; i++ {
		track.Append(NoteOn(uint32(i), i%128, 100, 0))
	}

	require.Equal(t, total, track.EventCount())
	assert.Equal(t, DefaultBufferSize+BufferGrowSize, track.Capacity())

	for i := 0; i < total; i++ {
		ev, ok := track.Get(i)
		require.True(t, ok)
		assert.Equal(t, uint32(i), ev.Time)
		assert.Equal(t, clamp7(i%128), ev.Data[0])
	}
}

func TestTrackDelete(t *testing.T) {
	track := NewTrack()
	for i := 0; i < 5; i++ {
		track.Append(NoteOn(uint32(i), 60, 100, 0))
	}

	track.Delete(2)
	require.Equal(t, 4, track.EventCount())
	ev, _ := track.Get(2)
	assert.Equal(t, uint32(3), ev.Time)

	// Out-of-range deletes are no-ops.
	track.Delete(100)
	track.Delete(-1)
	assert.Equal(t, 4, track.EventCount())
}

func TestTrackSetOutOfRangeIsNoop(t *testing.T) {
	track := NewTrack()
	track.Append(NoteOn(0, 60, 100, 0))

	track.Set(NoteOn(0, 61, 100, 0), track.Capacity())
	track.Set(NoteOn(0, 61, 100, 0), -1)

	ev, _ := track.Get(0)
	assert.Equal(t, byte(60), ev.Data[0])
	assert.Equal(t, 1, track.EventCount())
}

func TestTrackReadRespectsFlags(t *testing.T) {
	track := NewTrack()
	track.Append(NoteOn(0, 60, 100, 0))

	track.SetMute(true)
	_, ok := track.Read()
	assert.False(t, ok, "muted track must not read")
	track.SetMute(false)

	track.SetRecording(true)
	_, ok = track.Read()
	assert.False(t, ok, "recording track must not read")
	track.SetRecording(false)

	ev, ok := track.Read()
	require.True(t, ok)
	assert.Equal(t, byte(StatusNoteOn), ev.Status)

	_, ok = track.Read()
	assert.False(t, ok, "drained track must not read")
}

func TestTrackWriteOnlyWhileRecording(t *testing.T) {
	track := NewTrack()

	track.Write(NoteOn(0, 60, 100, 0))
	assert.Equal(t, 0, track.EventCount())

	track.SetRecording(true)
	track.Write(NoteOn(0, 60, 100, 0))
	track.Write(NoteOff(100, 60, 0, 0))
	track.SetRecording(false)

	assert.Equal(t, 2, track.EventCount())
}

func TestTrackSlideClampsAtZero(t *testing.T) {
	track := NewTrack()
	track.Append(NoteOn(100, 60, 100, 0))

	track.Slide(0, -40)
	assert.Equal(t, uint32(60), track.Time(0))

	track.Slide(0, -500)
	assert.Equal(t, uint32(0), track.Time(0))

	track.Slide(0, 25)
	assert.Equal(t, uint32(25), track.Time(0))
}

func TestTrackAbsWindow(t *testing.T) {
	track := NewTrack()
	track.Append(NoteOn(10, 60, 100, 0))
	track.Append(NoteOff(20, 60, 0, 0))
	track.Append(NoteOn(30, 64, 100, 0))
	track.Append(NoteOff(40, 64, 0, 0))

	window := track.AbsWindow(0, 10)
	require.Len(t, window, 4)
	assert.Equal(t, []uint32{10, 30, 60, 100}, eventTimes(window))

	// A window starting mid-track is seeded with the cumulative time of
	// everything before it.
	window = track.AbsWindow(2, 10)
	require.Len(t, window, 2)
	assert.Equal(t, []uint32{60, 100}, eventTimes(window))

	// maxCount bounds the window.
	window = track.AbsWindow(0, 2)
	assert.Len(t, window, 2)

	// Past the populated range, muted, or recording: empty.
	assert.Empty(t, track.AbsWindow(4, 10))
	track.SetMute(true)
	assert.Empty(t, track.AbsWindow(0, 10))
	track.SetMute(false)
	track.SetRecording(true)
	assert.Empty(t, track.AbsWindow(0, 10))
}

func TestTrackAbsWindowIsDisposableCopy(t *testing.T) {
	track := NewTrack()
	track.Append(SysEx(10, []byte{0x41, 0x10, 0x42}))

	window := track.AbsWindow(0, 10)
	require.Len(t, window, 1)

	// Mutating the track after capture must not affect the window.
	track.Slide(0, 100)
	assert.Equal(t, uint32(10), window[0].Time)

	// And mutating the window must not reach back into the track.
	window[0].Data[0] = 0x00
	ev, _ := track.Get(0)
	assert.Equal(t, byte(0x41), ev.Data[0])
}

func TestTrackFlushAndRewind(t *testing.T) {
	track := NewTrack()
	track.Append(NoteOn(0, 60, 100, 0))
	track.Append(NoteOff(10, 60, 0, 0))

	_, ok := track.Read()
	require.True(t, ok)
	assert.Equal(t, 1, track.PendingEvents())

	track.Rewind()
	assert.Equal(t, 2, track.PendingEvents())

	track.Flush()
	assert.True(t, track.IsEmpty())
	assert.Equal(t, 0, track.EventCount())
}

func TestTrackDetachStopsRecording(t *testing.T) {
	track := NewTrack()
	track.AttachFile("file-1")
	track.AttachOutput("out-1")
	track.SetRecording(true)

	track.Detach()

	assert.False(t, track.Recording())
	assert.Empty(t, track.FileID())
	assert.Empty(t, track.OutputID())
}
