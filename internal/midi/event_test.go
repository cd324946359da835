package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageConstructorsClamp(t *testing.T) {
	ev := NoteOn(0, 200, -5, 99)
	assert.Equal(t, byte(StatusNoteOn|0x0F), ev.Status)
	assert.Equal(t, []byte{127, 0}, ev.Data)

	ev = ControlChange(0, 7, 300, -3)
	assert.Equal(t, byte(StatusControlChange), ev.Status)
	assert.Equal(t, []byte{7, 127}, ev.Data)

	ev = ProgramChange(0, 42, 9)
	assert.Equal(t, byte(StatusProgramChange|9), ev.Status)
	assert.Equal(t, []byte{42}, ev.Data)
}

func TestPitchBendEncoding(t *testing.T) {
	tests := []struct {
		name  string
		value int
		lsb   byte
		msb   byte
	}{
		{name: "center", value: 0, lsb: 0x00, msb: 0x40},
		{name: "max down", value: -8192, lsb: 0x00, msb: 0x00},
		{name: "max up", value: 8191, lsb: 0x7F, msb: 0x7F},
		{name: "clamped overflow", value: 20000, lsb: 0x7F, msb: 0x7F},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := PitchBend(0, tt.value, 2)
			assert.Equal(t, byte(StatusPitchBend|2), ev.Status)
			assert.Equal(t, []byte{tt.lsb, tt.msb}, ev.Data)
		})
	}
}

func TestEventKinds(t *testing.T) {
	assert.Equal(t, KindChannel, NoteOn(0, 60, 100, 0).Kind())
	assert.Equal(t, KindSysEx, SysEx(0, nil).Kind())
	assert.Equal(t, KindSysEx, SysExEnd(0, nil).Kind())
	assert.Equal(t, KindSystem, Clock(0).Kind())
	assert.Equal(t, KindMeta, Event{Status: StatusMeta, MetaType: MetaTempo}.Kind())
}

func TestSysExFraming(t *testing.T) {
	ev := SysEx(0, []byte{0x41, 0xFF}) // 0xFF must clamp to 7 bits
	assert.True(t, ev.BeginsSysEx())
	assert.True(t, ev.EndsSysEx(), "terminated payload makes the event self-contained")
	assert.Equal(t, []byte{0x41, 0x7F, StatusEOX}, ev.Data)

	start := SysExStart(0, []byte{0x41})
	assert.True(t, start.BeginsSysEx())
	assert.False(t, start.EndsSysEx())

	end := SysExEnd(0, []byte{0x12})
	assert.False(t, end.BeginsSysEx())
	assert.True(t, end.EndsSysEx())
}
