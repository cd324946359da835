package smf

import (
	"encoding/binary"

	"github.com/tracklab/midikit/internal/midi"
)

// File formats. Format 0 stores one merged track; format 1 stores
// parallel tracks sharing a time base.
const (
	Format0 = 0
	Format1 = 1
)

// DefaultDivision is the default time resolution in ticks per quarter
// note.
const DefaultDivision = 480

// MaxDivision is the largest encodable division: the field is 16 bits
// and the high bit selects SMPTE time, which is not supported.
const MaxDivision = 0x7FFF

// File is an in-memory Standard MIDI File: a format, a division, and an
// ordered set of tracks. Assemble one with AddTrack before Save, or get
// a populated one back from Load.
type File struct {
	Format          int
	TicksPerQuarter int
	Tracks          []*midi.Track
}

// New returns an empty file with the given format and division. A
// division outside [1, MaxDivision] falls back to DefaultDivision.
func New(format, ticksPerQuarter int) *File {
	if ticksPerQuarter <= 0 || ticksPerQuarter > MaxDivision {
		ticksPerQuarter = DefaultDivision
	}
	return &File{Format: format, TicksPerQuarter: ticksPerQuarter}
}

// AddTrack appends a fresh empty track and returns it.
func (f *File) AddTrack() *midi.Track {
	t := midi.NewTrack()
	f.Tracks = append(f.Tracks, t)
	return t
}

// TempoEvent builds a Set-Tempo meta event from beats per minute,
// encoded as 3-byte big-endian microseconds per quarter note.
func TempoEvent(delta uint32, bpm float64) midi.Event {
	if bpm <= 0 {
		bpm = 120
	}
	mpqn := uint32(60_000_000 / bpm)
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], mpqn)
	return midi.Event{
		Time:     delta,
		Status:   midi.StatusMeta,
		MetaType: midi.MetaTempo,
		Data:     []byte{buf[1], buf[2], buf[3]},
	}
}

// TimeSignatureEvent builds a Time-Signature meta event. The denominator
// is stored as its base-2 logarithm; MIDI clocks per metronome click and
// 32nd notes per quarter are fixed at 24 and 8.
func TimeSignatureEvent(delta uint32, numerator, denominator int) midi.Event {
	log2 := byte(0)
	for d := denominator; d > 1; d >>= 1 {
		log2++
	}
	return midi.Event{
		Time:     delta,
		Status:   midi.StatusMeta,
		MetaType: midi.MetaTimeSignature,
		Data:     []byte{byte(numerator), log2, 24, 8},
	}
}

// KeySignatureEvent builds a Key-Signature meta event: a signed count of
// sharps (positive) or flats (negative) and a major/minor flag.
func KeySignatureEvent(delta uint32, sharps int, minor bool) midi.Event {
	flag := byte(0)
	if minor {
		flag = 1
	}
	return midi.Event{
		Time:     delta,
		Status:   midi.StatusMeta,
		MetaType: midi.MetaKeySignature,
		Data:     []byte{byte(int8(sharps)), flag},
	}
}

// TrackNameEvent builds a Track-Name meta event.
func TrackNameEvent(delta uint32, name string) midi.Event {
	return midi.Event{
		Time:     delta,
		Status:   midi.StatusMeta,
		MetaType: midi.MetaTrackName,
		Data:     []byte(name),
	}
}

// EndOfTrackEvent builds the mandatory End-of-Track meta event.
func EndOfTrackEvent(delta uint32) midi.Event {
	return midi.Event{Time: delta, Status: midi.StatusMeta, MetaType: midi.MetaEndOfTrack}
}
