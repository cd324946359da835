package midi

// MIDI status bytes and ranges. Channel voice messages carry the channel
// in the low nibble; 0xF0-0xFF are system messages.
const (
	StatusNoteOff         byte = 0x80
	StatusNoteOn          byte = 0x90
	StatusPolyAftertouch  byte = 0xA0
	StatusControlChange   byte = 0xB0
	StatusProgramChange   byte = 0xC0
	StatusChannelPressure byte = 0xD0
	StatusPitchBend       byte = 0xE0
	StatusSysEx           byte = 0xF0
	StatusSongPosition    byte = 0xF2
	StatusSongSelect      byte = 0xF3
	StatusTuneRequest     byte = 0xF6
	StatusEOX             byte = 0xF7
	StatusClock           byte = 0xF8
	StatusStart           byte = 0xFA
	StatusContinue        byte = 0xFB
	StatusStop            byte = 0xFC
	StatusActiveSensing   byte = 0xFE
	StatusMeta            byte = 0xFF
)

// Meta event types used by the SMF codec.
const (
	MetaTrackName     byte = 0x03
	MetaEndOfTrack    byte = 0x2F
	MetaTempo         byte = 0x51
	MetaTimeSignature byte = 0x58
	MetaKeySignature  byte = 0x59
)

// Kind classifies an event for dispatch and codec purposes.
type Kind int

const (
	KindChannel Kind = iota // channel voice message (0x80-0xEF)
	KindSysEx               // system exclusive start or end
	KindSystem              // system common / real-time
	KindMeta                // file-only meta event (0xFF + type)
)

// Event is one timed MIDI occurrence. Time is the delta in ticks from the
// previous event on the same track; transient buffers produced by the
// merger carry absolute ticks in the same field.
type Event struct {
	Time     uint32 `json:"time"`
	Status   byte   `json:"status"`
	MetaType byte   `json:"meta_type,omitempty"` // meaningful only when Status == StatusMeta
	Data     []byte `json:"data"`
}

// Kind reports the event's message class.
func (e Event) Kind() Kind {
	switch {
	case e.Status == StatusMeta:
		return KindMeta
	case e.Status == StatusSysEx || e.Status == StatusEOX:
		return KindSysEx
	case e.Status >= 0xF0:
		return KindSystem
	default:
		return KindChannel
	}
}

// Channel returns the channel of a channel voice message (0-15).
// Meaningless for system and meta events.
func (e Event) Channel() byte {
	return e.Status & 0x0F
}

// IsSysExStart reports whether the event opens a system exclusive dump.
func (e Event) IsSysExStart() bool {
	return e.Status == StatusSysEx
}

// IsEOX reports whether the event terminates a system exclusive dump.
func (e Event) IsEOX() bool {
	return e.Status == StatusEOX
}

// BeginsSysEx reports whether the event opens an exclusive dump for merge
// purposes. Keyed off the status byte, never the payload.
func (e Event) BeginsSysEx() bool {
	return e.Status == StatusSysEx
}

// EndsSysEx reports whether the event closes an exclusive dump: either a
// dedicated EOX event, or a self-contained SysEx event whose payload
// carries its own terminator.
func (e Event) EndsSysEx() bool {
	if e.Status == StatusEOX {
		return true
	}
	return e.Status == StatusSysEx && len(e.Data) > 0 && e.Data[len(e.Data)-1] == StatusEOX
}

// IsEndOfTrack reports whether the event is the SMF End-of-Track meta.
func (e Event) IsEndOfTrack() bool {
	return e.Status == StatusMeta && e.MetaType == MetaEndOfTrack
}

// Clone returns a deep copy. Buffers derived from a track (merge windows,
// codec output) must never alias the track's live event storage.
func (e Event) Clone() Event {
	c := e
	if e.Data != nil {
		c.Data = make([]byte, len(e.Data))
		copy(c.Data, e.Data)
	}
	return c
}

func clamp7(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return byte(v)
}

func clampChannel(ch int) byte {
	if ch < 0 {
		return 0
	}
	if ch > 15 {
		return 15
	}
	return byte(ch)
}

// NoteOn builds a note-on channel message.
func NoteOn(delta uint32, note, velocity, channel int) Event {
	return Event{
		Time:   delta,
		Status: StatusNoteOn | clampChannel(channel),
		Data:   []byte{clamp7(note), clamp7(velocity)},
	}
}

// NoteOff builds a note-off channel message.
func NoteOff(delta uint32, note, velocity, channel int) Event {
	return Event{
		Time:   delta,
		Status: StatusNoteOff | clampChannel(channel),
		Data:   []byte{clamp7(note), clamp7(velocity)},
	}
}

// PolyAftertouch builds a polyphonic key pressure message.
func PolyAftertouch(delta uint32, note, pressure, channel int) Event {
	return Event{
		Time:   delta,
		Status: StatusPolyAftertouch | clampChannel(channel),
		Data:   []byte{clamp7(note), clamp7(pressure)},
	}
}

// ControlChange builds a controller change message.
func ControlChange(delta uint32, controller, value, channel int) Event {
	return Event{
		Time:   delta,
		Status: StatusControlChange | clampChannel(channel),
		Data:   []byte{clamp7(controller), clamp7(value)},
	}
}

// ProgramChange builds a program change message (single data byte).
func ProgramChange(delta uint32, program, channel int) Event {
	return Event{
		Time:   delta,
		Status: StatusProgramChange | clampChannel(channel),
		Data:   []byte{clamp7(program)},
	}
}

// ChannelAftertouch builds a channel pressure message (single data byte).
func ChannelAftertouch(delta uint32, pressure, channel int) Event {
	return Event{
		Time:   delta,
		Status: StatusChannelPressure | clampChannel(channel),
		Data:   []byte{clamp7(pressure)},
	}
}

// PitchBend builds a pitch bend message. value ranges -8192..8191; it is
// re-centered to the 14-bit wire value and split LSB first.
func PitchBend(delta uint32, value, channel int) Event {
	if value < -8192 {
		value = -8192
	}
	if value > 8191 {
		value = 8191
	}
	v := value + 8192
	return Event{
		Time:   delta,
		Status: StatusPitchBend | clampChannel(channel),
		Data:   []byte{byte(v & 0x7F), byte((v >> 7) & 0x7F)},
	}
}

// SongPosition builds a song position pointer (position in MIDI beats).
func SongPosition(delta uint32, position int) Event {
	if position < 0 {
		position = 0
	}
	if position > 0x3FFF {
		position = 0x3FFF
	}
	return Event{
		Time:   delta,
		Status: StatusSongPosition,
		Data:   []byte{byte(position & 0x7F), byte((position >> 7) & 0x7F)},
	}
}

// SongSelect builds a song select message.
func SongSelect(delta uint32, song int) Event {
	return Event{Time: delta, Status: StatusSongSelect, Data: []byte{clamp7(song)}}
}

// TuneRequest builds a tune request (no data bytes).
func TuneRequest(delta uint32) Event {
	return Event{Time: delta, Status: StatusTuneRequest}
}

// Clock builds a timing clock real-time message.
func Clock(delta uint32) Event { return Event{Time: delta, Status: StatusClock} }

// Start builds a start real-time message.
func Start(delta uint32) Event { return Event{Time: delta, Status: StatusStart} }

// Continue builds a continue real-time message.
func Continue(delta uint32) Event { return Event{Time: delta, Status: StatusContinue} }

// Stop builds a stop real-time message.
func Stop(delta uint32) Event { return Event{Time: delta, Status: StatusStop} }

// ActiveSensing builds an active sensing real-time message.
func ActiveSensing(delta uint32) Event { return Event{Time: delta, Status: StatusActiveSensing} }

// SysEx builds a complete, self-contained system exclusive message.
// Payload bytes are clamped to 7 bits; the terminating EOX is stored in
// the data so the message stays one atomic event.
func SysEx(delta uint32, payload []byte) Event {
	data := make([]byte, 0, len(payload)+1)
	for _, b := range payload {
		data = append(data, b&0x7F)
	}
	data = append(data, StatusEOX)
	return Event{Time: delta, Status: StatusSysEx, Data: data}
}

// SysExStart builds the opening packet of a multi-packet exclusive dump.
// The dump stays open until a SysExEnd event on the same track.
func SysExStart(delta uint32, payload []byte) Event {
	data := make([]byte, 0, len(payload))
	for _, b := range payload {
		data = append(data, b&0x7F)
	}
	return Event{Time: delta, Status: StatusSysEx, Data: data}
}

// SysExEnd builds the closing packet of a multi-packet exclusive dump.
// The EOX status byte itself terminates the dump; any payload bytes are
// the tail of the vendor data.
func SysExEnd(delta uint32, payload []byte) Event {
	data := make([]byte, 0, len(payload))
	for _, b := range payload {
		data = append(data, b&0x7F)
	}
	return Event{Time: delta, Status: StatusEOX, Data: data}
}
