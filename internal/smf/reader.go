package smf

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/tracklab/midikit/internal/midi"
)

// Load reads and decodes the SMF file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("smf: load %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses SMF bytes into a File with one fresh track per declared
// MTrk chunk. Any structural problem aborts the whole decode; a partial
// file is never returned.
func Decode(data []byte) (*File, error) {
	if len(data) < 4+4+headerSize {
		return nil, fmt.Errorf("%w: header shorter than %d bytes", ErrTruncated, 4+4+headerSize)
	}
	if string(data[0:4]) != headerMagic {
		return nil, fmt.Errorf("%w: missing %q magic", ErrFormat, headerMagic)
	}
	if hdrLen := binary.BigEndian.Uint32(data[4:8]); hdrLen != headerSize {
		return nil, fmt.Errorf("%w: header length %d, want %d", ErrFormat, hdrLen, headerSize)
	}

	format := int(binary.BigEndian.Uint16(data[8:10]))
	trackCount := int(binary.BigEndian.Uint16(data[10:12]))
	division := int(binary.BigEndian.Uint16(data[12:14]))

	file := New(format, division)
	off := 14

	for n := 0; n < trackCount; n++ {
		if len(data)-off < 8 {
			return nil, fmt.Errorf("%w: track %d header missing", ErrTruncated, n)
		}
		if string(data[off:off+4]) != trackMagic {
			return nil, fmt.Errorf("%w: track %d missing %q magic", ErrFormat, n, trackMagic)
		}
		bodyLen := int(binary.BigEndian.Uint32(data[off+4 : off+8]))
		off += 8
		if len(data)-off < bodyLen {
			return nil, fmt.Errorf("%w: track %d body declares %d bytes, %d remain", ErrTruncated, n, bodyLen, len(data)-off)
		}

		track := file.AddTrack()
		if err := decodeTrackBody(data[off:off+bodyLen], track); err != nil {
			return nil, fmt.Errorf("track %d: %w", n, err)
		}
		off += bodyLen
	}

	return file, nil
}

// decodeTrackBody parses one MTrk body into track. Running status is a
// two-state machine scoped to this chunk; it never carries across
// tracks.
func decodeTrackBody(body []byte, track *midi.Track) error {
	var running byte
	off := 0

	for off < len(body) {
		delta, next, err := ReadVarLen(body, off)
		if err != nil {
			return err
		}
		off = next
		if off >= len(body) {
			return fmt.Errorf("%w: chunk ended after a delta time", ErrTruncated)
		}

		status := body[off]
		haveFirstData := false
		var firstData byte
		if status&0x80 == 0 {
			// High bit clear: running status. The byte just read is
			// actually the first data byte.
			if running == 0 {
				return fmt.Errorf("%w: data byte with no running status", ErrFormat)
			}
			status = running
			firstData = body[off]
			haveFirstData = true
			off++
		} else {
			off++
			running = status
		}

		if status == midi.StatusMeta {
			ev, next, err := decodeMeta(body, off, delta)
			if err != nil {
				return err
			}
			off = next
			if ev.MetaType == midi.MetaTrackName && track.Name == "" {
				track.Name = string(ev.Data)
			}
			track.Append(ev)
			continue
		}

		if status == midi.StatusSysEx {
			ev, next, err := decodeSysEx(body, off, delta)
			if err != nil {
				return err
			}
			off = next
			// Exclusive data cancels running status.
			running = 0
			track.Append(ev)
			continue
		}

		dataLen := channelDataLen(status)
		ev := midi.Event{Time: delta, Status: status}
		if dataLen > 0 {
			ev.Data = make([]byte, 0, dataLen)
			if haveFirstData {
				ev.Data = append(ev.Data, firstData)
			}
			for len(ev.Data) < dataLen {
				if off >= len(body) {
					return fmt.Errorf("%w: chunk ended inside an event", ErrTruncated)
				}
				ev.Data = append(ev.Data, body[off])
				off++
			}
		}
		track.Append(ev)
	}

	return nil
}

func decodeMeta(body []byte, off int, delta uint32) (midi.Event, int, error) {
	if off >= len(body) {
		return midi.Event{}, off, fmt.Errorf("%w: chunk ended before a meta type", ErrTruncated)
	}
	metaType := body[off]
	off++

	size, off, err := ReadVarLen(body, off)
	if err != nil {
		return midi.Event{}, off, err
	}
	if len(body)-off < int(size) {
		return midi.Event{}, off, fmt.Errorf("%w: meta event declares %d bytes, %d remain", ErrTruncated, size, len(body)-off)
	}

	ev := midi.Event{Time: delta, Status: midi.StatusMeta, MetaType: metaType}
	if size > 0 {
		ev.Data = make([]byte, size)
		copy(ev.Data, body[off:off+int(size)])
	}
	return ev, off + int(size), nil
}

// decodeSysEx consumes an exclusive dump: every byte through the
// terminating EOX belongs to the event's data, mirroring how the writer
// stores a self-contained SysEx event.
func decodeSysEx(body []byte, off int, delta uint32) (midi.Event, int, error) {
	end := off
	for {
		if end >= len(body) {
			return midi.Event{}, end, fmt.Errorf("%w: chunk ended inside a system exclusive event", ErrTruncated)
		}
		if body[end] == midi.StatusEOX {
			end++
			break
		}
		end++
	}

	ev := midi.Event{Time: delta, Status: midi.StatusSysEx, Data: make([]byte, end-off)}
	copy(ev.Data, body[off:end])
	return ev, end, nil
}

// channelDataLen returns how many data bytes follow a status byte:
// one for the Program-Change and Channel-Pressure classes, two for
// every other channel or system message. Meta and exclusive events are
// handled before this applies.
func channelDataLen(status byte) int {
	switch status & 0xF0 {
	case midi.StatusProgramChange, midi.StatusChannelPressure:
		return 1
	default:
		return 2
	}
}
