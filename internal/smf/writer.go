package smf

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/tracklab/midikit/internal/midi"
)

const (
	headerMagic = "MThd"
	trackMagic  = "MTrk"
	headerSize  = 6
)

// Encode serializes the file to SMF bytes: an MThd header chunk followed
// by one MTrk chunk per track. Every track body is terminated with the
// End-of-Track meta; if the caller did not store one, it is appended.
func (f *File) Encode() []byte {
	out := make([]byte, 0, 1024)
	out = append(out, headerMagic...)

	var hdr [10]byte
	binary.BigEndian.PutUint32(hdr[0:4], headerSize)
	binary.BigEndian.PutUint16(hdr[4:6], uint16(f.Format))
	binary.BigEndian.PutUint16(hdr[6:8], uint16(len(f.Tracks)))
	binary.BigEndian.PutUint16(hdr[8:10], uint16(f.TicksPerQuarter))
	out = append(out, hdr[:]...)

	for _, track := range f.Tracks {
		body := encodeTrackBody(track)
		out = append(out, trackMagic...)
		var size [4]byte
		binary.BigEndian.PutUint32(size[:], uint32(len(body)))
		out = append(out, size[:]...)
		out = append(out, body...)
	}
	return out
}

func encodeTrackBody(track *midi.Track) []byte {
	body := make([]byte, 0, 256)
	sawEOT := false
	for i := 0; i < track.EventCount(); i++ {
		ev, ok := track.Get(i)
		if !ok {
			break
		}
		body = appendEvent(body, ev)
		sawEOT = ev.IsEndOfTrack() && i == track.EventCount()-1
	}
	if !sawEOT {
		body = AppendVarLen(body, 0)
		body = append(body, midi.StatusMeta, midi.MetaEndOfTrack, 0x00)
	}
	return body
}

func appendEvent(body []byte, ev midi.Event) []byte {
	body = AppendVarLen(body, ev.Time)
	if ev.Status == midi.StatusMeta {
		body = append(body, midi.StatusMeta, ev.MetaType)
		body = AppendVarLen(body, uint32(len(ev.Data)))
		return append(body, ev.Data...)
	}
	body = append(body, ev.Status)
	return append(body, ev.Data...)
}

// Save encodes the file fully in memory and writes it to path in one
// shot, so an I/O failure never leaves a half-encoded buffer behind.
// Callers that need atomic replacement should write to a temporary path
// and rename.
func (f *File) Save(path string) error {
	if err := os.WriteFile(path, f.Encode(), 0o644); err != nil {
		return fmt.Errorf("smf: save %s: %w", path, err)
	}
	return nil
}
