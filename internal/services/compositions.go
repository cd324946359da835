package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tracklab/midikit/internal/midi"
	"github.com/tracklab/midikit/internal/models"
	"github.com/tracklab/midikit/internal/smf"
)

// ErrNotFound reports a composition ID that does not exist
var ErrNotFound = errors.New("composition not found")

// ErrBadTrackIndex reports a track selection outside the file
var ErrBadTrackIndex = errors.New("track index out of range")

type CompositionService struct {
	db *gorm.DB
}

func NewCompositionService(db *gorm.DB) *CompositionService {
	return &CompositionService{db: db}
}

// TrackInput is one track of a build request
type TrackInput struct {
	Name    string       `json:"name"`
	Channel int          `json:"channel"`
	Events  []EventInput `json:"events" binding:"required"`
}

// EventInput is one event of a build request. Type selects which of the
// remaining fields apply.
type EventInput struct {
	Delta       uint32  `json:"delta"`
	Type        string  `json:"type" binding:"required"`
	Note        int     `json:"note"`
	Velocity    int     `json:"velocity"`
	Controller  int     `json:"controller"`
	Value       int     `json:"value"`
	Program     int     `json:"program"`
	Channel     *int    `json:"channel,omitempty"` // overrides the track channel
	Bend        int     `json:"bend"`
	BPM         float64 `json:"bpm"`
	Numerator   int     `json:"numerator"`
	Denominator int     `json:"denominator"`
	Sharps      int     `json:"sharps"`
	Minor       bool    `json:"minor"`
	Payload     []byte  `json:"payload,omitempty"` // sysex vendor data, base64 in JSON
	Text        string  `json:"text"`
}

// TrackSummary is the per-track view returned by composition detail
type TrackSummary struct {
	Index      int    `json:"index"`
	Name       string `json:"name,omitempty"`
	EventCount int    `json:"event_count"`
	TotalTicks uint32 `json:"total_ticks"`
}

// BuildFile assembles an SMF from track inputs. Pure; no persistence.
func BuildFile(format, division int, tracks []TrackInput) (*smf.File, error) {
	file := smf.New(format, division)
	for ti, in := range tracks {
		track := file.AddTrack()
		track.Name = in.Name
		if in.Name != "" {
			track.Append(smf.TrackNameEvent(0, in.Name))
		}
		for ei, evIn := range in.Events {
			ev, err := buildEvent(evIn, in.Channel)
			if err != nil {
				return nil, fmt.Errorf("track %d event %d: %w", ti, ei, err)
			}
			track.Append(ev)
		}
	}
	return file, nil
}

func buildEvent(in EventInput, trackChannel int) (midi.Event, error) {
	channel := trackChannel
	if in.Channel != nil {
		channel = *in.Channel
	}

	switch strings.ToLower(in.Type) {
	case "note_on":
		return midi.NoteOn(in.Delta, in.Note, in.Velocity, channel), nil
	case "note_off":
		return midi.NoteOff(in.Delta, in.Note, in.Velocity, channel), nil
	case "poly_aftertouch":
		return midi.PolyAftertouch(in.Delta, in.Note, in.Value, channel), nil
	case "control_change":
		return midi.ControlChange(in.Delta, in.Controller, in.Value, channel), nil
	case "program_change":
		return midi.ProgramChange(in.Delta, in.Program, channel), nil
	case "channel_aftertouch":
		return midi.ChannelAftertouch(in.Delta, in.Value, channel), nil
	case "pitch_bend":
		return midi.PitchBend(in.Delta, in.Bend, channel), nil
	case "sysex":
		return midi.SysEx(in.Delta, in.Payload), nil
	case "tempo":
		return smf.TempoEvent(in.Delta, in.BPM), nil
	case "time_signature":
		return smf.TimeSignatureEvent(in.Delta, in.Numerator, in.Denominator), nil
	case "key_signature":
		return smf.KeySignatureEvent(in.Delta, in.Sharps, in.Minor), nil
	case "track_name":
		return smf.TrackNameEvent(in.Delta, in.Text), nil
	default:
		return midi.Event{}, fmt.Errorf("unknown event type %q", in.Type)
	}
}

// MergeFile merges the selected tracks (all of them when trackIndexes is
// empty) into a fresh format-0 file sharing the source division. Pure;
// no persistence. Returns the merged file and the merged event count.
func MergeFile(src *smf.File, trackIndexes []int) (*smf.File, int, error) {
	selected := make([]*midi.Track, 0, len(src.Tracks))
	if len(trackIndexes) == 0 {
		selected = append(selected, src.Tracks...)
	} else {
		for _, i := range trackIndexes {
			if i < 0 || i >= len(src.Tracks) {
				return nil, 0, fmt.Errorf("%w: %d of %d tracks", ErrBadTrackIndex, i, len(src.Tracks))
			}
			selected = append(selected, src.Tracks[i])
		}
	}

	merged := smf.New(smf.Format0, src.TicksPerQuarter)
	out := merged.AddTrack()

	m := midi.NewMerger(selected...)
	count := 0
	for block := m.NextBlock(); block != nil; block = m.NextBlock() {
		for _, ev := range block {
			// End-of-Track metas belong to the source chunks, not the
			// merged stream; the writer appends a fresh trailer.
			if ev.IsEndOfTrack() {
				continue
			}
			out.Append(ev)
			count++
		}
	}
	return merged, count, nil
}

// Summaries returns the per-track metadata view of a decoded file.
func Summaries(file *smf.File) []TrackSummary {
	out := make([]TrackSummary, len(file.Tracks))
	for i, track := range file.Tracks {
		out[i] = TrackSummary{
			Index:      i,
			Name:       track.Name,
			EventCount: track.EventCount(),
			TotalTicks: track.AbsAt(track.EventCount() - 1),
		}
	}
	return out
}

// Import decodes raw SMF bytes and stores them as a new composition.
// The stored bytes are the re-encoded canonical form, not the upload.
func (s *CompositionService) Import(name string, raw []byte) (*models.Composition, error) {
	file, err := smf.Decode(raw)
	if err != nil {
		return nil, err
	}
	return s.store(name, file)
}

// Build assembles a file from track inputs and stores it.
func (s *CompositionService) Build(name string, format, division int, tracks []TrackInput) (*models.Composition, error) {
	file, err := BuildFile(format, division, tracks)
	if err != nil {
		return nil, err
	}
	return s.store(name, file)
}

// List returns all compositions, newest first, without blob data.
func (s *CompositionService) List() ([]models.Composition, error) {
	var comps []models.Composition
	err := s.db.
		Select("id", "created_at", "updated_at", "public_id", "name", "format", "division", "track_count", "event_count", "byte_size").
		Order("created_at desc").
		Find(&comps).Error
	return comps, err
}

// Get returns one composition by public ID, including blob data.
func (s *CompositionService) Get(publicID string) (*models.Composition, error) {
	var comp models.Composition
	if err := s.db.Where("public_id = ?", publicID).First(&comp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comp, nil
}

// Delete soft-deletes one composition by public ID.
func (s *CompositionService) Delete(publicID string) error {
	res := s.db.Where("public_id = ?", publicID).Delete(&models.Composition{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Decode re-parses a stored composition into the event model.
func (s *CompositionService) Decode(comp *models.Composition) (*smf.File, error) {
	return smf.Decode(comp.Data)
}

// TrackEvents returns an absolute-time window of one track's events.
func (s *CompositionService) TrackEvents(comp *models.Composition, trackIndex, offset, limit int) ([]midi.Event, error) {
	file, err := smf.Decode(comp.Data)
	if err != nil {
		return nil, err
	}
	if trackIndex < 0 || trackIndex >= len(file.Tracks) {
		return nil, fmt.Errorf("%w: %d of %d tracks", ErrBadTrackIndex, trackIndex, len(file.Tracks))
	}
	return file.Tracks[trackIndex].AbsWindow(offset, limit), nil
}

// Merge merges the selected tracks of a stored composition into a new
// format-0 composition and records a MergeLog row.
func (s *CompositionService) Merge(comp *models.Composition, trackIndexes []int, name, requestID, requestedBy string) (*models.Composition, error) {
	start := time.Now()

	file, err := smf.Decode(comp.Data)
	if err != nil {
		return nil, err
	}
	merged, eventCount, err := MergeFile(file, trackIndexes)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = comp.Name + " (merged)"
	}
	result, err := s.store(name, merged)
	if err != nil {
		return nil, err
	}

	tracksIn := len(trackIndexes)
	if tracksIn == 0 {
		tracksIn = comp.TrackCount
	}
	logRow := models.MergeLog{
		SourceID:    comp.PublicID,
		ResultID:    result.PublicID,
		TracksIn:    tracksIn,
		EventsOut:   eventCount,
		DurationMS:  int(time.Since(start).Milliseconds()),
		RequestID:   requestID,
		RequestedBy: requestedBy,
	}
	if err := s.db.Create(&logRow).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (s *CompositionService) store(name string, file *smf.File) (*models.Composition, error) {
	data := file.Encode()

	eventCount := 0
	for _, track := range file.Tracks {
		eventCount += track.EventCount()
	}

	comp := models.Composition{
		PublicID:   uuid.New().String(),
		Name:       name,
		Format:     file.Format,
		Division:   file.TicksPerQuarter,
		TrackCount: len(file.Tracks),
		EventCount: eventCount,
		ByteSize:   len(data),
		Data:       data,
	}
	if err := s.db.Create(&comp).Error; err != nil {
		return nil, err
	}
	return &comp, nil
}
