package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tracklab/midikit/internal/api/middleware"
	"github.com/tracklab/midikit/internal/config"
	"github.com/tracklab/midikit/internal/logger"
	"github.com/tracklab/midikit/internal/metrics"
	"github.com/tracklab/midikit/internal/midi"
	"github.com/tracklab/midikit/internal/models"
	"github.com/tracklab/midikit/internal/services"
	"github.com/tracklab/midikit/internal/smf"
)

const (
	defaultEventLimit = 512
	maxEventLimit     = 4096
)

type CompositionsHandler struct {
	svc           *services.CompositionService
	cfg           *config.Config
	cloudwatch    *metrics.Client
	sentryMetrics *metrics.SentryMetrics
}

func NewCompositionsHandler(
	svc *services.CompositionService,
	cfg *config.Config,
	cloudwatch *metrics.Client,
	sentryMetrics *metrics.SentryMetrics,
) *CompositionsHandler {
	return &CompositionsHandler{
		svc:           svc,
		cfg:           cfg,
		cloudwatch:    cloudwatch,
		sentryMetrics: sentryMetrics,
	}
}

type BuildRequest struct {
	Name     string                `json:"name" binding:"required"`
	Format   int                   `json:"format"`
	Division int                   `json:"division"`
	Tracks   []services.TrackInput `json:"tracks" binding:"required"`
}

type CompositionResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Format     int    `json:"format"`
	Division   int    `json:"division"`
	TrackCount int    `json:"track_count"`
	EventCount int    `json:"event_count"`
	ByteSize   int    `json:"byte_size"`
	CreatedAt  string `json:"created_at"`
}

type CompositionDetailResponse struct {
	CompositionResponse
	Tracks []services.TrackSummary `json:"tracks"`
}

type MergeRequest struct {
	Name   string `json:"name"`
	Tracks []int  `json:"tracks"`
}

// Build assembles a new composition from structured track/event input.
func (h *CompositionsHandler) Build(c *gin.Context) {
	var req BuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Division <= 0 {
		req.Division = h.cfg.DefaultDivision
	}
	if req.Division > smf.MaxDivision {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("division must be between 1 and %d", smf.MaxDivision)})
		return
	}
	if req.Format != smf.Format0 && req.Format != smf.Format1 {
		req.Format = smf.Format1
	}

	userID, _ := middleware.UserID(c)
	log.Printf("🎼 Build request from user %s: %d tracks", userID, len(req.Tracks))

	comp, err := h.svc.Build(req.Name, req.Format, req.Division, req.Tracks)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.cloudwatch.RecordCodecUsage("encode", comp.ByteSize, comp.EventCount)
	h.sentryMetrics.RecordCodec(c.Request.Context(), "encode", comp.ByteSize, comp.EventCount)

	c.JSON(http.StatusCreated, compositionResponse(comp))
}

// Import decodes an uploaded Standard MIDI File and stores it. Accepts
// either a multipart "file" field or a raw body.
func (h *CompositionsHandler) Import(c *gin.Context) {
	raw, name, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if qname := c.Query("name"); qname != "" {
		name = qname
	}
	if name == "" {
		name = "untitled"
	}

	userID, _ := middleware.UserID(c)
	log.Printf("📥 Import request from user %s: %s (%d bytes)", userID, name, len(raw))

	comp, err := h.svc.Import(name, raw)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.cloudwatch.RecordCodecUsage("decode", comp.ByteSize, comp.EventCount)
	h.sentryMetrics.RecordCodec(c.Request.Context(), "decode", comp.ByteSize, comp.EventCount)

	c.JSON(http.StatusCreated, compositionResponse(comp))
}

func (h *CompositionsHandler) readUpload(c *gin.Context) ([]byte, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)

	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		raw, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		return raw, file.Filename, nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, "", err
	}
	if len(raw) == 0 {
		return nil, "", errors.New("empty upload")
	}
	return raw, "", nil
}

// List returns all compositions, newest first.
func (h *CompositionsHandler) List(c *gin.Context) {
	comps, err := h.svc.List()
	if err != nil {
		h.renderError(c, err)
		return
	}

	out := make([]CompositionResponse, len(comps))
	for i := range comps {
		out[i] = compositionResponse(&comps[i])
	}
	c.JSON(http.StatusOK, gin.H{"compositions": out, "count": len(out)})
}

// Get returns one composition with per-track summaries.
func (h *CompositionsHandler) Get(c *gin.Context) {
	comp, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	file, err := h.svc.Decode(comp)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, CompositionDetailResponse{
		CompositionResponse: compositionResponse(comp),
		Tracks:              services.Summaries(file),
	})
}

// TrackEvents returns a paged absolute-time window of one track.
func (h *CompositionsHandler) TrackEvents(c *gin.Context) {
	comp, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	trackIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid track index"})
		return
	}
	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", defaultEventLimit)
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	events, err := h.svc.TrackEvents(comp, trackIndex, offset, limit)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if events == nil {
		events = []midi.Event{}
	}

	c.JSON(http.StatusOK, gin.H{
		"track":  trackIndex,
		"offset": offset,
		"events": events,
		"count":  len(events),
	})
}

// Download streams the stored composition as a .mid file.
func (h *CompositionsHandler) Download(c *gin.Context) {
	comp, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	filename := comp.Name
	if filename == "" {
		filename = comp.PublicID
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".mid"))
	c.Data(http.StatusOK, "audio/midi", comp.Data)
}

// Merge merges selected tracks of a composition into a new format-0
// composition and returns it.
func (h *CompositionsHandler) Merge(c *gin.Context) {
	start := time.Now()

	comp, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	var req MergeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	userID, _ := middleware.UserID(c)
	requestID := c.GetString("request_id")

	result, err := h.svc.Merge(comp, req.Tracks, req.Name, requestID, userID)
	duration := time.Since(start)
	if err != nil {
		h.cloudwatch.RecordMergeDuration(duration, false)
		h.renderError(c, err)
		return
	}

	h.cloudwatch.RecordMergeDuration(duration, true)
	h.sentryMetrics.RecordMerge(c.Request.Context(), comp.TrackCount, result.EventCount, duration)
	logger.LogMergeRequest(comp.PublicID, comp.TrackCount, result.EventCount, duration, logger.Fields{
		"result_id": result.PublicID,
		"user_id":   userID,
	})

	c.JSON(http.StatusCreated, compositionResponse(result))
}

// Delete removes a composition.
func (h *CompositionsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *CompositionsHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBadTrackIndex),
		errors.Is(err, smf.ErrFormat),
		errors.Is(err, smf.ErrTruncated),
		errors.Is(err, smf.ErrVarLen):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Composition request failed", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func compositionResponse(comp *models.Composition) CompositionResponse {
	return CompositionResponse{
		ID:         comp.PublicID,
		Name:       comp.Name,
		Format:     comp.Format,
		Division:   comp.Division,
		TrackCount: comp.TrackCount,
		EventCount: comp.EventCount,
		ByteSize:   comp.ByteSize,
		CreatedAt:  comp.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
