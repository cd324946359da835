package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordMerge records track merge metrics
func (m *SentryMetrics) RecordMerge(ctx context.Context, tracksIn, eventsOut int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "midi.merge")
	defer span.Finish()

	span.SetTag("tracks_in", fmt.Sprintf("%d", tracksIn))
	span.SetData("tracks_in", tracksIn)
	span.SetData("events_out", eventsOut)
	span.SetData("duration_ms", duration.Milliseconds())

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Track Merge: %d tracks", tracksIn)
}

// RecordCodec records SMF decode/encode metrics
func (m *SentryMetrics) RecordCodec(ctx context.Context, operation string, byteSize, eventCount int) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "smf."+operation)
	defer span.Finish()

	span.SetTag("operation", operation)
	span.SetData("byte_size", byteSize)
	span.SetData("event_count", eventCount)

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("SMF %s: %d bytes", operation, byteSize)
}
