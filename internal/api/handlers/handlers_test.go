package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/tracklab/midikit/internal/config"
	"github.com/tracklab/midikit/internal/services"
	"github.com/tracklab/midikit/internal/smf"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/compositions", nil)
	return c, rec
}

func TestRenderErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"bad track index", services.ErrBadTrackIndex, http.StatusBadRequest},
		{"wrapped bad track index", fmt.Errorf("merge: %w", services.ErrBadTrackIndex), http.StatusBadRequest},
		{"bad format", smf.ErrFormat, http.StatusBadRequest},
		{"truncated upload", fmt.Errorf("track 2: %w", smf.ErrTruncated), http.StatusBadRequest},
		{"corrupt varlen", smf.ErrVarLen, http.StatusBadRequest},
		{"anything else", fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	h := &CompositionsHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := testContext()
			h.renderError(c, tt.err)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestBuildRejectsOversizedDivision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	body := `{"name":"x","division":65536,"tracks":[{"events":[{"type":"note_on","note":60,"velocity":100}]}]}`
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/compositions", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h := &CompositionsHandler{cfg: &config.Config{DefaultDivision: smf.DefaultDivision}}
	h.Build(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "division")
}

func TestIntQuery(t *testing.T) {
	c, _ := testContext()
	c.Request = httptest.NewRequest(http.MethodGet, "/x?offset=25&limit=abc&neg=-3", nil)

	assert.Equal(t, 25, intQuery(c, "offset", 0))
	assert.Equal(t, 512, intQuery(c, "limit", 512))
	assert.Equal(t, 7, intQuery(c, "neg", 7))
	assert.Equal(t, 0, intQuery(c, "missing", 0))
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42.00s"},
		{3*time.Minute + 1500*time.Millisecond, "3m1.50s"},
		{2*time.Hour + 5*time.Minute + 30*time.Second, "2h5m30.00s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.d))
	}
}
