package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_DevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, true, "")

	log.Debug("dbg", "a", 1)
	log.WithFields(map[string]any{"req_id": "123"}).Info("hello", "k", "v")

	out := buf.String()
	for _, want := range []string{"level=DEBUG", "msg=dbg", "a=1", "level=INFO", "req_id=123", "k=v"} {
		assert.Contains(t, out, want)
	}
}

func TestNewLogger_ProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, false, "")

	log.Debug("hidden")
	log.Warn("careful", "n", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "careful", entry["msg"])
}

func TestNewLogger_LevelOverride(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter(&buf, true, "error")

	log.Info("nope")
	log.Error("yes")

	assert.NotContains(t, buf.String(), "nope")
	assert.Contains(t, buf.String(), "yes")
}

func TestRequestLogger_StoresLoggerAndLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter(&buf, true, "")

	var fromCtx *Logger
	h := middleware.RequestID(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetLoggerFromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))

	require.NotNil(t, fromCtx)
	assert.NotSame(t, fallback, fromCtx)

	out := buf.String()
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "path=/api/nothing")
	assert.Contains(t, out, "request_id=")
}

func TestGetLoggerFromContext_Fallback(t *testing.T) {
	assert.Same(t, fallback, GetLoggerFromContext(context.Background()))
}
