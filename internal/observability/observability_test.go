package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_FormatAndLevel(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, "info", "json")
		logger.Info("hello", "key", "value")

		assert.True(t, strings.HasPrefix(buf.String(), "{"), "expected JSON output")
		assert.Contains(t, buf.String(), `"key":"value"`)
	})

	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, "info", "text")
		logger.Info("hello")

		assert.False(t, strings.HasPrefix(buf.String(), "{"))
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("debug suppressed at info level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, "info", "json")
		logger.Debug("invisible")

		assert.Empty(t, buf.String())
	})

	t.Run("debug emitted at debug level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, "debug", "json")
		logger.Debug("visible")

		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, "loud", "json")
		logger.Info("still logged")

		assert.Contains(t, buf.String(), "still logged")
	})
}

type stubChecker struct{ err error }

func (s *stubChecker) CheckReadiness(context.Context) error { return s.err }

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	checker := &stubChecker{err: errors.New("warming up")}
	handler := ReadinessHandler(checker)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "warming up")

	checker.err = nil
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewMetricsForTesting_IsUnregistered(t *testing.T) {
	// Two instances must not panic the way double-registration against the
	// default registry would.
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.RecordsGenerated.Add(10)
	b.RecordsGenerated.Add(3)
	a.StageDuration.WithLabelValues("generate").Observe(0.01)
	b.StageErrors.WithLabelValues("train").Inc()
}
