package observability

import (
	"context"
	"net/http"
)

// ReadinessChecker reports whether the service is ready to be considered
// healthy by an orchestrator.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// LivenessHandler answers 200 unconditionally; the process being up is the
// liveness signal.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// ReadinessHandler answers 200 once the checker passes and 503 with the
// failure reason until then.
func ReadinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.CheckReadiness(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
