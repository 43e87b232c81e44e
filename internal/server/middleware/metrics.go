package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/cloudpilot-dev/cloudpilot/internal/instrumentation"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing the header.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures that a response was written.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter to support http.Flusher etc.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Flush implements http.Flusher for streaming responses.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTPMetrics creates middleware that records request counts and durations
// per method/path/status. Paths are normalized before recording to keep
// metric cardinality bounded.
//
// The provider parameter may be nil, in which case the middleware passes
// requests straight through.
func HTTPMetrics(provider *instrumentation.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if provider == nil || !provider.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			provider.Metrics().RecordHTTPRequest(
				r.Context(),
				r.Method,
				normalizePath(r.URL.Path),
				wrapped.statusCode,
				time.Since(start),
			)
		})
	}
}

// Regex patterns for path normalization to control metric cardinality.
var (
	uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

	// Resource names in paths like /api/v1/resources/pods/my-pod-abc123.
	resourceNamePattern = regexp.MustCompile(`^(/api/v1/resources/[a-z-]+)/.+$`)
)

// normalizePath replaces dynamic path segments with placeholders.
func normalizePath(path string) string {
	path = uuidPattern.ReplaceAllString(path, ":uuid")
	path = resourceNamePattern.ReplaceAllString(path, "$1/:name")
	return path
}
