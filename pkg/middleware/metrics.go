package middleware

import (
	"net/http"
	"time"
)

// Recorder receives one completed HTTP request for metrics exposition.
type Recorder interface {
	RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration)
}

// Metrics creates a middleware that records every request with the recorder
func Metrics(rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sr, r)

			rec.RecordHTTPRequest(r.URL.Path, sr.status, time.Since(start))
		})
	}
}
