package middleware

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics holds process counters for the review service
type Metrics struct {
	RequestsTotal   int64
	RequestsFailed  int64
	ReviewsTotal    int64
	ReviewsRunning  int64
	ReviewsFailed   int64
	GateEvaluations int64
	GateBlocked     int64
	StartTime       time.Time
}

var metrics = &Metrics{StartTime: time.Now()}

func IncrementReviews()   { atomic.AddInt64(&metrics.ReviewsTotal, 1) }
func IncrementRunning()   { atomic.AddInt64(&metrics.ReviewsRunning, 1) }
func DecrementRunning()   { atomic.AddInt64(&metrics.ReviewsRunning, -1) }
func IncrementFailed()    { atomic.AddInt64(&metrics.ReviewsFailed, 1) }
func IncrementGateEvals() { atomic.AddInt64(&metrics.GateEvaluations, 1) }
func IncrementGateBlocks() {
	atomic.AddInt64(&metrics.GateBlocked, 1)
}

// MetricsMiddleware counts requests and failures
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&metrics.RequestsTotal, 1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 500 {
			atomic.AddInt64(&metrics.RequestsFailed, 1)
		}
	})
}

// MetricsHandler exposes counters as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := map[string]any{
		"requests_total":   atomic.LoadInt64(&metrics.RequestsTotal),
		"requests_failed":  atomic.LoadInt64(&metrics.RequestsFailed),
		"reviews_total":    atomic.LoadInt64(&metrics.ReviewsTotal),
		"reviews_running":  atomic.LoadInt64(&metrics.ReviewsRunning),
		"reviews_failed":   atomic.LoadInt64(&metrics.ReviewsFailed),
		"gate_evaluations": atomic.LoadInt64(&metrics.GateEvaluations),
		"gate_blocked":     atomic.LoadInt64(&metrics.GateBlocked),
		"uptime_seconds":   int64(time.Since(metrics.StartTime).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}
