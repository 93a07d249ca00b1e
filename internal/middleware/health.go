package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

// HealthChecker reports whether a dependency is usable
type HealthChecker interface {
	Check(ctx context.Context) error
	Name() string
}

// DatabaseHealthChecker pings the review store
type DatabaseHealthChecker struct {
	db   *sql.DB
	name string
}

func NewDatabaseHealthChecker(db *sql.DB, name string) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{db: db, name: name}
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return d.db.PingContext(ctx)
}

func (d *DatabaseHealthChecker) Name() string {
	return d.name
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Time   string            `json:"time"`
}

// HealthHandler runs every checker and reports aggregate status
func HealthHandler(checkers ...HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{
			Status: "ok",
			Checks: make(map[string]string),
			Time:   time.Now().UTC().Format(time.RFC3339),
		}

		code := http.StatusOK
		for _, c := range checkers {
			if err := c.Check(r.Context()); err != nil {
				status.Checks[c.Name()] = err.Error()
				status.Status = "degraded"
				code = http.StatusServiceUnavailable
			} else {
				status.Checks[c.Name()] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	}
}

// ReadinessHandler is strict: any failing checker means not ready
func ReadinessHandler(checkers ...HealthChecker) http.HandlerFunc {
	return HealthHandler(checkers...)
}

// LivenessHandler only proves the process is serving
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(healthStatus{
			Status: "alive",
			Time:   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
