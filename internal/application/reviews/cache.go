package reviews

import (
	"time"

	domain "github.com/bryanwahyu/reviewgate/internal/domain/reviews"
)

// IsStale reports whether the run's stored fingerprint no longer matches the
// freshly computed one. Pure equality — no normalization, no partial match.
func IsStale(run *domain.RunRecord, fingerprint string) bool {
	return run.Fingerprint != fingerprint
}

// IsCacheValid reports whether an existing run may be reused instead of
// starting new work. ttlSeconds of zero means never cache.
func IsCacheValid(run *domain.RunRecord, fingerprint string, ttlSeconds int, now time.Time) bool {
	if run == nil || ttlSeconds <= 0 {
		return false
	}
	if run.Status != domain.StatusSuccess {
		return false
	}
	if IsStale(run, fingerprint) {
		return false
	}
	return now.Sub(run.ExecutedAt) < time.Duration(ttlSeconds)*time.Second
}
