package reviews

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domain "github.com/bryanwahyu/reviewgate/internal/domain/reviews"
)

func TestIsStale(t *testing.T) {
	run := &domain.RunRecord{Fingerprint: "abc"}
	assert.False(t, IsStale(run, "abc"))
	assert.True(t, IsStale(run, "abd"))
	// equality is exact, case included
	assert.True(t, IsStale(run, "ABC"))
}

func TestIsCacheValid(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fresh := &domain.RunRecord{
		Fingerprint: "fp",
		Status:      domain.StatusSuccess,
		ExecutedAt:  now.Add(-30 * time.Second),
	}

	assert.True(t, IsCacheValid(fresh, "fp", 60, now))

	// ttl zero = never cache
	assert.False(t, IsCacheValid(fresh, "fp", 0, now))

	// expired
	assert.False(t, IsCacheValid(fresh, "fp", 10, now))

	// stale fingerprint
	assert.False(t, IsCacheValid(fresh, "fp2", 60, now))

	// non-success runs never serve from cache
	pending := *fresh
	pending.Status = domain.StatusPending
	assert.False(t, IsCacheValid(&pending, "fp", 60, now))
	failed := *fresh
	failed.Status = domain.StatusFailed
	assert.False(t, IsCacheValid(&failed, "fp", 60, now))

	assert.False(t, IsCacheValid(nil, "fp", 60, now))
}
