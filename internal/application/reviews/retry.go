package reviews

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/bryanwahyu/reviewgate/internal/domain/ai"
	"github.com/bryanwahyu/reviewgate/internal/domain/profiles"
)

// rate-limit heuristics — the provider error message text is the only signal
// available, there is no structured error code.
var rateLimitMarkers = []string{
	"rate limit",
	"too many requests",
	"429",
	"quota exceeded",
	"throttle",
}

var rateLimitRe = regexp.MustCompile(`(?i)exceeded.*limit`)

// IsRateLimited classifies an error as transient rate-limiting.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ai.ErrQuotaExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return rateLimitRe.MatchString(msg)
}

// RetryPolicy decides, uniformly for the synchronous and deferred paths,
// whether a failed attempt should be retried and after how long.
type RetryPolicy struct {
	Enabled    bool
	MaxRetries int
	Base       float64 // seconds
	Multiplier float64
}

// PolicyFromProfile builds the retry policy out of a profile's execution
// settings (already defaulted by Validate).
func PolicyFromProfile(es profiles.ExecutionSettings) RetryPolicy {
	return RetryPolicy{
		Enabled:    es.RetryEnabled,
		MaxRetries: es.MaxRetries,
		Base:       es.BackoffBase,
		Multiplier: es.BackoffMult,
	}
}

// Next returns whether attempt number `attempt` (zero-based) should be
// retried after err, and the backoff delay base × multiplier^attempt.
func (p RetryPolicy) Next(err error, attempt int) (bool, time.Duration) {
	if !p.Enabled || err == nil {
		return false, 0
	}
	if !IsRateLimited(err) {
		return false, 0
	}
	if attempt >= p.MaxRetries {
		return false, 0
	}
	secs := p.Base * math.Pow(p.Multiplier, float64(attempt))
	return true, time.Duration(secs * float64(time.Second))
}
