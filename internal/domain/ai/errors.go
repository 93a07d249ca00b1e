package ai

import "errors"

// ErrQuotaExceeded indicates the provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrUnavailable indicates the provider could not be reached at all.
var ErrUnavailable = errors.New("ai provider unavailable")

// ErrUnknownProvider indicates the requested provider id has no client configured.
var ErrUnknownProvider = errors.New("unknown ai provider")
