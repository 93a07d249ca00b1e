package findings

import (
	"fmt"
	"strings"
)

// Severity enum, total order none < low < medium < high
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank returns the fixed numeric rank (none=0 .. high=3).
// Comparisons must go through Rank, never lexical string compare.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// Exceeds reports whether s meets or exceeds threshold in the total order.
func (s Severity) Exceeds(threshold Severity) bool {
	return s.Rank() >= threshold.Rank()
}

func (s Severity) String() string { return string(s) }

// ParseSeverity parses case-insensitively. Provider output sometimes uses a
// wider scale; "critical" clamps to high, "info"/"informational" to none.
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "none", "info", "informational":
		return SeverityNone, nil
	case "low":
		return SeverityLow, nil
	case "medium", "moderate":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityHigh, nil
	default:
		return SeverityNone, fmt.Errorf("invalid severity: %q", raw)
	}
}

// SeverityCounts value object
type SeverityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Total  int `json:"total"`
}

// Add counts one finding severity. SeverityNone increments Total only.
func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	}
	c.Total++
}

// Max returns the highest severity represented in the counts.
func (c SeverityCounts) Max() Severity {
	switch {
	case c.High > 0:
		return SeverityHigh
	case c.Medium > 0:
		return SeverityMedium
	case c.Low > 0:
		return SeverityLow
	default:
		return SeverityNone
	}
}
