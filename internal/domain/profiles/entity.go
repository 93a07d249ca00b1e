package profiles

import (
	"fmt"

	"github.com/bryanwahyu/reviewgate/internal/domain/findings"
)

// RunMode enum
type RunMode string

const (
	ModeSync     RunMode = "sync"
	ModeDeferred RunMode = "deferred"
	// ModeDefault defers the choice to the system-wide default.
	ModeDefault RunMode = ""
)

// AnalyzerConfig is one enabled-analyzer entry. Options is the per-analyzer
// configuration blob passed through to the analyzer untouched.
type AnalyzerConfig struct {
	ID      string         `json:"id" yaml:"id"`
	Enabled bool           `json:"enabled" yaml:"enabled"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// ExecutionSettings controls how a review run is scheduled and retried.
type ExecutionSettings struct {
	Mode             RunMode `json:"mode" yaml:"mode"`
	CacheTTLSeconds  int     `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
	StepDelaySeconds int     `json:"step_delay_seconds" yaml:"step_delay_seconds"`
	RetryEnabled     bool    `json:"retry_enabled" yaml:"retry_enabled"`
	MaxRetries       int     `json:"max_retries" yaml:"max_retries"`
	BackoffBase      float64 `json:"backoff_base_seconds" yaml:"backoff_base_seconds"`
	BackoffMult      float64 `json:"backoff_multiplier" yaml:"backoff_multiplier"`
}

// GatingSettings controls the transition gate.
type GatingSettings struct {
	Enabled            bool              `json:"enabled" yaml:"enabled"`
	Threshold          findings.Severity `json:"threshold" yaml:"threshold"`
	BlockedTransitions []string          `json:"blocked_transitions" yaml:"blocked_transitions"`
	RequireAck         bool              `json:"require_ack" yaml:"require_ack"`
	// AllowOverride lets actors holding the override capability bypass the
	// gate. Off until the permission wiring lands.
	AllowOverride bool `json:"allow_override" yaml:"allow_override"`
}

// AISettings names the inference provider and model a profile uses.
type AISettings struct {
	ProviderID  string  `json:"provider_id" yaml:"provider_id"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float32 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
}

// Aggregate Root: Profile — read-only to the orchestrator and gate.
type Profile struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	Analyzers []AnalyzerConfig  `json:"analyzers" yaml:"analyzers"`
	Execution ExecutionSettings `json:"execution" yaml:"execution"`
	Gating    GatingSettings    `json:"gating" yaml:"gating"`
	AI        AISettings        `json:"ai" yaml:"ai"`
}

// EnabledAnalyzers returns enabled analyzer ids in declaration order.
// This order is the enumeration order used by aggregation.
func (p *Profile) EnabledAnalyzers() []string {
	out := make([]string, 0, len(p.Analyzers))
	for _, a := range p.Analyzers {
		if a.Enabled {
			out = append(out, a.ID)
		}
	}
	return out
}

// AnalyzerConfig looks up the config entry for one analyzer id.
func (p *Profile) AnalyzerConfig(id string) (AnalyzerConfig, bool) {
	for _, a := range p.Analyzers {
		if a.ID == id {
			return a, true
		}
	}
	return AnalyzerConfig{}, false
}

// BlocksTransition reports whether the transition id is gated by this profile.
func (g GatingSettings) BlocksTransition(transitionID string) bool {
	for _, t := range g.BlockedTransitions {
		if t == transitionID {
			return true
		}
	}
	return false
}

// Validate applies defaults and rejects impossible settings. Called at load
// time so the rest of the code never needs fallback checks.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	switch p.Execution.Mode {
	case ModeSync, ModeDeferred, ModeDefault:
	default:
		return fmt.Errorf("profile %s: invalid run mode %q", p.ID, p.Execution.Mode)
	}
	if p.Execution.CacheTTLSeconds < 0 {
		return fmt.Errorf("profile %s: cache ttl must be >= 0", p.ID)
	}
	if p.Execution.StepDelaySeconds < 0 {
		return fmt.Errorf("profile %s: step delay must be >= 0", p.ID)
	}
	if p.Execution.MaxRetries < 0 {
		return fmt.Errorf("profile %s: max retries must be >= 0", p.ID)
	}
	if p.Execution.MaxRetries == 0 {
		p.Execution.MaxRetries = 3
	}
	if p.Execution.BackoffBase <= 0 {
		p.Execution.BackoffBase = 2
	}
	if p.Execution.BackoffMult <= 0 {
		p.Execution.BackoffMult = 2
	}
	if p.Gating.Threshold == "" {
		p.Gating.Threshold = findings.SeverityHigh
	}
	switch p.Gating.Threshold {
	case findings.SeverityLow, findings.SeverityMedium, findings.SeverityHigh:
	default:
		return fmt.Errorf("profile %s: invalid gating threshold %q", p.ID, p.Gating.Threshold)
	}
	seen := make(map[string]bool, len(p.Analyzers))
	for _, a := range p.Analyzers {
		if a.ID == "" {
			return fmt.Errorf("profile %s: analyzer entry without id", p.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("profile %s: duplicate analyzer %q", p.ID, a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}
