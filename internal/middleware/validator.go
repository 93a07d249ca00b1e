package middleware

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	actorIDRegex  = regexp.MustCompile(`^[a-zA-Z0-9_\-\.@]{1,64}$`)
	itemTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)
	uuidRegex     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// ValidateActorID checks actor identifier format
func ValidateActorID(actor string) error {
	if actor == "" {
		return fmt.Errorf("actor id is required")
	}
	if !actorIDRegex.MatchString(actor) {
		return fmt.Errorf("invalid actor id format")
	}
	return nil
}

// ValidateRunID checks that a run id is a UUID
func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run id is required")
	}
	if !uuidRegex.MatchString(id) {
		return fmt.Errorf("invalid run id format")
	}
	return nil
}

// ValidateItemType checks content item type format
func ValidateItemType(itemType string) error {
	if itemType == "" {
		return fmt.Errorf("item type is required")
	}
	if !itemTypeRegex.MatchString(itemType) {
		return fmt.Errorf("invalid item type format")
	}
	return nil
}

// ValidateSeverity checks a severity string
func ValidateSeverity(s string) error {
	switch strings.ToLower(s) {
	case "none", "low", "medium", "high":
		return nil
	}
	return fmt.Errorf("invalid severity: %s", s)
}

// ValidateRunMode checks a run mode string
func ValidateRunMode(mode string) error {
	switch mode {
	case "", "sync", "deferred":
		return nil
	}
	return fmt.Errorf("invalid run mode: %s", mode)
}

// ValidateLimit parses and bounds a limit query param
func ValidateLimit(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit: %s", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("limit must be positive")
	}
	if n > max {
		n = max
	}
	return n, nil
}

// SanitizeString trims and strips control characters
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
}
