package model

import (
	"fmt"
	"strings"
)

// Severity represents how urgently an issue should be addressed.
//
// Severities are iota-based so that they sort naturally; the textual form is
// used for JSON and for database storage.
type Severity int

const (
	// SeverityLow indicates cosmetic or advisory issues.
	// Examples: javascript-only links, links that need a manual check.
	SeverityLow Severity = iota

	// SeverityMedium indicates issues that degrade quality but do not break
	// navigation. Examples: thin content, broken external links.
	SeverityMedium

	// SeverityHigh indicates issues that break the visitor's experience.
	// Example: an internal link that returns 404.
	SeverityHigh

	// SeverityCritical indicates issues that need immediate attention.
	SeverityCritical
)

// severityWeights holds the score penalty applied per issue of each severity.
var severityWeights = map[Severity]float64{
	SeverityCritical: 10,
	SeverityHigh:     5,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Weight returns the score penalty for one issue of this severity.
// Unknown severities weigh 1.
func (s Severity) Weight() float64 {
	if w, ok := severityWeights[s]; ok {
		return w
	}
	return 1
}

// ParseSeverity converts a textual severity (case-insensitive) to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return SeverityLow, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AllSeverities returns severities from most to least urgent.
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}
