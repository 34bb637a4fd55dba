package report

import (
	"strings"
)

// ValidationResult is the structured outcome of one phase validation.
// Callers log the individual checks and use MissingMarkers to build the
// next retry's enforcement directive.
type ValidationResult struct {
	Pass            bool
	TerminalFound   bool
	CharCount       int
	MinCharsMet     bool
	MarkersFound    int
	MarkersRequired int
	MissingMarkers  []string
	ForbiddenFound  []string
	TruncationHit   bool
}

// Checks returns the per-predicate verdicts keyed by check name
func (v ValidationResult) Checks() map[string]bool {
	return map[string]bool{
		"terminal_marker":    v.TerminalFound,
		"min_length":         v.MinCharsMet,
		"required_markers":   v.MarkersFound >= v.MarkersRequired,
		"no_contamination":   len(v.ForbiddenFound) == 0,
		"no_truncation_mark": !v.TruncationHit,
	}
}

// FailedChecks returns the names of checks that did not hold
func (v ValidationResult) FailedChecks() []string {
	var failed []string
	for name, ok := range v.Checks() {
		if !ok {
			failed = append(failed, name)
		}
	}
	return failed
}

// Validate inspects accumulated phase output against the phase's completion
// criteria. Pure function; all checks must hold for Pass.
func Validate(text string, criteria CompletionCriteria) ValidationResult {
	result := ValidationResult{
		CharCount:       len(text),
		MarkersRequired: criteria.MinMarkerCount,
	}

	result.TerminalFound = criteria.TerminalMarker != "" && strings.Contains(text, criteria.TerminalMarker)
	result.MinCharsMet = len(text) >= criteria.MinChars

	for _, marker := range criteria.RequiredMarkers {
		if strings.Contains(text, marker) {
			result.MarkersFound++
		} else {
			result.MissingMarkers = append(result.MissingMarkers, marker)
		}
	}

	for _, marker := range criteria.ForbiddenMarkers {
		if strings.Contains(text, marker) {
			result.ForbiddenFound = append(result.ForbiddenFound, marker)
		}
	}

	// The fingerprint only counts as truncation when nothing proves the
	// model kept generating past it. Terminal marker after the last hit
	// clears it.
	if criteria.TruncationFingerprint != "" {
		if idx := strings.LastIndex(strings.ToLower(text), strings.ToLower(criteria.TruncationFingerprint)); idx >= 0 {
			rest := text[idx:]
			if criteria.TerminalMarker == "" || !strings.Contains(rest, criteria.TerminalMarker) {
				result.TruncationHit = true
			}
		}
	}

	result.Pass = result.TerminalFound &&
		result.MinCharsMet &&
		result.MarkersFound >= criteria.MinMarkerCount &&
		len(result.ForbiddenFound) == 0 &&
		!result.TruncationHit

	return result
}
