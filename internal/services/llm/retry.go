package llm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RetryConfig shapes the pause taken when the whole pool is rate limited.
// Rotation handles individual key failures; backoff only matters once every
// key has been tried inside one quota window.
type RetryConfig struct {
	// InitialBackoff is the base wait once the pool wraps around (default: 45s,
	// matching the observed quota window reset)
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between pool passes (default: 90s)
	MaxBackoff time.Duration

	// BackoffMultiplier is applied on each successive pool pass (default: 1.5)
	BackoffMultiplier float64
}

// NewDefaultRetryConfig returns backoff settings tuned for the Gemini API's
// per-minute quota window
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		InitialBackoff:    45 * time.Second,
		MaxBackoff:        90 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// IsRateLimitError checks if an error is a rate limit error.
// Matches 429 status codes and RESOURCE_EXHAUSTED errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from an error
// message. Returns 0 if no delay is found.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the wait for the given pool pass. An API-provided
// delay (from ExtractRetryDelay) overrides the initial backoff; the result is
// capped at MaxBackoff.
func (c *RetryConfig) CalculateBackoff(pass int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay + 5*time.Second
	}

	multiplier := 1.0
	for i := 0; i < pass; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}

	return backoff
}
