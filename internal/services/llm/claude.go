package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/services/report"
)

// ClaudeGenerator streams completions from the Anthropic API. Implements
// report.Generator. Claude runs with a single key, so failures retry the
// same credential a few times rather than rotating a pool.
type ClaudeGenerator struct {
	client         anthropic.Client
	maxTokens      int64
	maxAttempts    int
	attemptTimeout time.Duration
	sanitizer      report.Sanitizer
	logger         arbor.ILogger
}

const claudeMaxAttempts = 3

// NewClaudeGenerator creates an Anthropic-backed generator
func NewClaudeGenerator(apiKey string, maxTokens int, attemptTimeout time.Duration, sanitizer report.Sanitizer, logger arbor.ILogger) (*ClaudeGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required (set ANTHROPIC_API_KEY or claude.api_key)")
	}
	if maxTokens <= 0 {
		maxTokens = 64000
	}
	return &ClaudeGenerator{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		maxTokens:      int64(maxTokens),
		maxAttempts:    claudeMaxAttempts,
		attemptTimeout: attemptTimeout,
		sanitizer:      sanitizer,
		logger:         logger,
	}, nil
}

// Generate issues one streaming message call, retrying transient failures
func (g *ClaudeGenerator) Generate(ctx context.Context, prompt string, config report.GenerationConfig, stream report.StreamCallbacks) (string, int, error) {
	var lastErr error

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}

		text, chunks, err := g.attempt(ctx, prompt, config, stream)
		if err == nil {
			return g.sanitizer.Sanitize(text), chunks, nil
		}
		lastErr = err
		g.logger.Warn().Int("attempt", attempt).Err(err).Msg("Claude generation attempt failed")

		if IsRateLimitError(err) {
			delay := ExtractRetryDelay(err)
			if delay == 0 {
				delay = 30 * time.Second
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", 0, ctx.Err()
			}
		}
	}

	return "", 0, fmt.Errorf("all %d claude attempts failed: %w", g.maxAttempts, lastErr)
}

func (g *ClaudeGenerator) attempt(ctx context.Context, prompt string, config report.GenerationConfig, stream report.StreamCallbacks) (string, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(config.Model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(config.Temperature))
	}
	if config.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: config.SystemInstruction},
		}
	}

	events := g.client.Messages.NewStreaming(attemptCtx, params)

	var accumulated strings.Builder
	chunks := 0

	// A fresh attempt discards anything an aborted attempt already streamed.
	if stream.AttemptStart != nil {
		stream.AttemptStart()
	}

	for events.Next() {
		event := events.Current()
		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				accumulated.WriteString(delta.Text)
				chunks++
				if stream.Fragment != nil {
					stream.Fragment(delta.Text)
				}
			}
		}
	}
	if err := events.Err(); err != nil {
		return "", chunks, fmt.Errorf("stream error after %d chunks: %w", chunks, err)
	}

	if accumulated.Len() == 0 {
		return "", 0, fmt.Errorf("empty response from model %s", config.Model)
	}

	return accumulated.String(), chunks, nil
}
