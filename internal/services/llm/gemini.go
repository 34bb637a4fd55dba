package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/prospectus/internal/services/report"
)

// GeminiGenerator streams completions from the Gemini API with credential
// rotation. Implements report.Generator.
type GeminiGenerator struct {
	pool           *KeyPool
	maxAttempts    int
	attemptTimeout time.Duration
	retry          *RetryConfig
	sanitizer      report.Sanitizer
	logger         arbor.ILogger
}

// NewGeminiGenerator creates a rotating-credential Gemini generator
func NewGeminiGenerator(pool *KeyPool, maxAttempts int, attemptTimeout time.Duration, sanitizer report.Sanitizer, logger arbor.ILogger) *GeminiGenerator {
	if maxAttempts <= 0 {
		maxAttempts = 100
	}
	return &GeminiGenerator{
		pool:           pool,
		maxAttempts:    maxAttempts,
		attemptTimeout: attemptTimeout,
		retry:          NewDefaultRetryConfig(),
		sanitizer:      sanitizer,
		logger:         logger,
	}
}

// Generate issues one streaming completion, rotating to the next credential
// on any failure. Causes are not distinguished beyond logging; every error is
// retryable until the attempt budget is spent. When the whole pool has been
// tried inside one rate-limit window, waits out the suggested delay before
// the next pass.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, config report.GenerationConfig, stream report.StreamCallbacks) (string, int, error) {
	var lastErr error

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}

		key := g.pool.Next()
		text, chunks, err := g.attempt(ctx, key, prompt, config, stream)
		if err == nil {
			return g.sanitizer.Sanitize(text), chunks, nil
		}
		lastErr = err
		g.logger.Warn().
			Int("attempt", attempt).
			Int("pool_size", g.pool.Size()).
			Err(err).
			Msg("Generation attempt failed, rotating credential")

		if IsRateLimitError(err) && attempt%g.pool.Size() == 0 {
			pass := attempt/g.pool.Size() - 1
			delay := g.retry.CalculateBackoff(pass, ExtractRetryDelay(err))
			g.logger.Info().Str("delay", delay.String()).Msg("Entire pool rate limited, backing off")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", 0, ctx.Err()
			}
		}
	}

	return "", 0, fmt.Errorf("all %d credential attempts failed: %w", g.maxAttempts, lastErr)
}

func (g *GeminiGenerator) attempt(ctx context.Context, key, prompt string, config report.GenerationConfig, stream report.StreamCallbacks) (string, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()

	client, err := genai.NewClient(attemptCtx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(config.Temperature),
		TopP:            genai.Ptr(config.TopP),
		MaxOutputTokens: config.MaxOutputTokens,
	}
	if config.SystemInstruction != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(config.SystemInstruction, genai.RoleUser)
	}
	if config.WebSearch {
		genConfig.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var accumulated strings.Builder
	chunks := 0

	// A fresh attempt discards anything a dead credential already streamed.
	if stream.AttemptStart != nil {
		stream.AttemptStart()
	}

	for resp, err := range client.Models.GenerateContentStream(attemptCtx, config.Model, contents, genConfig) {
		if err != nil {
			return "", chunks, fmt.Errorf("stream error after %d chunks: %w", chunks, err)
		}
		fragment := responseText(resp)
		if fragment == "" {
			continue
		}
		accumulated.WriteString(fragment)
		chunks++
		if stream.Fragment != nil {
			stream.Fragment(fragment)
		}
	}

	if accumulated.Len() == 0 {
		return "", 0, fmt.Errorf("empty response from model %s", config.Model)
	}

	return accumulated.String(), chunks, nil
}

// responseText concatenates the text parts of one streamed response
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}
