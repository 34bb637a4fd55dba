package llm

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/services/report"
)

// NewGenerator creates the configured report generator backend
func NewGenerator(cfg *common.Config, sanitizer report.Sanitizer, logger arbor.ILogger) (report.Generator, error) {
	provider := cfg.LLM.DefaultProvider
	logger.Info().Str("provider", string(provider)).Msg("Initializing generation backend")

	switch provider {
	case common.LLMProviderGemini:
		pool, err := LoadKeyPool(cfg.Gemini.KeysFile, cfg.Gemini.APIKey, logger)
		if err != nil {
			return nil, fmt.Errorf("gemini credentials unavailable (set gemini.keys_file or PROSPECTUS_GEMINI_API_KEY): %w", err)
		}
		return NewGeminiGenerator(pool, cfg.LLM.MaxKeyAttempts, cfg.GeminiTimeout(), sanitizer, logger), nil

	case common.LLMProviderClaude:
		return NewClaudeGenerator(cfg.Claude.APIKey, cfg.Claude.MaxTokens, cfg.ClaudeTimeout(), sanitizer, logger)

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// GenerationConfigFor builds the per-call model configuration for the
// active provider.
func GenerationConfigFor(cfg *common.Config) report.GenerationConfig {
	if cfg.LLM.DefaultProvider == common.LLMProviderClaude {
		return report.GenerationConfig{
			Model:           cfg.Claude.Model,
			Temperature:     cfg.Claude.Temperature,
			MaxOutputTokens: int32(cfg.Claude.MaxTokens),
		}
	}
	return report.GenerationConfig{
		Model:           cfg.Gemini.Model,
		Temperature:     cfg.Gemini.Temperature,
		TopP:            cfg.Gemini.TopP,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
		WebSearch:       cfg.Gemini.WebSearch,
	}
}

// DetectProvider infers the provider from a model identifier
func DetectProvider(model string) common.LLMProvider {
	if strings.HasPrefix(model, "claude") {
		return common.LLMProviderClaude
	}
	return common.LLMProviderGemini
}

// ModelFor returns the configured model for the active provider
func ModelFor(cfg *common.Config) string {
	if cfg.LLM.DefaultProvider == common.LLMProviderClaude {
		return cfg.Claude.Model
	}
	return cfg.Gemini.Model
}
