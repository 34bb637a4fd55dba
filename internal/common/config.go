package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Logging     LoggingConfig    `toml:"logging"`
	MarketData  MarketDataConfig `toml:"marketdata"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
	Report      ReportConfig     `toml:"report"`
	WebSocket   WebSocketConfig  `toml:"websocket"`
	Convert     ConvertConfig    `toml:"convert"`
	Storage     StorageConfig    `toml:"storage"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// MarketDataConfig contains the market data API configuration
type MarketDataConfig struct {
	BaseURL        string        `toml:"base_url"`        // Market data API base URL
	APIKey         string        `toml:"api_key"`         // API token (demo tier works for common tickers)
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
	RateLimit      time.Duration `toml:"rate_limit"`      // Minimum time between API requests
	CacheTTL       time.Duration `toml:"cache_ttl"`       // In-memory quote cache TTL
}

// GeminiConfig contains Google Gemini API configuration for report generation
type GeminiConfig struct {
	APIKey          string  `toml:"api_key"`           // Single key fallback when no keys file is configured
	KeysFile        string  `toml:"keys_file"`         // File with one API key per line; enables rotation
	Model           string  `toml:"model"`             // Model for report generation (default: "gemini-2.0-flash-exp")
	Temperature     float32 `toml:"temperature"`       // Completion temperature (default: 0.1)
	TopP            float32 `toml:"top_p"`             // Nucleus sampling parameter (default: 0.85)
	MaxOutputTokens int32   `toml:"max_output_tokens"` // Output token ceiling (default: 65536)
	Timeout         string  `toml:"timeout"`           // Per-attempt timeout as duration string (default: "10m")
	WebSearch       bool    `toml:"web_search"`        // Attach the Google Search grounding tool
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for report generation (default: "claude-sonnet-4-20250514")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 64000)
	Timeout     string  `toml:"timeout"`     // Per-attempt timeout as duration string (default: "10m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.1)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains provider selection and key rotation limits
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
	MaxKeyAttempts  int         `toml:"max_key_attempts"` // Rotation attempts before giving up (default: 100)
}

// ReportConfig contains report pipeline configuration
type ReportConfig struct {
	OutputDir    string `toml:"output_dir"`    // Directory for generated report files
	MaxRetries   int    `toml:"max_retries"`   // Validation retries per call phase (default: 3)
	CriteriaFile string `toml:"criteria_file"` // Optional YAML file overriding completion criteria
	TemplateFile string `toml:"template_file"` // Optional HTML shell overriding the embedded stylesheet
}

// WebSocketConfig contains streaming channel configuration
type WebSocketConfig struct {
	ChunkThreshold   int    `toml:"chunk_threshold"`   // Serialized payload size above which messages are chunked (default: 200000)
	ChunkSize        int    `toml:"chunk_size"`        // Chunk part size in bytes (default: 150000)
	ProgressInterval string `toml:"progress_interval"` // Minimum interval between streamed progress events (default: "250ms")
}

// ConvertConfig contains document conversion configuration
type ConvertConfig struct {
	ChromePath  string `toml:"chrome_path"`  // Chrome/Chromium binary for PDF rendering (empty = auto-detect)
	Timeout     string `toml:"timeout"`      // Conversion timeout as duration string (default: "2m")
	ValidatePDF bool   `toml:"validate_pdf"` // Run structural validation on produced PDF bytes
}

// StorageConfig contains the report index and retention configuration
type StorageConfig struct {
	Path          string `toml:"path"`           // Badger database directory path
	RetentionDays int    `toml:"retention_days"` // Delete report files and records older than this (0 = keep forever)
	SweepSchedule string `toml:"sweep_schedule"` // Cron schedule for retention sweeps (default: "0 3 * * *")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in prospectus.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8005,
			Host: "0.0.0.0",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		MarketData: MarketDataConfig{
			BaseURL:        "https://eodhd.com/api",
			APIKey:         "demo",
			RequestTimeout: 30 * time.Second,
			RateLimit:      200 * time.Millisecond,
			CacheTTL:       5 * time.Minute,
		},
		Gemini: GeminiConfig{
			Model:           "gemini-2.0-flash-exp",
			Temperature:     0.1,
			TopP:            0.85,
			MaxOutputTokens: 65536,
			Timeout:         "10m",
			WebSearch:       true,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   64000,
			Timeout:     "10m",
			Temperature: 0.1,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			MaxKeyAttempts:  100,
		},
		Report: ReportConfig{
			OutputDir:  "./reports",
			MaxRetries: 3,
		},
		WebSocket: WebSocketConfig{
			ChunkThreshold:   200000,
			ChunkSize:        150000,
			ProgressInterval: "250ms",
		},
		Convert: ConvertConfig{
			Timeout:     "2m",
			ValidatePDF: true,
		},
		Storage: StorageConfig{
			Path:          "./data/reports.db",
			RetentionDays: 30,
			SweepSchedule: "0 3 * * *",
		},
	}
}

// LoadFromFile loads configuration from a single file (or defaults when path is empty)
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env -> CLI flags.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PROSPECTUS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("PROSPECTUS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PROSPECTUS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if level := os.Getenv("PROSPECTUS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("PROSPECTUS_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("PROSPECTUS_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.Split(output, ",")
	}

	if baseURL := os.Getenv("PROSPECTUS_MARKETDATA_BASE_URL"); baseURL != "" {
		config.MarketData.BaseURL = baseURL
	}
	if apiKey := os.Getenv("PROSPECTUS_MARKETDATA_API_KEY"); apiKey != "" {
		config.MarketData.APIKey = apiKey
	}

	if apiKey := os.Getenv("PROSPECTUS_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if keysFile := os.Getenv("PROSPECTUS_GEMINI_KEYS_FILE"); keysFile != "" {
		config.Gemini.KeysFile = keysFile
	}
	if model := os.Getenv("PROSPECTUS_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	if apiKey := os.Getenv("PROSPECTUS_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	} else if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}

	if provider := os.Getenv("PROSPECTUS_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}
	if attempts := os.Getenv("PROSPECTUS_LLM_MAX_KEY_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil && n > 0 {
			config.LLM.MaxKeyAttempts = n
		}
	}

	if outputDir := os.Getenv("PROSPECTUS_REPORT_OUTPUT_DIR"); outputDir != "" {
		config.Report.OutputDir = outputDir
	}
	if retries := os.Getenv("PROSPECTUS_REPORT_MAX_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil && n >= 0 {
			config.Report.MaxRetries = n
		}
	}
	if criteriaFile := os.Getenv("PROSPECTUS_REPORT_CRITERIA_FILE"); criteriaFile != "" {
		config.Report.CriteriaFile = criteriaFile
	}
	if templateFile := os.Getenv("PROSPECTUS_REPORT_TEMPLATE_FILE"); templateFile != "" {
		config.Report.TemplateFile = templateFile
	}

	if storagePath := os.Getenv("PROSPECTUS_STORAGE_PATH"); storagePath != "" {
		config.Storage.Path = storagePath
	}
	if retention := os.Getenv("PROSPECTUS_STORAGE_RETENTION_DAYS"); retention != "" {
		if n, err := strconv.Atoi(retention); err == nil && n >= 0 {
			config.Storage.RetentionDays = n
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.DefaultProvider)
	}
	if c.WebSocket.ChunkSize <= 0 || c.WebSocket.ChunkSize > c.WebSocket.ChunkThreshold {
		return fmt.Errorf("websocket chunk_size %d must be positive and not exceed chunk_threshold %d",
			c.WebSocket.ChunkSize, c.WebSocket.ChunkThreshold)
	}
	if c.Report.MaxRetries < 0 {
		return fmt.Errorf("report max_retries must not be negative: %d", c.Report.MaxRetries)
	}
	return nil
}

// GeminiTimeout returns the parsed per-attempt Gemini timeout
func (c *Config) GeminiTimeout() time.Duration {
	return parseDurationOr(c.Gemini.Timeout, 10*time.Minute)
}

// ClaudeTimeout returns the parsed per-attempt Claude timeout
func (c *Config) ClaudeTimeout() time.Duration {
	return parseDurationOr(c.Claude.Timeout, 10*time.Minute)
}

// ProgressInterval returns the parsed minimum progress event interval
func (c *Config) ProgressInterval() time.Duration {
	return parseDurationOr(c.WebSocket.ProgressInterval, 250*time.Millisecond)
}

// ConvertTimeout returns the parsed document conversion timeout
func (c *Config) ConvertTimeout() time.Duration {
	return parseDurationOr(c.Convert.Timeout, 2*time.Minute)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
