package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ProviderModels defines the text/vision model pair for a provider's
// failover slot.
type ProviderModels struct {
	Text   string
	Vision string
}

// ProvidersConfig defines engines and models per provider.
type ProvidersConfig struct {
	PrimaryEngine   string // "openai"|"anthropic"
	SecondaryEngine string // "anthropic"|"openai"
	OpenAI          ProviderModels
	Anthropic       ProviderModels
	OpenAISeed      string
}

// LLMConfig governs the agent invocation contract (§4.3).
type LLMConfig struct {
	TimeoutS   time.Duration
	MaxRetries int
}

// LimiterConfig governs the two process-global rate limiters (§4.5).
type LimiterConfig struct {
	RPMText   int
	RPMVision int
}

// ConcurrencyConfig bounds parallel file processing (§4.5).
type ConcurrencyConfig struct {
	MaxConcurrency int
}

// RenderConfig bounds document loading/rendering (§4.1/§4.2).
type RenderConfig struct {
	MaxVisionImages int
	MaxRenderPages  int
	RenderDPI       int
	JPEGQuality     int
	LibreOfficePath string
}

// CalibrationConfig selects the scoring/feedback agent mode (§4.3).
type CalibrationConfig struct {
	UseCombined bool
}

// BatchConfig governs the batch run itself (§4.5/§6).
type BatchConfig struct {
	TeamGlob  string
	ResultDir string
}

// MetricsConfig governs the observability HTTP surface (§6, ambient).
type MetricsConfig struct {
	MetricsAddr string
	HealthzAddr string
}

// Config is the top-level configuration.
type Config struct {
	Logging     LoggingConfig
	Axiom       AxiomConfig
	Providers   ProvidersConfig
	LLM         LLMConfig
	Limiter     LimiterConfig
	Concurrency ConcurrencyConfig
	Render      RenderConfig
	Calibration CalibrationConfig
	Batch       BatchConfig
	Metrics     MetricsConfig
	RedisURL    string
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/hackeval.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_hackeval",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	openAIText := getEnv("OPENAI_MODEL_TEXT", getEnv("OPENAI_MODEL", "gpt-4.1"))
	cfg.Providers = ProvidersConfig{
		PrimaryEngine:   getEnv("PRIMARY_ENGINE", "openai"),
		SecondaryEngine: getEnv("SECONDARY_ENGINE", "anthropic"),
		OpenAI: ProviderModels{
			Text:   openAIText,
			Vision: getEnv("OPENAI_MODEL_VISION", openAIText),
		},
		Anthropic: ProviderModels{
			Text:   getEnv("ANTHROPIC_MODEL_TEXT", "claude-3-5-sonnet-20241022"),
			Vision: getEnv("ANTHROPIC_MODEL_VISION", "claude-3-5-sonnet-20241022"),
		},
		OpenAISeed: getEnv("OPENAI_SEED", ""),
	}

	cfg.LLM = LLMConfig{
		TimeoutS:   parseDuration(getEnv("LLM_TIMEOUT_S", "90s"), 90*time.Second),
		MaxRetries: parseInt(getEnv("LLM_MAX_RETRIES", "2"), 2),
	}

	cfg.Limiter = LimiterConfig{
		RPMText:   parseInt(getEnv("RATE_LIMIT_RPM_TEXT", "18"), 18),
		RPMVision: parseInt(getEnv("RATE_LIMIT_RPM_VISION", "6"), 6),
	}

	cfg.Concurrency = ConcurrencyConfig{
		MaxConcurrency: parseInt(getEnv("MAX_CONCURRENCY", "2"), 2),
	}

	cfg.Render = RenderConfig{
		MaxVisionImages: parseInt(getEnv("MAX_VISION_IMAGES", "12"), 12),
		MaxRenderPages:  parseInt(getEnv("MAX_RENDER_PAGES", "12"), 12),
		RenderDPI:       parseInt(getEnv("RENDER_DPI", "150"), 150),
		JPEGQuality:     parseInt(getEnv("IMAGE_JPEG_QUALITY", "80"), 80),
		LibreOfficePath: getEnv("LIBREOFFICE_PATH", "soffice"),
	}

	cfg.Calibration = CalibrationConfig{
		UseCombined: parseBool(getEnv("USE_COMBINED", "0")),
	}

	cfg.Batch = BatchConfig{
		TeamGlob:  getEnv("TEAM_GLOB", ""),
		ResultDir: getEnv("RESULT_DIR", "./reports"),
	}

	cfg.Metrics = MetricsConfig{
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		HealthzAddr: getEnv("HEALTHZ_ADDR", ":9090"),
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

// parseDuration accepts Go duration syntax ("90s") or a bare integer number
// of seconds ("90"), matching how LLM_TIMEOUT_S is documented (§6).
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
