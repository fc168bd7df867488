package config

import (
	"os"
	"testing"
	"time"
)

func clearHackevalEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"LOG_LEVEL", "LOG_PRETTY", "ENVIRONMENT", "AXIOM_DATASET", "SEND_LOGS_TO_AXIOM",
		"OPENAI_MODEL_TEXT", "OPENAI_MODEL", "OPENAI_MODEL_VISION", "PRIMARY_ENGINE", "SECONDARY_ENGINE",
		"LLM_TIMEOUT_S", "LLM_MAX_RETRIES", "RATE_LIMIT_RPM_TEXT", "RATE_LIMIT_RPM_VISION",
		"MAX_CONCURRENCY", "MAX_VISION_IMAGES", "MAX_RENDER_PAGES", "RENDER_DPI", "IMAGE_JPEG_QUALITY",
		"USE_COMBINED", "TEAM_GLOB", "RESULT_DIR", "METRICS_ADDR", "HEALTHZ_ADDR", "REDIS_URL",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearHackevalEnv(t)
	cfg := FromEnv()

	if cfg.Providers.PrimaryEngine != "openai" || cfg.Providers.SecondaryEngine != "anthropic" {
		t.Fatalf("unexpected engine defaults: %+v", cfg.Providers)
	}
	if cfg.LLM.TimeoutS != 90*time.Second {
		t.Fatalf("LLM.TimeoutS = %v, want 90s", cfg.LLM.TimeoutS)
	}
	if cfg.LLM.MaxRetries != 2 {
		t.Fatalf("LLM.MaxRetries = %d, want 2", cfg.LLM.MaxRetries)
	}
	if cfg.Limiter.RPMText != 18 || cfg.Limiter.RPMVision != 6 {
		t.Fatalf("unexpected limiter defaults: %+v", cfg.Limiter)
	}
	if cfg.Concurrency.MaxConcurrency != 2 {
		t.Fatalf("MaxConcurrency = %d, want 2", cfg.Concurrency.MaxConcurrency)
	}
	if cfg.Calibration.UseCombined {
		t.Fatal("UseCombined should default false")
	}
	if cfg.Batch.ResultDir != "./reports" {
		t.Fatalf("ResultDir = %q", cfg.Batch.ResultDir)
	}
	if cfg.Axiom.Dataset != "dev_hackeval" {
		t.Fatalf("Axiom.Dataset = %q, want dev_hackeval", cfg.Axiom.Dataset)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearHackevalEnv(t)
	os.Setenv("LLM_TIMEOUT_S", "45")
	os.Setenv("MAX_CONCURRENCY", "5")
	os.Setenv("USE_COMBINED", "true")
	os.Setenv("TEAM_GLOB", "./decks/*.pdf")
	defer clearHackevalEnv(t)

	cfg := FromEnv()
	if cfg.LLM.TimeoutS != 45*time.Second {
		t.Fatalf("LLM.TimeoutS = %v, want 45s", cfg.LLM.TimeoutS)
	}
	if cfg.Concurrency.MaxConcurrency != 5 {
		t.Fatalf("MaxConcurrency = %d, want 5", cfg.Concurrency.MaxConcurrency)
	}
	if !cfg.Calibration.UseCombined {
		t.Fatal("UseCombined should be true")
	}
	if cfg.Batch.TeamGlob != "./decks/*.pdf" {
		t.Fatalf("TeamGlob = %q", cfg.Batch.TeamGlob)
	}
}

func TestParseDurationAcceptsBareSecondsAndGoDuration(t *testing.T) {
	if got := parseDuration("90", time.Minute); got != 90*time.Second {
		t.Fatalf("got %v, want 90s", got)
	}
	if got := parseDuration("45s", time.Minute); got != 45*time.Second {
		t.Fatalf("got %v, want 45s", got)
	}
	if got := parseDuration("", time.Minute); got != time.Minute {
		t.Fatalf("got %v, want default", got)
	}
	if got := parseDuration("not-a-duration", 5*time.Second); got != 5*time.Second {
		t.Fatalf("got %v, want default fallback", got)
	}
}

func TestParseBoolVariants(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", "yes", "on"} {
		if !parseBool(s) {
			t.Fatalf("parseBool(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"0", "false", "", "no"} {
		if parseBool(s) {
			t.Fatalf("parseBool(%q) = true, want false", s)
		}
	}
}
