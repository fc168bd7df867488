package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/local/hackeval/internal/agents"
	"github.com/local/hackeval/internal/ai"
	cfgpkg "github.com/local/hackeval/internal/config"
	"github.com/local/hackeval/internal/converter"
	"github.com/local/hackeval/internal/dispatcher"
	"github.com/local/hackeval/internal/docloader"
	"github.com/local/hackeval/internal/limiter"
	logpkg "github.com/local/hackeval/internal/logger"
	mpkg "github.com/local/hackeval/internal/metrics"
	"github.com/local/hackeval/internal/orchestrator"
	"github.com/local/hackeval/internal/statuscheck"
	"github.com/local/hackeval/internal/visual"
)

func main() {
	_ = godotenv.Load()

	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	runID := uuid.New().String()
	log.Logger = log.Logger.With().Str("run_id", runID).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Circuit breaker state is optional: with no REDIS_URL it runs purely
	// in-process for the life of this batch run.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		if opt, err := redis.ParseURL(cfg.RedisURL); err != nil {
			log.Warn().Err(err).Msg("invalid REDIS_URL, circuit breaker state will not persist across runs")
		} else {
			redisClient = redis.NewClient(opt)
		}
	}
	breaker := dispatcher.NewCircuitBreaker(redisClient, 5*time.Second, 5*time.Minute)

	libre := converter.NewLibreOffice(8100, 4, cfg.Render.LibreOfficePath)
	if err := libre.Initialize(); err != nil {
		log.Warn().Err(err).Msg("LibreOffice converter initialization failed - ppt/pptx decks will not be convertible")
	} else {
		log.Info().Msg("LibreOffice converter initialized")
	}
	defer libre.Shutdown()

	failover := &dispatcher.Failover{
		PrimaryProvider:   cfg.Providers.PrimaryEngine,
		SecondaryProvider: cfg.Providers.SecondaryEngine,
		Models: map[string]dispatcher.ProviderModels{
			"openai":    {Primary: cfg.Providers.OpenAI.Text, Secondary: cfg.Providers.OpenAI.Vision},
			"anthropic": {Primary: cfg.Providers.Anthropic.Text, Secondary: cfg.Providers.Anthropic.Vision},
		},
		Clients: map[string]ai.Client{
			"openai":    ai.NewOpenAIClient(),
			"anthropic": ai.NewAnthropicClient(),
		},
		Breaker: breaker,
	}

	docLoader := &docloader.Config{
		RenderDPI:      cfg.Render.RenderDPI,
		MaxRenderPages: cfg.Render.MaxRenderPages,
		JPEGQuality:    cfg.Render.JPEGQuality,
		LibreOffice:    libre,
	}

	textLimiter := limiter.New(cfg.Limiter.RPMText)
	visionLimiter := limiter.New(cfg.Limiter.RPMVision)

	visualAnalyzer := &visual.Analyzer{
		DocLoader:   docLoader,
		Failover:    failover,
		Timeout:     cfg.LLM.TimeoutS,
		MaxImages:   cfg.Render.MaxVisionImages,
		VisionLimit: visionLimiter,
	}

	agentCfg := &agents.Config{
		Failover:    failover,
		TextLimiter: textLimiter,
		Timeout:     cfg.LLM.TimeoutS,
		MaxRetries:  cfg.LLM.MaxRetries,
		Seed:        cfg.Providers.OpenAISeed,
	}

	orchCfg := orchestrator.Config{
		DocLoader:      docLoader,
		Visual:         visualAnalyzer,
		Agents:         agentCfg,
		MaxConcurrency: cfg.Concurrency.MaxConcurrency,
		ResultDir:      cfg.Batch.ResultDir,
		UseCombined:    cfg.Calibration.UseCombined,
	}

	mpkg.Init()
	checker := statuscheck.New(statuscheck.Options{
		Redis:          redisAdapter{redisClient},
		S3Bucket:       os.Getenv("AWS_S3_BUCKET"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		LibreOfficeBin: cfg.Render.LibreOfficePath,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", mpkg.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		hctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		summary := checker.Summary(hctx)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"openai":%t,"anthropic":%t,"libreoffice":%t,"mupdf":%t}`,
			summary.OpenAI.OK, summary.Anthropic.OK, summary.LibreOffice.OK, summary.MuPDF.OK)
	})

	srv := &http.Server{Addr: cfg.Metrics.MetricsAddr, Handler: mux}
	go func() {
		log.Info().Str("addr", cfg.Metrics.MetricsAddr).Msg("metrics/healthz server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	files, err := orchestrator.ExpandTeamGlob(ctx, cfg.Batch.TeamGlob)
	if err != nil {
		log.Error().Err(err).Str("team_glob", cfg.Batch.TeamGlob).Msg("no decks to evaluate")
		os.Exit(1)
	}
	log.Info().Int("file_count", len(files)).Msg("starting batch evaluation")

	results, err := orchestrator.RunFiles(ctx, orchCfg, files)
	if err != nil {
		log.Error().Err(err).Msg("batch evaluation failed")
		os.Exit(1)
	}

	errored := 0
	for _, r := range results {
		if r.HasError() {
			errored++
		}
	}
	log.Info().Int("teams", len(results)).Int("errored", errored).Msg("batch evaluation complete")
}

// redisAdapter satisfies statuscheck.RedisPinger, tolerating a nil client
// when no REDIS_URL is configured.
type redisAdapter struct{ client *redis.Client }

func (r redisAdapter) Ping(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.client.Ping(ctx).Err()
}
