package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"studio/internal/adapter/repo"
	"studio/internal/domain"
	"studio/internal/generation"
	httpapi "studio/internal/http"
	"studio/internal/http/handlers"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/providers/brainstorm"
	"studio/internal/providers/leonardo"
	"studio/internal/storage"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		pool  *pgxpool.Pool
		jobs  domain.GenerationRepository
		creds domain.CredentialStore
	)
	if cfg.DatabaseURL != "" {
		pool, err = infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		runner := infra.NewSQLRunner(pool, logger)
		jobs = repo.NewGenerationRepository(runner)
		creds = credentials.NewStore(runner)
	} else {
		logger.Warn().Msg("DATABASE_URL not set; jobs are kept in memory only")
	}

	apiKey := cfg.LeonardoAPIKey
	if apiKey == "" && creds != nil {
		apiKey, err = creds.Token(ctx, credentials.ProviderLeonardo)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load leonardo key from credentials store")
		}
	}
	client, err := leonardo.NewClient(leonardo.Options{
		APIKey:  apiKey,
		BaseURL: cfg.LeonardoBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build leonardo client")
	}
	if !client.HasCredentials() {
		logger.Warn().Msg("no leonardo api key configured; submissions will fail")
	}

	var motion generation.MotionControlResolver
	if cfg.LeonardoMotionControlsFile != "" {
		table, err := leonardo.LoadMotionControls(cfg.LeonardoMotionControlsFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.LeonardoMotionControlsFile).Msg("failed to load motion controls")
		}
		motion = table
		logger.Info().Strs("names", table.Names()).Msg("motion controls loaded")
	}

	store := generation.NewStore(generation.StoreOptions{MaxAttempts: cfg.PollMaxAttempts})
	if jobs != nil {
		store.AddHook(generation.PersistHook(jobs, &logger))
	}

	var (
		archiver *storage.Archiver
		files    *storage.FileStore
	)
	if cfg.StoragePath != "" {
		files, err = storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare storage path")
		}
		archiver, err = storage.NewArchiver(storage.ArchiverOptions{Store: files, Logger: &logger})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build archiver")
		}
		store.AddHook(archiver.Hook)
	}

	scheduler, err := generation.NewScheduler(generation.SchedulerOptions{
		Fetcher:        client,
		Store:          store,
		InitialDelay:   cfg.PollInitialDelay,
		Interval:       cfg.PollInterval,
		MaxAttempts:    cfg.PollMaxAttempts,
		RequestTimeout: cfg.PollRequestTimeout,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build scheduler")
	}
	orchestrator, err := generation.NewOrchestrator(generation.OrchestratorOptions{
		Upstream:       client,
		Store:          store,
		Scheduler:      scheduler,
		MotionControls: motion,
		SettleDelay:    cfg.UploadSettleDelay,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build orchestrator")
	}

	if jobs != nil {
		if _, err := generation.Resume(ctx, jobs, store, scheduler, &logger); err != nil {
			logger.Error().Err(err).Msg("failed to resume active jobs")
		}
	}

	var ideas brainstorm.Brainstormer = brainstorm.NewStaticBrainstormer()
	if cfg.OpenAIAPIKey != "" {
		openai, err := brainstorm.NewOpenAIBrainstormer(brainstorm.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			OnFallback: func(reason string, err error) {
				logger.Warn().Err(err).Str("reason", reason).Msg("brainstorm: falling back to static ideas")
			},
			OnWarning: func(reason, detail string) {
				logger.Warn().Str("reason", reason).Str("detail", detail).Msg("brainstorm: model adjusted")
			},
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build brainstormer")
		}
		ideas = openai
	}

	app := &handlers.App{
		Store:        store,
		Submitter:    orchestrator,
		Polls:        scheduler,
		Brainstormer: ideas,
		Logger:       &logger,
	}
	if pool != nil {
		app.DB = pool
	}
	if files != nil {
		app.Archive = files
	}
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:             &logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SubmitRatePerMin:   cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
	}

	// Polling loops and archive downloads outlive the HTTP server.

	scheduler.Stop()
	if archiver != nil {
		archiver.Wait()
	}
	logger.Info().Msg("server stopped")
}
