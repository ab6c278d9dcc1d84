package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/artifex/backend/internal/config"
	"github.com/zhouzirui/artifex/backend/internal/handler"
	"github.com/zhouzirui/artifex/backend/internal/logging"
	"github.com/zhouzirui/artifex/backend/internal/service/enhance"
	"github.com/zhouzirui/artifex/backend/internal/service/generation"
	"github.com/zhouzirui/artifex/backend/internal/service/studio"
)

const janitorInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger, err := logging.NewLogger(cfg.Log.AppEnv, cfg.Log.Level)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise logger")
	}
	logging.SetGlobal(logger)

	if envErr != nil {
		logger.Warn().Err(envErr).Msg("continuing with system environment variables only")
	}

	client := generation.NewClient(generation.Options{
		BaseURL:        cfg.Studio.BaseURL,
		ModelVersion:   cfg.Studio.ModelVersion,
		RequestTimeout: cfg.Studio.RequestTimeout,
		Logger:         &logger,
	})
	downloader := generation.NewDownloader(generation.DownloaderOptions{
		RequestTimeout: cfg.Studio.RequestTimeout,
		MaxBytes:       cfg.Studio.DownloadMaxBytes,
		Logger:         &logger,
	})

	if cfg.Studio.APIKey == "" {
		logger.Info().Msg("BRIA_API_KEY 未配置，会话需要通过 setApiKey 提供凭证")
	}

	sessions := studio.NewService(studio.Dependencies{
		Generator:  client,
		Enhancer:   newPromptEnhancer(ctx, cfg, client, logger),
		Downloader: downloader,
		Logger:     &logger,
	}, studio.Options{
		DefaultAPIKey: cfg.Studio.APIKey,
		IdleTTL:       cfg.Studio.SessionIdleTTL,
	})
	go sessions.RunJanitor(ctx, janitorInterval)

	router := handler.NewRouter(sessions, handler.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Studio.DownloadMaxBytes,
		Logger:         logger,
	})

	startServer(ctx, cfg.Server, router, logger)
}

// newPromptEnhancer picks the configured prompt enhancer, falling back to the
// generation service when the provider cannot be initialised.
func newPromptEnhancer(ctx context.Context, cfg *config.Config, client *generation.Client, logger zerolog.Logger) studio.PromptEnhancer {
	switch cfg.Enhancer.Provider {
	case config.ProviderArk:
		if !cfg.AI.Enabled() {
			logger.Warn().Msg("Ark 凭证未配置，提示词增强回退到生成服务")
			return client
		}
		enhancer, err := enhance.NewArkEnhancer(ctx, cfg.AI, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise ark enhancer, falling back to generation service")
			return client
		}
		logger.Info().Str("model", cfg.AI.Model).Msg("ark prompt enhancer enabled")
		return enhancer
	case config.ProviderGemini:
		if !cfg.Gemini.Enabled() {
			logger.Warn().Msg("GEMINI_API_KEY 未配置，提示词增强回退到生成服务")
			return client
		}
		enhancer, err := enhance.NewGeminiEnhancer(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise gemini enhancer, falling back to generation service")
			return client
		}
		logger.Info().Str("model", cfg.Gemini.Model).Msg("gemini prompt enhancer enabled")
		return enhancer
	default:
		return client
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger zerolog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", addr).Msg("Artifex backend listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
