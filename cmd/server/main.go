// Command server runs the interview insights API.
//
// Startup order: environment (.env in dev), configuration, logging, SQLite +
// migrations, OpenTelemetry, then the Gin engine with graceful shutdown on
// SIGINT/SIGTERM.
//
// @title        Interview Insights API
// @version      1.0
// @description  Upload authorization, transcription, and structured interview feedback.
// @BasePath     /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/insightcoach/go-insights-backend/docs"
	"github.com/insightcoach/go-insights-backend/internal/config"
	httpapi "github.com/insightcoach/go-insights-backend/internal/http"
	"github.com/insightcoach/go-insights-backend/internal/llm"
	"github.com/insightcoach/go-insights-backend/internal/observability"
	"github.com/insightcoach/go-insights-backend/internal/repo"
	"github.com/insightcoach/go-insights-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	gin.SetMode(cfg.GinMode)

	version = sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup opentelemetry")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	model := llm.New(cfg.OpenAI, cfg.Pipeline)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, model, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}
