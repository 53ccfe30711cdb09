// Command server runs the feedback REST API.
//
// Startup: .env (optional) -> config -> logging -> tracing -> database and
// migrations -> demo seed -> HTTP server. SIGINT/SIGTERM drain in-flight
// requests for up to SHUTDOWN_TIMEOUT before the process exits.
//
//	@title			Feedback Service API
//	@version		1.0
//	@description	REST API for submitting, triaging and searching user feedback.
//	@BasePath		/api
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
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-feedback-service/internal/config"
	httpapi "github.com/tbourn/go-feedback-service/internal/http"
	"github.com/tbourn/go-feedback-service/internal/observability"
	"github.com/tbourn/go-feedback-service/internal/repo"
	"github.com/tbourn/go-feedback-service/internal/seeder"
	"github.com/tbourn/go-feedback-service/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const janitorInterval = time.Hour

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(cfg.DB, cfg.OTEL.Enabled)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	if cfg.SeedDemo {
		if _, err := seeder.Seed(ctx, db, time.Now().UTC()); err != nil {
			log.Error().Err(err).Msg("demo seed failed")
		}
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go runJanitor(ctx, db, janitorInterval)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()
	logStartup(cfg, ver)

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("stopped")
}

func logStartup(cfg config.Config, ver string) {
	base := "http://localhost:" + cfg.Port
	api := base + cfg.APIBasePath + "/feedback"
	ev := log.Info().
		Str("version", ver).
		Str("addr", base).
		Str("db_driver", cfg.DB.Driver).
		Strs("endpoints", []string{
			"POST   " + api,
			"GET    " + api,
			"GET    " + api + "/{id}",
			"PUT    " + api + "/{id}",
			"DELETE " + api + "/{id}",
			"GET    " + api + "/stats",
			"GET    " + base + "/health",
			"GET    " + base + "/metrics",
		})
	if cfg.SwaggerEnabled {
		ev = ev.Str("swagger", base+"/swagger/index.html")
	}
	ev.Msg("feedback service listening")
}
