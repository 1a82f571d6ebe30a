package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Voice/internal/adapters/http"
	sig "github.com/dkeye/Voice/internal/adapters/signal"
	"github.com/dkeye/Voice/internal/app"
	"github.com/dkeye/Voice/internal/auth"
	"github.com/dkeye/Voice/internal/config"
	"github.com/dkeye/Voice/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	m := metrics.New()
	registry := app.NewRegistry(ctx, app.SimplePolicy{}, m)
	validator := auth.NewJWTManager(cfg.Secret, 24*time.Hour)
	limiter := sig.NewJoinLimiter(cfg.JoinRateLimit, cfg.JoinRateInterval)

	signalCtl := sig.NewSignalWSController(registry, validator, limiter, m, sig.Options{
		ReadLimit:     cfg.ReadLimit,
		PingPeriod:    cfg.PingPeriod,
		PongWait:      cfg.PongWait,
		WriteWait:     cfg.WriteWait,
		SendQueue:     cfg.SendQueue,
		MaxViolations: cfg.MaxViolations,
	})

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Registry:  registry,
		Signal:    signalCtl,
		Validator: validator,
		Metrics:   m,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Voice server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	// hijacked websockets are not closed by Shutdown
	registry.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
