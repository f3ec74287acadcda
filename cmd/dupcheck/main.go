// Command dupcheck runs the duplicate-detection microservice.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/cache"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/config"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/detect"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/logger"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/minhash"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/ratelimit"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/recruiter"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/router"
	"github.com/wlo-labs/dupcheck/services/dupcheck/internal/upstream"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	log.Info().Str("env", cfg.Env).Msg("dupcheck starting")

	upstreamClient := upstream.New(upstream.Config{
		BaseURL:    cfg.UpstreamBaseURL,
		Timeout:    cfg.UpstreamTimeout,
		MaxRetries: cfg.UpstreamRetries,
	}, log)

	engine := minhash.NewEngine()
	rec := recruiter.New(upstreamClient)
	pipeline := detect.New(upstreamClient, rec, engine, log)

	respCache := cache.New(cfg.CacheTTL, cfg.CacheMaxSize, log)
	limiter := ratelimit.New(cfg.RateLimitRPM)

	r := router.New(cfg, log, pipeline, respCache, limiter)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestDeadline + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("dupcheck listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-done
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("dupcheck stopped gracefully")
	}
}
