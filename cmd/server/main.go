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

	router "github.com/bhandari16arjun/meet/internal/adapters/http"
	wssignal "github.com/bhandari16arjun/meet/internal/adapters/signal"
	"github.com/bhandari16arjun/meet/internal/app"
	"github.com/bhandari16arjun/meet/internal/config"
	"github.com/bhandari16arjun/meet/internal/engine"
	"github.com/bhandari16arjun/meet/internal/engine/pion"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	eng := pion.NewEngine()
	pool, err := app.NewWorkerPool(ctx, eng, cfg.Worker.Count, engine.WorkerSettings{
		RTCMinPort: cfg.Worker.RTCMinPort,
		RTCMaxPort: cfg.Worker.RTCMaxPort,
		LogLevel:   cfg.Worker.LogLevel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start media workers")
	}
	defer pool.Close()

	orch := &app.Orchestrator{
		Rooms:    app.NewRoomRegistry(pool, cfg.RTPCodecCapabilities()),
		Sessions: app.NewSessionRegistry(),
		Pool:     pool,
		Transport: engine.TransportOptions{
			ListenIP:    cfg.WebRTC.ListenIP,
			AnnouncedIP: cfg.WebRTC.AnnouncedIP,
			EnableUDP:   cfg.WebRTC.EnableUDP,
			EnableTCP:   cfg.WebRTC.EnableTCP,
			PreferUDP:   cfg.WebRTC.PreferUDP,
		},
	}
	pool.SetDeathHandler(orch.HandleWorkerDeath)

	ctrl := wssignal.NewController(orch, cfg)
	r := router.SetupRouter(ctx, cfg, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Int("workers", len(pool.Workers())).Msg("Meet server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
