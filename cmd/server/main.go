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

	"github.com/ksuvorov/livewire/internal/adapters/directory"
	router "github.com/ksuvorov/livewire/internal/adapters/http"
	"github.com/ksuvorov/livewire/internal/adapters/presence"
	signaladapter "github.com/ksuvorov/livewire/internal/adapters/signal"
	"github.com/ksuvorov/livewire/internal/app"
	"github.com/ksuvorov/livewire/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	dir, err := directory.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to chat directory")
	}

	ctl := &signaladapter.Controller{
		Registry:   app.NewRegistry(),
		Calls:      app.NewCallManager(dir, cfg.RingTimeout),
		Voice:      app.NewVoiceRooms(dir),
		Live:       app.NewLiveRooms(dir),
		Presence:   presence.New(cfg.RedisAddr),
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	}

	r := router.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("livewire server started")
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
