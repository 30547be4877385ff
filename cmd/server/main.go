package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bus "github.com/duocall/duo/internal/adapter/driven/bus/redis"
	"github.com/duocall/duo/internal/adapter/driven/gateway/ws"
	store "github.com/duocall/duo/internal/adapter/driven/persistence/redis"
	handler "github.com/duocall/duo/internal/adapter/driving/http"
	"github.com/duocall/duo/internal/config"
	"github.com/duocall/duo/internal/core/service"
	"github.com/rs/zerolog"
)

func main() {
	w := zerolog.ConsoleWriter{Out: os.Stdout}
	l := zerolog.New(w).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	st, err := store.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer st.Close()

	dir := store.NewDirectory(st)
	signals := store.NewSignaling(st)
	hub := ws.NewHub()

	b, err := bus.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, service.NewBusFanout(hub))
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to connect bus")
	}
	defer b.Close()

	opts := service.Options{
		RoomCapacity:        cfg.Room.Capacity,
		SignalTTL:           cfg.Signaling.TTL,
		PersistICE:          cfg.Signaling.PersistICE,
		CleanupOnDisconnect: service.CleanupPolicy(cfg.Session.CleanupOnDisconnect),
	}
	h := handler.NewHandler(dir, signals, b, hub, st, opts, cfg.Server.StaticDir)

	go hub.Run()
	go b.Run()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().Int("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	hub.Stop()
	l.Info().Msg("Server exited")
}
