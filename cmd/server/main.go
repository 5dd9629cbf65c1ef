// Command server runs the game server: static client assets on /, the
// WebSocket session gateway on /ws, and the in-memory room engine behind it.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/hirscherd0-sudo/Demondontworry/internal/cache"
	"github.com/hirscherd0-sudo/Demondontworry/internal/config"
	"github.com/hirscherd0-sudo/Demondontworry/internal/game"
	"github.com/hirscherd0-sudo/Demondontworry/internal/ws"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not load .env file")
	}

	cfg := config.Load()

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	if cfg.RedisAddr != "" {
		if err := cache.Init(cfg.RedisAddr); err != nil {
			log.WithError(err).Warn("room-action stream disabled, Redis unreachable")
		} else {
			log.WithField("addr", cfg.RedisAddr).Info("room-action stream enabled")
		}
	}

	seed := uint64(time.Now().UnixNano())
	engine := game.NewEngine(game.Options{
		TurnTimeout:   cfg.TurnTimeout,
		BotThinkDelay: cfg.BotThinkDelay,
		BotStepDelay:  cfg.BotStepDelay,
		Rand:          rand.New(rand.NewPCG(seed, seed^0xdeadbeefcafe1234)),
		Logger:        log,
	})
	gateway := ws.NewServer(engine, log)

	mux := http.NewServeMux()
	mux.Handle("/ws", gateway.Handler())
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}
