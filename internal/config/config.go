// Package config reads the server configuration from the environment.
// cmd/server loads a .env file first, so every knob can live there.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every runtime knob of the server.
type Config struct {
	Port      int    // PORT — HTTP listen port.
	StaticDir string // STATIC_DIR — directory of client assets served at /.

	TurnTimeout   time.Duration // TURN_TIMEOUT_SECONDS — per-turn budget for human seats.
	BotThinkDelay time.Duration // BOT_THINK_MS — pause before a bot's first roll.
	BotStepDelay  time.Duration // BOT_STEP_MS — pause between bot decision steps.

	RedisAddr string // REDIS_ADDR — empty disables the room-action stream.
	LogLevel  string // LOG_LEVEL — logrus level name.
}

// Load builds a Config from the environment, falling back to defaults.
func Load() Config {
	return Config{
		Port:          envInt("PORT", 3000),
		StaticDir:     envString("STATIC_DIR", "public"),
		TurnTimeout:   time.Duration(envInt("TURN_TIMEOUT_SECONDS", 15)) * time.Second,
		BotThinkDelay: time.Duration(envInt("BOT_THINK_MS", 1200)) * time.Millisecond,
		BotStepDelay:  time.Duration(envInt("BOT_STEP_MS", 900)) * time.Millisecond,
		RedisAddr:     envString("REDIS_ADDR", ""),
		LogLevel:      envString("LOG_LEVEL", "info"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
