// Package config holds the server's runtime configuration.
package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults for the game clock when the environment does not say
// otherwise.
const (
	DefaultInitialTime = 10 * time.Minute
	DefaultIncrement   = 5 * time.Second
)

// Config carries everything the application needs at startup.
type Config struct {
	Debug    bool
	TCPAddr  string // raw framed-TCP listener
	HTTPAddr string // /health and /ws

	InitialTime time.Duration // starting time per color
	Increment   time.Duration // credited after each completed move
}

// TimeControlFromEnv reads GAME_INITIAL_SECONDS and
// GAME_INCREMENT_SECONDS, falling back to the defaults for missing or
// unparseable values.
func TimeControlFromEnv() (initial, increment time.Duration) {
	return envSeconds("GAME_INITIAL_SECONDS", DefaultInitialTime),
		envSeconds("GAME_INCREMENT_SECONDS", DefaultIncrement)
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
