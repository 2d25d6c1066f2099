// Package config reads process configuration from the environment.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	// PlatformURL is the websocket gateway of the virtual-space service.
	PlatformURL string
	// HTTPAddr serves the health and stats endpoints.
	HTTPAddr string
	// LayoutPath is the room layout JSON file.
	LayoutPath string
	// StatsDSN is the postgres DSN for the stats store; empty disables
	// persistence.
	StatsDSN string
	// Owners may run admin commands (kick, freeze, change chooser).
	Owners []string
	// MinPlayers is the initial minimum-player requirement (0 = none).
	MinPlayers int
	// Dev switches zap to development output.
	Dev bool
}

func FromEnv() Config {
	cfg := Config{
		PlatformURL: getenv("PLATFORM_WS_URL", "ws://localhost:9000/room"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LayoutPath:  getenv("LAYOUT_PATH", "game_config.json"),
		StatsDSN:    os.Getenv("STATS_DSN"),
		MinPlayers:  getint("MIN_PLAYERS", 0),
		Dev:         os.Getenv("DEV") == "1",
	}
	if owner := os.Getenv("OWNER_USERNAME"); owner != "" {
		cfg.Owners = append(cfg.Owners, owner)
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
