package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	RedisURL     string
	DiscordToken string

	HeartbeatInterval time.Duration // opcional, default 5s
}

func Load() Config {
	get := func(k string, req bool) string {
		v := os.Getenv(k)
		if v == "" && req {
			log.Fatalf("faltante env %s", k)
		}
		return v
	}

	cfg := Config{
		RedisURL:          get("REDIS_URL", true),
		DiscordToken:      get("DISCORD_BOT_TOKEN", true),
		HeartbeatInterval: 5 * time.Second,
	}
	if raw := get("HEARTBEAT_INTERVAL_SECONDS", false); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			log.Fatalf("HEARTBEAT_INTERVAL_SECONDS inválido: %q", raw)
		}
		cfg.HeartbeatInterval = time.Duration(secs) * time.Second
	}
	return cfg
}
