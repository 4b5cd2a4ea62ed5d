// Package sched corre los loops periódicos desacoplados del dispatch:
// el marcador de vida y el snapshot de estadísticas. Sus escrituras son
// overwrites idempotentes, así que una corrida perdida o solapada solo
// deja valores viejos un rato.
package sched

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/jose-valero/rickbot/internal/app/plugin"
	"github.com/jose-valero/rickbot/internal/infra/storage"
)

const heartbeatKey = "heartbeat"

// Start arma y arranca el scheduler. El heartbeat escribe una clave con
// TTL igual al intervalo: si el proceso muere, la clave expira y el
// dashboard lo ve caído.
func Start(kv storage.KV, heartbeat time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(heartbeat*9/10),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := kv.Set(ctx, heartbeatKey, "1", heartbeat); err != nil {
				log.Printf("[sched] heartbeat: %v", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			snapshotStats(kv)
		}),
	)
	if err != nil {
		return nil, err
	}

	s.Start()
	return s, nil
}

// snapshotStats publica contadores para el dashboard: total de guilds y
// jugadores rankeados por guild.
func snapshotStats(kv storage.KV) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	guilds, err := kv.SMembers(ctx, plugin.ServersKey)
	if err != nil {
		log.Printf("[sched] stats: %v", err)
		return
	}
	if err := kv.Set(ctx, "stats:servers", strconv.Itoa(len(guilds)), 0); err != nil {
		log.Printf("[sched] stats: %v", err)
		return
	}
	for _, id := range guilds {
		n, err := kv.SCard(ctx, plugin.Key("Levels", id, "players"))
		if err != nil {
			log.Printf("[sched] stats de %s: %v", id, err)
			continue
		}
		if err := kv.Set(ctx, "stats:server:"+id+":players", strconv.FormatInt(n, 10), 0); err != nil {
			log.Printf("[sched] stats de %s: %v", id, err)
		}
	}
}
