package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Pinger is anything with a context-aware health probe.
type Pinger func(ctx context.Context) error

// PostgresPinger probes the pool.
func PostgresPinger(pool *pgxpool.Pool) Pinger {
	return pool.Ping
}

// RedisPinger probes the client.
func RedisPinger(rdb *redis.Client) Pinger {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// Check runs every probe with a shared 2s budget and returns a status per name.
func Check(ctx context.Context, probes map[string]Pinger) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	healthy := true
	status := make(map[string]string, len(probes))
	for name, ping := range probes {
		if err := ping(ctx); err != nil {
			status[name] = "down: " + err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	return status, healthy
}
