package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"hotseat-quiz/internal/app"
	"hotseat-quiz/internal/config"
	"hotseat-quiz/internal/infra/memory"
	pgstore "hotseat-quiz/internal/infra/postgres"
	redisstore "hotseat-quiz/internal/infra/redis"
	"hotseat-quiz/internal/infra/sqlite"
)

// backends holds the storage clients chosen from config.
type backends struct {
	banks  app.BankStore
	redis  *redis.Client
	closer []func()
}

func (b *backends) Close() {
	for i := len(b.closer) - 1; i >= 0; i-- {
		b.closer[i]()
	}
}

// openBackends picks the bank store: postgres, then redis, then sqlite, then memory.
// A configured Redis client is returned either way so tables can mark liveness.
func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}

	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		client := b.redis
		b.closer = append(b.closer, func() { _ = client.Close() })
	}

	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closer = append(b.closer, pool.Close)
		b.banks = pgstore.NewBankStore(pool)
	case b.redis != nil:
		b.banks = redisstore.NewBankStore(b.redis)
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closer = append(b.closer, func() { _ = store.Close() })
		b.banks = store
	default:
		b.banks = memory.NewBankStore()
	}
	return b, nil
}

// gameRepository keeps tables in Redis-marked or plain memory stores.
func gameRepository(b *backends, cfg config.Config) app.GameRepository {
	if b.redis != nil {
		return redisstore.NewGameStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}
	return memory.NewGameStore()
}

// loadBanks builds a bank service over the configured store and hydrates it.
func loadBanks(ctx context.Context, cfg config.Config) (*app.BankService, *backends, error) {
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
	}
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	banks := app.NewBankService(b.banks)
	if err := banks.Load(ctx); err != nil {
		b.Close()
		return nil, nil, err
	}
	return banks, b, nil
}
