package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyclaw/config"
	"github.com/alejandrodnm/polyclaw/internal/adapters/redis"
	"github.com/alejandrodnm/polyclaw/internal/adapters/storage"
	"github.com/alejandrodnm/polyclaw/internal/ports"
)

type stores struct {
	ledgers  ports.LedgerStore
	triggers ports.TriggerStore
	closers  []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("close store", "err", err)
		}
	}
}

// openStores abre el ledger y el trigger store según la configuración.
// Con ambos drivers en sqlite se comparte la misma conexión.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{}

	var db *storage.SQLiteStorage
	switch cfg.Storage.Driver {
	case "sqlite":
		var err error
		db, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		st.ledgers = db
	case "json":
		st.ledgers = storage.NewJSONFileStorage(cfg.Storage.DSN)
	}
	st.closers = append(st.closers, st.ledgers.Close)

	switch cfg.Triggers.Driver {
	case "sqlite":
		st.triggers = db
	case "file":
		st.triggers = storage.NewJSONTriggerFile(cfg.Triggers.Path)
	case "redis":
		c, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Triggers.RedisAddr,
			Password: cfg.Triggers.RedisPassword,
			DB:       cfg.Triggers.RedisDB,
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("triggers: %w", err)
		}
		st.closers = append(st.closers, c.Close)
		st.triggers = redis.NewTriggerStore(c, cfg.Triggers.RedisKey)
	case "none":
	}
	return st, nil
}
