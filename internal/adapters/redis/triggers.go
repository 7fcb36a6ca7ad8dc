package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/alejandrodnm/polyclaw/internal/ports"
)

// DefaultTriggerKey es la clave donde el monitor deja el último trigger.
const DefaultTriggerKey = "polyclaw:trigger:latest"

// maxTxRetries acota los reintentos cuando otro cliente modifica la clave
// entre WATCH y EXEC.
const maxTxRetries = 5

// TriggerStore guarda el último trigger como JSON bajo una única clave.
type TriggerStore struct {
	rdb *redis.Client
	key string
}

// NewTriggerStore crea el store; key vacío usa DefaultTriggerKey.
func NewTriggerStore(c *Client, key string) *TriggerStore {
	if key == "" {
		key = DefaultTriggerKey
	}
	return &TriggerStore{rdb: c.rdb, key: key}
}

type triggerValue struct {
	ID          string              `json:"id"`
	Alerts      []domain.PriceAlert `json:"alerts"`
	TriggeredAt time.Time           `json:"triggered_at"`
	Status      string              `json:"status"`
}

func (s *TriggerStore) Latest(ctx context.Context) (*domain.Trigger, error) {
	v, err := s.get(ctx, s.rdb)
	if err != nil {
		if errors.Is(err, domain.ErrTriggerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("redis.TriggerStore.Latest: %w", err)
	}
	return &domain.Trigger{
		ID:          v.ID,
		Alerts:      v.Alerts,
		TriggeredAt: v.TriggeredAt,
		Status:      domain.TriggerStatus(v.Status),
	}, nil
}

// MarkProcessed marca el trigger id como procesado. Es idempotente y no toca
// la clave si ya contiene otro trigger.
func (s *TriggerStore) MarkProcessed(ctx context.Context, id string) error {
	err := s.update(ctx, func(cur *triggerValue) *triggerValue {
		if cur == nil || cur.ID != id || cur.Status == string(domain.TriggerProcessed) {
			return nil
		}
		cur.Status = string(domain.TriggerProcessed)
		return cur
	})
	if err != nil {
		return fmt.Errorf("redis.TriggerStore.MarkProcessed: %w", err)
	}
	return nil
}

// Publish reemplaza el último trigger. Republicar el mismo id no reinicia su estado.
func (s *TriggerStore) Publish(ctx context.Context, t domain.Trigger) error {
	status := t.Status
	if status == "" {
		status = domain.TriggerPending
	}
	err := s.update(ctx, func(cur *triggerValue) *triggerValue {
		if cur != nil && cur.ID == t.ID {
			return nil
		}
		return &triggerValue{
			ID:          t.ID,
			Alerts:      t.Alerts,
			TriggeredAt: t.TriggeredAt.UTC(),
			Status:      string(status),
		}
	})
	if err != nil {
		return fmt.Errorf("redis.TriggerStore.Publish: %w", err)
	}
	return nil
}

// update aplica fn dentro de WATCH/MULTI. fn devuelve nil para no escribir.
func (s *TriggerStore) update(ctx context.Context, fn func(cur *triggerValue) *triggerValue) error {
	txf := func(tx *redis.Tx) error {
		var cur *triggerValue
		v, err := s.get(ctx, tx)
		switch {
		case err == nil:
			cur = &v
		case !errors.Is(err, domain.ErrTriggerNotFound):
			return err
		}

		next := fn(cur)
		if next == nil {
			return nil
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("key %s: too much contention", s.key)
}

func (s *TriggerStore) get(ctx context.Context, c getter) (triggerValue, error) {
	var v triggerValue
	data, err := c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, domain.ErrTriggerNotFound
	}
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return v, nil
}

// getter lo cumplen tanto *redis.Client como *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

var _ ports.TriggerStore = (*TriggerStore)(nil)
