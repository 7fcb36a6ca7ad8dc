package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// Latest devuelve el trigger publicado más recientemente.
func (s *SQLiteStorage) Latest(ctx context.Context) (*domain.Trigger, error) {
	var (
		t                  domain.Trigger
		alerts, at, status string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, alerts, triggered_at, status FROM triggers
		ORDER BY triggered_at DESC, rowid DESC LIMIT 1`,
	).Scan(&t.ID, &alerts, &at, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTriggerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage.Latest: %w", err)
	}
	if err := json.Unmarshal([]byte(alerts), &t.Alerts); err != nil {
		return nil, fmt.Errorf("storage.Latest: decode alerts: %w", err)
	}
	t.TriggeredAt = parseTime(at)
	t.Status = domain.TriggerStatus(status)
	return &t, nil
}

// MarkProcessed es idempotente: solo cambia triggers todavía pendientes.
func (s *SQLiteStorage) MarkProcessed(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE triggers SET status = ? WHERE id = ? AND status = ?`,
		string(domain.TriggerProcessed), id, string(domain.TriggerPending),
	); err != nil {
		return fmt.Errorf("storage.MarkProcessed: %w", err)
	}
	return nil
}

// Publish guarda un trigger. Republicar el mismo id no lo duplica.
func (s *SQLiteStorage) Publish(ctx context.Context, t domain.Trigger) error {
	alerts, err := json.Marshal(t.Alerts)
	if err != nil {
		return fmt.Errorf("storage.Publish: encode alerts: %w", err)
	}
	status := t.Status
	if status == "" {
		status = domain.TriggerPending
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO triggers (id, alerts, triggered_at, status) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		t.ID, string(alerts), t.TriggeredAt.UTC().Format(timeLayout), string(status),
	); err != nil {
		return fmt.Errorf("storage.Publish: %w", err)
	}
	return nil
}
