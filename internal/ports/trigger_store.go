package ports

import (
	"context"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// TriggerStore es el punto de intercambio con el monitor de precios externo.
// El ID del trigger es la clave de idempotencia: MarkProcessed sobre un ID
// ya procesado o reemplazado no tiene efecto.
type TriggerStore interface {
	// Latest devuelve el trigger más reciente o domain.ErrTriggerNotFound.
	Latest(ctx context.Context) (*domain.Trigger, error)

	// MarkProcessed pasa el trigger id a momentum_processed.
	MarkProcessed(ctx context.Context, id string) error

	// Publish guarda un trigger nuevo, sustituyendo al anterior como "latest".
	Publish(ctx context.Context, t domain.Trigger) error
}
