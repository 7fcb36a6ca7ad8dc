package ports

import (
	"context"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// LedgerStore persiste el documento único del portfolio simulado.
// No contiene lógica de negocio: Save reemplaza el estado completo.
type LedgerStore interface {
	// Load devuelve el ledger persistido o domain.ErrLedgerNotFound si aún no existe.
	Load(ctx context.Context) (*domain.Ledger, error)

	// Save persiste el ledger completo (last writer wins).
	Save(ctx context.Context, l *domain.Ledger) error

	// Close libera la conexión o el fichero subyacente.
	Close() error
}
