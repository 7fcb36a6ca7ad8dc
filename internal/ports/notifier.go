package ports

import (
	"context"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// Notifier presenta el resultado de un ciclo al operador.
type Notifier interface {
	// NotifyCycle muestra las acciones ejecutadas y el estado del portfolio.
	NotifyCycle(ctx context.Context, actions []domain.Action, r domain.Report) error
}
