package ports

import (
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// Classifier extrae topics, categoría, miedo y expiración del texto de un mercado.
// Debe ser puro: misma entrada, misma salida, sin errores.
type Classifier interface {
	Classify(question string, now time.Time) domain.Classification
}
