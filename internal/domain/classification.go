package domain

// Category es la categoría temática gruesa de un mercado.
type Category string

const (
	CategorySports      Category = "sports"
	CategoryGeopolitics Category = "geopolitics"
	CategoryPolitics    Category = "politics"
	CategoryEconomy     Category = "economy"
	CategoryOther       Category = "other"
)

// FearGroup es el tipo de miedo al que apela un mercado.
type FearGroup string

const (
	FearNone     FearGroup = ""
	FearWar      FearGroup = "war"
	FearCollapse FearGroup = "collapse"
	FearExtreme  FearGroup = "extreme"
)

// Classification es el resultado del clasificador sobre el texto de un mercado.
type Classification struct {
	Topics       []string // ordenados
	Category     Category
	SingleGame   bool // deporte de partido único: exclusión dura de todas las estrategias
	Fear         FearGroup
	DaysToExpiry *int // nil cuando no se pudo inferir
}

// IsFear devuelve true si el mercado es de temática de miedo.
func (c Classification) IsFear() bool {
	return c.Fear != FearNone
}

// HasTopic devuelve true si topic está en la clasificación.
func (c Classification) HasTopic(topic string) bool {
	for _, t := range c.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
