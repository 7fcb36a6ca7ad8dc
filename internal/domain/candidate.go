package domain

// StrategyTag identifica la estrategia que originó una posición.
type StrategyTag string

const (
	StrategyFear     StrategyTag = "fear"
	StrategyHighProb StrategyTag = "hp"
	StrategyMomentum StrategyTag = "momentum"
	StrategyLongshot StrategyTag = "ls"
)

// AllStrategies es el orden por defecto de evaluación.
var AllStrategies = []StrategyTag{StrategyFear, StrategyHighProb, StrategyMomentum, StrategyLongshot}

// Candidate es una propuesta de entrada generada por un scorer. Es efímera.
type Candidate struct {
	Market   Market
	Class    Classification
	Side     Side
	Price    float64 // precio de entrada
	Score    int
	Strategy StrategyTag
	Reason   string
}
