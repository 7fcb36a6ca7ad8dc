package strategy

import (
	"sort"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// Input es todo lo que un scorer necesita para evaluar un mercado.
// Alert solo viene relleno para mercados nombrados en el trigger vivo.
type Input struct {
	Market domain.Market
	Class  domain.Classification
	Ledger *domain.Ledger
	Alert  *domain.PriceAlert
	Now    time.Time
}

// Scorer define el contrato de una estrategia: decide si un mercado es
// candidato, en qué lado y con qué score. No muta el ledger.
type Scorer interface {
	// Tag devuelve el identificador único de la estrategia.
	Tag() domain.StrategyTag

	// Score devuelve el candidato y true si el mercado pasa los filtros.
	Score(in Input) (domain.Candidate, bool)
}

// Classified es un mercado junto con su clasificación, calculada una vez por ciclo.
type Classified struct {
	Market domain.Market
	Class  domain.Classification
}

// Rank aplica s a cada mercado y ordena los candidatos por score descendente.
// Los empates conservan el orden de aparición en markets.
func Rank(s Scorer, markets []Classified, ledger *domain.Ledger, alerts map[string]domain.PriceAlert, now time.Time) []domain.Candidate {
	var out []domain.Candidate
	for _, cm := range markets {
		in := Input{Market: cm.Market, Class: cm.Class, Ledger: ledger, Now: now}
		if a, ok := alerts[cm.Market.ID]; ok {
			in.Alert = &a
		}
		if c, ok := s.Score(in); ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Registry mantiene los scorers disponibles indexados por tag.
type Registry map[domain.StrategyTag]Scorer

// NewRegistry crea un registry con los cuatro scorers configurados con params.
func NewRegistry(params ParamsTable) Registry {
	r := make(Registry)
	r.Register(NewFear(params.For(domain.StrategyFear)))
	r.Register(NewHighProb(params.For(domain.StrategyHighProb)))
	r.Register(NewMomentum(params.For(domain.StrategyMomentum)))
	r.Register(NewLongshot(params.For(domain.StrategyLongshot)))
	return r
}

// Register añade un scorer al registry.
func (r Registry) Register(s Scorer) {
	r[s.Tag()] = s
}

// Get devuelve el scorer por tag.
func (r Registry) Get(tag domain.StrategyTag) (Scorer, bool) {
	s, ok := r[tag]
	return s, ok
}

// excluded aplica las exclusiones comunes: deporte de partido único,
// (mercado, lado) ya en cartera y volumen por debajo del mínimo.
func excluded(in Input, side domain.Side, minVolume float64) bool {
	if in.Class.SingleGame {
		return true
	}
	if in.Ledger != nil && in.Ledger.Holds(in.Market.ID, side) {
		return true
	}
	return in.Market.Volume24h < minVolume
}

func candidate(in Input, tag domain.StrategyTag, side domain.Side, price float64, score int, reason string) domain.Candidate {
	return domain.Candidate{
		Market:   in.Market,
		Class:    in.Class,
		Side:     side,
		Price:    price,
		Score:    score,
		Strategy: tag,
		Reason:   reason,
	}
}
