package domain

import "github.com/shopspring/decimal"

// RoundCents redondea un importe en USDC a 2 decimales (half away from zero).
func RoundCents(v float64) float64 {
	return Round(v, 2)
}

// Round redondea v a places decimales usando aritmética decimal,
// evitando que 0.125 se convierta en 0.12 por representación binaria.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
