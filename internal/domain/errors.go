package domain

import "errors"

var (
	// ErrMarketFetch envuelve cualquier fallo del proveedor de mercados.
	// Un ciclo que lo recibe aborta sin mutar el ledger.
	ErrMarketFetch = errors.New("market fetch failed")

	ErrInvalidPrice       = errors.New("invalid price")
	ErrInvalidSide        = errors.New("invalid side")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrPositionNotFound   = errors.New("position not found")

	// ErrLedgerNotFound lo devuelven los stores cuando todavía no hay documento persistido.
	ErrLedgerNotFound = errors.New("ledger not found")

	// ErrTriggerNotFound lo devuelven los trigger stores cuando no hay trigger vivo.
	ErrTriggerNotFound = errors.New("trigger not found")
)
