package domain

import "errors"

// Errores de precondición del ledger de paper trading.
// Siempre se devuelven envueltos; comparar con errors.Is.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientTokens  = errors.New("insufficient tokens")
	ErrInvalidAmount       = errors.New("invalid amount")
)
