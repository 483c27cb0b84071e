package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// BookProvider obtiene el orderbook en vivo de un token.
type BookProvider interface {
	// GetOrderBook devuelve asks ordenados de menor a mayor precio
	// y bids de mayor a menor.
	GetOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}
