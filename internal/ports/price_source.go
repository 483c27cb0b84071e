package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// PriceSource devuelve el precio actual de un token.
// Cualquier error significa "precio no disponible" y no se reintenta en la misma pasada.
type PriceSource interface {
	GetTokenPrice(ctx context.Context, tokenID string) (float64, error)
}

// CryptoFeed devuelve el precio spot de un subyacente (BTC, ETH...).
type CryptoFeed interface {
	GetPrice(ctx context.Context, symbol string) (domain.CryptoPrice, error)
}
