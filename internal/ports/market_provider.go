package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// MarketLister lista mercados y eventos de Polymarket.
// Lo usa el discovery de cada estrategia, nunca el detector.
type MarketLister interface {
	// GetMarkets devuelve una página del listado del CLOB.
	// Cursor vacío pide la primera página; NextCursor vacío indica la última.
	GetMarkets(ctx context.Context, cursor string) (domain.MarketPage, error)

	// GetEvents devuelve los eventos de Gamma que cumplen el filtro,
	// con sus mercados anidados.
	GetEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
}
