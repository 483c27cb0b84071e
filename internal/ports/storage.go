package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// TradeLog persiste las señales y el estado del ledger de paper trading.
type TradeLog interface {
	// SaveSignals persiste las señales emitidas en un ciclo.
	SaveSignals(ctx context.Context, runID string, signals []domain.TradingSignal) error

	// GetSignals devuelve las señales registradas en el rango de tiempo dado.
	GetSignals(ctx context.Context, from, to time.Time) ([]domain.TradingSignal, error)

	// SaveLedger guarda órdenes, posiciones y stats del ledger para el run dado.
	// Es idempotente: reescribe el snapshot completo del run.
	SaveLedger(ctx context.Context, runID string, export domain.LedgerExport) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
