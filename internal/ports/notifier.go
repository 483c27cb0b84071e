package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// Notifier presenta las señales de cada ciclo al usuario.
type Notifier interface {
	NotifySignals(ctx context.Context, signals []domain.TradingSignal) error
}
