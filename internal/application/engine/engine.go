package engine

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// ScannerService es la interfaz mínima que el engine necesita del scanner.
// Desacopla el PaperEngine de *scanner.Scanner concreto.
type ScannerService interface {
	RunOnce(ctx context.Context) ([]domain.TradingSignal, error)
}

// Tally acumula las señales de arbitraje vistas a lo largo de un run, por tipo.
// No es seguro para uso concurrente.
type Tally struct {
	BuyBoth  int
	SellBoth int
}

// Add cuenta las señales de arbitraje de un ciclo. Ignora las direccionales.
func (t *Tally) Add(signals []domain.TradingSignal) {
	for _, sig := range signals {
		if sig.Arbitrage == nil {
			continue
		}
		switch sig.Arbitrage.Opportunity.Type {
		case domain.BuyBoth:
			t.BuyBoth++
		case domain.SellBoth:
			t.SellBoth++
		}
	}
}

// Total devuelve el número de oportunidades de arbitraje contadas.
func (t Tally) Total() int { return t.BuyBoth + t.SellBoth }
