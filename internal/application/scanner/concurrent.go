package scanner

// concurrent.go: worker pool para análisis paralelo de mercados.
//
// Las estrategias sólo leen de fuentes de precio externas, así que los mercados
// se analizan en paralelo; el ledger nunca se toca desde aquí.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/strategy"
)

// analyzeMarketsConcurrent analiza todos los mercados en paralelo usando un worker pool.
// El rate limiter del cliente HTTP controla el ritmo de las peticiones de precio.
//
// Si workers <= 0 usa runtime.NumCPU() × 2.
func analyzeMarketsConcurrent(
	ctx context.Context,
	logger *slog.Logger,
	strat strategy.Strategy,
	markets []domain.Market,
	workers int,
) []domain.TradingSignal {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if workers > len(markets) {
		workers = len(markets)
	}

	workCh := make(chan domain.Market, len(markets))
	resultCh := make(chan domain.TradingSignal, len(markets))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range workCh {
				if ctx.Err() != nil {
					continue
				}
				for _, sig := range strat.Analyze(ctx, m) {
					resultCh <- sig
				}
			}
		}()
	}

	for _, m := range markets {
		workCh <- m
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	signals := make([]domain.TradingSignal, 0)
	for sig := range resultCh {
		signals = append(signals, sig)
	}

	logger.Debug("concurrent analysis complete",
		"strategy", strat.Name(),
		"markets", len(markets),
		"signals", len(signals),
		"workers", workers,
	)
	return signals
}
