package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
	"github.com/alejandrodnm/polyarb/internal/strategy"
)

// Config contiene la configuración del scanner.
type Config struct {
	ScanInterval    time.Duration
	Filter          FilterConfig
	AnalysisWorkers int // goroutines para análisis paralelo (0 = NumCPU*2)
	DryRun          bool
}

// Scanner descubre mercados con cada estrategia y los analiza en paralelo.
type Scanner struct {
	cfg        Config
	lister     ports.MarketLister
	strategies []strategy.Strategy
	filter     *Filter
	logger     *slog.Logger
}

// New crea un Scanner con todas las dependencias inyectadas.
// Las estrategias se construyen desde fuera (cmd/).
func New(cfg Config, lister ports.MarketLister, strategies []strategy.Strategy, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		cfg:        cfg,
		lister:     lister,
		strategies: strategies,
		filter:     NewFilter(cfg.Filter),
		logger:     logger.With("component", "scanner"),
	}
}

// Strategies devuelve las estrategias activas en este scanner.
func (s *Scanner) Strategies() []strategy.Strategy {
	return s.strategies
}

// Run ejecuta cycle en cada tick hasta que el contexto se cancele.
// Si cfg.DryRun está activo, solo ejecuta un ciclo.
func (s *Scanner) Run(ctx context.Context, cycle func(context.Context) error) error {
	s.logger.Info("scanner starting",
		"interval", s.cfg.ScanInterval,
		"dry_run", s.cfg.DryRun,
		"workers", s.cfg.AnalysisWorkers,
		"strategies", len(s.strategies),
	)

	if err := cycle(ctx); err != nil {
		s.logger.Error("scan cycle failed", "err", err)
		if s.cfg.DryRun {
			return err
		}
	}
	if s.cfg.DryRun {
		return nil
	}

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scanner stopped")
			return nil
		case <-ticker.C:
			if err := cycle(ctx); err != nil {
				s.logger.Error("scan cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo: discover → filter → concurrent analyze.
// Solo falla si ninguna estrategia habilitada pudo descubrir mercados.
func (s *Scanner) RunOnce(ctx context.Context) ([]domain.TradingSignal, error) {
	start := time.Now()

	var (
		signals  []domain.TradingSignal
		errs     []error
		attempts int
		analyzed int
	)
	for _, strat := range s.strategies {
		if !strat.Enabled() {
			continue
		}
		attempts++

		markets, err := strat.Discover(ctx, s.lister)
		if err != nil {
			s.logger.Warn("discovery failed", "strategy", strat.Name(), "err", err)
			errs = append(errs, err)
			continue
		}
		markets = s.filter.Apply(markets)
		analyzed += len(markets)

		signals = append(signals, analyzeMarketsConcurrent(ctx, s.logger, strat, markets, s.cfg.AnalysisWorkers)...)
	}

	if attempts > 0 && len(errs) == attempts {
		return nil, fmt.Errorf("scanner.RunOnce: %w", errors.Join(errs...))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scanner.RunOnce: %w", err)
	}

	rankSignals(signals)

	s.logger.Info("scan cycle complete",
		"markets", analyzed,
		"signals", len(signals),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return signals, nil
}

// rankSignals ordena por estrategia y confianza descendente. El worker pool
// devuelve los resultados en orden arbitrario.
func rankSignals(signals []domain.TradingSignal) {
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Strategy != signals[j].Strategy {
			return signals[i].Strategy < signals[j].Strategy
		}
		if signals[i].Confidence != signals[j].Confidence {
			return signals[i].Confidence > signals[j].Confidence
		}
		return signals[i].MarketID < signals[j].MarketID
	})
}
