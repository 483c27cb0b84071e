package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

const (
	// UpDownName es la clave de registro de la estrategia up/down.
	UpDownName       = "btc_updown"
	upDownConfidence = 0.95
)

// UpDownConfig configura la estrategia up/down de 15 minutos.
type UpDownConfig struct {
	MinProfitThreshold float64
	MaxPriceSum        float64 // sólo señaliza cuando Up + Down < MaxPriceSum
	TagID              string
	ExcludeTagIDs      []string
	EventLimit         int
}

// DefaultUpDownConfig devuelve la configuración para los mercados de Bitcoin.
func DefaultUpDownConfig() UpDownConfig {
	return UpDownConfig{
		MinProfitThreshold: 0.01,
		MaxPriceSum:        0.99,
		TagID:              "102175",
		ExcludeTagIDs:      []string{"39", "101267", "818"},
		EventLimit:         500,
	}
}

// UpDown compra ambos lados de los mercados up/down de 15 minutos cuando
// la suma de best asks queda por debajo de MaxPriceSum.
// Sólo reconoce buy_both: la venta del set no aplica a este patrón.
type UpDown struct {
	state
	books ports.BookProvider
	cfg   UpDownConfig
}

// NewUpDown crea la estrategia.
func NewUpDown(books ports.BookProvider, cfg UpDownConfig, logger *slog.Logger) *UpDown {
	s := &UpDown{books: books, cfg: cfg}
	s.init(UpDownName, logger)
	return s
}

// Description implementa Strategy.
func (s *UpDown) Description() string {
	return fmt.Sprintf("Bitcoin 15m up/down arbitrage: Buy both when Up + Down < $%.2f, min profit $%.2f",
		s.cfg.MaxPriceSum, s.cfg.MinProfitThreshold)
}

// Discover implementa Strategy. Lee los eventos de Gamma del tag configurado
// y aplana sus mercados quedándose con los que aceptan órdenes.
func (s *UpDown) Discover(ctx context.Context, lister ports.MarketLister) ([]domain.Market, error) {
	events, err := lister.GetEvents(ctx, domain.EventFilter{
		TagID:         s.cfg.TagID,
		ExcludeTagIDs: s.cfg.ExcludeTagIDs,
		Closed:        false,
		Limit:         s.cfg.EventLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("updown.Discover: %w", err)
	}

	var markets []domain.Market
	for _, ev := range events {
		for _, m := range ev.Markets {
			if m.AcceptingOrders {
				markets = append(markets, m)
			}
		}
	}
	s.logger.Info("up/down markets discovered", "events", len(events), "markets", len(markets))
	return markets, nil
}

// Analyze implementa Strategy.
func (s *UpDown) Analyze(ctx context.Context, market domain.Market) []domain.TradingSignal {
	if !s.Enabled() || !market.AcceptingOrders {
		return nil
	}

	outcomes, err := domain.ParseStringList(market.Outcomes)
	if err != nil || len(outcomes) != 2 {
		s.logger.Debug("skipping market with malformed outcomes", "question", market.Question, "outcomes", len(outcomes), "err", err)
		return nil
	}
	tokenIDs, err := domain.ParseStringList(market.ClobTokenIDs)
	if err != nil || len(tokenIDs) != 2 {
		s.logger.Debug("skipping market with malformed token ids", "question", market.Question, "tokens", len(tokenIDs), "err", err)
		return nil
	}
	upID, downID := tokenIDs[0], tokenIDs[1]

	upBook, err := s.books.GetOrderBook(ctx, upID)
	if err != nil {
		s.logger.Debug("skipping market due to orderbook error", "question", market.Question, "err", err)
		return nil
	}
	downBook, err := s.books.GetOrderBook(ctx, downID)
	if err != nil {
		s.logger.Debug("skipping market due to orderbook error", "question", market.Question, "err", err)
		return nil
	}
	if len(upBook.Asks) == 0 || len(downBook.Asks) == 0 {
		return nil
	}

	upAsk := upBook.BestAsk()
	downAsk := downBook.BestAsk()
	sum := upAsk + downAsk
	if sum >= s.cfg.MaxPriceSum {
		return nil
	}
	profit := 1.0 - sum
	if profit < s.cfg.MinProfitThreshold {
		return nil
	}

	opp := domain.ArbitrageOpportunity{
		MarketID:        market.ConditionID,
		MarketQuestion:  market.Question,
		YesTokenID:      upID,
		NoTokenID:       downID,
		YesPrice:        upAsk,
		NoPrice:         downAsk,
		PriceSum:        sum,
		ProfitPotential: profit,
		Confidence:      upDownConfidence,
		Type:            domain.BuyBoth,
	}

	s.found.Add(1)
	s.logger.Info("arbitrage found", "question", domain.TruncateQuestion(market.Question, market.ConditionID, 60))

	return []domain.TradingSignal{{
		ID:         uuid.NewString(),
		Kind:       domain.SignalArbitrage,
		Confidence: upDownConfidence,
		Reason:     fmt.Sprintf("BTC up/down arbitrage: Up + Down = $%.4f < $1.00 (profit: $%.4f)", sum, profit),
		MarketID:   market.ConditionID,
		Size:       domain.CompleteSetDepth(upBook, downBook),
		Strategy:   s.name,
		CreatedAt:  time.Now(),
		Arbitrage:  &domain.ArbitrageSignal{Opportunity: opp, MaxPriceSum: s.cfg.MaxPriceSum},
	}}
}
