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

// RebalancingName es la clave de registro de la estrategia de rebalanceo.
const RebalancingName = "market_rebalancing"

// Rebalancing detecta mercados binarios donde YES + NO se aleja de $1,
// usando el midpoint del CLOB como precio de cada lado.
type Rebalancing struct {
	state
	prices ports.PriceSource
	cfg    domain.DetectorConfig
}

// NewRebalancing crea la estrategia con los umbrales dados.
func NewRebalancing(prices ports.PriceSource, cfg domain.DetectorConfig, logger *slog.Logger) *Rebalancing {
	s := &Rebalancing{prices: prices, cfg: cfg}
	s.init(RebalancingName, logger)
	return s
}

// Description implementa Strategy.
func (s *Rebalancing) Description() string {
	return "Market Rebalancing Arbitrage: Detects opportunities where " +
		"YES + NO token prices deviate from $1.00, indicating " +
		"risk-free arbitrage profits."
}

// Discover implementa Strategy. Devuelve los mercados activos del CLOB.
func (s *Rebalancing) Discover(ctx context.Context, lister ports.MarketLister) ([]domain.Market, error) {
	all, err := listAllMarkets(ctx, lister)
	if err != nil {
		return nil, fmt.Errorf("rebalancing.Discover: %w", err)
	}
	markets := make([]domain.Market, 0, len(all))
	for _, m := range all {
		if m.Active && !m.Closed {
			markets = append(markets, m)
		}
	}
	s.logger.Debug("markets discovered", "total", len(all), "active", len(markets))
	return markets, nil
}

// Analyze implementa Strategy.
func (s *Rebalancing) Analyze(ctx context.Context, market domain.Market) []domain.TradingSignal {
	if !s.Enabled() {
		return nil
	}
	if len(market.Tokens) < 2 {
		return nil
	}
	yes, okYes := market.YesToken()
	no, okNo := market.NoToken()
	if !okYes || !okNo {
		return nil
	}
	if market.ConditionID == "" {
		return nil
	}

	yesPrice, err := s.prices.GetTokenPrice(ctx, yes.TokenID)
	if err != nil {
		s.logger.Debug("yes price unavailable", "market", market.ConditionID, "err", err)
		return nil
	}
	noPrice, err := s.prices.GetTokenPrice(ctx, no.TokenID)
	if err != nil {
		s.logger.Debug("no price unavailable", "market", market.ConditionID, "err", err)
		return nil
	}

	question := market.Question
	if question == "" {
		question = "Unknown"
	}

	opp, res := domain.DetectArbitrage(domain.Quote{
		MarketID:       market.ConditionID,
		MarketQuestion: question,
		YesTokenID:     yes.TokenID,
		NoTokenID:      no.TokenID,
		YesPrice:       yesPrice,
		NoPrice:        noPrice,
	}, s.cfg)

	switch res {
	case domain.BelowThreshold:
		return nil
	case domain.LowConfidence:
		s.logger.Debug("signal suppressed: low confidence",
			"market", market.ConditionID,
			"price_sum", opp.PriceSum,
			"confidence", opp.Confidence,
		)
		return nil
	}

	s.found.Add(1)
	return []domain.TradingSignal{s.signalFor(opp)}
}

func (s *Rebalancing) signalFor(opp domain.ArbitrageOpportunity) domain.TradingSignal {
	cmp := "<"
	if opp.Type == domain.SellBoth {
		cmp = ">"
	}
	return domain.TradingSignal{
		ID:         uuid.NewString(),
		Kind:       domain.SignalArbitrage,
		Confidence: opp.Confidence,
		Reason:     fmt.Sprintf("Price sum %.3f %s $1.00, profit: $%.3f", opp.PriceSum, cmp, opp.ProfitPotential),
		MarketID:   opp.MarketID,
		Strategy:   s.name,
		CreatedAt:  time.Now(),
		Arbitrage:  &domain.ArbitrageSignal{Opportunity: opp},
	}
}
