package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

// MomentumName es la clave de registro de la estrategia de momentum.
const MomentumName = "crypto_momentum"

// MomentumConfig configura la estrategia de momentum.
type MomentumConfig struct {
	PriceThreshold     float64 // movimiento mínimo del subyacente entre scans (0.01 = 1%)
	MarketLagThreshold float64 // retraso mínimo del mercado respecto al precio esperado
	MinConfidence      float64
}

// DefaultMomentumConfig devuelve los umbrales por defecto.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		PriceThreshold:     0.01,
		MarketLagThreshold: 0.005,
		MinConfidence:      0.6,
	}
}

// Momentum compara el movimiento spot del subyacente entre dos scans con el
// precio YES de los mercados cripto de 15 minutos y señaliza cuando el mercado
// va por detrás del spot.
type Momentum struct {
	state
	feed   ports.CryptoFeed
	prices ports.PriceSource
	cfg    MomentumConfig

	mu        sync.Mutex
	lastPrice map[string]float64 // conditionID → último precio spot observado
}

// NewMomentum crea la estrategia.
func NewMomentum(feed ports.CryptoFeed, prices ports.PriceSource, cfg MomentumConfig, logger *slog.Logger) *Momentum {
	s := &Momentum{
		feed:      feed,
		prices:    prices,
		cfg:       cfg,
		lastPrice: make(map[string]float64),
	}
	s.init(MomentumName, logger)
	return s
}

// Description implementa Strategy.
func (s *Momentum) Description() string {
	return fmt.Sprintf("Crypto momentum: trade 15m up/down markets lagging a %.2f%% spot move (lag > %.2f%%, min confidence %.2f)",
		s.cfg.PriceThreshold*100, s.cfg.MarketLagThreshold*100, s.cfg.MinConfidence)
}

// Discover implementa Strategy. Filtra el listado del CLOB con el clasificador
// de mercados cripto de 15 minutos.
func (s *Momentum) Discover(ctx context.Context, lister ports.MarketLister) ([]domain.Market, error) {
	all, err := listAllMarkets(ctx, lister)
	if err != nil {
		return nil, fmt.Errorf("momentum.Discover: %w", err)
	}
	var markets []domain.Market
	for _, m := range all {
		if m.Closed {
			continue
		}
		if _, ok := domain.ClassifyCryptoMarket(m.Question, m.Description); ok {
			markets = append(markets, m)
		}
	}
	s.logger.Debug("crypto 15m markets discovered", "total", len(all), "matched", len(markets))
	return markets, nil
}

// Analyze implementa Strategy. Sólo devuelve señales buy/sell; los hold se loguean.
func (s *Momentum) Analyze(ctx context.Context, market domain.Market) []domain.TradingSignal {
	if !s.Enabled() {
		return nil
	}
	tags, ok := domain.ClassifyCryptoMarket(market.Question, market.Description)
	if !ok || market.ConditionID == "" {
		return nil
	}
	token, ok := market.YesToken()
	if !ok {
		if len(market.Tokens) == 0 {
			return nil
		}
		token = market.Tokens[0]
	}

	spot, err := s.feed.GetPrice(ctx, tags.Symbol)
	if err != nil {
		s.logger.Debug("crypto price unavailable", "symbol", tags.Symbol, "err", err)
		return nil
	}
	marketPrice, err := s.prices.GetTokenPrice(ctx, token.TokenID)
	if err != nil {
		s.logger.Debug("market price unavailable", "market", market.ConditionID, "err", err)
		return nil
	}

	sig := s.evaluate(market.ConditionID, spot.Price, marketPrice, market.Question)
	if sig.Kind == domain.SignalHold {
		s.logger.Debug("hold", "market", market.ConditionID, "reason", sig.Reason)
		return nil
	}

	sig.MarketID = market.ConditionID
	sig.Momentum.Symbol = tags.Symbol
	sig.Momentum.TokenID = token.TokenID
	if sig.Momentum.ShouldTrade {
		s.found.Add(1)
	}
	return []domain.TradingSignal{sig}
}

// evaluate aplica la regla de momentum a una observación. Actualiza el último
// precio spot visto para el mercado.
func (s *Momentum) evaluate(key string, spot, marketPrice float64, question string) domain.TradingSignal {
	s.mu.Lock()
	last, seen := s.lastPrice[key]
	s.lastPrice[key] = spot
	s.mu.Unlock()

	if !seen || last == 0 {
		return s.hold("Insufficient price history")
	}

	change := (spot - last) / last
	q := strings.ToLower(question)
	isUp := strings.Contains(q, "up") || strings.Contains(q, "increase")
	isDown := strings.Contains(q, "down") || strings.Contains(q, "decrease")

	if !isUp && !isDown {
		return s.hold("Cannot determine market direction from question")
	}
	if math.Abs(change) < s.cfg.PriceThreshold {
		return s.hold(fmt.Sprintf("Price change %s below threshold %s", pct(change), pct(s.cfg.PriceThreshold)))
	}

	switch {
	case isUp && change > 0:
		return s.lagging(spot, change, marketPrice, "Crypto up %s, market lagging")
	case isDown && change < 0:
		return s.lagging(spot, change, marketPrice, "Crypto down %s, market lagging")
	case isUp && change < 0:
		return s.fading(spot, change, marketPrice, "Crypto down %s, fading up market")
	case isDown && change > 0:
		return s.fading(spot, change, marketPrice, "Crypto up %s, fading down market")
	}
	return s.hold("No clear arbitrage opportunity")
}

// lagging: el mercado todavía no refleja el movimiento → comprar YES.
func (s *Momentum) lagging(spot, change, marketPrice float64, reason string) domain.TradingSignal {
	expected := math.Min(0.9, marketPrice+math.Abs(change)*0.5)
	if expected-marketPrice <= s.cfg.MarketLagThreshold {
		return s.hold("No clear arbitrage opportunity")
	}
	conf := math.Min(1.0, math.Abs(change)/s.cfg.PriceThreshold)
	return s.directional(domain.SignalBuy, conf, fmt.Sprintf(reason, pct(change)), expected, spot, change, marketPrice)
}

// fading: el spot va en contra de lo que pregunta el mercado → vender YES.
func (s *Momentum) fading(spot, change, marketPrice float64, reason string) domain.TradingSignal {
	expected := math.Max(0.1, marketPrice-math.Abs(change)*0.3)
	if marketPrice-expected <= s.cfg.MarketLagThreshold {
		return s.hold("No clear arbitrage opportunity")
	}
	conf := math.Min(1.0, math.Abs(change)/s.cfg.PriceThreshold*0.7)
	return s.directional(domain.SignalSell, conf, fmt.Sprintf(reason, pct(change)), expected, spot, change, marketPrice)
}

func (s *Momentum) directional(kind domain.SignalKind, conf float64, reason string, target, spot, change, marketPrice float64) domain.TradingSignal {
	return domain.TradingSignal{
		ID:          uuid.NewString(),
		Kind:        kind,
		Confidence:  conf,
		Reason:      reason,
		TargetPrice: target,
		Strategy:    s.name,
		CreatedAt:   time.Now(),
		Momentum: &domain.MomentumSignal{
			CryptoPrice: spot,
			PriceChange: change,
			MarketPrice: marketPrice,
			ShouldTrade: conf >= s.cfg.MinConfidence,
		},
	}
}

func (s *Momentum) hold(reason string) domain.TradingSignal {
	return domain.TradingSignal{
		Kind:      domain.SignalHold,
		Reason:    reason,
		Strategy:  s.name,
		CreatedAt: time.Now(),
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
