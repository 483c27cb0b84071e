package domain

import "time"

// SignalKind es el tipo de señal que emite una estrategia.
type SignalKind string

const (
	SignalBuy       SignalKind = "buy"
	SignalSell      SignalKind = "sell"
	SignalHold      SignalKind = "hold"
	SignalArbitrage SignalKind = "arbitrage"
)

// TradingSignal es la emisión de una estrategia para un mercado.
// El payload depende del tipo: Arbitrage para señales de arbitraje,
// Momentum para buy/sell/hold de la estrategia de momentum.
type TradingSignal struct {
	ID          string     `json:"id"`
	Kind        SignalKind `json:"signal"`
	Confidence  float64    `json:"confidence"`
	Reason      string     `json:"reason"`
	MarketID    string     `json:"market_id,omitempty"`
	TargetPrice float64    `json:"target_price,omitempty"`
	Size        float64    `json:"size,omitempty"`
	Strategy    string     `json:"strategy"`
	CreatedAt   time.Time  `json:"created_at"`

	Arbitrage *ArbitrageSignal `json:"arbitrage,omitempty"`
	Momentum  *MomentumSignal  `json:"momentum,omitempty"`
}

// ArbitrageSignal es el payload de una señal de arbitraje.
// MaxPriceSum sólo lo rellena la estrategia up/down (umbral de suma usado).
type ArbitrageSignal struct {
	Opportunity ArbitrageOpportunity `json:"opportunity"`
	MaxPriceSum float64              `json:"max_price_sum,omitempty"`
}

// MomentumSignal es el payload de la estrategia de momentum.
type MomentumSignal struct {
	Symbol      string  `json:"symbol"`
	TokenID     string  `json:"token_id"`
	CryptoPrice float64 `json:"crypto_price"`
	PriceChange float64 `json:"price_change"`
	MarketPrice float64 `json:"market_price"`
	ShouldTrade bool    `json:"should_trade"`
}

// Actionable indica si la señal debe simularse contra el ledger.
func (s TradingSignal) Actionable() bool {
	switch s.Kind {
	case SignalArbitrage:
		return s.Arbitrage != nil
	case SignalBuy, SignalSell:
		return s.Momentum != nil && s.Momentum.ShouldTrade
	default:
		return false
	}
}
