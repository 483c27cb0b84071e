package domain

import "math"

// OpportunityType indica la dirección del arbitraje sobre el set completo YES+NO.
type OpportunityType string

const (
	// BuyBoth: YES + NO < $1 → comprar ambos lados y cobrar $1 en la resolución.
	BuyBoth OpportunityType = "buy_both"
	// SellBoth: YES + NO > $1 → mintear el set por $1 y vender ambos lados.
	SellBoth OpportunityType = "sell_both"
)

// ArbitrageOpportunity es una desviación de la suma de precios respecto a $1.
// Es un valor inmutable: se produce en DetectArbitrage y se consume tal cual.
type ArbitrageOpportunity struct {
	MarketID        string          `json:"market_id"`
	MarketQuestion  string          `json:"market_question"`
	YesTokenID      string          `json:"yes_token_id"`
	NoTokenID       string          `json:"no_token_id"`
	YesPrice        float64         `json:"yes_price"`
	NoPrice         float64         `json:"no_price"`
	PriceSum        float64         `json:"price_sum"`
	ProfitPotential float64         `json:"profit_potential"`
	Confidence      float64         `json:"confidence"`
	Type            OpportunityType `json:"opportunity_type"`
}

// DetectorConfig agrupa los umbrales del detector.
type DetectorConfig struct {
	MinProfitThreshold   float64 // desviación mínima de la suma respecto a $1
	MaxPriceSumDeviation float64 // desviación a partir de la cual la confianza es 1
	MinConfidence        float64
}

// DefaultDetectorConfig son los valores por defecto de la estrategia de rebalanceo.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinProfitThreshold:   0.01,
		MaxPriceSumDeviation: 0.05,
		MinConfidence:        0.8,
	}
}

// Quote son los dos precios observados de un mercado binario.
type Quote struct {
	MarketID       string
	MarketQuestion string
	YesTokenID     string
	NoTokenID      string
	YesPrice       float64
	NoPrice        float64
}

// DetectResult distingue los motivos por los que no hay oportunidad.
type DetectResult int

const (
	Found DetectResult = iota
	BelowThreshold
	LowConfidence
)

func (r DetectResult) String() string {
	switch r {
	case Found:
		return "found"
	case BelowThreshold:
		return "below_threshold"
	case LowConfidence:
		return "low_confidence"
	default:
		return "unknown"
	}
}

// DetectArbitrage evalúa si la suma YES+NO se aleja de $1 lo suficiente.
// Es una función pura: sin I/O ni estado.
//
// La oportunidad sólo es válida cuando el resultado es Found. Con LowConfidence
// la oportunidad se devuelve igualmente rellena para que el caller pueda loguearla.
func DetectArbitrage(q Quote, cfg DetectorConfig) (ArbitrageOpportunity, DetectResult) {
	sum := q.YesPrice + q.NoPrice
	deviation := math.Abs(sum - 1.0)

	if deviation < cfg.MinProfitThreshold {
		return ArbitrageOpportunity{}, BelowThreshold
	}

	opp := ArbitrageOpportunity{
		MarketID:        q.MarketID,
		MarketQuestion:  q.MarketQuestion,
		YesTokenID:      q.YesTokenID,
		NoTokenID:       q.NoTokenID,
		YesPrice:        q.YesPrice,
		NoPrice:         q.NoPrice,
		PriceSum:        sum,
		ProfitPotential: deviation,
		Confidence:      confidenceFor(deviation, cfg.MaxPriceSumDeviation),
	}
	if sum < 1.0 {
		opp.Type = BuyBoth
	} else {
		opp.Type = SellBoth
	}

	if opp.Confidence < cfg.MinConfidence {
		return opp, LowConfidence
	}
	return opp, Found
}

// confidenceFor escala la desviación a [0,1]. Sin techo configurado la confianza es máxima.
func confidenceFor(deviation, maxDeviation float64) float64 {
	if maxDeviation <= 0 {
		return 1.0
	}
	return math.Min(1.0, deviation/maxDeviation)
}
