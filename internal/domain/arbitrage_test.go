package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quote(yes, no float64) Quote {
	return Quote{
		MarketID:       "0xmarket",
		MarketQuestion: "Will it rain?",
		YesTokenID:     "yes",
		NoTokenID:      "no",
		YesPrice:       yes,
		NoPrice:        no,
	}
}

func TestDetectArbitrage_BuyBoth(t *testing.T) {
	opp, res := DetectArbitrage(quote(0.4, 0.5), DefaultDetectorConfig())

	require.Equal(t, Found, res)
	assert.Equal(t, BuyBoth, opp.Type)
	assert.InDelta(t, 0.9, opp.PriceSum, 1e-9)
	assert.InDelta(t, 0.1, opp.ProfitPotential, 1e-9)
	assert.Equal(t, 1.0, opp.Confidence)
	assert.Equal(t, "0xmarket", opp.MarketID)
	assert.Equal(t, "yes", opp.YesTokenID)
	assert.Equal(t, "no", opp.NoTokenID)
}

func TestDetectArbitrage_SellBoth(t *testing.T) {
	opp, res := DetectArbitrage(quote(0.6, 0.5), DefaultDetectorConfig())

	require.Equal(t, Found, res)
	assert.Equal(t, SellBoth, opp.Type)
	assert.InDelta(t, 1.1, opp.PriceSum, 1e-9)
	assert.InDelta(t, 0.1, opp.ProfitPotential, 1e-9)
}

func TestDetectArbitrage_NoDeviation(t *testing.T) {
	_, res := DetectArbitrage(quote(0.5, 0.5), DefaultDetectorConfig())
	assert.Equal(t, BelowThreshold, res)
}

func TestDetectArbitrage_LowConfidence(t *testing.T) {
	// desviación 0.02 → confianza 0.02/0.05 = 0.4 < 0.8
	opp, res := DetectArbitrage(quote(0.49, 0.49), DefaultDetectorConfig())

	assert.Equal(t, LowConfidence, res)
	assert.InDelta(t, 0.4, opp.Confidence, 1e-9)
	assert.Equal(t, BuyBoth, opp.Type)
}

func TestDetectArbitrage_ZeroMaxDeviation(t *testing.T) {
	cfg := DetectorConfig{MinProfitThreshold: 0.01, MaxPriceSumDeviation: 0, MinConfidence: 0.9}
	opp, res := DetectArbitrage(quote(0.45, 0.53), cfg)

	assert.Equal(t, Found, res)
	assert.Equal(t, 1.0, opp.Confidence)
}

func TestDetectArbitrage_Property(t *testing.T) {
	cfg := DefaultDetectorConfig()
	for yes := 0.01; yes < 1.0; yes += 0.07 {
		for no := 0.01; no < 1.0; no += 0.05 {
			sum := yes + no
			dev := math.Abs(sum - 1)
			opp, res := DetectArbitrage(quote(yes, no), cfg)

			switch {
			case dev < cfg.MinProfitThreshold:
				assert.Equal(t, BelowThreshold, res)
			case math.Min(1, dev/cfg.MaxPriceSumDeviation) < cfg.MinConfidence:
				assert.Equal(t, LowConfidence, res)
			default:
				require.Equal(t, Found, res)
				assert.InDelta(t, dev, opp.ProfitPotential, 1e-9)
				assert.Equal(t, sum < 1, opp.Type == BuyBoth)
				assert.GreaterOrEqual(t, opp.Confidence, 0.0)
				assert.LessOrEqual(t, opp.Confidence, 1.0)
			}
		}
	}
}

func TestDetectResult_String(t *testing.T) {
	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "below_threshold", BelowThreshold.String())
	assert.Equal(t, "low_confidence", LowConfidence.String())
}
