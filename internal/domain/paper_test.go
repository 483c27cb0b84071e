package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition_PnL_OpenUndefined(t *testing.T) {
	p := Position{Entry: Order{Side: Buy, Size: 10, Price: 0.4}, Status: PositionOpen}
	_, ok := p.PnL()
	assert.False(t, ok)
}

func TestPosition_PnL_LongAndShort(t *testing.T) {
	long := Position{
		Entry:  Order{Side: Buy, Size: 10, Price: 0.4},
		Exit:   &Order{Side: Sell, Size: 10, Price: 0.6},
		Status: PositionClosed,
	}
	pnl, ok := long.PnL()
	require.True(t, ok)
	assert.InDelta(t, 2.0, pnl, 1e-9)

	short := Position{
		Entry:  Order{Side: Sell, Size: 10, Price: 0.6},
		Exit:   &Order{Side: Buy, Size: 10, Price: 0.7},
		Status: PositionClosed,
	}
	pnl, ok = short.PnL()
	require.True(t, ok)
	assert.InDelta(t, -1.0, pnl, 1e-9)
}

func TestSide_Opposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
}

func TestOrder_Record(t *testing.T) {
	price := 65000.0
	o := Order{
		ID:           "1",
		Side:         Sell,
		Size:         2,
		Price:        0.3,
		Timestamp:    time.Unix(1700000000, 500_000_000),
		CryptoPrice:  &price,
		CryptoSymbol: "BTC",
	}
	r := o.Record()
	assert.Equal(t, "sell", r.Side)
	assert.InDelta(t, 1700000000.5, r.Timestamp, 1e-6)
	require.NotNil(t, r.CryptoSymbol)
	assert.Equal(t, "BTC", *r.CryptoSymbol)

	r = Order{Side: Buy}.Record()
	assert.Nil(t, r.CryptoSymbol)
	assert.Nil(t, r.CryptoPrice)
}

func TestPosition_Record(t *testing.T) {
	p := Position{ID: "1", Entry: Order{ID: "1", Side: Buy}, Status: PositionOpen}
	r := p.Record()
	assert.Equal(t, "open", r.Status)
	assert.Nil(t, r.ExitOrder)

	p.Exit = &Order{ID: "2", Side: Sell}
	p.Status = PositionClosed
	r = p.Record()
	require.NotNil(t, r.ExitOrder)
	assert.Equal(t, "sell", r.ExitOrder.Side)
	assert.Equal(t, "closed", r.Status)
}

func TestTradingSignal_Actionable(t *testing.T) {
	assert.True(t, TradingSignal{Kind: SignalArbitrage, Arbitrage: &ArbitrageSignal{}}.Actionable())
	assert.False(t, TradingSignal{Kind: SignalArbitrage}.Actionable())
	assert.True(t, TradingSignal{Kind: SignalBuy, Momentum: &MomentumSignal{ShouldTrade: true}}.Actionable())
	assert.False(t, TradingSignal{Kind: SignalSell, Momentum: &MomentumSignal{}}.Actionable())
	assert.False(t, TradingSignal{Kind: SignalHold}.Actionable())
}
