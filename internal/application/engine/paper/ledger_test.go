package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

func buy(size, price float64, token string) domain.OrderRequest {
	return domain.OrderRequest{MarketID: "m1", MarketQuestion: "Q", Side: domain.Buy, Size: size, Price: price, TokenID: token}
}

func sell(size, price float64, token string) domain.OrderRequest {
	return domain.OrderRequest{MarketID: "m1", MarketQuestion: "Q", Side: domain.Sell, Size: size, Price: price, TokenID: token}
}

func TestLedger_PlaceOrder_Buy(t *testing.T) {
	l := NewLedger(1000, nil)

	order, err := l.PlaceOrder(buy(100, 0.4, "T"))

	require.NoError(t, err)
	assert.Equal(t, "1", order.ID)
	assert.InDelta(t, 960.0, l.Balance(), 1e-9)
	assert.Equal(t, 100.0, l.Inventory("T"))
	require.Len(t, l.Positions(), 1)
	assert.Equal(t, domain.PositionOpen, l.Positions()[0].Status)
	assert.Equal(t, order, l.Positions()[0].Entry)
}

func TestLedger_PlaceOrder_SellWithoutInventoryRejected(t *testing.T) {
	l := NewLedger(1000, nil)

	_, err := l.PlaceOrder(sell(50, 0.5, "T"))

	require.ErrorIs(t, err, domain.ErrInsufficientTokens)
	assert.Contains(t, err.Error(), "need 50.00, have 0.00")
	assert.Equal(t, 1000.0, l.Balance())
	assert.Equal(t, 0.0, l.Inventory("T"))
	assert.Empty(t, l.Orders())
	assert.Empty(t, l.Positions())
}

func TestLedger_PlaceOrder_SellDebitsInventory(t *testing.T) {
	l := NewLedger(1000, nil)
	_, err := l.PlaceOrder(buy(100, 0.4, "T"))
	require.NoError(t, err)

	_, err = l.PlaceOrder(sell(60, 0.5, "T"))

	require.NoError(t, err)
	assert.Equal(t, 40.0, l.Inventory("T"))
	assert.InDelta(t, 990.0, l.Balance(), 1e-9)
}

func TestLedger_PlaceOrder_NakedSellAndNegativeBalance(t *testing.T) {
	l := NewLedger(10, nil)

	_, err := l.PlaceOrder(sell(10, 0.5, ""))
	require.NoError(t, err)
	assert.InDelta(t, 15.0, l.Balance(), 1e-9)

	// las compras no se bloquean por falta de cash
	_, err = l.PlaceOrder(buy(100, 0.5, ""))
	require.NoError(t, err)
	assert.InDelta(t, -35.0, l.Balance(), 1e-9)
}

func TestLedger_PlaceOrder_InvalidSize(t *testing.T) {
	l := NewLedger(10, nil)
	_, err := l.PlaceOrder(buy(0, 0.5, "T"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = l.PlaceOrder(domain.OrderRequest{Side: "hold", Size: 1})
	assert.Error(t, err)
}

func TestLedger_ClosePosition_Long(t *testing.T) {
	l := NewLedger(1000, nil)
	_, err := l.PlaceOrder(buy(100, 0.4, ""))
	require.NoError(t, err)

	pos, ok := l.ClosePosition("1", 0.6)

	require.True(t, ok)
	assert.Equal(t, domain.PositionClosed, pos.Status)
	require.NotNil(t, pos.Exit)
	assert.Equal(t, domain.Sell, pos.Exit.Side)
	assert.Equal(t, "2", pos.Exit.ID)
	pnl, ok := pos.PnL()
	require.True(t, ok)
	assert.InDelta(t, 20.0, pnl, 1e-9)
	// 1000 - 40 + 60
	assert.InDelta(t, 1020.0, l.Balance(), 1e-9)
	assert.Len(t, l.Orders(), 2)
	assert.Len(t, l.Positions(), 1)
}

func TestLedger_ClosePosition_ShortCreditsComplement(t *testing.T) {
	l := NewLedger(1000, nil)
	_, err := l.PlaceOrder(sell(100, 0.6, ""))
	require.NoError(t, err)

	pos, ok := l.ClosePosition("1", 0.7)

	require.True(t, ok)
	assert.Equal(t, domain.Buy, pos.Exit.Side)
	// 1000 + 60 + 100 × (1 − 0.7)
	assert.InDelta(t, 1090.0, l.Balance(), 1e-9)
	pnl, _ := pos.PnL()
	assert.InDelta(t, -10.0, pnl, 1e-9)
}

func TestLedger_ClosePosition_NoOp(t *testing.T) {
	l := NewLedger(1000, nil)
	_, err := l.PlaceOrder(buy(10, 0.5, ""))
	require.NoError(t, err)

	_, ok := l.ClosePosition("99", 0.5)
	assert.False(t, ok)

	_, ok = l.ClosePosition("1", 0.5)
	require.True(t, ok)
	balance := l.Balance()

	_, ok = l.ClosePosition("1", 0.9)
	assert.False(t, ok)
	assert.Equal(t, balance, l.Balance())
	assert.Len(t, l.Orders(), 2)
}

func TestLedger_SplitUSDC(t *testing.T) {
	l := NewLedger(100, nil)

	require.NoError(t, l.SplitUSDC(10, "Y", "N"))

	assert.Equal(t, 90.0, l.Balance())
	assert.Equal(t, 10.0, l.Inventory("Y"))
	assert.Equal(t, 10.0, l.Inventory("N"))
}

func TestLedger_SplitUSDC_InsufficientBalance(t *testing.T) {
	l := NewLedger(5, nil)

	err := l.SplitUSDC(10, "Y", "N")

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, 5.0, l.Balance())
	assert.Equal(t, 0.0, l.Inventory("Y"))
	assert.Equal(t, 0.0, l.Inventory("N"))
}

func TestLedger_MergeTokens(t *testing.T) {
	l := NewLedger(100, nil)
	require.NoError(t, l.SplitUSDC(10, "Y", "N"))

	require.NoError(t, l.MergeTokens(4, "Y", "N"))
	assert.Equal(t, 94.0, l.Balance())
	assert.Equal(t, 6.0, l.Inventory("Y"))

	err := l.MergeTokens(7, "Y", "N")
	require.ErrorIs(t, err, domain.ErrInsufficientTokens)
	assert.Equal(t, 94.0, l.Balance())
	assert.Equal(t, 6.0, l.Inventory("N"))

	assert.ErrorIs(t, l.MergeTokens(-1, "Y", "N"), domain.ErrInvalidAmount)
}

func TestLedger_InventoryNeverNegative(t *testing.T) {
	l := NewLedger(50, nil)
	ops := []func(){
		func() { _ = l.SplitUSDC(20, "Y", "N") },
		func() { _, _ = l.PlaceOrder(sell(15, 0.5, "Y")) },
		func() { _, _ = l.PlaceOrder(sell(15, 0.5, "Y")) },
		func() { _ = l.MergeTokens(10, "Y", "N") },
		func() { _ = l.MergeTokens(5, "Y", "N") },
		func() { _, _ = l.PlaceOrder(buy(3, 0.4, "N")) },
		func() { _, _ = l.PlaceOrder(sell(30, 0.5, "N")) },
	}
	for _, op := range ops {
		op()
		assert.GreaterOrEqual(t, l.Inventory("Y"), 0.0)
		assert.GreaterOrEqual(t, l.Inventory("N"), 0.0)
	}
}

func TestApplyFee(t *testing.T) {
	assert.Equal(t, -5.0, ApplyFee(-5, 0.1))
	assert.Equal(t, 0.0, ApplyFee(0, 0.1))
	assert.InDelta(t, 9.0, ApplyFee(10, 0.1), 1e-9)
	assert.Equal(t, 10.0, ApplyFee(10, 0))
}

func TestLedger_Stats_Empty(t *testing.T) {
	l := NewLedger(1000, nil)
	_, err := l.PlaceOrder(buy(10, 0.5, ""))
	require.NoError(t, err)

	stats := l.Stats()

	assert.Equal(t, domain.LedgerStats{CurrentBalance: 995}, stats)
}

func TestLedger_Stats(t *testing.T) {
	l := NewLedger(1000, nil)
	for _, req := range []domain.OrderRequest{buy(100, 0.4, ""), buy(100, 0.5, ""), buy(10, 0.5, "")} {
		_, err := l.PlaceOrder(req)
		require.NoError(t, err)
	}
	_, ok := l.ClosePosition("1", 0.6) // +20
	require.True(t, ok)
	_, ok = l.ClosePosition("2", 0.45) // -5
	require.True(t, ok)

	stats := l.Stats()

	assert.Equal(t, 2, stats.TotalTrades)
	assert.InDelta(t, 15.0, stats.TotalPnL, 1e-9)
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9)
	assert.InDelta(t, 20.0, stats.AvgWin, 1e-9)
	assert.InDelta(t, -5.0, stats.AvgLoss, 1e-9)
	// 1000 - 40 - 50 - 5 + 60 + 45 = 1010
	assert.InDelta(t, 1010.0, stats.CurrentBalance, 1e-9)
	assert.InDelta(t, 1.0, stats.TotalReturn, 1e-9)
	assert.Equal(t, stats, l.Stats())
	assert.InDelta(t, 15.0, l.TotalPnL(), 1e-9)
	assert.Len(t, l.OpenPositions(), 1)
	assert.Len(t, l.ClosedPositions(), 2)
}

func TestLedger_Export(t *testing.T) {
	l := NewLedger(100, nil)
	_, err := l.PlaceOrder(buy(10, 0.5, "T"))
	require.NoError(t, err)
	_, ok := l.ClosePosition("1", 0.7)
	require.True(t, ok)

	exp := l.Export()

	assert.Equal(t, 100.0, exp.InitialBalance)
	assert.InDelta(t, 102.0, exp.CurrentBalance, 1e-9)
	require.Len(t, exp.Orders, 2)
	assert.Equal(t, "buy", exp.Orders[0].Side)
	assert.Equal(t, "sell", exp.Orders[1].Side)
	require.Len(t, exp.Positions, 1)
	assert.Equal(t, "closed", exp.Positions[0].Status)
	require.NotNil(t, exp.Positions[0].ExitOrder)
	assert.Equal(t, 1, exp.Stats.TotalTrades)
}
