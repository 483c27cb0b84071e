package paper

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarb/config"
	"github.com/alejandrodnm/polyarb/internal/domain"
)

type fakeScanner struct {
	signals []domain.TradingSignal
	err     error
}

func (f *fakeScanner) RunOnce(context.Context) ([]domain.TradingSignal, error) {
	return f.signals, f.err
}

type fakeStore struct {
	savedSignals int
	ledgers      []domain.LedgerExport
	runIDs       []string
}

func (f *fakeStore) SaveSignals(_ context.Context, runID string, s []domain.TradingSignal) error {
	f.savedSignals += len(s)
	f.runIDs = append(f.runIDs, runID)
	return nil
}

func (f *fakeStore) GetSignals(context.Context, time.Time, time.Time) ([]domain.TradingSignal, error) {
	return nil, nil
}

func (f *fakeStore) SaveLedger(_ context.Context, runID string, exp domain.LedgerExport) error {
	f.ledgers = append(f.ledgers, exp)
	f.runIDs = append(f.runIDs, runID)
	return nil
}

func (f *fakeStore) Close() error { return nil }

type fakeNotifier struct{ calls int }

func (f *fakeNotifier) NotifySignals(context.Context, []domain.TradingSignal) error {
	f.calls++
	return nil
}

func arbSignal(typ domain.OpportunityType, yes, no float64) domain.TradingSignal {
	return domain.TradingSignal{
		ID:       "sig-" + string(typ),
		Kind:     domain.SignalArbitrage,
		MarketID: "m1",
		Arbitrage: &domain.ArbitrageSignal{Opportunity: domain.ArbitrageOpportunity{
			MarketID:       "m1",
			MarketQuestion: "Will it happen?",
			YesTokenID:     "Y",
			NoTokenID:      "N",
			YesPrice:       yes,
			NoPrice:        no,
			PriceSum:       yes + no,
			Type:           typ,
		}},
	}
}

func newEngine(cfg Config, signals ...domain.TradingSignal) (*Engine, *fakeStore) {
	store := &fakeStore{}
	e := New(&fakeScanner{signals: signals}, NewLedger(1000, nil), store, nil, cfg, nil)
	return e, store
}

func TestEngine_Simulate_BuyBoth(t *testing.T) {
	e, _ := newEngine(Config{})

	trade, err := e.Simulate(context.Background(), arbSignal(domain.BuyBoth, 0.4, 0.5))

	require.NoError(t, err)
	require.Len(t, trade.Orders, 2)
	assert.InDelta(t, 25.0, trade.Orders[0].Size, 1e-9)
	assert.InDelta(t, 20.0, trade.Orders[1].Size, 1e-9)
	assert.Equal(t, "Will it happen? (NO)", trade.Orders[1].MarketQuestion)
	assert.InDelta(t, 20.0, trade.Cost, 1e-9)
	assert.InDelta(t, 20.0, trade.ExpectedValue, 1e-9)
	assert.InDelta(t, 0.0, trade.RawProfit, 1e-9)
	assert.InDelta(t, 980.0, e.Ledger().Balance(), 1e-9)
	assert.InDelta(t, 25.0, e.Ledger().Inventory("Y"), 1e-9)
	assert.Equal(t, 1, e.Opportunities())
}

func TestEngine_Simulate_BuyBothWithMerge(t *testing.T) {
	e, _ := newEngine(Config{MergeCompleteSets: true})

	trade, err := e.Simulate(context.Background(), arbSignal(domain.BuyBoth, 0.4, 0.5))

	require.NoError(t, err)
	assert.InDelta(t, 20.0, trade.Merged, 1e-9)
	assert.InDelta(t, 1000.0, e.Ledger().Balance(), 1e-9)
	assert.InDelta(t, 5.0, e.Ledger().Inventory("Y"), 1e-9)
	assert.InDelta(t, 0.0, e.Ledger().Inventory("N"), 1e-9)
}

func TestEngine_Simulate_SellBoth(t *testing.T) {
	e, _ := newEngine(Config{FeeRate: 0.1})

	trade, err := e.Simulate(context.Background(), arbSignal(domain.SellBoth, 0.6, 0.5))

	require.NoError(t, err)
	assert.InDelta(t, 11.0, trade.Proceeds, 1e-9)
	assert.InDelta(t, 1.0, trade.RawProfit, 1e-9)
	assert.InDelta(t, 0.9, trade.ProfitAfterFee, 1e-9)
	assert.InDelta(t, 1001.0, e.Ledger().Balance(), 1e-9)
	assert.InDelta(t, 0.0, e.Ledger().Inventory("Y"), 1e-9)
}

func TestEngine_Simulate_SellBothInsufficientBalance(t *testing.T) {
	store := &fakeStore{}
	e := New(&fakeScanner{}, NewLedger(5, nil), store, nil, Config{}, nil)

	_, err := e.Simulate(context.Background(), arbSignal(domain.SellBoth, 0.6, 0.5))

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Contains(t, err.Error(), "insufficient balance to split $10.00")
	assert.Equal(t, 5.0, e.Ledger().Balance())
	assert.Empty(t, e.Ledger().Orders())
}

func TestEngine_Simulate_BuyBothOnlyMode(t *testing.T) {
	e, _ := newEngine(Config{ExecutionMode: ModeBuyBothOnly})

	_, err := e.Simulate(context.Background(), arbSignal(domain.SellBoth, 0.6, 0.5))

	assert.ErrorIs(t, err, ErrModeDisabled)
	assert.Equal(t, 1000.0, e.Ledger().Balance())
}

func TestEngine_Simulate_MaxOpenPositions(t *testing.T) {
	e, _ := newEngine(Config{MaxOpenPositions: 3})
	ctx := context.Background()

	_, err := e.Simulate(ctx, arbSignal(domain.BuyBoth, 0.4, 0.5))
	require.NoError(t, err)

	_, err = e.Simulate(ctx, arbSignal(domain.BuyBoth, 0.4, 0.5))
	assert.ErrorIs(t, err, ErrMaxOpenPositions)
	assert.Len(t, e.Ledger().OpenPositions(), 2)
}

func TestEngine_Simulate_DefaultConfigKeepsTrading(t *testing.T) {
	pc := config.Default().Paper
	e := New(&fakeScanner{}, NewLedger(pc.InitialBalance, nil), nil, nil, Config{
		TradeAmount:       pc.TradeAmount,
		FeeRate:           pc.FeeRate,
		ExecutionMode:     pc.ExecutionMode,
		MaxOpenPositions:  pc.MaxOpenPositions,
		DailyLossLimit:    pc.DailyLossLimit,
		MaxPositionSize:   pc.MaxPositionSize,
		MergeCompleteSets: pc.MergeCompleteSets,
	}, nil)
	ctx := context.Background()

	for i := range 20 {
		_, err := e.Simulate(ctx, arbSignal(domain.BuyBoth, 0.4, 0.5))
		require.NoError(t, err, "signal %d", i)
	}
	assert.Len(t, e.Ledger().OpenPositions(), 40)
	assert.Equal(t, 20, e.Opportunities())
}

func TestEngine_Simulate_InvalidPriceBooksNothing(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name string
		sig  domain.TradingSignal
	}{
		{"buy both NaN no", arbSignal(domain.BuyBoth, 0.4, math.NaN())},
		{"buy both NaN yes", arbSignal(domain.BuyBoth, math.NaN(), 0.5)},
		{"buy both inf no", arbSignal(domain.BuyBoth, 0.4, math.Inf(1))},
		{"sell both NaN no", arbSignal(domain.SellBoth, 0.6, math.NaN())},
		{"buy both zero", arbSignal(domain.BuyBoth, 0, 0.5)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newEngine(Config{ExecutionMode: ModeFull})

			_, err := e.Simulate(ctx, tc.sig)

			require.ErrorIs(t, err, domain.ErrInvalidAmount)
			assert.Empty(t, e.Ledger().Orders())
			assert.Empty(t, e.Ledger().Positions())
			assert.Equal(t, 1000.0, e.Ledger().Balance())
		})
	}
}

func TestEngine_Simulate_DailyLossLimit(t *testing.T) {
	e, _ := newEngine(Config{DailyLossLimit: 1})
	ctx := context.Background()

	// 0.3 + 0.6 con $10 por lado → valor 16.67 por $20 → pérdida 3.33
	_, err := e.Simulate(ctx, arbSignal(domain.BuyBoth, 0.3, 0.6))
	require.NoError(t, err)

	_, err = e.Simulate(ctx, arbSignal(domain.BuyBoth, 0.4, 0.5))
	assert.ErrorIs(t, err, ErrDailyLossLimit)

	e.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = e.Simulate(ctx, arbSignal(domain.BuyBoth, 0.4, 0.5))
	assert.NoError(t, err)
}

func TestEngine_Simulate_MaxPositionSize(t *testing.T) {
	e, _ := newEngine(Config{TradeAmount: 50, MaxPositionSize: 5})

	trade, err := e.Simulate(context.Background(), arbSignal(domain.BuyBoth, 0.5, 0.4))

	require.NoError(t, err)
	assert.InDelta(t, 10.0, trade.Cost, 1e-9)
}

func TestEngine_Simulate_Momentum(t *testing.T) {
	e, _ := newEngine(Config{})
	ctx := context.Background()
	sig := domain.TradingSignal{
		ID:       "mom",
		Kind:     domain.SignalBuy,
		MarketID: "m2",
		Momentum: &domain.MomentumSignal{
			Symbol: "BTC", TokenID: "BTC-YES", CryptoPrice: 65000, MarketPrice: 0.5, ShouldTrade: true,
		},
	}

	trade, err := e.Simulate(ctx, sig)

	require.NoError(t, err)
	require.Len(t, trade.Orders, 1)
	order := trade.Orders[0]
	assert.Equal(t, domain.Buy, order.Side)
	assert.InDelta(t, 20.0, order.Size, 1e-9)
	require.NotNil(t, order.CryptoPrice)
	assert.Equal(t, 65000.0, *order.CryptoPrice)
	assert.Equal(t, "BTC", order.CryptoSymbol)
	assert.InDelta(t, 20.0, e.Ledger().Inventory("BTC-YES"), 1e-9)

	sig.Kind = domain.SignalSell
	trade, err = e.Simulate(ctx, sig)
	require.NoError(t, err)
	assert.Equal(t, domain.Sell, trade.Orders[0].Side)
	assert.InDelta(t, 10.0, trade.Proceeds, 1e-9)
}

func TestEngine_Simulate_NotActionable(t *testing.T) {
	e, _ := newEngine(Config{})
	_, err := e.Simulate(context.Background(), domain.TradingSignal{Kind: domain.SignalHold})
	assert.ErrorIs(t, err, ErrNotActionable)
	assert.Equal(t, 0, e.Opportunities())
}

func TestEngine_RunOnce(t *testing.T) {
	notifier := &fakeNotifier{}
	store := &fakeStore{}
	signals := []domain.TradingSignal{
		arbSignal(domain.BuyBoth, 0.4, 0.5),
		arbSignal(domain.SellBoth, 0.6, 0.5),
		{Kind: domain.SignalSell, Momentum: &domain.MomentumSignal{ShouldTrade: false}},
	}
	e := New(&fakeScanner{signals: signals}, NewLedger(1000, nil), store, notifier,
		Config{ExecutionMode: ModeBuyBothOnly}, nil)

	res, err := e.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Len(t, res.Signals, 3)
	assert.Len(t, res.Trades, 1)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Failed)
	assert.InDelta(t, 980.0, res.Stats.CurrentBalance, 1e-9)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, 3, store.savedSignals)
	require.Len(t, store.ledgers, 1)
	assert.Len(t, store.ledgers[0].Orders, 2)
	for _, id := range store.runIDs {
		assert.Equal(t, e.RunID(), id)
	}
}

func TestEngine_RunOnce_ScanError(t *testing.T) {
	e := New(&fakeScanner{err: errors.New("boom")}, NewLedger(1000, nil), nil, nil, Config{}, nil)
	_, err := e.RunOnce(context.Background())
	assert.Error(t, err)
}
