package paper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyarb/internal/application/engine"
	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

const (
	DefaultTradeAmount = 10.0

	ModeFull        = "full"
	ModeBuyBothOnly = "buy_both_only"
)

// Reasons a signal is not simulated. Returned wrapped by Simulate.
var (
	ErrNotActionable    = errors.New("signal not actionable")
	ErrModeDisabled     = errors.New("opportunity type disabled by execution mode")
	ErrMaxOpenPositions = errors.New("max open positions reached")
	ErrDailyLossLimit   = errors.New("daily loss limit reached")
)

// Config holds paper trading-specific settings.
type Config struct {
	TradeAmount       float64 // USDC per leg
	FeeRate           float64
	ExecutionMode     string
	MaxOpenPositions  int     // 0 = unlimited
	DailyLossLimit    float64 // 0 = disabled
	MaxPositionSize   float64 // caps TradeAmount, 0 = no cap
	MergeCompleteSets bool
}

// Engine drives the paper ledger from the signals of each scan.
// Simulation is sequential: one signal is applied to the ledger before the next.
type Engine struct {
	scanner  engine.ScannerService
	ledger   *Ledger
	store    ports.TradeLog
	notifier ports.Notifier
	cfg      Config
	runID    string
	logger   *slog.Logger
	now      func() time.Time

	opportunities int
	day           string
	dayPnL        float64
}

// New creates a paper trading engine. store and notifier may be nil.
func New(
	scanner engine.ScannerService,
	ledger *Ledger,
	store ports.TradeLog,
	notifier ports.Notifier,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.TradeAmount <= 0 {
		cfg.TradeAmount = DefaultTradeAmount
	}
	if cfg.ExecutionMode == "" {
		cfg.ExecutionMode = ModeFull
	}
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	return &Engine{
		scanner:  scanner,
		ledger:   ledger,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		runID:    runID,
		logger:   logger.With("component", "paper", "run_id", runID),
		now:      time.Now,
	}
}

// RunID identifies this process in the trade log.
func (pe *Engine) RunID() string { return pe.runID }

// Ledger returns the ledger the engine trades against.
func (pe *Engine) Ledger() *Ledger { return pe.ledger }

// Opportunities returns how many actionable signals have been seen so far.
func (pe *Engine) Opportunities() int { return pe.opportunities }

// TradeResult is the outcome of simulating one signal.
type TradeResult struct {
	SignalID       string
	MarketID       string
	Kind           domain.SignalKind
	Type           domain.OpportunityType
	Orders         []domain.Order
	Cost           float64
	Proceeds       float64
	ExpectedValue  float64
	RawProfit      float64
	ProfitAfterFee float64
	Merged         float64
}

// CycleResult contains everything produced by one paper trading cycle.
type CycleResult struct {
	Signals []domain.TradingSignal
	Trades  []TradeResult
	Skipped int
	Failed  int
	Stats   domain.LedgerStats
}

// RunOnce executes a single paper trading cycle: scan, persist the signals,
// simulate every actionable one and snapshot the ledger.
func (pe *Engine) RunOnce(ctx context.Context) (*CycleResult, error) {
	signals, err := pe.scanner.RunOnce(ctx)
	if err != nil {
		return nil, fmt.Errorf("paper.RunOnce: scan: %w", err)
	}
	result := &CycleResult{Signals: signals}

	if pe.notifier != nil {
		if err := pe.notifier.NotifySignals(ctx, signals); err != nil {
			pe.logger.Warn("paper: notify failed", "err", err)
		}
	}
	if pe.store != nil && len(signals) > 0 {
		if err := pe.store.SaveSignals(ctx, pe.runID, signals); err != nil {
			pe.logger.Warn("paper: error saving signals", "err", err)
		}
	}

	for _, sig := range signals {
		if !sig.Actionable() {
			continue
		}
		trade, err := pe.Simulate(ctx, sig)
		switch {
		case err == nil:
			result.Trades = append(result.Trades, trade)
		case errors.Is(err, ErrModeDisabled), errors.Is(err, ErrMaxOpenPositions), errors.Is(err, ErrDailyLossLimit):
			result.Skipped++
			pe.logger.Info("paper: signal skipped", "market", sig.MarketID, "reason", err)
		default:
			result.Failed++
			pe.logger.Warn("paper: trade failed", "market", sig.MarketID, "err", err)
		}
	}

	result.Stats = pe.ledger.Stats()

	if pe.store != nil {
		if err := pe.store.SaveLedger(ctx, pe.runID, pe.ledger.Export()); err != nil {
			pe.logger.Warn("paper: error saving ledger", "err", err)
		}
	}

	pe.logger.Info("paper cycle complete",
		"signals", len(signals),
		"trades", len(result.Trades),
		"skipped", result.Skipped,
		"failed", result.Failed,
		"balance", fmt.Sprintf("%.2f", result.Stats.CurrentBalance),
	)
	return result, nil
}

// Simulate applies one actionable signal to the ledger.
func (pe *Engine) Simulate(ctx context.Context, sig domain.TradingSignal) (TradeResult, error) {
	if err := ctx.Err(); err != nil {
		return TradeResult{}, err
	}
	if !sig.Actionable() {
		return TradeResult{}, fmt.Errorf("paper.Simulate: %s: %w", sig.Kind, ErrNotActionable)
	}
	pe.opportunities++

	if err := pe.checkDailyLoss(); err != nil {
		return TradeResult{}, err
	}

	var (
		trade TradeResult
		err   error
		legs  = 1
	)
	if sig.Arbitrage != nil {
		legs = 2
	}
	if limit := pe.cfg.MaxOpenPositions; limit > 0 {
		if open := len(pe.ledger.OpenPositions()); open+legs > limit {
			return TradeResult{}, fmt.Errorf("paper.Simulate: %d open, %d needed, max %d: %w",
				open, legs, limit, ErrMaxOpenPositions)
		}
	}

	if sig.Arbitrage != nil {
		trade, err = pe.simulateArbitrage(sig.Arbitrage.Opportunity)
	} else {
		trade, err = pe.simulateDirectional(sig)
	}
	if err != nil {
		return TradeResult{}, err
	}

	trade.SignalID = sig.ID
	trade.Kind = sig.Kind
	pe.dayPnL += trade.ProfitAfterFee
	return trade, nil
}

func (pe *Engine) simulateArbitrage(opp domain.ArbitrageOpportunity) (TradeResult, error) {
	switch opp.Type {
	case domain.BuyBoth:
		return pe.buyBoth(opp)
	case domain.SellBoth:
		if pe.cfg.ExecutionMode == ModeBuyBothOnly {
			return TradeResult{}, fmt.Errorf("paper.Simulate: %s in %s mode: %w", opp.Type, pe.cfg.ExecutionMode, ErrModeDisabled)
		}
		return pe.sellBoth(opp)
	default:
		return TradeResult{}, fmt.Errorf("paper.Simulate: unknown opportunity type %q", opp.Type)
	}
}

// buyBoth spends the trade amount on each side. The guaranteed payout is
// limited by the smaller of the two quantities.
func (pe *Engine) buyBoth(opp domain.ArbitrageOpportunity) (TradeResult, error) {
	if !validPrices(opp) {
		return TradeResult{}, fmt.Errorf("paper.buyBoth: invalid price yes=%v no=%v: %w", opp.YesPrice, opp.NoPrice, domain.ErrInvalidAmount)
	}
	amount := pe.tradeAmount()
	yesQty := amount / opp.YesPrice
	noQty := amount / opp.NoPrice

	yesOrder, err := pe.ledger.PlaceOrder(domain.OrderRequest{
		MarketID:       opp.MarketID,
		MarketQuestion: opp.MarketQuestion,
		Side:           domain.Buy,
		Size:           yesQty,
		Price:          opp.YesPrice,
		TokenID:        opp.YesTokenID,
	})
	if err != nil {
		return TradeResult{}, fmt.Errorf("paper.buyBoth: yes leg: %w", err)
	}
	noOrder, err := pe.ledger.PlaceOrder(domain.OrderRequest{
		MarketID:       opp.MarketID,
		MarketQuestion: opp.MarketQuestion + " (NO)",
		Side:           domain.Buy,
		Size:           noQty,
		Price:          opp.NoPrice,
		TokenID:        opp.NoTokenID,
	})
	if err != nil {
		return TradeResult{}, fmt.Errorf("paper.buyBoth: no leg: %w", err)
	}

	cost := yesOrder.Notional() + noOrder.Notional()
	value := math.Min(yesQty, noQty)
	raw := value - cost
	trade := TradeResult{
		MarketID:       opp.MarketID,
		Type:           domain.BuyBoth,
		Orders:         []domain.Order{yesOrder, noOrder},
		Cost:           cost,
		ExpectedValue:  value,
		RawProfit:      raw,
		ProfitAfterFee: ApplyFee(raw, pe.cfg.FeeRate),
	}

	if pe.cfg.MergeCompleteSets {
		if err := pe.ledger.MergeTokens(value, opp.YesTokenID, opp.NoTokenID); err != nil {
			pe.logger.Warn("paper: merge failed", "market", opp.MarketID, "err", err)
		} else {
			trade.Merged = value
		}
	}

	pe.logger.Info("paper: bought both sides",
		"market", domain.TruncateQuestion(opp.MarketQuestion, opp.MarketID, 60),
		"yes_qty", fmt.Sprintf("%.2f", yesQty),
		"yes_price", opp.YesPrice,
		"no_qty", fmt.Sprintf("%.2f", noQty),
		"no_price", opp.NoPrice,
		"cost", fmt.Sprintf("%.3f", cost),
		"value", fmt.Sprintf("%.3f", value),
		"raw_profit", fmt.Sprintf("%.3f", raw),
	)
	return trade, nil
}

// sellBoth mints complete sets with the trade amount and sells both sides.
func (pe *Engine) sellBoth(opp domain.ArbitrageOpportunity) (TradeResult, error) {
	if !validPrices(opp) {
		return TradeResult{}, fmt.Errorf("paper.sellBoth: invalid price yes=%v no=%v: %w", opp.YesPrice, opp.NoPrice, domain.ErrInvalidAmount)
	}
	amount := pe.tradeAmount()

	if err := pe.ledger.SplitUSDC(amount, opp.YesTokenID, opp.NoTokenID); err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			return TradeResult{}, fmt.Errorf("insufficient balance to split $%.2f USDC: %w", amount, err)
		}
		return TradeResult{}, fmt.Errorf("paper.sellBoth: split: %w", err)
	}

	yesOrder, err := pe.ledger.PlaceOrder(domain.OrderRequest{
		MarketID:       opp.MarketID,
		MarketQuestion: opp.MarketQuestion,
		Side:           domain.Sell,
		Size:           amount,
		Price:          opp.YesPrice,
		TokenID:        opp.YesTokenID,
	})
	if err != nil {
		return TradeResult{}, fmt.Errorf("paper.sellBoth: yes leg: %w", err)
	}
	noOrder, err := pe.ledger.PlaceOrder(domain.OrderRequest{
		MarketID:       opp.MarketID,
		MarketQuestion: opp.MarketQuestion + " (NO)",
		Side:           domain.Sell,
		Size:           amount,
		Price:          opp.NoPrice,
		TokenID:        opp.NoTokenID,
	})
	if err != nil {
		return TradeResult{}, fmt.Errorf("paper.sellBoth: no leg: %w", err)
	}

	proceeds := yesOrder.Notional() + noOrder.Notional()
	raw := proceeds - amount
	pe.logger.Info("paper: split and sold both sides",
		"market", domain.TruncateQuestion(opp.MarketQuestion, opp.MarketID, 60),
		"split", amount,
		"proceeds", fmt.Sprintf("%.3f", proceeds),
		"raw_profit", fmt.Sprintf("%.3f", raw),
	)
	return TradeResult{
		MarketID:       opp.MarketID,
		Type:           domain.SellBoth,
		Orders:         []domain.Order{yesOrder, noOrder},
		Cost:           amount,
		Proceeds:       proceeds,
		RawProfit:      raw,
		ProfitAfterFee: ApplyFee(raw, pe.cfg.FeeRate),
	}, nil
}

// simulateDirectional places a single order on the signal's token, stamped
// with the underlying price. Sells are naked: no inventory is referenced.
func (pe *Engine) simulateDirectional(sig domain.TradingSignal) (TradeResult, error) {
	m := sig.Momentum
	if !validPrice(m.MarketPrice) {
		return TradeResult{}, fmt.Errorf("paper.simulateDirectional: invalid price %v: %w", m.MarketPrice, domain.ErrInvalidAmount)
	}
	size := pe.tradeAmount() / m.MarketPrice
	crypto := m.CryptoPrice

	req := domain.OrderRequest{
		MarketID:     sig.MarketID,
		Side:         domain.Buy,
		Size:         size,
		Price:        m.MarketPrice,
		CryptoPrice:  &crypto,
		CryptoSymbol: m.Symbol,
	}
	if sig.Kind == domain.SignalSell {
		req.Side = domain.Sell
	} else {
		req.TokenID = m.TokenID
	}

	order, err := pe.ledger.PlaceOrder(req)
	if err != nil {
		return TradeResult{}, fmt.Errorf("paper.simulateDirectional: %w", err)
	}
	trade := TradeResult{MarketID: sig.MarketID, Orders: []domain.Order{order}}
	if order.Side == domain.Buy {
		trade.Cost = order.Notional()
	} else {
		trade.Proceeds = order.Notional()
	}
	return trade, nil
}

// validPrices rejects non-positive, NaN and infinite prices before any leg is
// booked, so a trade is never left half-applied.
func validPrices(opp domain.ArbitrageOpportunity) bool {
	return validPrice(opp.YesPrice) && validPrice(opp.NoPrice)
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 1)
}

func (pe *Engine) tradeAmount() float64 {
	amount := pe.cfg.TradeAmount
	if pe.cfg.MaxPositionSize > 0 && amount > pe.cfg.MaxPositionSize {
		amount = pe.cfg.MaxPositionSize
	}
	return amount
}

// checkDailyLoss stops simulation once today's expected profit after fees
// drops to -DailyLossLimit. The counter resets at UTC midnight.
func (pe *Engine) checkDailyLoss() error {
	today := pe.now().UTC().Format(time.DateOnly)
	if today != pe.day {
		pe.day = today
		pe.dayPnL = 0
	}
	if pe.cfg.DailyLossLimit > 0 && pe.dayPnL <= -pe.cfg.DailyLossLimit {
		return fmt.Errorf("paper.Simulate: day pnl %.2f: %w", pe.dayPnL, ErrDailyLossLimit)
	}
	return nil
}
