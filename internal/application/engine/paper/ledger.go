package paper

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// Ledger is the virtual account: cash balance, per-token inventory and the
// append-only order and position history. All methods are safe for concurrent
// use; mutations are serialized by a single mutex.
type Ledger struct {
	mu sync.Mutex

	initialBalance float64
	balance        float64
	inventory      map[string]float64
	orders         []domain.Order
	positions      []*domain.Position

	nextOrderID    int
	nextPositionID int

	now    func() time.Time
	logger *slog.Logger
}

// NewLedger creates a ledger funded with initialBalance.
func NewLedger(initialBalance float64, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		initialBalance: initialBalance,
		balance:        initialBalance,
		inventory:      make(map[string]float64),
		nextOrderID:    1,
		nextPositionID: 1,
		now:            time.Now,
		logger:         logger.With("component", "ledger"),
	}
}

// PlaceOrder records an order and opens a position with it as entry.
//
// A sell that names a token requires enough inventory of that token; otherwise
// ErrInsufficientTokens is returned and nothing changes. Buys are not blocked
// by cash: the balance may go negative.
func (l *Ledger) PlaceOrder(req domain.OrderRequest) (domain.Order, error) {
	if req.Size <= 0 || math.IsNaN(req.Size) {
		return domain.Order{}, fmt.Errorf("paper.PlaceOrder: size %.4f: %w", req.Size, domain.ErrInvalidAmount)
	}
	if req.Side != domain.Buy && req.Side != domain.Sell {
		return domain.Order{}, fmt.Errorf("paper.PlaceOrder: unknown side %q", req.Side)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if req.Side == domain.Sell && req.TokenID != "" {
		held := l.inventory[req.TokenID]
		if held < req.Size {
			return domain.Order{}, fmt.Errorf("paper.PlaceOrder: need %.2f, have %.2f: %w",
				req.Size, held, domain.ErrInsufficientTokens)
		}
		l.inventory[req.TokenID] = held - req.Size
	}

	order := domain.Order{
		ID:             l.takeOrderID(),
		MarketID:       req.MarketID,
		MarketQuestion: req.MarketQuestion,
		Side:           req.Side,
		Size:           req.Size,
		Price:          req.Price,
		Timestamp:      l.now(),
		CryptoPrice:    req.CryptoPrice,
		CryptoSymbol:   req.CryptoSymbol,
	}
	pos := &domain.Position{
		ID:             strconv.Itoa(l.nextPositionID),
		MarketID:       req.MarketID,
		MarketQuestion: req.MarketQuestion,
		Entry:          order,
		Status:         domain.PositionOpen,
	}
	l.nextPositionID++

	notional := order.Notional()
	if req.Side == domain.Buy {
		l.balance -= notional
		if req.TokenID != "" {
			l.inventory[req.TokenID] += req.Size
		}
	} else {
		l.balance += notional
	}

	l.orders = append(l.orders, order)
	l.positions = append(l.positions, pos)

	l.logger.Info("paper trade placed",
		"side", order.Side,
		"size", order.Size,
		"price", order.Price,
		"notional", notional,
		"balance", l.balance,
	)
	if req.TokenID != "" {
		l.logger.Debug("token inventory", "token", shortID(req.TokenID), "held", l.inventory[req.TokenID])
	}
	return order, nil
}

// ClosePosition closes an open position at exitPrice with an order on the
// opposite side. Returns false, without touching the balance, when the
// position does not exist or is already closed.
//
// Closing a long credits size × exit; closing a short credits size × (1 − exit),
// the payout of the complementary side.
func (l *Ledger) ClosePosition(positionID string, exitPrice float64) (domain.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var pos *domain.Position
	for _, p := range l.positions {
		if p.ID == positionID {
			pos = p
			break
		}
	}
	if pos == nil || pos.Status != domain.PositionOpen {
		return domain.Position{}, false
	}

	exitSide := pos.Entry.Side.Opposite()
	exit := domain.Order{
		ID:             l.takeOrderID(),
		MarketID:       pos.MarketID,
		MarketQuestion: pos.MarketQuestion,
		Side:           exitSide,
		Size:           pos.Entry.Size,
		Price:          exitPrice,
		Timestamp:      l.now(),
	}
	pos.Exit = &exit
	pos.Status = domain.PositionClosed

	if exitSide == domain.Sell {
		l.balance += pos.Entry.Size * exitPrice
	} else {
		l.balance += pos.Entry.Size * (1 - exitPrice)
	}
	l.orders = append(l.orders, exit)

	pnl, _ := pos.PnL()
	l.logger.Info("position closed", "position", pos.ID, "pnl", pnl, "balance", l.balance)
	return *pos, true
}

// SplitUSDC mints amount complete sets: debits amount of cash and credits
// amount of both tokens.
func (l *Ledger) SplitUSDC(amount float64, yesTokenID, noTokenID string) error {
	if amount <= 0 || math.IsNaN(amount) {
		return fmt.Errorf("paper.SplitUSDC: amount %.4f: %w", amount, domain.ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balance < amount {
		return fmt.Errorf("paper.SplitUSDC: need $%.2f, have $%.2f: %w",
			amount, l.balance, domain.ErrInsufficientBalance)
	}

	l.balance -= amount
	l.inventory[yesTokenID] += amount
	l.inventory[noTokenID] += amount

	l.logger.Info("split usdc into complete sets",
		"amount", amount,
		"balance", l.balance,
		"yes_held", l.inventory[yesTokenID],
		"no_held", l.inventory[noTokenID],
	)
	return nil
}

// MergeTokens burns amount complete sets back into cash.
func (l *Ledger) MergeTokens(amount float64, yesTokenID, noTokenID string) error {
	if amount <= 0 || math.IsNaN(amount) {
		return fmt.Errorf("paper.MergeTokens: amount %.4f: %w", amount, domain.ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	yes, no := l.inventory[yesTokenID], l.inventory[noTokenID]
	if yes < amount || no < amount {
		return fmt.Errorf("paper.MergeTokens: need %.2f of each, have yes=%.2f no=%.2f: %w",
			amount, yes, no, domain.ErrInsufficientTokens)
	}

	l.inventory[yesTokenID] = yes - amount
	l.inventory[noTokenID] = no - amount
	l.balance += amount

	l.logger.Info("merged complete sets", "amount", amount, "balance", l.balance)
	return nil
}

// ApplyFee charges feeRate on positive profit only.
func ApplyFee(profit, feeRate float64) float64 {
	if profit <= 0 {
		return profit
	}
	return profit * (1 - feeRate)
}

// Stats summarizes closed positions. Without closed positions every field is
// zero except CurrentBalance.
func (l *Ledger) Stats() domain.LedgerStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statsLocked()
}

func (l *Ledger) statsLocked() domain.LedgerStats {
	stats := domain.LedgerStats{CurrentBalance: l.balance}

	var pnls []float64
	for _, p := range l.positions {
		if pnl, ok := p.PnL(); ok {
			pnls = append(pnls, pnl)
		}
	}
	if len(pnls) == 0 {
		return stats
	}

	var wins, losses []float64
	for _, pnl := range pnls {
		stats.TotalPnL += pnl
		switch {
		case pnl > 0:
			wins = append(wins, pnl)
		case pnl < 0:
			losses = append(losses, pnl)
		}
	}

	stats.TotalTrades = len(pnls)
	stats.WinRate = float64(len(wins)) / float64(len(pnls)) * 100
	stats.AvgWin = mean(wins)
	stats.AvgLoss = mean(losses)
	if l.initialBalance != 0 {
		stats.TotalReturn = (l.balance - l.initialBalance) / l.initialBalance * 100
	}
	return stats
}

// Export dumps the full ledger history and stats.
func (l *Ledger) Export() domain.LedgerExport {
	l.mu.Lock()
	defer l.mu.Unlock()

	exp := domain.LedgerExport{
		InitialBalance: l.initialBalance,
		CurrentBalance: l.balance,
		Orders:         make([]domain.OrderRecord, 0, len(l.orders)),
		Positions:      make([]domain.PositionRecord, 0, len(l.positions)),
		Stats:          l.statsLocked(),
	}
	for _, o := range l.orders {
		exp.Orders = append(exp.Orders, o.Record())
	}
	for _, p := range l.positions {
		exp.Positions = append(exp.Positions, p.Record())
	}
	return exp
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// InitialBalance returns the balance the ledger was funded with.
func (l *Ledger) InitialBalance() float64 {
	return l.initialBalance
}

// Inventory returns the quantity held of a token.
func (l *Ledger) Inventory(tokenID string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inventory[tokenID]
}

// Orders returns a copy of the order history.
func (l *Ledger) Orders() []domain.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Order, len(l.orders))
	copy(out, l.orders)
	return out
}

// Positions returns a copy of every position.
func (l *Ledger) Positions() []domain.Position {
	return l.filterPositions(func(domain.Position) bool { return true })
}

// OpenPositions returns the positions still open.
func (l *Ledger) OpenPositions() []domain.Position {
	return l.filterPositions(func(p domain.Position) bool { return p.Status == domain.PositionOpen })
}

// ClosedPositions returns the closed positions.
func (l *Ledger) ClosedPositions() []domain.Position {
	return l.filterPositions(func(p domain.Position) bool { return p.Status == domain.PositionClosed })
}

// TotalPnL returns the realized PnL over closed positions.
func (l *Ledger) TotalPnL() float64 {
	total := 0.0
	for _, p := range l.ClosedPositions() {
		pnl, _ := p.PnL()
		total += pnl
	}
	return total
}

func (l *Ledger) filterPositions(keep func(domain.Position) bool) []domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Position
	for _, p := range l.positions {
		if keep(*p) {
			out = append(out, *p)
		}
	}
	return out
}

func (l *Ledger) takeOrderID() string {
	id := strconv.Itoa(l.nextOrderID)
	l.nextOrderID++
	return id
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
