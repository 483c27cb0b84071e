package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/strategy"
)

const compactTop = 4

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
	now   func() time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table, now: time.Now}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, now: time.Now}
}

// NotifySignals imprime las señales del ciclo en el modo configurado.
func (c *Console) NotifySignals(_ context.Context, signals []domain.TradingSignal) error {
	if len(signals) == 0 {
		fmt.Fprintf(c.out, "[%s] no signals found\n", c.now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printTable(signals)
	} else {
		c.printCompact(signals)
	}
	return nil
}

// printCompact imprime el resumen del ciclo en una línea.
func (c *Console) printCompact(signals []domain.TradingSignal) {
	buyBoth, sellBoth, directional := countByType(signals)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d signals → buy_both:%d sell_both:%d momentum:%d",
		c.now().Format("15:04:05"), len(signals), buyBoth, sellBoth, directional)

	for i, sig := range signals {
		if i >= compactTop {
			fmt.Fprintf(&sb, " | +%d more", len(signals)-compactTop)
			break
		}
		fmt.Fprintf(&sb, " | %s %s %s conf %.0f%%",
			kindLabel(sig), compactName(signalMarket(sig), 25), detail(sig), sig.Confidence*100)
	}

	fmt.Fprintln(c.out, sb.String())
}

// printTable imprime una fila por señal.
func (c *Console) printTable(signals []domain.TradingSignal) {
	buyBoth, sellBoth, directional := countByType(signals)
	fmt.Fprintf(c.out, "\n[%s] %d signals | buy_both:%d sell_both:%d momentum:%d\n",
		c.now().Format("15:04:05"), len(signals), buyBoth, sellBoth, directional)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Strategy", "Signal", "Market", "Detail", "Conf", "Reason")

	for i, sig := range signals {
		table.Append(
			fmt.Sprintf("%d", i+1),
			sig.Strategy,
			kindLabel(sig),
			truncate(signalMarket(sig), 38),
			detail(sig),
			fmt.Sprintf("%.0f%%", sig.Confidence*100),
			truncate(sig.Reason, 60),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

// LedgerReport agrupa lo que imprime PrintLedgerReport.
type LedgerReport struct {
	InitialBalance float64
	Stats          domain.LedgerStats
	Strategies     []strategy.Stats
	Opportunities  int
	BuyBoth        int
	SellBoth       int
	ExportPath     string
	Persisted      *domain.LedgerSnapshot // leído del trade log al terminar; nil en dry-run
}

// PrintLedgerReport imprime el informe final del paper trading.
func (c *Console) PrintLedgerReport(r LedgerReport) {
	fmt.Fprintf(c.out, "\n========================================================\n")
	fmt.Fprintf(c.out, "  SCAN COMPLETE\n")
	fmt.Fprintf(c.out, "========================================================\n")
	fmt.Fprintf(c.out, "  Total opportunities found: %d\n", r.Opportunities)
	fmt.Fprintf(c.out, "    - Buy Both  (sum < $1.00): %d\n", r.BuyBoth)
	fmt.Fprintf(c.out, "    - Sell Both (sum > $1.00): %d\n", r.SellBoth)

	if len(r.Strategies) > 0 {
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Strategy", "Enabled", "Found")
		for _, s := range r.Strategies {
			enabled := "no"
			if s.Enabled {
				enabled = "yes"
			}
			tbl.Append(s.Name, enabled, fmt.Sprintf("%d", s.OpportunitiesFound))
		}
		tbl.Render()
	}

	st := r.Stats
	fmt.Fprintf(c.out, "\n  --- PAPER TRADING RESULTS ---\n")
	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Metric", "Value")
	tbl.Append("Initial balance", fmt.Sprintf("$%.2f", r.InitialBalance))
	tbl.Append("Current balance", fmt.Sprintf("$%.2f", st.CurrentBalance))
	tbl.Append("Total trades", fmt.Sprintf("%d", st.TotalTrades))
	tbl.Append("Total P&L", fmt.Sprintf("$%.2f", st.TotalPnL))
	tbl.Append("Win rate", fmt.Sprintf("%.1f%%", st.WinRate))
	tbl.Append("Avg win", fmt.Sprintf("$%.2f", st.AvgWin))
	tbl.Append("Avg loss", fmt.Sprintf("$%.2f", st.AvgLoss))
	tbl.Append("Total return", fmt.Sprintf("%.2f%%", st.TotalReturn))
	tbl.Render()

	if r.ExportPath != "" {
		fmt.Fprintf(c.out, "\n  Trade details saved to %s\n", r.ExportPath)
	}
	if p := r.Persisted; p != nil {
		fmt.Fprintf(c.out, "  Trade log: %d orders, %d positions (run %s, saved %s)\n",
			p.Orders, p.Positions, p.RunID, p.SavedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintln(c.out)
}

// --- helpers ---

func countByType(signals []domain.TradingSignal) (buyBoth, sellBoth, directional int) {
	for _, s := range signals {
		switch {
		case s.Arbitrage != nil && s.Arbitrage.Opportunity.Type == domain.BuyBoth:
			buyBoth++
		case s.Arbitrage != nil && s.Arbitrage.Opportunity.Type == domain.SellBoth:
			sellBoth++
		case s.Momentum != nil:
			directional++
		}
	}
	return
}

func kindLabel(s domain.TradingSignal) string {
	if s.Arbitrage != nil {
		return string(s.Arbitrage.Opportunity.Type)
	}
	return string(s.Kind)
}

func signalMarket(s domain.TradingSignal) string {
	if s.Arbitrage != nil && s.Arbitrage.Opportunity.MarketQuestion != "" {
		return s.Arbitrage.Opportunity.MarketQuestion
	}
	return s.MarketID
}

func detail(s domain.TradingSignal) string {
	switch {
	case s.Arbitrage != nil:
		o := s.Arbitrage.Opportunity
		return fmt.Sprintf("%.3f+%.3f=%.3f +$%.3f", o.YesPrice, o.NoPrice, o.PriceSum, o.ProfitPotential)
	case s.Momentum != nil:
		m := s.Momentum
		return fmt.Sprintf("%s %+.2f%% mkt %.3f", m.Symbol, m.PriceChange*100, m.MarketPrice)
	default:
		return "-"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// compactName acorta preguntas quitando el prefijo "Will " habitual.
func compactName(s string, maxLen int) string {
	s = strings.TrimPrefix(s, "Will ")
	s = strings.TrimSuffix(s, "?")
	return truncate(s, maxLen)
}
