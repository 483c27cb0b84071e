package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alejandrodnm/polyarb/config"
	"github.com/alejandrodnm/polyarb/internal/adapters/binance"
	"github.com/alejandrodnm/polyarb/internal/adapters/notify"
	"github.com/alejandrodnm/polyarb/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyarb/internal/adapters/storage"
	"github.com/alejandrodnm/polyarb/internal/application/engine"
	"github.com/alejandrodnm/polyarb/internal/application/engine/paper"
	"github.com/alejandrodnm/polyarb/internal/application/scanner"
	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ports"
	"github.com/alejandrodnm/polyarb/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	dryRun := flag.Bool("dry-run", false, "run one cycle without persisting to SQLite")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print signals as a table (default: compact 1-line)")
	strategies := flag.String("strategy", "", "comma-separated strategies to run (overrides config)")
	exportPath := flag.String("export", "", "ledger JSON export path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *strategies != "" {
		cfg.Scanner.Strategies = splitList(*strategies)
	}
	if *exportPath != "" {
		cfg.Paper.ExportPath = *exportPath
	}
	logger := setupLogger(cfg.Log)

	logger.Info("polyarb starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"dry_run", *dryRun,
		"once", *once,
		"execution_mode", cfg.Paper.ExecutionMode,
		"initial_balance", cfg.Paper.InitialBalance,
	)

	client := polymarket.NewClient(polymarket.Config{
		CLOBBase:   cfg.API.CLOBBase,
		GammaBase:  cfg.API.GammaBase,
		Timeout:    cfg.HTTPTimeout(),
		MaxRetries: cfg.API.MaxRetries,
	}, logger)
	feed := binance.NewClient(binance.Config{
		BaseURL:  cfg.API.BinanceBase,
		Timeout:  cfg.HTTPTimeout(),
		CacheTTL: cfg.CacheTTL(),
	}, logger)

	registry := buildRegistry(cfg, client, feed, logger)
	selected := cfg.Scanner.Strategies
	if len(selected) == 0 {
		selected = registry.Names()
	}
	active, err := registry.Select(selected)
	if err != nil {
		logger.Error("invalid strategy selection", "err", err)
		os.Exit(1)
	}
	for _, s := range active {
		logger.Info("strategy enabled", "name", s.Name(), "description", s.Description())
	}

	var (
		store  ports.TradeLog
		sqlite *storage.SQLiteStorage
	)
	if !*dryRun {
		sqlite, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			logger.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer sqlite.Close()
		store = sqlite
	}

	console := notify.NewConsole(*table)

	s := scanner.New(scanner.Config{
		ScanInterval:    cfg.ScanInterval(),
		AnalysisWorkers: cfg.Scanner.Workers,
		DryRun:          *dryRun || *once,
		Filter: scanner.FilterConfig{
			MaxMarkets: cfg.Scanner.MaxMarkets,
			MinVolume:  cfg.Scanner.MinVolume,
		},
	}, client, active, logger)

	ledger := paper.NewLedger(cfg.Paper.InitialBalance, logger)
	pe := paper.New(s, ledger, store, console, paper.Config{
		TradeAmount:       cfg.Paper.TradeAmount,
		FeeRate:           cfg.Paper.FeeRate,
		ExecutionMode:     cfg.Paper.ExecutionMode,
		MaxOpenPositions:  cfg.Paper.MaxOpenPositions,
		DailyLossLimit:    cfg.Paper.DailyLossLimit,
		MaxPositionSize:   cfg.Paper.MaxPositionSize,
		MergeCompleteSets: cfg.Paper.MergeCompleteSets,
	}, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var tally engine.Tally
	runErr := s.Run(ctx, func(ctx context.Context) error {
		result, err := pe.RunOnce(ctx)
		if err != nil {
			return err
		}
		tally.Add(result.Signals)
		return nil
	})

	report := notify.LedgerReport{
		InitialBalance: ledger.InitialBalance(),
		Stats:          ledger.Stats(),
		Opportunities:  pe.Opportunities(),
		BuyBoth:        tally.BuyBoth,
		SellBoth:       tally.SellBoth,
	}
	for _, st := range active {
		report.Strategies = append(report.Strategies, st.Stats())
	}
	if pe.Opportunities() > 0 {
		if err := storage.WriteLedgerJSON(cfg.Paper.ExportPath, ledger.Export()); err != nil {
			logger.Error("failed to export ledger", "err", err, "path", cfg.Paper.ExportPath)
		} else {
			report.ExportPath = cfg.Paper.ExportPath
		}
	}
	if sqlite != nil {
		snap, err := sqlite.GetLedgerSnapshot(context.Background(), pe.RunID())
		if err != nil {
			logger.Debug("no ledger snapshot persisted for run", "run_id", pe.RunID(), "err", err)
		} else {
			report.Persisted = &snap
		}
	}
	console.PrintLedgerReport(report)

	if runErr != nil {
		logger.Error("scanner exited with error", "err", runErr)
		os.Exit(1)
	}
	logger.Info("polyarb stopped cleanly", "run_id", pe.RunID())
}

// buildRegistry registra las tres estrategias con sus dependencias.
func buildRegistry(cfg *config.Config, client *polymarket.Client, feed *binance.Client, logger *slog.Logger) strategy.Registry {
	sc := cfg.Strategy

	registry := strategy.NewRegistry()
	registry.Register(strategy.NewRebalancing(client, domain.DetectorConfig{
		MinProfitThreshold:   sc.MinProfitThreshold,
		MaxPriceSumDeviation: sc.MaxPriceSumDeviation,
		MinConfidence:        sc.MinConfidence,
	}, logger))
	registry.Register(strategy.NewUpDown(client, strategy.UpDownConfig{
		MinProfitThreshold: sc.MinProfitThreshold,
		MaxPriceSum:        sc.UpDown.MaxPriceSum,
		TagID:              sc.UpDown.TagID,
		ExcludeTagIDs:      sc.UpDown.ExcludeTagIDs,
		EventLimit:         sc.UpDown.EventLimit,
	}, logger))
	registry.Register(strategy.NewMomentum(feed, client, strategy.MomentumConfig{
		PriceThreshold:     sc.Momentum.PriceThreshold,
		MarketLagThreshold: sc.Momentum.MarketLagThreshold,
		MinConfidence:      sc.Momentum.MinConfidence,
	}, logger))
	return registry
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
