package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polyarb/internal/strategy"
)

// Modos de ejecución del paper engine.
const (
	ModeBuyBothOnly = "buy_both_only"
	ModeFull        = "full"
)

// Config es la configuración completa del scanner.
type Config struct {
	Scanner  ScannerConfig  `yaml:"scanner"`
	Strategy StrategyConfig `yaml:"strategy"`
	Paper    PaperConfig    `yaml:"paper"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ScannerConfig controla el bucle de escaneo.
type ScannerConfig struct {
	IntervalSeconds int      `yaml:"interval_seconds"`
	Workers         int      `yaml:"workers"`     // 0 = NumCPU*2
	Strategies      []string `yaml:"strategies"`  // vacío = todas las registradas
	MaxMarkets      int      `yaml:"max_markets"` // por estrategia, 0 = sin límite
	MinVolume       float64  `yaml:"min_volume"`
}

// StrategyConfig agrupa los umbrales de detección de las tres estrategias.
type StrategyConfig struct {
	MinProfitThreshold   float64 `yaml:"min_profit_threshold"`
	MaxPriceSumDeviation float64 `yaml:"max_price_sum_deviation"`
	MinConfidence        float64 `yaml:"min_confidence"`

	UpDown   UpDownConfig   `yaml:"updown"`
	Momentum MomentumConfig `yaml:"momentum"`
}

// UpDownConfig parametriza la estrategia de mercados up/down de 15 minutos.
type UpDownConfig struct {
	MaxPriceSum   float64  `yaml:"max_price_sum"`
	TagID         string   `yaml:"tag_id"`
	ExcludeTagIDs []string `yaml:"exclude_tag_ids"`
	EventLimit    int      `yaml:"event_limit"`
}

// MomentumConfig parametriza la estrategia de momentum cripto.
type MomentumConfig struct {
	PriceThreshold     float64 `yaml:"price_threshold"`
	MarketLagThreshold float64 `yaml:"market_lag_threshold"`
	MinConfidence      float64 `yaml:"min_confidence"`
}

// PaperConfig controla el ledger simulado y sus límites de riesgo.
type PaperConfig struct {
	Enabled           bool    `yaml:"enabled"`
	InitialBalance    float64 `yaml:"initial_balance"`
	TradeAmount       float64 `yaml:"trade_amount"`
	FeeRate           float64 `yaml:"fee_rate"`
	ExecutionMode     string  `yaml:"execution_mode"`
	MaxPositionSize   float64 `yaml:"max_position_size"`  // 0 = sin límite
	MaxOpenPositions  int     `yaml:"max_open_positions"` // 0 = sin límite
	DailyLossLimit    float64 `yaml:"daily_loss_limit"`   // 0 = desactivado
	MergeCompleteSets bool    `yaml:"merge_complete_sets"`
	ExportPath        string  `yaml:"export_path"`
}

// APIConfig contiene los base URLs y el comportamiento HTTP.
type APIConfig struct {
	CLOBBase       string `yaml:"clob_base"`
	GammaBase      string `yaml:"gamma_base"`
	BinanceBase    string `yaml:"binance_base"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"` // 0 = un fallo es "precio no disponible"
	CacheTTLSecs   int    `yaml:"cache_ttl_seconds"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default devuelve la configuración base. Load parte de ella, así que las
// claves ausentes del YAML conservan estos valores y un 0 explícito se respeta.
func Default() Config {
	return Config{
		Scanner: ScannerConfig{
			IntervalSeconds: 30,
		},
		Strategy: StrategyConfig{
			MinProfitThreshold:   0.01,
			MaxPriceSumDeviation: 0.05,
			MinConfidence:        0.8,
			UpDown: UpDownConfig{
				MaxPriceSum:   0.99,
				TagID:         "102175",
				ExcludeTagIDs: []string{"39", "101267", "818"},
				EventLimit:    500,
			},
			Momentum: MomentumConfig{
				PriceThreshold:     0.01,
				MarketLagThreshold: 0.005,
				MinConfidence:      0.6,
			},
		},
		Paper: PaperConfig{
			Enabled:          true,
			InitialBalance:   10000,
			TradeAmount:      10,
			FeeRate:          0,
			ExecutionMode:    ModeBuyBothOnly,
			MaxPositionSize:  100,
			MaxOpenPositions: 0,
			DailyLossLimit:   100,
			ExportPath:       "arbitrage_trades.json",
		},
		API: APIConfig{
			CLOBBase:       "https://clob.polymarket.com",
			GammaBase:      "https://gamma-api.polymarket.com",
			BinanceBase:    "https://api.binance.com",
			TimeoutSeconds: 10,
			CacheTTLSecs:   10,
		},
		Storage: StorageConfig{DSN: "polyarb.db"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// HTTPTimeout devuelve el timeout de los clientes HTTP.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// CacheTTL devuelve el TTL de la caché de precios spot.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.API.CacheTTLSecs) * time.Second
}

// Validate comprueba la coherencia de la configuración. Un error aquí es fatal.
func (c *Config) Validate() error {
	var errs []error

	if !c.Paper.Enabled {
		errs = append(errs, errors.New("paper trading must be enabled: live order routing is not supported"))
	}
	if c.Paper.InitialBalance <= 0 {
		errs = append(errs, errors.New("paper.initial_balance must be positive"))
	}
	if c.Paper.TradeAmount <= 0 {
		errs = append(errs, errors.New("paper.trade_amount must be positive"))
	}
	if c.Paper.ExecutionMode != ModeBuyBothOnly && c.Paper.ExecutionMode != ModeFull {
		errs = append(errs, fmt.Errorf("paper.execution_mode %q must be %q or %q",
			c.Paper.ExecutionMode, ModeBuyBothOnly, ModeFull))
	}
	if c.Paper.FeeRate < 0 || c.Paper.FeeRate >= 1 {
		errs = append(errs, errors.New("paper.fee_rate must be in [0, 1)"))
	}
	if c.Paper.MaxPositionSize < 0 || c.Paper.MaxOpenPositions < 0 || c.Paper.DailyLossLimit < 0 {
		errs = append(errs, errors.New("paper risk limits must be >= 0"))
	}

	s := c.Strategy
	if s.MinConfidence <= 0 || s.MinConfidence > 1 {
		errs = append(errs, errors.New("strategy.min_confidence must be in (0, 1]"))
	}
	if s.Momentum.MinConfidence <= 0 || s.Momentum.MinConfidence > 1 {
		errs = append(errs, errors.New("strategy.momentum.min_confidence must be in (0, 1]"))
	}
	if s.MinProfitThreshold < 0 || s.MaxPriceSumDeviation < 0 ||
		s.Momentum.PriceThreshold < 0 || s.Momentum.MarketLagThreshold < 0 {
		errs = append(errs, errors.New("strategy thresholds must be >= 0"))
	}
	if s.UpDown.MaxPriceSum <= 0 || s.UpDown.MaxPriceSum > 2 {
		errs = append(errs, errors.New("strategy.updown.max_price_sum must be in (0, 2]"))
	}

	known := []string{strategy.RebalancingName, strategy.UpDownName, strategy.MomentumName}
	for _, name := range c.Scanner.Strategies {
		if !slices.Contains(known, name) {
			errs = append(errs, fmt.Errorf("scanner.strategies: unknown strategy %q (known: %s)",
				name, strings.Join(known, ", ")))
		}
	}
	if c.Scanner.MaxMarkets < 0 || c.Scanner.Workers < 0 {
		errs = append(errs, errors.New("scanner.max_markets and scanner.workers must be >= 0"))
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, errors.New("api.max_retries must be >= 0"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("EXECUTION_MODE"); v != "" {
		cfg.Paper.ExecutionMode = v
	}
	if v := os.Getenv("PAPER_TRADING"); v != "" {
		cfg.Paper.Enabled = strings.EqualFold(v, "true")
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"INITIAL_BALANCE", &cfg.Paper.InitialBalance},
		{"MAX_POSITION_SIZE", &cfg.Paper.MaxPositionSize},
		{"DAILY_LOSS_LIMIT", &cfg.Paper.DailyLossLimit},
		{"POLYMARKET_FEE_RATE", &cfg.Paper.FeeRate},
		{"MIN_PROFIT_THRESHOLD", &cfg.Strategy.MinProfitThreshold},
		{"MAX_PRICE_SUM_DEVIATION", &cfg.Strategy.MaxPriceSumDeviation},
		{"MIN_CONFIDENCE", &cfg.Strategy.MinConfidence},
		{"PRICE_THRESHOLD", &cfg.Strategy.Momentum.PriceThreshold},
		{"MARKET_LAG_THRESHOLD", &cfg.Strategy.Momentum.MarketLagThreshold},
	}
	for _, f := range floats {
		v := os.Getenv(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env %s=%q: %w", f.key, v, err)
		}
		*f.dst = n
	}

	if v := os.Getenv("MAX_OPEN_POSITIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env MAX_OPEN_POSITIONS=%q: %w", v, err)
		}
		cfg.Paper.MaxOpenPositions = n
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env CACHE_TTL=%q: %w", v, err)
		}
		cfg.API.CacheTTLSecs = n
	}
	return nil
}

// setDefaults asegura valores sensatos en los campos que no admiten cero.
func setDefaults(cfg *Config) {
	d := Default()
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = d.Scanner.IntervalSeconds
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = d.API.CLOBBase
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = d.API.GammaBase
	}
	if cfg.API.BinanceBase == "" {
		cfg.API.BinanceBase = d.API.BinanceBase
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = d.API.TimeoutSeconds
	}
	if cfg.API.CacheTTLSecs <= 0 {
		cfg.API.CacheTTLSecs = d.API.CacheTTLSecs
	}
	if cfg.Strategy.UpDown.TagID == "" {
		cfg.Strategy.UpDown.TagID = d.Strategy.UpDown.TagID
	}
	if cfg.Strategy.UpDown.EventLimit <= 0 {
		cfg.Strategy.UpDown.EventLimit = d.Strategy.UpDown.EventLimit
	}
	if cfg.Paper.ExportPath == "" {
		cfg.Paper.ExportPath = d.Paper.ExportPath
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = d.Storage.DSN
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
}
