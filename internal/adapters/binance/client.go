package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const (
	defaultBaseURL  = "https://api.binance.com"
	defaultTimeout  = 5 * time.Second
	defaultCacheTTL = 10 * time.Second

	tickerPricePath = "/api/v3/ticker/price"
	ticker24hPath   = "/api/v3/ticker/24hr"

	// Binance permite 6000 de peso por minuto; cada GetPrice consume 2 requests.
	requestsPerSec = 10
)

// Config configura el feed de precios spot.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type cachedPrice struct {
	price     domain.CryptoPrice
	fetchedAt time.Time
}

// Client consulta precios spot en Binance con caché por símbolo.
// Implementa ports.CryptoFeed.
type Client struct {
	http    *http.Client
	baseURL string
	ttl     time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cachedPrice
}

// NewClient crea un Client. Campos vacíos toman los valores de producción.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		ttl:     cfg.CacheTTL,
		limiter: rate.NewLimiter(requestsPerSec, 4),
		logger:  logger.With("component", "binance"),
		now:     time.Now,
		cache:   make(map[string]cachedPrice),
	}
}

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type ticker24h struct {
	Symbol             string `json:"symbol"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// GetPrice devuelve el precio spot del símbolo (BTC, ETH, SOL...) contra USDT.
// Los resultados se cachean durante CacheTTL.
func (c *Client) GetPrice(ctx context.Context, symbol string) (domain.CryptoPrice, error) {
	pair := domain.TradingPair(symbol)

	c.mu.Lock()
	if hit, ok := c.cache[pair]; ok && c.now().Sub(hit.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return hit.price, nil
	}
	c.mu.Unlock()

	q := url.Values{"symbol": {pair}}

	var tp tickerPrice
	if err := c.get(ctx, tickerPricePath, q, &tp); err != nil {
		return domain.CryptoPrice{}, fmt.Errorf("binance.GetPrice: %s: %w", pair, err)
	}
	price, err := decimal.NewFromString(tp.Price)
	if err != nil {
		return domain.CryptoPrice{}, fmt.Errorf("binance.GetPrice: parse price %q: %w", tp.Price, err)
	}

	var stats ticker24h
	if err := c.get(ctx, ticker24hPath, q, &stats); err != nil {
		return domain.CryptoPrice{}, fmt.Errorf("binance.GetPrice: %s 24h: %w", pair, err)
	}
	change, err := decimal.NewFromString(stats.PriceChangePercent)
	if err != nil {
		return domain.CryptoPrice{}, fmt.Errorf("binance.GetPrice: parse change %q: %w", stats.PriceChangePercent, err)
	}

	now := c.now()
	result := domain.CryptoPrice{
		Symbol:    pair,
		Price:     price.InexactFloat64(),
		Change24h: change.InexactFloat64(),
		Timestamp: now,
	}

	c.mu.Lock()
	c.cache[pair] = cachedPrice{price: result, fetchedAt: now}
	c.mu.Unlock()

	c.logger.Debug("spot price fetched", "symbol", pair, "price", result.Price, "change_24h", result.Change24h)
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
