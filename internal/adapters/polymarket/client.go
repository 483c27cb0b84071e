package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultCLOBBase  = "https://clob.polymarket.com"
	defaultGammaBase = "https://gamma-api.polymarket.com"
	defaultTimeout   = 10 * time.Second

	// Rate limits al 60% de los límites reales documentados.
	// CLOB /book: 500/10s → 300/10s → 30/s
	booksRatePerSec = 30
	// Gamma /events: 300/10s → 180/10s → 18/s
	gammaRatePerSec = 18
	// CLOB general (markets, midpoint): 9000/10s → 5400/10s → 540/s
	generalRatePerSec = 540

	baseRetryWait = 500 * time.Millisecond
)

// Config configura el cliente HTTP.
type Config struct {
	CLOBBase  string
	GammaBase string
	Timeout   time.Duration
	// MaxRetries reintentos ante errores de red, 429 y 5xx. Por defecto 0:
	// un fallo cuenta como "precio no disponible" en esa pasada.
	MaxRetries int
}

// Client es el HTTP client de Polymarket con rate limiting.
// Implementa ports.MarketLister, ports.PriceSource y ports.BookProvider.
type Client struct {
	http         *http.Client
	clobBase     string
	gammaBase    string
	maxRetries   int
	clobLimiter  *rate.Limiter
	gammaLimiter *rate.Limiter
	booksLimiter *rate.Limiter
	logger       *slog.Logger
}

// NewClient crea un Client con la configuración dada.
// Si CLOBBase o GammaBase están vacíos, usa los URLs de producción.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.CLOBBase == "" {
		cfg.CLOBBase = defaultCLOBBase
	}
	if cfg.GammaBase == "" {
		cfg.GammaBase = defaultGammaBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:         &http.Client{Timeout: cfg.Timeout},
		clobBase:     cfg.CLOBBase,
		gammaBase:    cfg.GammaBase,
		maxRetries:   cfg.MaxRetries,
		clobLimiter:  rate.NewLimiter(generalRatePerSec, 50),
		gammaLimiter: rate.NewLimiter(gammaRatePerSec, 10),
		booksLimiter: rate.NewLimiter(booksRatePerSec, 5),
		logger:       logger.With("component", "polymarket"),
	}
}

// get hace un GET con rate limiting y, si están configurados, retries.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == c.maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", c.maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			c.logger.Warn("rate limited by API", "attempt", attempt+1)
			if attempt == c.maxRetries {
				return fmt.Errorf("rate limited after %d retries", c.maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == c.maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, c.maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", c.maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
