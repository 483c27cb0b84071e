package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTickerServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		switch r.URL.Path {
		case tickerPricePath:
			w.Write([]byte(`{"symbol":"BTCUSDT","price":"97250.12000000"}`))
		case ticker24hPath:
			w.Write([]byte(`{"symbol":"BTCUSDT","priceChangePercent":"-1.532"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestGetPrice(t *testing.T) {
	var calls atomic.Int64
	srv := newTickerServer(t, &calls)
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	p, err := c.GetPrice(context.Background(), "btc")

	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", p.Symbol)
	assert.InDelta(t, 97250.12, p.Price, 1e-6)
	assert.InDelta(t, -1.532, p.Change24h, 1e-9)
	assert.Equal(t, int64(2), calls.Load())
}

func TestGetPrice_Cached(t *testing.T) {
	var calls atomic.Int64
	srv := newTickerServer(t, &calls)
	defer srv.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewClient(Config{BaseURL: srv.URL}, nil)
	c.now = func() time.Time { return now }

	_, err := c.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	_, err = c.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load(), "second call served from cache")

	now = now.Add(11 * time.Second)
	_, err = c.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(4), calls.Load(), "expired entry refetched")
}

func TestGetPrice_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}, nil).GetPrice(context.Background(), "BTC")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid symbol")
}
