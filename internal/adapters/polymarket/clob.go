package polymarket

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const (
	marketsPath  = "/markets"
	midpointPath = "/midpoint"
	bookPath     = "/book"
)

// GetMarkets devuelve una página del listado de mercados del CLOB.
// Implementa ports.MarketLister.
func (c *Client) GetMarkets(ctx context.Context, cursor string) (domain.MarketPage, error) {
	u := c.clobBase + marketsPath
	if cursor != "" {
		u += "?next_cursor=" + url.QueryEscape(cursor)
	}

	var resp marketsResponse
	if err := c.get(ctx, c.clobLimiter, u, &resp); err != nil {
		return domain.MarketPage{}, fmt.Errorf("clob.GetMarkets: %w", err)
	}

	page := mapMarketsPage(resp)
	c.logger.Debug("fetched markets page",
		"count", len(page.Markets),
		"has_more", page.NextCursor != "",
	)
	return page, nil
}

// GetTokenPrice devuelve el midpoint del token. Implementa ports.PriceSource.
func (c *Client) GetTokenPrice(ctx context.Context, tokenID string) (float64, error) {
	u := fmt.Sprintf("%s%s?token_id=%s", c.clobBase, midpointPath, url.QueryEscape(tokenID))

	var resp midpointResponse
	if err := c.get(ctx, c.clobLimiter, u, &resp); err != nil {
		return 0, fmt.Errorf("clob.GetTokenPrice: %w", err)
	}

	mid, err := decimal.NewFromString(resp.Mid)
	if err != nil {
		return 0, fmt.Errorf("clob.GetTokenPrice: parse mid %q: %w", resp.Mid, err)
	}
	return mid.InexactFloat64(), nil
}

// GetOrderBook devuelve el orderbook del token. Implementa ports.BookProvider.
func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	u := fmt.Sprintf("%s%s?token_id=%s", c.clobBase, bookPath, url.QueryEscape(tokenID))

	var resp orderBookResponse
	if err := c.get(ctx, c.booksLimiter, u, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("clob.GetOrderBook: %w", err)
	}
	return mapOrderBook(tokenID, resp), nil
}
