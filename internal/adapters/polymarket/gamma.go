package polymarket

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const gammaEventsPath = "/events"

// GetEvents devuelve los eventos de Gamma que cumplen el filtro.
// Implementa ports.MarketLister.
func (c *Client) GetEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	q := url.Values{}
	q.Set("closed", strconv.FormatBool(filter.Closed))
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.TagID != "" {
		q.Set("tag_id", filter.TagID)
	}
	for _, id := range filter.ExcludeTagIDs {
		q.Add("exclude_tag_id", id)
	}

	var resp []gammaEvent
	if err := c.get(ctx, c.gammaLimiter, c.gammaBase+gammaEventsPath+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("gamma.GetEvents: %w", err)
	}

	events := mapEvents(resp)
	c.logger.Debug("gamma events fetched", "tag_id", filter.TagID, "events", len(events))
	return events, nil
}
