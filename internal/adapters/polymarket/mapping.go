package polymarket

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// terminalCursor es el cursor vacío codificado en base64 que indica última página.
const terminalCursor = "LTE="

// mapMarketsPage convierte una página del CLOB a domain.MarketPage.
func mapMarketsPage(r marketsResponse) domain.MarketPage {
	page := domain.MarketPage{Markets: make([]domain.Market, 0, len(r.Data))}
	for _, m := range r.Data {
		page.Markets = append(page.Markets, mapCLOBMarket(m))
	}
	if r.NextCursor != terminalCursor {
		page.NextCursor = r.NextCursor
	}
	return page
}

// mapCLOBMarket convierte un clobMarket DTO a domain.Market.
func mapCLOBMarket(r clobMarket) domain.Market {
	m := domain.Market{
		ConditionID:     r.ConditionID,
		QuestionID:      r.QuestionID,
		Question:        r.Question,
		Description:     r.Description,
		Slug:            r.MarketSlug,
		EndDate:         parseDate(r.EndDateISO),
		Active:          r.Active,
		Closed:          r.Closed,
		AcceptingOrders: r.AcceptingOrders,
		Tokens:          make([]domain.Token, 0, len(r.Tokens)),
	}
	for _, t := range r.Tokens {
		m.Tokens = append(m.Tokens, domain.Token{
			TokenID: t.TokenID,
			Outcome: t.Outcome,
			Price:   t.Price.InexactFloat64(),
		})
	}
	return m
}

// mapEvents convierte los eventos de Gamma a domain.Event.
func mapEvents(raw []gammaEvent) []domain.Event {
	events := make([]domain.Event, 0, len(raw))
	for _, e := range raw {
		ev := domain.Event{
			ID:      e.ID,
			Title:   e.Title,
			Slug:    e.Slug,
			Closed:  bool(e.Closed),
			Markets: make([]domain.Market, 0, len(e.Markets)),
		}
		for _, gm := range e.Markets {
			ev.Markets = append(ev.Markets, mapGammaMarket(gm))
		}
		events = append(events, ev)
	}
	return events
}

// mapGammaMarket convierte un gammaMarket DTO a domain.Market.
func mapGammaMarket(gm gammaMarket) domain.Market {
	return domain.Market{
		ConditionID:     gm.ConditionID,
		Question:        gm.Question,
		Description:     gm.Description,
		Slug:            gm.Slug,
		EndDate:         parseDate(gm.EndDate),
		Volume:          gm.Volume.InexactFloat64(),
		Active:          bool(gm.Active),
		Closed:          bool(gm.Closed),
		AcceptingOrders: bool(gm.AcceptingOrders),
		Outcomes:        string(gm.Outcomes),
		ClobTokenIDs:    string(gm.ClobTokenIDs),
	}
}

// parseDate prueba los formatos que usa Polymarket.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// mapOrderBook convierte la respuesta de /book a domain.OrderBook.
func mapOrderBook(tokenID string, r orderBookResponse) domain.OrderBook {
	if r.AssetID != "" {
		tokenID = r.AssetID
	}
	return domain.OrderBook{
		TokenID: tokenID,
		Bids:    mapBookEntries(r.Bids, false),
		Asks:    mapBookEntries(r.Asks, true),
	}
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, err := decimal.NewFromString(r.Price)
		if err != nil || !price.IsPositive() {
			continue
		}
		size, err := decimal.NewFromString(r.Size)
		if err != nil || !size.IsPositive() {
			continue
		}
		entries = append(entries, domain.BookEntry{
			Price: price.InexactFloat64(),
			Size:  size.InexactFloat64(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}
