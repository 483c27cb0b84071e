package strategy

import (
	"context"
	"errors"
	"sync"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

var errUnavailable = errors.New("unavailable")

type fakePrices struct {
	mu     sync.Mutex
	prices map[string]float64
	calls  int
}

func (f *fakePrices) GetTokenPrice(_ context.Context, tokenID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.prices[tokenID]
	if !ok {
		return 0, errUnavailable
	}
	return p, nil
}

type fakeBooks struct {
	books map[string]domain.OrderBook
	calls int
}

func (f *fakeBooks) GetOrderBook(_ context.Context, tokenID string) (domain.OrderBook, error) {
	f.calls++
	b, ok := f.books[tokenID]
	if !ok {
		return domain.OrderBook{}, errUnavailable
	}
	return b, nil
}

type fakeFeed struct {
	prices map[string]float64
}

func (f *fakeFeed) GetPrice(_ context.Context, symbol string) (domain.CryptoPrice, error) {
	p, ok := f.prices[symbol]
	if !ok {
		return domain.CryptoPrice{}, errUnavailable
	}
	return domain.CryptoPrice{Symbol: symbol, Price: p}, nil
}

type fakeLister struct {
	pages  map[string]domain.MarketPage
	events []domain.Event
	filter domain.EventFilter
}

func (f *fakeLister) GetMarkets(_ context.Context, cursor string) (domain.MarketPage, error) {
	p, ok := f.pages[cursor]
	if !ok {
		return domain.MarketPage{}, errUnavailable
	}
	return p, nil
}

func (f *fakeLister) GetEvents(_ context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	f.filter = filter
	return f.events, nil
}

func binaryMarket(id string) domain.Market {
	return domain.Market{
		ConditionID: id,
		Question:    "Will it happen?",
		Active:      true,
		Tokens: []domain.Token{
			{TokenID: id + "-yes", Outcome: "Yes"},
			{TokenID: id + "-no", Outcome: "No"},
		},
	}
}

func askBook(price float64) domain.OrderBook {
	return domain.OrderBook{Asks: []domain.BookEntry{{Price: price, Size: 100}}}
}
