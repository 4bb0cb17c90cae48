package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"grandmaster/pkg/broker"
	"grandmaster/pkg/marketdata"
)

// fakeBroker scripts broker responses and records every submission and
// the order of calls.
type fakeBroker struct {
	positions []broker.Position
	posErr    error
	orders    []broker.Order
	ordErr    error

	submitErr map[string]error
	submitted []broker.OrderRequest
	events    []string
}

func (f *fakeBroker) Positions() ([]broker.Position, error) {
	f.events = append(f.events, "positions")
	if f.posErr != nil {
		return nil, f.posErr
	}
	return f.positions, nil
}

func (f *fakeBroker) OpenOrders() ([]broker.Order, error) {
	f.events = append(f.events, "open_orders")
	if f.ordErr != nil {
		return nil, f.ordErr
	}
	return f.orders, nil
}

func (f *fakeBroker) SubmitOrder(req broker.OrderRequest) error {
	f.events = append(f.events, fmt.Sprintf("submit %s %s %s", req.Side, req.Type, req.Symbol))
	if err, ok := f.submitErr[req.Symbol]; ok && err != nil {
		return err
	}
	f.submitted = append(f.submitted, req)
	return nil
}

func (f *fakeBroker) submissionsFor(symbol string) []broker.OrderRequest {
	var out []broker.OrderRequest
	for _, req := range f.submitted {
		if req.Symbol == symbol {
			out = append(out, req)
		}
	}
	return out
}

// fakeQuotes serves a fixed quote table and records batch requests.
type fakeQuotes struct {
	table   map[string]marketdata.Quote
	batches [][]string
	events  *[]string
}

func (f *fakeQuotes) BatchQuotes(symbols []string, concurrency int) map[string]marketdata.Quote {
	f.batches = append(f.batches, symbols)
	if f.events != nil {
		*f.events = append(*f.events, "batch_quotes")
	}
	out := make(map[string]marketdata.Quote)
	for _, sym := range symbols {
		if q, ok := f.table[sym]; ok {
			out[sym] = q
		}
	}
	return out
}

// fakeClock hands out a settable time and never blocks.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) {
	c.slept = append(c.slept, d)
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func position(symbol string, qty int64) broker.Position {
	return broker.Position{Symbol: symbol, Qty: decimal.NewFromInt(qty)}
}

func quote(symbol string, price, dayPct float64) marketdata.Quote {
	return marketdata.Quote{Symbol: symbol, Price: price, DayChangePct: dayPct}
}
