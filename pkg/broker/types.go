// Package broker talks to the Alpaca trading API: account state,
// positions, open orders, the tradable-asset catalogue, and order
// submission.
package broker

import "github.com/shopspring/decimal"

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type OrderType string

const (
	OrderMarket       OrderType = "market"
	OrderLimit        OrderType = "limit"
	OrderTrailingStop OrderType = "trailing_stop"
)

type TimeInForce string

const TimeInForceDay TimeInForce = "day"

// Position is a broker-reported holding. The broker is the source of
// truth; quantities are never tracked locally.
type Position struct {
	Symbol string
	Qty    decimal.Decimal
}

// Order is the slice of an open order the loop cares about.
type Order struct {
	Symbol string
	Side   Side
}

// OrderRequest is an order submission. LimitPrice is set for limit
// orders, TrailPercent for trailing stops.
type OrderRequest struct {
	Symbol        string           `json:"symbol"`
	Qty           decimal.Decimal  `json:"qty"`
	Side          Side             `json:"side"`
	Type          OrderType        `json:"type"`
	TimeInForce   TimeInForce      `json:"time_in_force"`
	LimitPrice    *decimal.Decimal `json:"limit_price,omitempty"`
	TrailPercent  *decimal.Decimal `json:"trail_percent,omitempty"`
	ExtendedHours bool             `json:"extended_hours"`
}

// AccountInfo holds key account information for the startup banner.
type AccountInfo struct {
	Status         string
	Cash           string
	BuyingPower    string
	PortfolioValue string
}
