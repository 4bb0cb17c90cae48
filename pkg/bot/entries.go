package bot

import (
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"grandmaster/pkg/broker"
)

// EntryManager sizes and submits limit buys for top-ranked candidates
// within the open position slots.
type EntryManager struct {
	config Config
	broker Broker
	logger *zap.Logger
}

func NewEntryManager(config Config, b Broker, logger *zap.Logger) *EntryManager {
	return &EntryManager{
		config: config,
		broker: b,
		logger: logger,
	}
}

// Enter takes the top candidates in rank order, up to the available
// slots and the per-scan cap, and submits one limit buy each. Failures
// are per-symbol and do not stop the rest of the batch. Returns the
// number of accepted submissions.
func (m *EntryManager) Enter(candidates []RankedCandidate, openCount int) int {
	slots := m.config.MaxOpenPositions - openCount
	if slots < 0 {
		slots = 0
	}
	take := slots
	if m.config.TakePerScan < take {
		take = m.config.TakePerScan
	}
	if len(candidates) < take {
		take = len(candidates)
	}
	if take <= 0 {
		return 0
	}

	submitted := 0
	for _, c := range candidates[:take] {
		qty := m.Quantity(c.Price)
		if qty.IsZero() {
			continue
		}
		limit := m.LimitPrice(c.Price)

		err := m.broker.SubmitOrder(broker.OrderRequest{
			Symbol:        c.Symbol,
			Qty:           qty,
			Side:          broker.SideBuy,
			Type:          broker.OrderLimit,
			TimeInForce:   broker.TimeInForceDay,
			LimitPrice:    &limit,
			ExtendedHours: m.config.UseExtendedHours,
		})
		if err != nil {
			m.logger.Warn("entry order failed", zap.String("symbol", c.Symbol), zap.Error(err))
			continue
		}

		submitted++
		m.logger.Info("entry submitted",
			zap.String("symbol", c.Symbol),
			zap.String("qty", qty.String()),
			zap.String("limit", limit.String()),
			zap.Float64("day_pct", c.DayChangePct))
	}
	return submitted
}

// Quantity sizes one trade from the configured dollar budget. With
// fractional shares, dollars/price at 4-decimal precision; otherwise
// whole shares floored, never below one so the order cannot be
// zero-quantity even when a single share exceeds the budget.
func (m *EntryManager) Quantity(price float64) decimal.Decimal {
	if price <= 0 {
		return decimal.Zero
	}
	if m.config.AllowFractional {
		qty := m.config.DollarsPerTrade / price
		if qty < 0 {
			qty = 0
		}
		return decimal.NewFromFloat(qty).Round(4)
	}
	whole := int64(math.Floor(m.config.DollarsPerTrade / price))
	if whole < 1 {
		whole = 1
	}
	return decimal.NewFromInt(whole)
}

// LimitPrice pads the quote by the configured slippage, rounded to 4
// decimals.
func (m *EntryManager) LimitPrice(price float64) decimal.Decimal {
	return decimal.NewFromFloat(price * (1.0 + m.config.LimitSlippageBPS/10000.0)).Round(4)
}
