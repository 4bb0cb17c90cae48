package bot

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"grandmaster/pkg/broker"
)

// Broker is the slice of the brokerage the loop needs.
type Broker interface {
	Positions() ([]broker.Position, error)
	OpenOrders() ([]broker.Order, error)
	SubmitOrder(req broker.OrderRequest) error
}

// ExitManager enforces the two bot-driven exits: the time-based forced
// exit and trailing-stop coverage for a full book.
type ExitManager struct {
	config  Config
	broker  Broker
	tracker *LifecycleTracker
	logger  *zap.Logger
}

func NewExitManager(config Config, b Broker, tracker *LifecycleTracker, logger *zap.Logger) *ExitManager {
	return &ExitManager{
		config:  config,
		broker:  b,
		tracker: tracker,
		logger:  logger,
	}
}

// TimeExits submits a market sell for every position held past the
// cutoff, once per holding episode. The timed-out flag is set even when
// the submission fails, so a failed sell is not retried until the next
// episode. Disabled when the configured minutes are zero or negative.
func (m *ExitManager) TimeExits(positions []broker.Position, now time.Time) {
	if m.config.TimeExitMinutes <= 0 {
		return
	}
	cutoff := now.Add(-time.Duration(m.config.TimeExitMinutes) * time.Minute)

	for _, p := range positions {
		openedAt, ok := m.tracker.OpenedAt(p.Symbol)
		if !ok || openedAt.After(cutoff) || m.tracker.TimedOut(p.Symbol) {
			continue
		}

		err := m.broker.SubmitOrder(broker.OrderRequest{
			Symbol:      p.Symbol,
			Qty:         p.Qty,
			Side:        broker.SideSell,
			Type:        broker.OrderMarket,
			TimeInForce: broker.TimeInForceDay,
		})
		if err != nil {
			m.logger.Warn("time-exit failed", zap.String("symbol", p.Symbol), zap.Error(err))
		} else {
			m.logger.Info("time-exit market sell",
				zap.String("symbol", p.Symbol),
				zap.String("qty", p.Qty.String()),
				zap.Duration("held", now.Sub(openedAt)))
		}
		m.tracker.MarkTimedOut(p.Symbol)
	}
}

// EnsureTrailingStops covers every position lacking an open sell order
// with a trailing-stop sell. Idempotence comes from the live open-order
// check, not local state: a rejected order is simply retried next cycle.
// Called only when the book is full.
func (m *ExitManager) EnsureTrailingStops(positions []broker.Position) {
	orders, err := m.broker.OpenOrders()
	if err != nil {
		m.logger.Warn("open orders read failed", zap.Error(err))
		orders = nil
	}

	hasSell := make(map[string]bool, len(orders))
	for _, o := range orders {
		if o.Side == broker.SideSell {
			hasSell[o.Symbol] = true
		}
	}

	trail := decimal.NewFromFloat(m.config.TrailPercent)
	for _, p := range positions {
		if p.Symbol == "" || p.Qty.IsZero() || hasSell[p.Symbol] {
			continue
		}

		err := m.broker.SubmitOrder(broker.OrderRequest{
			Symbol:        p.Symbol,
			Qty:           p.Qty,
			Side:          broker.SideSell,
			Type:          broker.OrderTrailingStop,
			TimeInForce:   broker.TimeInForceDay,
			TrailPercent:  &trail,
			ExtendedHours: m.config.UseExtendedHours,
		})
		if err != nil {
			m.logger.Warn("trailing stop failed", zap.String("symbol", p.Symbol), zap.Error(err))
			continue
		}
		m.logger.Info("trailing stop placed",
			zap.String("symbol", p.Symbol),
			zap.Float64("trail_percent", m.config.TrailPercent))
	}
}
