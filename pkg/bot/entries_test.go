package bot

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"grandmaster/pkg/broker"
)

func entryManager(cfg Config, b Broker) *EntryManager {
	return NewEntryManager(cfg, b, zap.NewNop())
}

func TestQuantityWholeShares(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DollarsPerTrade = 75
	cfg.AllowFractional = false
	m := entryManager(cfg, &fakeBroker{})

	assert.True(t, m.Quantity(50).Equal(decimal.NewFromInt(1)))
	assert.True(t, m.Quantity(10).Equal(decimal.NewFromInt(7)))
	// One share always, even past the budget.
	assert.True(t, m.Quantity(200).Equal(decimal.NewFromInt(1)))
}

func TestQuantityFractional(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DollarsPerTrade = 75
	cfg.AllowFractional = true
	m := entryManager(cfg, &fakeBroker{})

	assert.True(t, m.Quantity(50).Equal(decimal.RequireFromString("1.5")))
	assert.True(t, m.Quantity(9).Equal(decimal.RequireFromString("8.3333")))
}

func TestQuantityNonPositivePrice(t *testing.T) {
	m := entryManager(DefaultConfig(), &fakeBroker{})
	assert.True(t, m.Quantity(0).IsZero())
	assert.True(t, m.Quantity(-1).IsZero())
}

func TestLimitPriceRounding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LimitSlippageBPS = 15
	m := entryManager(cfg, &fakeBroker{})

	assert.True(t, m.LimitPrice(100).Equal(decimal.RequireFromString("100.15")))
	assert.True(t, m.LimitPrice(3.3333).Equal(decimal.RequireFromString("3.3383")))
}

func TestEnterTakesMinOfSlotsCapAndCandidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOpenPositions = 15
	cfg.TakePerScan = 5
	b := &fakeBroker{}
	m := entryManager(cfg, b)

	candidates := []RankedCandidate{
		{Symbol: "AAA", Price: 10, DayChangePct: 5},
		{Symbol: "BBB", Price: 20, DayChangePct: 4},
		{Symbol: "CCC", Price: 30, DayChangePct: 3},
	}

	// 14 open → one slot left, top-ranked candidate only.
	submitted := m.Enter(candidates, 14)

	assert.Equal(t, 1, submitted)
	require.Len(t, b.submitted, 1)
	assert.Equal(t, "AAA", b.submitted[0].Symbol)
}

func TestEnterSubmitsLimitBuys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DollarsPerTrade = 75
	cfg.LimitSlippageBPS = 15
	cfg.UseExtendedHours = true
	b := &fakeBroker{}
	m := entryManager(cfg, b)

	m.Enter([]RankedCandidate{{Symbol: "AAA", Price: 100, DayChangePct: 5}}, 0)

	require.Len(t, b.submitted, 1)
	req := b.submitted[0]
	assert.Equal(t, broker.SideBuy, req.Side)
	assert.Equal(t, broker.OrderLimit, req.Type)
	assert.Equal(t, broker.TimeInForceDay, req.TimeInForce)
	assert.True(t, req.ExtendedHours)
	require.NotNil(t, req.LimitPrice)
	assert.True(t, req.LimitPrice.Equal(decimal.RequireFromString("100.15")))
	assert.True(t, req.Qty.Equal(decimal.NewFromInt(1)))
}

func TestEnterContinuesAfterSubmissionFailure(t *testing.T) {
	b := &fakeBroker{submitErr: map[string]error{"AAA": errors.New("rejected")}}
	m := entryManager(DefaultConfig(), b)

	submitted := m.Enter([]RankedCandidate{
		{Symbol: "AAA", Price: 10, DayChangePct: 5},
		{Symbol: "BBB", Price: 10, DayChangePct: 4},
	}, 0)

	assert.Equal(t, 1, submitted)
	require.Len(t, b.submitted, 1)
	assert.Equal(t, "BBB", b.submitted[0].Symbol)
}

func TestEnterNoSlots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOpenPositions = 15
	b := &fakeBroker{}
	m := entryManager(cfg, b)

	submitted := m.Enter([]RankedCandidate{{Symbol: "AAA", Price: 10}}, 15)

	assert.Equal(t, 0, submitted)
	assert.Empty(t, b.submitted)
}
