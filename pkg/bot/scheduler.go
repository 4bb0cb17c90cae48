package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"grandmaster/pkg/marketdata"
)

// State names one phase of the cycle state machine:
// Reconcile → GateCheck → (ExitOnly | ScanAndAct) → Delay → Reconcile.
type State int

const (
	StateReconcile State = iota
	StateGateCheck
	StateExitOnly
	StateScanAndAct
	StateDelay
)

func (s State) String() string {
	switch s {
	case StateReconcile:
		return "reconcile"
	case StateGateCheck:
		return "gate_check"
	case StateExitOnly:
		return "exit_only"
	case StateScanAndAct:
		return "scan_and_act"
	case StateDelay:
		return "delay"
	default:
		return "unknown"
	}
}

// Clock abstracts wall time and the inter-cycle delay so cycles can be
// driven deterministically in tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// QuoteSource is the market-data side of a scan.
type QuoteSource interface {
	BatchQuotes(symbols []string, concurrency int) map[string]marketdata.Quote
}

// Scheduler drives the cycle state machine. One cycle: reconcile live
// state, run time exits, then either cover a full book with trailing
// stops or scan the next batch and enter. Cycles never overlap.
type Scheduler struct {
	config  Config
	broker  Broker
	quotes  QuoteSource
	cursor  *BatchCursor
	tracker *LifecycleTracker
	exits   *ExitManager
	entries *EntryManager
	ranker  Ranker
	clock   Clock
	logger  *zap.Logger

	state State
	cycle int
}

func NewScheduler(config Config, b Broker, quotes QuoteSource, universe []string, logger *zap.Logger) *Scheduler {
	tracker := NewLifecycleTracker()
	return &Scheduler{
		config:  config,
		broker:  b,
		quotes:  quotes,
		cursor:  NewBatchCursor(universe, config.ScanBatchSize),
		tracker: tracker,
		exits:   NewExitManager(config, b, tracker, logger),
		entries: NewEntryManager(config, b, logger),
		ranker:  NewRanker(config),
		clock:   realClock{},
		logger:  logger,
	}
}

// Run loops cycles until the context is canceled. There is no draining:
// cancellation stops the loop without flattening positions or canceling
// open orders.
func (s *Scheduler) Run(ctx context.Context) {
	for ctx.Err() == nil {
		s.RunCycle()
		s.setState(StateDelay)
		s.clock.Sleep(ctx, s.config.ScanDelay)
	}
	s.logger.Info("scheduler stopped", zap.Int("cycles", s.cycle))
}

// RunCycle executes exactly one cycle. Ordering within the cycle is
// fixed: reconciliation precedes exit logic precedes scan/entry logic.
func (s *Scheduler) RunCycle() {
	s.cycle++

	s.setState(StateReconcile)
	positions, err := s.broker.Positions()
	if err != nil {
		s.logger.Warn("positions read failed", zap.Error(err))
		positions = nil
	}
	now := s.clock.Now()
	s.tracker.Reconcile(positions, now)
	s.exits.TimeExits(positions, now)

	s.setState(StateGateCheck)
	if len(positions) >= s.config.MaxOpenPositions {
		s.setState(StateExitOnly)
		s.exits.EnsureTrailingStops(positions)
		return
	}

	s.setState(StateScanAndAct)
	batch := s.cursor.Next()
	if len(batch) == 0 {
		s.logger.Debug("empty universe, nothing to scan")
		return
	}
	s.logger.Info("scanning batch", zap.Int("cycle", s.cycle), zap.Int("symbols", len(batch)))

	quoted := s.quotes.BatchQuotes(batch, s.config.Concurrency)
	if len(quoted) == 0 {
		s.logger.Warn("no quotes in this batch (throttle/off-hours)")
		return
	}

	// Batch order, not map order, so ranking ties stay deterministic.
	ordered := make([]marketdata.Quote, 0, len(quoted))
	for _, sym := range batch {
		if q, ok := quoted[sym]; ok {
			ordered = append(ordered, q)
		}
	}

	ranked := s.ranker.Rank(ordered)
	qualified := s.ranker.Qualified(ranked)
	if len(qualified) == 0 && s.config.ForceBuyOnFirstPass && s.cycle == 1 {
		qualified = s.ranker.ForceCandidates(ordered, s.config.TakePerScan)
		if len(qualified) > 0 {
			s.logger.Info("first pass force-buy", zap.Int("candidates", len(qualified)))
		}
	}

	s.logTop(qualified)
	s.entries.Enter(qualified, len(positions))
}

// Cycle returns the number of cycles started.
func (s *Scheduler) Cycle() int { return s.cycle }

func (s *Scheduler) setState(state State) {
	s.state = state
	s.logger.Debug("state", zap.Stringer("state", state))
}

func (s *Scheduler) logTop(candidates []RankedCandidate) {
	if len(candidates) == 0 {
		s.logger.Info("no qualifiers")
		return
	}
	top := candidates
	if len(top) > 10 {
		top = top[:10]
	}
	parts := make([]string, 0, len(top))
	for _, c := range top {
		parts = append(parts, fmt.Sprintf("%s: day %+.2f%% @ %.2f", c.Symbol, c.DayChangePct, c.Price))
	}
	s.logger.Info("top qualifiers", zap.String("top", strings.Join(parts, " | ")))
}
