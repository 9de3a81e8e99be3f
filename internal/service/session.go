// Package service hosts simulation sessions. The core defines no
// internal locking, so each session wraps one OrderBook + population +
// draw-source unit behind its own lock with exactly one mutator at a
// time.
package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/synthmarket/marketsim/internal/domain"
	"github.com/synthmarket/marketsim/internal/engine"
	"github.com/synthmarket/marketsim/internal/sim"
)

// Status is a snapshot of a session's progress.
type Status struct {
	RunID     string     `json:"run_id"`
	Symbol    string     `json:"symbol"`
	Policy    string     `json:"policy"`
	Regime    string     `json:"regime"`
	Done      bool       `json:"done"`
	Bars      int        `json:"bars"`
	Trades    int        `json:"trades"`
	Ticks     uint64     `json:"ticks"`
	MidPrice  float64    `json:"mid_price"`
	SpreadBps float64    `json:"spread_bps"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// Session owns one simulation unit. All access goes through the
// session's lock; the driver itself is never shared.
type Session struct {
	mu        sync.RWMutex
	runID     string
	driver    *sim.Driver
	bars      []*domain.MarketBar
	done      bool
	startedAt *time.Time
}

// NewSession creates a session around a fresh driver. The run id is a
// host-level identifier for logs and status responses; it plays no part
// in the simulation's deterministic state.
func NewSession(opts sim.Options) *Session {
	return &Session{
		runID:  uuid.New().String(),
		driver: sim.NewDriver(opts),
	}
}

// RunID returns the session's host-level identifier.
func (s *Session) RunID() string {
	return s.runID
}

// Run executes the full session and stores the resulting bars. It holds
// the write lock for the whole run: ticks never interleave with reads.
func (s *Session) Run(numBars int) []*domain.MarketBar {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.startedAt = &now
	s.bars = s.driver.Run(numBars)
	s.done = true
	return s.bars
}

// Bars returns the bars produced so far, newest last. When limit > 0,
// only the most recent limit bars are returned.
func (s *Session) Bars(limit int) []*domain.MarketBar {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.bars
	if limit > 0 && limit < len(bars) {
		bars = bars[len(bars)-limit:]
	}
	out := make([]*domain.MarketBar, len(bars))
	copy(out, bars)
	return out
}

// Trades returns the trade ledger, newest last. When limit > 0, only
// the most recent limit trades are returned.
func (s *Session) Trades(limit int) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.driver.Book().Trades()
	if limit > 0 && limit < len(trades) {
		trades = trades[len(trades)-limit:]
	}
	return trades
}

// Depth returns top-n snapshots of both sides of the book.
func (s *Session) Depth(levels int) (bids, asks []engine.DepthLevel) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.driver.Book().BidDepth(levels), s.driver.Book().AskDepth(levels)
}

// TraderStats aggregates the population by archetype.
func (s *Session) TraderStats() sim.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.driver.Population().Stats()
}

// Status reports the session's current progress.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		RunID:     s.runID,
		Symbol:    s.driver.Book().Symbol(),
		Policy:    string(s.driver.Policy()),
		Regime:    string(s.driver.Regime()),
		Done:      s.done,
		Bars:      len(s.bars),
		Trades:    s.driver.Book().TradeCount(),
		Ticks:     s.driver.CurrentTick(),
		MidPrice:  s.driver.MidPrice(),
		SpreadBps: s.driver.SpreadBps(),
		StartedAt: s.startedAt,
	}
}
