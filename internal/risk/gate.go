package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/yanun0323/logs"
)

// Config defines the gate's limits.
type Config struct {
	MaxDailyTrades       int
	MaxConsecutiveLosses int
	MaxDrawdownPct       float64
}

// Decision is the gate's answer to one open attempt.
type Decision struct {
	CanTrade bool
	Reason   string
}

// State is a snapshot of the gate's global state.
type State struct {
	DailyTradeCount   int
	ConsecutiveLosses int
	DrawdownPct       float64
	TradingStopped    bool
	StopReason        string
}

// Gate decides whether new positions may open. Once the stop latch trips it
// stays tripped until ResumeTrading; open positions keep being monitored
// and closed while new entries are blocked.
type Gate struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	dailyTradeCount   int
	dailyDate         string
	consecutiveLosses int
	drawdownPct       float64
	stopped           bool
	stopReason        string
}

// NewGate creates a gate with static limits.
func NewGate(cfg Config) *Gate {
	return &Gate{cfg: cfg, now: time.Now}
}

// CanOpenPosition evaluates the checks in order and returns the first
// failing reason.
func (g *Gate) CanOpenPosition(maxOpen, currentOpen int) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return Decision{Reason: "Trading stopped: " + g.stopReason}
	}
	if currentOpen >= maxOpen {
		return Decision{Reason: fmt.Sprintf("Max open positions reached (%d/%d)", currentOpen, maxOpen)}
	}
	g.rollDailyCounter()
	if g.cfg.MaxDailyTrades > 0 && g.dailyTradeCount >= g.cfg.MaxDailyTrades {
		return Decision{Reason: fmt.Sprintf("Daily trade limit reached (%d)", g.dailyTradeCount)}
	}
	if g.cfg.MaxConsecutiveLosses > 0 && g.consecutiveLosses >= g.cfg.MaxConsecutiveLosses {
		reason := fmt.Sprintf("Consecutive losses: %d", g.consecutiveLosses)
		g.stopTrading(reason)
		return Decision{Reason: reason}
	}
	return Decision{CanTrade: true}
}

// OnPositionOpened counts one trade against the daily cap.
func (g *Gate) OnPositionOpened() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollDailyCounter()
	g.dailyTradeCount++
}

// OnPositionClosed updates the loss streak from a close result. Any
// non-profitable close counts as a loss.
func (g *Gate) OnPositionClosed(profit float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if profit > 0 {
		g.consecutiveLosses = 0
		return
	}
	g.consecutiveLosses++
}

// UpdateDrawdown recomputes drawdown against the ledger's historical peak
// and trips the stop latch when the configured maximum is met. The peak is
// the caller's truth so a loss from the starting balance registers. The
// trigger is idempotent: repeated breaches while already stopped do nothing.
func (g *Gate) UpdateDrawdown(peak, balance float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if peak <= 0 {
		return
	}
	g.drawdownPct = (peak - balance) / peak * 100
	if g.cfg.MaxDrawdownPct > 0 && g.drawdownPct >= g.cfg.MaxDrawdownPct {
		g.stopTrading(fmt.Sprintf("Max drawdown exceeded: %.2f%%", g.drawdownPct))
	}
}

// ResumeTrading clears the stop latch and the loss streak. It is the only
// way out of a stop and is always an explicit operator call.
func (g *Gate) ResumeTrading() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stopped {
		return
	}
	logs.Infof("trading resumed, previous stop: %s", g.stopReason)
	g.stopped = false
	g.stopReason = ""
	g.consecutiveLosses = 0
}

// Snapshot returns the current gate state.
func (g *Gate) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollDailyCounter()
	return State{
		DailyTradeCount:   g.dailyTradeCount,
		ConsecutiveLosses: g.consecutiveLosses,
		DrawdownPct:       g.drawdownPct,
		TradingStopped:    g.stopped,
		StopReason:        g.stopReason,
	}
}

// stopTrading trips the latch once. Callers hold the mutex.
func (g *Gate) stopTrading(reason string) {
	if g.stopped {
		return
	}
	g.stopped = true
	g.stopReason = reason
	logs.Warnf("trading stopped: %s", reason)
}

// rollDailyCounter resets the trade counter when the UTC calendar date
// changes. Callers hold the mutex.
func (g *Gate) rollDailyCounter() {
	day := g.now().UTC().Format("2006-01-02")
	if day != g.dailyDate {
		g.dailyDate = day
		g.dailyTradeCount = 0
	}
}
