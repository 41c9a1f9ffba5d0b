package engine

import "scalper/internal/risk"

// PositionStat is one live position's public view.
type PositionStat struct {
	ID         string
	Symbol     string
	Multiplier float64
	AgeSeconds float64
}

// Stats summarizes the live position set.
type Stats struct {
	ActiveCount int
	Positions   []PositionStat
}

// Stats returns a snapshot of the live positions.
func (e *Engine) Stats() Stats {
	now := e.now()
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Stats{
		ActiveCount: len(e.positions),
		Positions:   make([]PositionStat, 0, len(e.positions)),
	}
	for _, pos := range e.positions {
		stats.Positions = append(stats.Positions, PositionStat{
			ID:         pos.ID,
			Symbol:     pos.Symbol,
			Multiplier: pos.Multiplier(),
			AgeSeconds: pos.AgeSeconds(now),
		})
	}
	return stats
}

// CurrentBalance returns the ledger's total balance.
func (e *Engine) CurrentBalance() float64 {
	return e.ledger.Total()
}

// PeakBalance returns the ledger's historical peak.
func (e *Engine) PeakBalance() float64 {
	return e.ledger.Peak()
}

// RiskState returns the gate's current state.
func (e *Engine) RiskState() risk.State {
	return e.gate.Snapshot()
}

// ResumeTrading clears the gate's stop latch.
func (e *Engine) ResumeTrading() {
	e.gate.ResumeTrading()
}

// SyncBalance reconciles the ledger with an authoritative balance and
// refreshes the gate's drawdown view.
func (e *Engine) SyncBalance(real float64) {
	e.ledger.SyncTotal(real)
	e.gate.UpdateDrawdown(e.ledger.Peak(), e.ledger.Total())
	e.metrics.SetEquity(e.ledger.Total(), e.ledger.Peak())
}
