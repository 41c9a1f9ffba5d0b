package engine

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"scalper/internal/journal"
	"scalper/internal/model"
	"scalper/internal/model/enum"
	"scalper/internal/signal"
)

// shutdownPasses bounds how often CloseAll retries an unresponsive sell.
const shutdownPasses = 2

// evaluate runs one tick of the position's exit checks. It returns true
// once the position has closed and its monitor loop may stop.
func (e *Engine) evaluate(ctx context.Context, pos *model.Position) bool {
	price, err := e.feed.Price(ctx, pos.Symbol)
	now := e.now()

	e.mu.Lock()
	if pos.Status != enum.PositionStatusActive {
		closed := pos.Status == enum.PositionStatusClosed
		e.mu.Unlock()
		return closed
	}
	if err != nil {
		// Feed errors skip this symbol for the current tick only.
		logs.Debugf("price %s: %+v", pos.Symbol, err)
	} else if price > 0 {
		pos.RecordPrice(price, now)
	}
	profitPct := pos.ProfitPct(pos.LastPrice())
	reason, shouldClose := e.exitReason(pos, now, profitPct)
	e.mu.Unlock()

	if !shouldClose {
		return false
	}
	return e.close(ctx, pos, reason)
}

// exitReason checks the exit conditions in fixed priority order and
// returns the first match. Callers hold the mutex.
func (e *Engine) exitReason(pos *model.Position, now time.Time, profitPct float64) (enum.CloseReason, bool) {
	if !now.Before(pos.ExitDeadline) {
		return enum.CloseReasonTimeout, true
	}
	if profitPct >= e.cfg.TargetProfitPct {
		return enum.CloseReasonTakeProfit, true
	}
	if velocity, acceleration, ok := signal.Momentum(pos.History()); ok {
		faded := velocity <= 0 || acceleration < signal.AccelerationFloor
		if faded && profitPct >= e.cfg.MinProfitFloorPct {
			return enum.CloseReasonMomentumFade, true
		}
	}
	if now.Sub(pos.LastUpdate()) >= e.cfg.StaleFeedTimeout {
		return enum.CloseReasonPriceStale, true
	}
	if profitPct < -e.cfg.StopLossPct {
		return enum.CloseReasonStopLoss, true
	}
	return 0, false
}

// close drives Active → Closing → Closed. The Active → Closing transition
// is the guard: a concurrent close attempt finds Closing and backs off, so
// the sell and the ledger release happen at most once per position. A
// failed sell reverts to Active so the next tick retries; it is never
// stranded in Closing.
func (e *Engine) close(ctx context.Context, pos *model.Position, reason enum.CloseReason) bool {
	e.mu.Lock()
	if pos.Status != enum.PositionStatusActive {
		closed := pos.Status == enum.PositionStatusClosed
		e.mu.Unlock()
		return closed
	}
	pos.Status = enum.PositionStatusClosing
	qty := pos.Quantity
	e.mu.Unlock()

	fill, err := e.orders.ExecuteSell(ctx, pos.Symbol, qty)
	if err != nil || fill.Filled <= 0 || fill.AvgPrice <= 0 {
		e.mu.Lock()
		pos.Status = enum.PositionStatusActive
		e.mu.Unlock()
		logs.Warnf("sell %s failed, position reverted to active: %+v", pos.Symbol, err)
		return false
	}

	proceeds := fill.Filled * fill.AvgPrice
	profit := proceeds - pos.InvestedAmount
	now := e.now()

	e.mu.Lock()
	pos.Status = enum.PositionStatusClosed
	delete(e.positions, pos.Symbol)
	active := len(e.positions)
	e.mu.Unlock()

	e.ledger.Release(pos.InvestedAmount, proceeds)
	e.gate.OnPositionClosed(profit)
	total, peak := e.ledger.Total(), e.ledger.Peak()
	e.gate.UpdateDrawdown(peak, total)
	state := e.gate.Snapshot()

	e.metrics.IncExit(reason.String())
	e.metrics.SetActive(active)
	e.metrics.SetEquity(total, peak)
	e.metrics.SetRisk(state.DrawdownPct, state.ConsecutiveLosses)

	e.journal.Record(journal.TradeRecord{
		PositionID:  pos.ID,
		Symbol:      pos.Symbol,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   fill.AvgPrice,
		Invested:    pos.InvestedAmount,
		Proceeds:    proceeds,
		Profit:      profit,
		Reason:      reason.String(),
		OpenedAt:    pos.EntryTime,
		ClosedAt:    now,
		HoldSeconds: pos.AgeSeconds(now),
	})
	logs.Infof("closed %s: reason %s invested %.4f proceeds %.4f profit %.4f",
		pos.Symbol, reason, pos.InvestedAmount, proceeds, profit)
	return true
}

// CloseAll forces every live position through the close path with reason
// shutdown, bypassing the exit checks. The wait is bounded: each position
// gets at most shutdownPasses sell attempts.
func (e *Engine) CloseAll(ctx context.Context) {
	for pass := 1; pass <= shutdownPasses; pass++ {
		e.mu.Lock()
		live := make([]*model.Position, 0, len(e.positions))
		for _, pos := range e.positions {
			live = append(live, pos)
		}
		e.mu.Unlock()
		if len(live) == 0 {
			return
		}
		for _, pos := range live {
			if !e.close(ctx, pos, enum.CloseReasonShutdown) {
				logs.Warnf("shutdown close %s failed (pass %d/%d)", pos.Symbol, pass, shutdownPasses)
			}
		}
	}

	e.mu.Lock()
	left := len(e.positions)
	e.mu.Unlock()
	if left > 0 {
		logs.Errorf("shutdown abandoned %d unresolved positions", left)
	}
}
