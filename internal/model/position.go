package model

import (
	"time"

	"scalper/internal/model/enum"
)

// HistoryCap bounds the per-position price history.
const HistoryCap = 10

// PriceSample is one observed (price, timestamp) pair.
type PriceSample struct {
	Price float64
	At    time.Time
}

// Position is one open capital commitment against a symbol.
// It is created by the engine on an accepted signal and mutated only by the
// engine's evaluation loop.
type Position struct {
	ID             string
	Symbol         string
	EntryPrice     float64
	InvestedAmount float64
	Quantity       float64
	EntryTime      time.Time
	PeakPrice      float64
	ExitDeadline   time.Time
	Status         enum.PositionStatus

	history    []PriceSample
	lastUpdate time.Time
}

// RecordPrice appends a sample, keeping the last HistoryCap entries, and
// tracks the peak price since entry.
func (p *Position) RecordPrice(price float64, at time.Time) {
	if price <= 0 {
		return
	}
	p.history = append(p.history, PriceSample{Price: price, At: at})
	if len(p.history) > HistoryCap {
		p.history = p.history[len(p.history)-HistoryCap:]
	}
	if price > p.PeakPrice {
		p.PeakPrice = price
	}
	p.lastUpdate = at
}

// History returns the bounded price history, oldest first.
func (p *Position) History() []PriceSample {
	return p.history
}

// LastPrice returns the most recent sample, or the entry price when no
// sample has been recorded yet.
func (p *Position) LastPrice() float64 {
	if len(p.history) == 0 {
		return p.EntryPrice
	}
	return p.history[len(p.history)-1].Price
}

// LastUpdate returns the time of the most recent price sample.
func (p *Position) LastUpdate() time.Time {
	if p.lastUpdate.IsZero() {
		return p.EntryTime
	}
	return p.lastUpdate
}

// ProfitPct returns the unrealized profit at the given price, in percent.
func (p *Position) ProfitPct(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}

// Multiplier returns currentPrice / entryPrice.
func (p *Position) Multiplier() float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return p.LastPrice() / p.EntryPrice
}

// AgeSeconds returns the holding time in seconds at the given instant.
func (p *Position) AgeSeconds(now time.Time) float64 {
	return now.Sub(p.EntryTime).Seconds()
}
