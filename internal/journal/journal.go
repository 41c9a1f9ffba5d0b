package journal

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"gorm.io/gorm"

	"scalper/pkg/conn"
)

// TradeRecord is one closed trade.
type TradeRecord struct {
	ID          uint      `gorm:"primaryKey"`
	PositionID  string    `gorm:"size:36;index"`
	Symbol      string    `gorm:"size:32;index"`
	EntryPrice  float64
	ExitPrice   float64
	Invested    float64
	Proceeds    float64
	Profit      float64
	Reason      string `gorm:"size:16"`
	OpenedAt    time.Time
	ClosedAt    time.Time `gorm:"index"`
	HoldSeconds float64
}

// Summary aggregates a set of trades.
type Summary struct {
	Trades int
	Wins   int
	Profit float64
}

// Journal persists closed trades. Writes go through a buffered channel so
// the engine's evaluation loop never blocks on the database; a full buffer
// drops the record and counts it.
type Journal struct {
	db      *gorm.DB
	ch      chan TradeRecord
	done    chan struct{}
	closed  uint32
	dropped uint64
}

// New creates a journal over the given database client and migrates the
// trade table.
func New(client *conn.Client) (*Journal, error) {
	db := client.DB()
	if db == nil {
		return nil, errors.New("journal requires a database connection")
	}
	if err := db.AutoMigrate(&TradeRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate trade records")
	}
	return &Journal{
		db:   db,
		ch:   make(chan TradeRecord, 256),
		done: make(chan struct{}),
	}, nil
}

// Start launches the writer goroutine. It drains remaining records after
// Close before exiting. Writes deliberately run outside any request or run
// context: the trades a shutdown sweep records must still land after the
// run context is cancelled.
func (j *Journal) Start() {
	if j == nil {
		return
	}
	go func() {
		defer close(j.done)
		for rec := range j.ch {
			if err := j.db.Create(&rec).Error; err != nil {
				logs.Errorf("journal write %s: %+v", rec.Symbol, err)
			}
		}
	}()
}

// Record enqueues a closed trade without blocking. Safe on a nil journal.
func (j *Journal) Record(rec TradeRecord) {
	if j == nil || atomic.LoadUint32(&j.closed) != 0 {
		return
	}
	select {
	case j.ch <- rec:
	default:
		atomic.AddUint64(&j.dropped, 1)
	}
}

// Dropped reports how many records were discarded on a full buffer.
func (j *Journal) Dropped() uint64 {
	if j == nil {
		return 0
	}
	return atomic.LoadUint64(&j.dropped)
}

// DailySummary aggregates the trades closed on the given UTC day.
func (j *Journal) DailySummary(ctx context.Context, day time.Time) (Summary, error) {
	if j == nil {
		return Summary{}, nil
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var recs []TradeRecord
	err := j.db.WithContext(ctx).
		Where("closed_at >= ? AND closed_at < ?", start, end).
		Find(&recs).Error
	if err != nil {
		return Summary{}, errors.Wrap(err, "query daily trades")
	}
	return Summarize(recs), nil
}

// Close stops accepting records and waits for the writer to drain.
func (j *Journal) Close() {
	if j == nil {
		return
	}
	if atomic.CompareAndSwapUint32(&j.closed, 0, 1) {
		close(j.ch)
		<-j.done
	}
}

// Summarize reduces trade records to a summary.
func Summarize(recs []TradeRecord) Summary {
	var s Summary
	for _, rec := range recs {
		s.Trades++
		if rec.Profit > 0 {
			s.Wins++
		}
		s.Profit += rec.Profit
	}
	return s
}
