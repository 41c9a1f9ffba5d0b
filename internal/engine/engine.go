package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"scalper/internal/adapter"
	"scalper/internal/bus"
	"scalper/internal/journal"
	"scalper/internal/ledger"
	"scalper/internal/model"
	"scalper/internal/model/enum"
	"scalper/internal/obs"
	"scalper/internal/risk"
	"scalper/internal/signal"
)

// Config defines the engine's trading parameters. Percentages are in
// percent units (0.8 means 0.8%).
type Config struct {
	MaxOpenPositions  int
	MinPositionSize   float64
	MaxPositionSize   float64
	TargetProfitPct   float64
	MinProfitFloorPct float64
	StopLossPct       float64
	MaxHoldDuration   time.Duration
	StaleFeedTimeout  time.Duration
	TickInterval      time.Duration
	EvalInterval      time.Duration
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.EvalInterval <= 0 {
		c.EvalInterval = 2 * time.Second
	}
	if c.MaxOpenPositions <= 0 {
		c.MaxOpenPositions = 3
	}
	return c
}

// Deps are the engine's collaborators. Journal and Metrics may be nil.
type Deps struct {
	Feed    adapter.PriceFeed
	Orders  adapter.OrderAdapter
	Ledger  *ledger.Ledger
	Gate    *risk.Gate
	Journal *journal.Journal
	Metrics *obs.Metrics
}

// Engine owns the live position map and drives the open/monitor/close
// state machine. Detector ticks and position evaluations run as
// independent periodic loops per symbol; they communicate only through
// the signal queue and the shared position map.
type Engine struct {
	cfg     Config
	feed    adapter.PriceFeed
	orders  adapter.OrderAdapter
	ledger  *ledger.Ledger
	gate    *risk.Gate
	journal *journal.Journal
	metrics *obs.Metrics
	queue   *bus.SignalQueue

	mu        sync.Mutex
	positions map[string]*model.Position
	detectors map[string]*signal.Detector

	now func() time.Time
	wg  sync.WaitGroup
}

// New creates an engine. The initial balance lives in deps.Ledger.
func New(cfg Config, deps Deps) *Engine {
	return &Engine{
		cfg:       cfg.withDefaults(),
		feed:      deps.Feed,
		orders:    deps.Orders,
		ledger:    deps.Ledger,
		gate:      deps.Gate,
		journal:   deps.Journal,
		metrics:   deps.Metrics,
		queue:     bus.NewSignalQueue(64),
		positions: make(map[string]*model.Position),
		detectors: make(map[string]*signal.Detector),
		now:       time.Now,
	}
}

// Run starts the signal consumer. Detector loops are started per symbol
// via Track.
func (e *Engine) Run(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.queue.Run(ctx, func(sig model.MomentumSignal) {
			e.OpenPosition(ctx, sig.Symbol, sig)
		})
	}()
}

// Track registers a symbol and starts its detector loop. Tracking the same
// symbol twice is a no-op.
func (e *Engine) Track(ctx context.Context, symbol string) {
	e.mu.Lock()
	if _, ok := e.detectors[symbol]; ok {
		e.mu.Unlock()
		return
	}
	det := signal.NewDetector(symbol)
	e.detectors[symbol] = det
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.detectTick(ctx, det)
			}
		}
	}()
}

// detectTick samples the feed once and publishes a valid signal, if any.
func (e *Engine) detectTick(ctx context.Context, det *signal.Detector) {
	price, err := e.feed.Price(ctx, det.Symbol())
	if err != nil || price <= 0 {
		if err != nil {
			logs.Debugf("price %s: %+v", det.Symbol(), err)
		}
		return
	}
	now := e.now()
	det.AddSample(price, now)
	sig := det.Evaluate(now)
	if !sig.Valid {
		return
	}
	if err := e.queue.TryPublish(sig); err != nil {
		e.metrics.IncSignalDrop()
	}
}

// OpenPosition attempts Opening → Active for the symbol: risk gate, then
// capital reservation, then the buy call. A failed buy discards the
// attempt; no Position survives it.
func (e *Engine) OpenPosition(ctx context.Context, symbol string, sig model.MomentumSignal) bool {
	if !sig.Valid {
		return false
	}

	e.mu.Lock()
	if _, exists := e.positions[symbol]; exists {
		e.mu.Unlock()
		return false
	}
	decision := e.gate.CanOpenPosition(e.cfg.MaxOpenPositions, len(e.positions))
	if !decision.CanTrade {
		e.mu.Unlock()
		e.metrics.IncReject(decision.Reason)
		logs.Infof("open %s rejected: %s", symbol, decision.Reason)
		return false
	}
	amount := e.positionSize()
	if amount < e.cfg.MinPositionSize || amount <= 0 {
		e.mu.Unlock()
		e.metrics.IncReject("Insufficient free balance")
		logs.Infof("open %s rejected: free balance below minimum position size", symbol)
		return false
	}
	if !e.ledger.Reserve(amount) {
		e.mu.Unlock()
		e.metrics.IncReject("Reserve failed")
		logs.Infof("open %s rejected: reserve %.4f failed", symbol, amount)
		return false
	}
	pos := &model.Position{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		InvestedAmount: amount,
		Status:         enum.PositionStatusOpening,
	}
	e.positions[symbol] = pos
	e.mu.Unlock()

	fill, err := e.orders.ExecuteBuy(ctx, symbol, amount)
	if err != nil || fill.Filled <= 0 || fill.AvgPrice <= 0 {
		// The buy never spent the reservation; the capital comes back whole.
		e.ledger.Release(amount, amount)
		e.mu.Lock()
		pos.Status = enum.PositionStatusFailed
		delete(e.positions, symbol)
		e.mu.Unlock()
		e.metrics.IncReject("Buy failed")
		logs.Warnf("buy %s failed, attempt discarded: %+v", symbol, err)
		return false
	}

	now := e.now()
	e.mu.Lock()
	pos.EntryPrice = fill.AvgPrice
	pos.Quantity = fill.Filled
	pos.EntryTime = now
	pos.PeakPrice = fill.AvgPrice
	pos.ExitDeadline = now.Add(e.cfg.MaxHoldDuration)
	pos.Status = enum.PositionStatusActive
	pos.RecordPrice(fill.AvgPrice, now)
	active := len(e.positions)
	e.mu.Unlock()

	e.gate.OnPositionOpened()
	e.metrics.IncOpened()
	e.metrics.SetActive(active)
	logs.Infof("opened %s: invested %.4f qty %.6f entry %.8f confidence %.2f",
		symbol, amount, fill.Filled, fill.AvgPrice, sig.Confidence)

	e.monitor(ctx, pos)
	return true
}

// monitor runs the position's evaluation loop until it closes.
func (e *Engine) monitor(ctx context.Context, pos *model.Position) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.cfg.EvalInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if e.evaluate(ctx, pos) {
					return
				}
			}
		}
	}()
}

// positionSize returns the quote amount for the next position, capped by
// the configured maximum and the free balance.
func (e *Engine) positionSize() float64 {
	amount := e.cfg.MaxPositionSize
	if free := e.ledger.Free(); amount > free {
		amount = free
	}
	return amount
}

// Wait blocks until all engine goroutines have stopped.
func (e *Engine) Wait() {
	e.wg.Wait()
}
