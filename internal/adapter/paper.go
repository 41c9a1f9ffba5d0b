package adapter

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"
)

var (
	ErrUnknownSymbol       = errors.New("unknown symbol")
	ErrInsufficientBalance = errors.New("insufficient quote balance")
	ErrNothingToSell       = errors.New("nothing to sell")
	ErrOrderRejected       = errors.New("order rejected")
)

// PaperConfig tunes the simulated market.
type PaperConfig struct {
	QuoteBalance float64
	Drift        float64 // per-tick expected return, e.g. 0.0005
	Volatility   float64 // per-tick return stddev, e.g. 0.002
	SlippagePct  float64 // adverse fill slippage on both sides
	Seed         int64
}

type paperBook struct {
	price  float64
	qty    float64
	script []float64
	cursor int
}

// Paper is an in-memory exchange implementing PriceFeed, OrderAdapter and
// BalanceSource. Prices follow a random walk unless a tick script is
// loaded for the symbol.
type Paper struct {
	mu    sync.Mutex
	cfg   PaperConfig
	rng   *rand.Rand
	books map[string]*paperBook
	quote float64

	failNextBuy  bool
	failNextSell bool
}

// NewPaper creates a paper exchange with the given quote balance.
func NewPaper(cfg PaperConfig) *Paper {
	return &Paper{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		books: make(map[string]*paperBook),
		quote: cfg.QuoteBalance,
	}
}

// ListSymbol registers a symbol at a starting price.
func (p *Paper) ListSymbol(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.books[symbol] = &paperBook{price: price}
}

// LoadScript replaces the symbol's random walk with a fixed tick sequence.
// The last scripted price repeats once the sequence is exhausted.
func (p *Paper) LoadScript(symbol string, prices []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	book, ok := p.books[symbol]
	if !ok {
		book = &paperBook{}
		p.books[symbol] = book
	}
	book.script = prices
	book.cursor = 0
	if len(prices) > 0 {
		book.price = prices[0]
	}
}

// Symbols returns every listed symbol in sorted order.
func (p *Paper) Symbols() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	symbols := make([]string, 0, len(p.books))
	for symbol := range p.books {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// FailNextBuy makes the next buy call return an error.
func (p *Paper) FailNextBuy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNextBuy = true
}

// FailNextSell makes the next sell call return an error.
func (p *Paper) FailNextSell() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNextSell = true
}

// Price advances the symbol's book by one tick and returns the new price.
func (p *Paper) Price(_ context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	book, ok := p.books[symbol]
	if !ok {
		return 0, ErrUnknownSymbol
	}
	p.advance(book)
	return book.price, nil
}

// ExecuteBuy fills a market buy at the current price plus slippage.
func (p *Paper) ExecuteBuy(_ context.Context, symbol string, quoteAmount float64) (OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNextBuy {
		p.failNextBuy = false
		return OrderResult{}, ErrOrderRejected
	}
	book, ok := p.books[symbol]
	if !ok {
		return OrderResult{}, ErrUnknownSymbol
	}
	if quoteAmount <= 0 || quoteAmount > p.quote {
		return OrderResult{}, ErrInsufficientBalance
	}
	if book.price <= 0 {
		return OrderResult{}, ErrOrderRejected
	}

	fillPrice := book.price * (1 + p.cfg.SlippagePct/100)
	qty := quoteAmount / fillPrice
	p.quote -= quoteAmount
	book.qty += qty
	return OrderResult{
		FillID:   uuid.NewString(),
		Filled:   qty,
		AvgPrice: fillPrice,
	}, nil
}

// ExecuteSell fills a market sell at the current price minus slippage.
func (p *Paper) ExecuteSell(_ context.Context, symbol string, quantity float64) (OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNextSell {
		p.failNextSell = false
		return OrderResult{}, ErrOrderRejected
	}
	book, ok := p.books[symbol]
	if !ok {
		return OrderResult{}, ErrUnknownSymbol
	}
	if quantity <= 0 || book.qty <= 0 {
		return OrderResult{}, ErrNothingToSell
	}
	if quantity > book.qty {
		quantity = book.qty
	}

	fillPrice := book.price * (1 - p.cfg.SlippagePct/100)
	proceeds := quantity * fillPrice
	book.qty -= quantity
	p.quote += proceeds
	return OrderResult{
		FillID:   uuid.NewString(),
		Filled:   quantity,
		AvgPrice: fillPrice,
	}, nil
}

// QuoteBalance reports the authoritative quote balance.
func (p *Paper) QuoteBalance(_ context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quote, nil
}

// advance moves the book one tick: scripted sequence first, random walk
// otherwise. Callers hold the mutex.
func (p *Paper) advance(book *paperBook) {
	if len(book.script) > 0 {
		if book.cursor < len(book.script) {
			book.price = book.script[book.cursor]
			book.cursor++
		} else {
			book.price = book.script[len(book.script)-1]
		}
		return
	}
	step := p.cfg.Drift + p.cfg.Volatility*p.rng.NormFloat64()
	book.price *= 1 + step
	if book.price < 0 {
		book.price = 0
	}
}
