package adapter

import "context"

// OrderResult is the normalized outcome of a filled order. Filled and
// AvgPrice are the exchange's truth; accounting reconciles against them,
// never against the requested size.
type OrderResult struct {
	FillID   string
	Filled   float64
	AvgPrice float64
}

// OrderAdapter submits market orders. A failed call returns a zero result
// and a non-nil error; the engine treats buy failures as discarded attempts
// and sell failures as retryable.
type OrderAdapter interface {
	// ExecuteBuy spends quoteAmount on the symbol and reports the fill.
	ExecuteBuy(ctx context.Context, symbol string, quoteAmount float64) (OrderResult, error)
	// ExecuteSell liquidates quantity of the symbol and reports the fill.
	ExecuteSell(ctx context.Context, symbol string, quantity float64) (OrderResult, error)
}
