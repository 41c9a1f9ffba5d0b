package adapter

import "context"

// PriceFeed supplies last-trade prices for tracked symbols. Implementations
// may fail transiently or return stale/zero values; callers skip the cycle
// on a non-positive price.
type PriceFeed interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// BalanceSource exposes the authoritative quote balance for reconciliation
// against the ledger.
type BalanceSource interface {
	QuoteBalance(ctx context.Context) (float64, error)
}
