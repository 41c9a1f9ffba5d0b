package enum

type CloseReason uint8

const (
	_close_reason_beg CloseReason = iota
	CloseReasonTimeout
	CloseReasonTakeProfit
	CloseReasonMomentumFade
	CloseReasonPriceStale
	CloseReasonStopLoss
	CloseReasonShutdown
	_close_reason_end
)

func (r CloseReason) IsAvailable() bool {
	return r > _close_reason_beg && r < _close_reason_end
}

func (r CloseReason) String() string {
	switch r {
	case CloseReasonTimeout:
		return "timeout"
	case CloseReasonTakeProfit:
		return "take_profit"
	case CloseReasonMomentumFade:
		return "momentum_fade"
	case CloseReasonPriceStale:
		return "price_stale"
	case CloseReasonStopLoss:
		return "stop_loss"
	case CloseReasonShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}
