package enum

type PositionStatus uint8

const (
	_position_status_beg PositionStatus = iota
	PositionStatusOpening
	PositionStatusActive
	PositionStatusClosing
	PositionStatusClosed
	PositionStatusFailed
	_position_status_end
)

func (s PositionStatus) IsAvailable() bool {
	return s > _position_status_beg && s < _position_status_end
}

func (s PositionStatus) String() string {
	switch s {
	case PositionStatusOpening:
		return "opening"
	case PositionStatusActive:
		return "active"
	case PositionStatusClosing:
		return "closing"
	case PositionStatusClosed:
		return "closed"
	case PositionStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
