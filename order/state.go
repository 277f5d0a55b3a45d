package order

// State represents order lifecycle.
type State string

const (
	// StatePendingSubmit 下单中（交易所已受理，撮合未确认）
	StatePendingSubmit State = "PENDING_SUBMIT"
	// StateOpen 等待成交（已挂单，无任何成交）
	StateOpen State = "OPEN"
	// StatePartialFilled 部分成交（仍在挂单）
	StatePartialFilled State = "PARTIALLY_FILLED"
	// StateFilled 完全成交（终态）
	StateFilled State = "FILLED"
	// StateCancelledFilled 部分成交后撤销（终态，携带已成交部分）
	StateCancelledFilled State = "CANCELLED_FILLED"
	// StateCancelConfirmed 撤单成功且无成交（终态）
	StateCancelConfirmed State = "CANCEL_CONFIRMED"
	// StateRejected 交易所拒单（终态）
	StateRejected State = "REJECTED"
	// StateCancelPending 撤单中
	StateCancelPending State = "CANCEL_PENDING"
)

// Terminal 判断是否是终态。
func (s State) Terminal() bool {
	switch s {
	case StateFilled, StateCancelledFilled, StateCancelConfirmed, StateRejected:
		return true
	default:
		return false
	}
}

// Resting 判断订单是否仍在簿上等待（可能继续成交）。
func (s State) Resting() bool {
	switch s {
	case StateOpen, StatePartialFilled:
		return true
	default:
		return false
	}
}

// CarriesFill 该状态的回报是否应携带成交指标。
func (s State) CarriesFill() bool {
	switch s {
	case StateFilled, StatePartialFilled, StateCancelledFilled:
		return true
	default:
		return false
	}
}
