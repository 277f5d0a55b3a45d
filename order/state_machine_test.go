package order

import "testing"

func TestValidateTransition(t *testing.T) {
	sm := NewStateMachine()

	legal := []StateTransition{
		{StatePendingSubmit, StateOpen},
		{StateOpen, StatePartialFilled},
		{StatePartialFilled, StateFilled},
		{StateOpen, StateCancelConfirmed},
		{StatePartialFilled, StateCancelledFilled},
		// 撤单竞态：撤单中转为完全成交
		{StateCancelPending, StateFilled},
	}
	for _, tr := range legal {
		if err := sm.ValidateTransition(tr.From, tr.To); err != nil {
			t.Errorf("transition %s -> %s should be legal: %v", tr.From, tr.To, err)
		}
	}

	illegal := []StateTransition{
		{StateFilled, StateOpen},
		{StateCancelConfirmed, StatePartialFilled},
		{StateRejected, StateFilled},
		{StateOpen, StateCancelledFilled}, // 无成交的订单不会变为部分成交撤销
	}
	for _, tr := range illegal {
		if err := sm.ValidateTransition(tr.From, tr.To); err == nil {
			t.Errorf("transition %s -> %s should be illegal", tr.From, tr.To)
		}
	}
}

func TestSameStateIdempotent(t *testing.T) {
	sm := NewStateMachine()
	for _, s := range []State{StateOpen, StateFilled, StateCancelPending} {
		if err := sm.ValidateTransition(s, s); err != nil {
			t.Errorf("same-state transition for %s should be allowed: %v", s, err)
		}
	}
}

func TestCanCancel(t *testing.T) {
	sm := NewStateMachine()
	if !sm.CanCancel(StateOpen) || !sm.CanCancel(StatePartialFilled) {
		t.Error("resting states should be cancellable")
	}
	if sm.CanCancel(StateFilled) || sm.CanCancel(StateCancelPending) {
		t.Error("terminal/cancelling states should not be cancellable")
	}
}
