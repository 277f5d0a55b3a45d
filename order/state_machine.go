package order

import (
	"fmt"
	"sync"
)

// StateTransition 状态转换
type StateTransition struct {
	From State
	To   State
}

// StateMachine 订单状态机。监护循环用它校验交易所回报的状态变化，
// 非法转换说明本地视图与交易所脱节。
type StateMachine struct {
	transitions map[StateTransition]bool
	mu          sync.RWMutex
}

// NewStateMachine 创建新的状态机
func NewStateMachine() *StateMachine {
	sm := &StateMachine{
		transitions: make(map[StateTransition]bool),
	}
	sm.initializeTransitions()
	return sm
}

// initializeTransitions 初始化所有合法的状态转换
func (sm *StateMachine) initializeTransitions() {
	legalTransitions := []StateTransition{
		// 从PENDING_SUBMIT可以转到
		{StatePendingSubmit, StateOpen},
		{StatePendingSubmit, StatePartialFilled},
		{StatePendingSubmit, StateFilled},
		{StatePendingSubmit, StateRejected},
		{StatePendingSubmit, StateCancelPending},
		{StatePendingSubmit, StateCancelConfirmed},

		// 从OPEN可以转到
		{StateOpen, StatePartialFilled},
		{StateOpen, StateFilled},
		{StateOpen, StateCancelPending},
		{StateOpen, StateCancelConfirmed},
		{StateOpen, StateRejected},

		// 从PARTIALLY_FILLED可以转到
		{StatePartialFilled, StatePartialFilled}, // 多次部分成交
		{StatePartialFilled, StateFilled},
		{StatePartialFilled, StateCancelPending},
		{StatePartialFilled, StateCancelledFilled},

		// 从CANCEL_PENDING可以转到
		{StateCancelPending, StateCancelConfirmed},
		{StateCancelPending, StateCancelledFilled},
		{StateCancelPending, StateFilled},        // 撤单竞态：撤单时全部成交
		{StateCancelPending, StatePartialFilled}, // 撤单时部分成交

		// 终态不能转换（FILLED, CANCELLED_FILLED, CANCEL_CONFIRMED, REJECTED）
	}

	for _, t := range legalTransitions {
		sm.transitions[t] = true
	}
}

// ValidateTransition 验证状态转换是否合法
func (sm *StateMachine) ValidateTransition(from, to State) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	// 相同状态允许（幂等性）
	if from == to {
		return nil
	}

	transition := StateTransition{From: from, To: to}
	if !sm.transitions[transition] {
		return fmt.Errorf("illegal state transition: %s -> %s", from, to)
	}

	return nil
}

// AllowedTransitions 返回当前状态所有合法的目标状态
func (sm *StateMachine) AllowedTransitions(current State) []State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	allowed := make([]State, 0)
	for transition := range sm.transitions {
		if transition.From == current {
			allowed = append(allowed, transition.To)
		}
	}
	return allowed
}

// CanCancel 判断当前状态下是否可以撤单
func (sm *StateMachine) CanCancel(state State) bool {
	switch state {
	case StatePendingSubmit, StateOpen, StatePartialFilled:
		return true
	default:
		return false
	}
}

// GetStateDescription 获取状态描述
func (sm *StateMachine) GetStateDescription(state State) string {
	descriptions := map[State]string{
		StatePendingSubmit:   "下单中",
		StateOpen:            "等待成交",
		StatePartialFilled:   "部分成交",
		StateFilled:          "完全成交",
		StateCancelledFilled: "部分成交撤销",
		StateCancelConfirmed: "撤单成功",
		StateRejected:        "失败",
		StateCancelPending:   "撤单中",
	}

	if desc, ok := descriptions[state]; ok {
		return desc
	}
	return "未知状态"
}
