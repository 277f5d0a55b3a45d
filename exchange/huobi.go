package exchange

import (
	"strings"

	"trade-pilot/order"
)

// huobiContractNormalizer 火币交割/永续合约规整。状态为数字码，
// 方向由 direction(buy/sell) + offset(open/close) 组合而成。
type huobiContractNormalizer struct {
	label string
}

// NewHuobiFutures 火币交割合约规整器。
func NewHuobiFutures() Normalizer { return &huobiContractNormalizer{label: "huobi-futures"} }

// NewHuobiSwap 火币永续合约规整器。
func NewHuobiSwap() Normalizer { return &huobiContractNormalizer{label: "huobi-swap"} }

func (n *huobiContractNormalizer) Exchange() string { return n.label }

// huobiContractStates 火币合约状态码：
// 1/2 准备提交 3 已提交 4 部分成交 5 部分成交撤销 6 完全成交 7 撤单成功 11 撤单中
var huobiContractStates = map[string]order.State{
	"1":  order.StatePendingSubmit,
	"2":  order.StatePendingSubmit,
	"3":  order.StateOpen,
	"4":  order.StatePartialFilled,
	"5":  order.StateCancelledFilled,
	"6":  order.StateFilled,
	"7":  order.StateCancelConfirmed,
	"11": order.StateCancelPending,
}

func (n *huobiContractNormalizer) Normalize(raw RawOrder) (order.Report, error) {
	state, ok := huobiContractStates[raw.Status]
	if !ok {
		return order.Report{}, unknownState(n.label, raw)
	}

	var action order.Action
	switch {
	case raw.SideCode == "buy" && raw.Offset == "open":
		action = order.ActionOpenLong
	case raw.SideCode == "buy" && raw.Offset == "close":
		action = order.ActionCloseShort
	case raw.SideCode == "sell" && raw.Offset == "open":
		action = order.ActionOpenShort
	case raw.SideCode == "sell" && raw.Offset == "close":
		action = order.ActionCloseLong
	default:
		return order.Report{}, unknownSide(n.label, raw)
	}

	state, fill := fillFor(state, raw)
	return order.Report{
		Exchange:     n.label,
		InstrumentID: raw.InstrumentID,
		Action:       action,
		State:        state,
		Fill:         fill,
	}, nil
}

// huobiSpotNormalizer 火币现货规整。状态是字符串枚举，
// 方向嵌在订单类型里（如 buy-limit / sell-market）。
type huobiSpotNormalizer struct{}

// NewHuobiSpot 火币现货规整器。
func NewHuobiSpot() Normalizer { return &huobiSpotNormalizer{} }

func (n *huobiSpotNormalizer) Exchange() string { return "huobi-spot" }

var huobiSpotStates = map[string]order.State{
	"submitted":        order.StateOpen,
	"partial-filled":   order.StatePartialFilled,
	"filled":           order.StateFilled,
	"partial-canceled": order.StateCancelledFilled,
	"canceled":         order.StateCancelConfirmed,
}

func (n *huobiSpotNormalizer) Normalize(raw RawOrder) (order.Report, error) {
	state, ok := huobiSpotStates[raw.Status]
	if !ok {
		return order.Report{}, unknownState("huobi-spot", raw)
	}

	var action order.Action
	switch {
	case strings.Contains(raw.SideCode, "buy"):
		action = order.ActionOpenLong
	case strings.Contains(raw.SideCode, "sell"):
		action = order.ActionCloseLong
	default:
		return order.Report{}, unknownSide("huobi-spot", raw)
	}

	state, fill := fillFor(state, raw)
	return order.Report{
		Exchange:     "huobi-spot",
		InstrumentID: raw.InstrumentID,
		Action:       action,
		State:        state,
		Fill:         fill,
	}, nil
}
