package exchange

import "trade-pilot/order"

// okexNormalizer OKEx v3 订单状态规整。
// 交割/永续/现货共用一套数字状态码，差别仅在方向码与合约面值。
type okexNormalizer struct {
	label string
	spot  bool
}

// NewOKExFutures OKEx交割合约规整器。
func NewOKExFutures() Normalizer { return &okexNormalizer{label: "okex-futures"} }

// NewOKExSwap OKEx永续合约规整器。
func NewOKExSwap() Normalizer { return &okexNormalizer{label: "okex-swap"} }

// NewOKExSpot OKEx现货规整器。现货方向只有 buy/sell，无开平仓标志。
func NewOKExSpot() Normalizer { return &okexNormalizer{label: "okex-spot", spot: true} }

func (n *okexNormalizer) Exchange() string { return n.label }

// okexStates OKEx数字状态码映射表。
// -1 撤单成功 / -2 失败 / 0 等待成交 / 1 部分成交 / 2 完全成交 / 3 下单中 / 4 撤单中
var okexStates = map[string]order.State{
	"-2": order.StateRejected,
	"-1": order.StateCancelConfirmed,
	"0":  order.StateOpen,
	"1":  order.StatePartialFilled,
	"2":  order.StateFilled,
	"3":  order.StatePendingSubmit,
	"4":  order.StateCancelPending,
}

// okexActions 合约方向码：1买入开多 2卖出开空 3卖出平多 4买入平空
var okexActions = map[string]order.Action{
	"1": order.ActionOpenLong,
	"2": order.ActionOpenShort,
	"3": order.ActionCloseLong,
	"4": order.ActionCloseShort,
}

func (n *okexNormalizer) Normalize(raw RawOrder) (order.Report, error) {
	state, ok := okexStates[raw.Status]
	if !ok {
		return order.Report{}, unknownState(n.label, raw)
	}

	var action order.Action
	if n.spot {
		switch raw.SideCode {
		case "buy":
			action = order.ActionOpenLong
		case "sell":
			action = order.ActionCloseLong
		default:
			return order.Report{}, unknownSide(n.label, raw)
		}
	} else {
		action, ok = okexActions[raw.SideCode]
		if !ok {
			return order.Report{}, unknownSide(n.label, raw)
		}
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
