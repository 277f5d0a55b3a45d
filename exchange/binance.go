package exchange

import "trade-pilot/order"

// binanceNormalizer 币安规整。现货/币本位/USDT合约共用一套字符串状态，
// 合约通过 side + positionSide 区分开平仓。
type binanceNormalizer struct {
	label string
	spot  bool
}

// NewBinanceSpot 币安现货规整器。
func NewBinanceSpot() Normalizer { return &binanceNormalizer{label: "binance-spot", spot: true} }

// NewBinanceFutures 币安币本位合约规整器。
func NewBinanceFutures() Normalizer { return &binanceNormalizer{label: "binance-futures"} }

// NewBinanceSwap 币安USDT合约规整器。
func NewBinanceSwap() Normalizer { return &binanceNormalizer{label: "binance-swap"} }

func (n *binanceNormalizer) Exchange() string { return n.label }

// binanceStates 币安订单状态表。
// EXPIRED 是交易引擎单方面取消（如 post-only 穿价），可能携带部分成交。
var binanceStates = map[string]order.State{
	"NEW":              order.StateOpen,
	"PARTIALLY_FILLED": order.StatePartialFilled,
	"FILLED":           order.StateFilled,
	"CANCELED":         order.StateCancelConfirmed,
	"REJECTED":         order.StateRejected,
	"EXPIRED":          order.StateCancelConfirmed,
	"PENDING_CANCEL":   order.StateCancelPending,
}

func (n *binanceNormalizer) Normalize(raw RawOrder) (order.Report, error) {
	state, ok := binanceStates[raw.Status]
	if !ok {
		return order.Report{}, unknownState(n.label, raw)
	}

	var action order.Action
	if n.spot {
		switch raw.SideCode {
		case "BUY":
			action = order.ActionOpenLong
		case "SELL":
			action = order.ActionCloseLong
		default:
			return order.Report{}, unknownSide(n.label, raw)
		}
	} else {
		// 单向持仓(BOTH)只有开仓语义；对冲模式按 positionSide 区分平仓方向
		switch {
		case raw.SideCode == "BUY" && raw.Offset == "BOTH":
			action = order.ActionOpenLong
		case raw.SideCode == "SELL" && raw.Offset == "BOTH":
			action = order.ActionOpenShort
		case raw.SideCode == "BUY" && raw.Offset == "SHORT":
			action = order.ActionCloseShort
		case raw.SideCode == "SELL" && raw.Offset == "LONG":
			action = order.ActionCloseLong
		default:
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
