package exchange

import (
	"fmt"

	"github.com/shopspring/decimal"

	"trade-pilot/order"
)

// RawOrder 交易所订单查询的原始回报。字段语义因交易所而异，
// 由对应的 Normalizer 负责解释。
type RawOrder struct {
	InstrumentID string
	// Status 交易所原生状态码（数字码也以字符串承载）
	Status string
	// SideCode 交易所原生方向码（okex的type、huobi的direction、binance的side）
	SideCode string
	// Offset 开平仓标志，仅合约类交易所提供（open/close；binance为positionSide）
	Offset string

	AvgPrice  decimal.Decimal
	FilledQty decimal.Decimal
	// FilledNotional 成交金额；部分交易所直接返回，否则由规整层计算
	FilledNotional decimal.Decimal
	// ContractValue 合约面值，现货为零
	ContractValue decimal.Decimal
}

// Normalizer 把单个交易所的原始状态词汇表翻译为统一的 Report。
// 映射表必须覆盖该交易所文档化的全部状态；表外状态码返回 ErrUnknownOrderState。
type Normalizer interface {
	// Exchange 回报中展示的交易所标签。
	Exchange() string
	Normalize(raw RawOrder) (order.Report, error)
}

// notional 计算成交金额。交易所直接返回时优先使用；
// 合约按 均价×数量×面值，现货按 均价×数量。
func notional(raw RawOrder) decimal.Decimal {
	if !raw.FilledNotional.IsZero() {
		return raw.FilledNotional
	}
	n := raw.AvgPrice.Mul(raw.FilledQty)
	if !raw.ContractValue.IsZero() {
		n = n.Mul(raw.ContractValue)
	}
	return n
}

// fillFor 按状态决定是否携带成交指标。
// 撤单成功但有部分成交时，状态细化为 CANCELLED_FILLED。
func fillFor(state order.State, raw RawOrder) (order.State, *order.FillReport) {
	if state == order.StateCancelConfirmed && raw.FilledQty.IsPositive() {
		state = order.StateCancelledFilled
	}
	if !state.CarriesFill() {
		return state, nil
	}
	return state, &order.FillReport{
		AvgPrice:       raw.AvgPrice,
		FilledQty:      raw.FilledQty,
		FilledNotional: notional(raw),
	}
}

func unknownState(exchange string, raw RawOrder) error {
	return fmt.Errorf("%s status %q: %w", exchange, raw.Status, ErrUnknownOrderState)
}

func unknownSide(exchange string, raw RawOrder) error {
	return fmt.Errorf("%s side %q offset %q: %w", exchange, raw.SideCode, raw.Offset, ErrUnknownOrderState)
}
