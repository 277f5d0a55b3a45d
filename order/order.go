package order

import "github.com/shopspring/decimal"

// Side 交易方向，区分开平仓意图。
type Side string

const (
	SideBuy        Side = "BUY"          // 买入开多
	SideSell       Side = "SELL"         // 卖出平多
	SideSellShort  Side = "SELL_SHORT"   // 卖出开空
	SideBuyToCover Side = "BUY_TO_COVER" // 买入平空
)

// Type 委托类型。
type Type string

const (
	TypeNormal   Type = "NORMAL"    // 普通限价委托
	TypePostOnly Type = "POST_ONLY" // 只做maker
	TypeFOK      Type = "FOK"       // 全部成交或立即取消
	TypeIOC      Type = "IOC"       // 立即成交并取消剩余
	TypeMarket   Type = "MARKET"    // 市价委托
	TypeTaker    Type = "TAKER"     // 对手价吃单
)

// Action 四种开平仓动作标签。
type Action string

const (
	ActionOpenLong   Action = "OPEN_LONG"   // 买入开多
	ActionOpenShort  Action = "OPEN_SHORT"  // 卖出开空
	ActionCloseLong  Action = "CLOSE_LONG"  // 卖出平多
	ActionCloseShort Action = "CLOSE_SHORT" // 买入平空
)

// Action 返回方向对应的开平仓动作。
func (s Side) Action() Action {
	switch s {
	case SideBuy:
		return ActionOpenLong
	case SideSell:
		return ActionCloseLong
	case SideSellShort:
		return ActionOpenShort
	default:
		return ActionCloseShort
	}
}

// IsBuy 买方向（买入开多/买入平空）为 true。
// 价格撤单的漂移判断与重发滑点的符号都取决于该方向。
func (s Side) IsBuy() bool {
	return s == SideBuy || s == SideBuyToCover
}

// Order 一次下单意图。提交后不可变；重发会生成新的 Order。
type Order struct {
	ClientID string
	Side     Side
	Price    decimal.Decimal
	Size     decimal.Decimal
	Type     Type
}

// Remaining 计算撤单后的剩余未成交数量，下限截断为零。
func (o Order) Remaining(filled decimal.Decimal) decimal.Decimal {
	rem := o.Size.Sub(filled)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// FillReport 成交指标。仅当状态携带成交时出现。
type FillReport struct {
	AvgPrice decimal.Decimal
	// FilledQty 已成交数量
	FilledQty decimal.Decimal
	// FilledNotional 成交金额；合约为 均价×数量×合约面值
	FilledNotional decimal.Decimal
}

// Report 监护结束后返回给调用方的最终回报。
type Report struct {
	Exchange     string
	InstrumentID string
	Action       Action
	State        State
	Fill         *FillReport
	// Simulated 回测模式下的模拟回执
	Simulated bool
	// Attempts 含首次提交在内的下单次数（重发会递增）
	Attempts int
}

// FilledQty 返回已成交数量；无成交指标时为零。
func (r Report) FilledQty() decimal.Decimal {
	if r.Fill == nil {
		return decimal.Zero
	}
	return r.Fill.FilledQty
}
