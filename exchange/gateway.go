package exchange

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"trade-pilot/order"
)

// 网关与规整层的错误分类。撤单竞态不是错误，见 CancelStatus。
var (
	// ErrOrderRejected 交易所拒单。监护循环将其转换为 REJECTED 终态回报。
	ErrOrderRejected = errors.New("order rejected by venue")
	// ErrUnknownOrderState 交易所返回了映射表之外的状态码
	ErrUnknownOrderState = errors.New("unknown order state")
	// ErrTransport 网络/鉴权故障。网关适配器内部重试耗尽后才返回。
	ErrTransport = errors.New("gateway transport error")
)

// CancelStatus 撤单结果。用显式分支代替异常式的"撤单失败即已成交"判断。
type CancelStatus int

const (
	// CancelOK 交易所受理撤单
	CancelOK CancelStatus = iota
	// CancelAlreadyTerminal 订单已到终态（撤单竞态），需重新查询以成交回报为准
	CancelAlreadyTerminal
	// CancelFailed 撤单被拒绝，原因见 error
	CancelFailed
)

// PositionDirection 持仓方向
type PositionDirection string

const (
	PositionLong  PositionDirection = "long"
	PositionShort PositionDirection = "short"
	PositionNone  PositionDirection = "none"
)

// Position 当前持仓信息。
type Position struct {
	Direction  PositionDirection
	Amount     decimal.Decimal
	EntryPrice decimal.Decimal
}

// Gateway 交易所能力接口。每个交易所/品种一个适配器实现，
// 请求构造、签名、限流都在适配器内部处理，不属于本仓库。
// 同一订单上的 submit/query/cancel 调用由监护循环保证串行。
type Gateway interface {
	// SubmitOrder 提交订单，返回交易所订单ID。
	// 拒单返回 ErrOrderRejected；传输故障返回 ErrTransport。
	SubmitOrder(ctx context.Context, o order.Order) (string, error)

	// QueryOrder 查询订单原始状态，由 Normalizer 规整。
	QueryOrder(ctx context.Context, orderID string) (RawOrder, error)

	// CancelOrder 撤单。撤单竞态通过 CancelAlreadyTerminal 报告。
	CancelOrder(ctx context.Context, orderID string) (CancelStatus, error)

	// LastPrice 最新成交价。
	LastPrice(ctx context.Context) (decimal.Decimal, error)

	// PositionInfo 当前持仓。
	PositionInfo(ctx context.Context) (Position, error)
}
