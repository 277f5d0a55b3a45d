// Package sim provides an in-memory paper venue for offline runs and tests.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"trade-pilot/exchange"
	"trade-pilot/order"
)

// PaperVenue 纸面交易所。讲OKEx v3状态方言，配合 exchange.NewOKExSwap()
// 等规整器即可跑完整的监护链路，无需真实网络。
//
// 成交模型：限价单对最新价可成交（买单价≥最新价，卖单价≤最新价）则立即
// 全部成交，否则挂单；SetLastPrice 推进行情并重新撮合挂单。
type PaperVenue struct {
	mu            sync.Mutex
	instrument    string
	last          decimal.Decimal
	contractValue decimal.Decimal
	seq           int
	orders        map[string]*paperOrder
	position      decimal.Decimal
	entryPrice    decimal.Decimal
}

type paperOrder struct {
	o         order.Order
	status    string // okex状态码
	avgPrice  decimal.Decimal
	filledQty decimal.Decimal
}

// NewPaperVenue 创建纸面交易所。
func NewPaperVenue(instrument string, last, contractValue decimal.Decimal) *PaperVenue {
	return &PaperVenue{
		instrument:    instrument,
		last:          last,
		contractValue: contractValue,
		orders:        make(map[string]*paperOrder),
	}
}

// okexSide order.Side 到OKEx方向码。
func okexSide(s order.Side) string {
	switch s {
	case order.SideBuy:
		return "1"
	case order.SideSellShort:
		return "2"
	case order.SideSell:
		return "3"
	default:
		return "4"
	}
}

// SubmitOrder 提交订单。数量或价格非正视为拒单。
func (v *PaperVenue) SubmitOrder(_ context.Context, o order.Order) (string, error) {
	if !o.Size.IsPositive() || !o.Price.IsPositive() {
		return "", fmt.Errorf("paper venue: %w", exchange.ErrOrderRejected)
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	id := fmt.Sprintf("paper-%d", v.seq)
	po := &paperOrder{o: o, status: "0"}
	v.orders[id] = po
	v.matchLocked(po)
	return id, nil
}

// QueryOrder 查询订单原始状态。
func (v *PaperVenue) QueryOrder(_ context.Context, orderID string) (exchange.RawOrder, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	po, ok := v.orders[orderID]
	if !ok {
		return exchange.RawOrder{}, fmt.Errorf("paper venue: order %s: %w", orderID, exchange.ErrTransport)
	}
	return exchange.RawOrder{
		InstrumentID:  v.instrument,
		Status:        po.status,
		SideCode:      okexSide(po.o.Side),
		AvgPrice:      po.avgPrice,
		FilledQty:     po.filledQty,
		ContractValue: v.contractValue,
	}, nil
}

// CancelOrder 撤单。已到终态返回 CancelAlreadyTerminal，复现撤单竞态。
func (v *PaperVenue) CancelOrder(_ context.Context, orderID string) (exchange.CancelStatus, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	po, ok := v.orders[orderID]
	if !ok {
		return exchange.CancelFailed, fmt.Errorf("paper venue: order %s: %w", orderID, exchange.ErrTransport)
	}
	switch po.status {
	case "2", "-1", "-2":
		return exchange.CancelAlreadyTerminal, nil
	}
	po.status = "-1" // 规整层会按已成交数量细化为部分成交撤销
	return exchange.CancelOK, nil
}

// LastPrice 最新成交价。
func (v *PaperVenue) LastPrice(context.Context) (decimal.Decimal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last, nil
}

// PositionInfo 当前持仓。
func (v *PaperVenue) PositionInfo(context.Context) (exchange.Position, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	pos := exchange.Position{Direction: exchange.PositionNone}
	switch {
	case v.position.IsPositive():
		pos = exchange.Position{Direction: exchange.PositionLong, Amount: v.position, EntryPrice: v.entryPrice}
	case v.position.IsNegative():
		pos = exchange.Position{Direction: exchange.PositionShort, Amount: v.position.Neg(), EntryPrice: v.entryPrice}
	}
	return pos, nil
}

// SetLastPrice 推进行情并重新撮合所有挂单。
func (v *PaperVenue) SetLastPrice(p decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = p
	for _, po := range v.orders {
		v.matchLocked(po)
	}
}

func (v *PaperVenue) matchLocked(po *paperOrder) {
	if po.status != "0" && po.status != "1" {
		return
	}
	crossed := false
	if po.o.Side.IsBuy() {
		crossed = po.o.Price.GreaterThanOrEqual(v.last)
	} else {
		crossed = po.o.Price.LessThanOrEqual(v.last)
	}
	if !crossed {
		return
	}
	po.status = "2"
	po.avgPrice = po.o.Price
	po.filledQty = po.o.Size
	v.applyFillLocked(po)
}

func (v *PaperVenue) applyFillLocked(po *paperOrder) {
	qty := po.filledQty
	if !po.o.Side.IsBuy() {
		qty = qty.Neg()
	}
	newPos := v.position.Add(qty)
	if newPos.IsZero() {
		v.entryPrice = decimal.Zero
	} else if v.position.IsZero() || v.position.Sign() != newPos.Sign() {
		v.entryPrice = po.avgPrice
	}
	v.position = newPos
}
