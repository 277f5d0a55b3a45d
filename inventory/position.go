package inventory

import (
	"sync"

	"github.com/shopspring/decimal"

	"trade-pilot/order"
)

// Tracker 维护净仓位与加权平均成本。多头为正，空头为负。
type Tracker struct {
	mu   sync.RWMutex
	net  decimal.Decimal
	cost decimal.Decimal
}

// Update 根据成交数量调整仓位。买入为正，卖出为负。
func (t *Tracker) Update(deltaQty, price decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	// 加权平均成本
	totalValue := t.cost.Mul(t.net).Add(price.Mul(deltaQty))
	t.net = t.net.Add(deltaQty)
	if !t.net.IsZero() {
		t.cost = totalValue.Div(t.net)
	} else {
		t.cost = decimal.Zero
	}
}

// Apply 把一份终态回报折算成仓位变化。无成交的回报是空操作。
func (t *Tracker) Apply(rep order.Report) {
	if rep.Fill == nil || rep.Fill.FilledQty.IsZero() {
		return
	}
	qty := rep.Fill.FilledQty
	switch rep.Action {
	case order.ActionCloseLong, order.ActionOpenShort:
		qty = qty.Neg()
	}
	t.Update(qty, rep.Fill.AvgPrice)
}

// Set 直接覆盖仓位快照（对账场景）。
func (t *Tracker) Set(net, cost decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.net = net
	t.cost = cost
}

// NetExposure 当前净仓位。
func (t *Tracker) NetExposure() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.net
}

// AvgCost 当前持仓均价。
func (t *Tracker) AvgCost() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cost
}
