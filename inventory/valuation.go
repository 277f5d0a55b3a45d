package inventory

import "github.com/shopspring/decimal"

// Valuation 基于最新价计算未实现盈亏。
func (t *Tracker) Valuation(last decimal.Decimal) (net, pnl decimal.Decimal) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	net = t.net
	pnl = last.Sub(t.cost).Mul(t.net)
	return
}
