package inventory

import (
	"context"

	"trade-pilot/exchange"
	"trade-pilot/metrics"
)

// Sync 用交易所持仓快照覆盖本地仓位（启动与对账场景）。
type Sync struct {
	Tracker *Tracker
	Gateway exchange.Gateway
	Label   string
}

// Reconcile 拉取交易所持仓并覆盖本地视图。
func (s *Sync) Reconcile(ctx context.Context) error {
	if s.Tracker == nil || s.Gateway == nil {
		return nil
	}
	pos, err := s.Gateway.PositionInfo(ctx)
	if err != nil {
		return err
	}
	amount := pos.Amount
	if pos.Direction == exchange.PositionShort {
		amount = amount.Neg()
	}
	s.Tracker.Set(amount, pos.EntryPrice)

	af, _ := amount.Float64()
	ef, _ := pos.EntryPrice.Float64()
	metrics.UpdatePosition(s.Label, af, ef)
	return nil
}
