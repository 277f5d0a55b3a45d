// Package trader is the order-placement facade: directional trade methods,
// position flips, and the backtest short-circuit.
package trader

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"trade-pilot/exchange"
	"trade-pilot/infrastructure/alert"
	"trade-pilot/infrastructure/logger"
	"trade-pilot/internal/store"
	"trade-pilot/inventory"
	"trade-pilot/order"
	"trade-pilot/supervisor"
)

// Trader 下单门面。每个交易所/品种一个实例，方法并发安全。
type Trader struct {
	gw            exchange.Gateway
	norm          exchange.Normalizer
	instrument    string
	contractValue decimal.Decimal
	backtest      bool

	mu     sync.RWMutex
	policy supervisor.Policy

	clock   supervisor.Clock
	log     *logger.Logger
	journal *store.Journal
	tracker *inventory.Tracker
	alerts  *alert.Manager
}

// Option 可选配置。
type Option func(*Trader)

// WithBacktest 回测模式：下单直接返回模拟回执，不触网关。
func WithBacktest(on bool) Option {
	return func(t *Trader) { t.backtest = on }
}

// WithInstrument 设置回报中的合约/币对标识。
func WithInstrument(id string) Option {
	return func(t *Trader) { t.instrument = id }
}

// WithContractValue 设置合约面值，回测成交金额按面值折算；现货传零。
func WithContractValue(cv decimal.Decimal) Option {
	return func(t *Trader) { t.contractValue = cv }
}

// WithLogger 注入日志器。
func WithLogger(l *logger.Logger) Option {
	return func(t *Trader) { t.log = l }
}

// WithJournal 注入回报日志。
func WithJournal(j *store.Journal) Option {
	return func(t *Trader) { t.journal = j }
}

// WithTracker 注入仓位跟踪。
func WithTracker(tr *inventory.Tracker) Option {
	return func(t *Trader) { t.tracker = tr }
}

// WithAlerts 注入告警管理器。
func WithAlerts(a *alert.Manager) Option {
	return func(t *Trader) { t.alerts = a }
}

// WithClock 注入时钟，测试用。
func WithClock(c supervisor.Clock) Option {
	return func(t *Trader) { t.clock = c }
}

// New 创建下单门面。
func New(gw exchange.Gateway, norm exchange.Normalizer, policy supervisor.Policy, opts ...Option) *Trader {
	t := &Trader{
		gw:     gw,
		norm:   norm,
		policy: policy,
		clock:  supervisor.SystemClock,
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ApplyPolicy 替换监护策略。热更新入口，只影响之后发起的监护。
func (t *Trader) ApplyPolicy(p supervisor.Policy) {
	t.mu.Lock()
	t.policy = p
	t.mu.Unlock()
	t.log.LogSupervise("policy_applied", map[string]interface{}{
		"price_cancel": p.PriceCancel,
		"time_cancel":  p.TimeCancel,
		"auto_cancel":  p.AutoCancel,
	})
}

// Policy 当前监护策略快照。
func (t *Trader) Policy() supervisor.Policy {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.policy
}

// Buy 买入开多。
func (t *Trader) Buy(ctx context.Context, price, size decimal.Decimal, typ order.Type) (order.Report, error) {
	return t.place(ctx, order.SideBuy, price, size, typ)
}

// Sell 卖出平多。
func (t *Trader) Sell(ctx context.Context, price, size decimal.Decimal, typ order.Type) (order.Report, error) {
	return t.place(ctx, order.SideSell, price, size, typ)
}

// SellShort 卖出开空。
func (t *Trader) SellShort(ctx context.Context, price, size decimal.Decimal, typ order.Type) (order.Report, error) {
	return t.place(ctx, order.SideSellShort, price, size, typ)
}

// BuyToCover 买入平空。
func (t *Trader) BuyToCover(ctx context.Context, price, size decimal.Decimal, typ order.Type) (order.Report, error) {
	return t.place(ctx, order.SideBuyToCover, price, size, typ)
}

// FlipToLong 先平空再开多。只有平仓腿完全成交才会下开仓腿；
// 否则返回平仓回报且开仓回报为nil，调用方不能假定开仓腿执行过。
func (t *Trader) FlipToLong(ctx context.Context, closePrice, closeSize, openPrice, openSize decimal.Decimal, typ order.Type) (order.Report, *order.Report, error) {
	return t.flip(ctx, order.SideBuyToCover, closePrice, closeSize, order.SideBuy, openPrice, openSize, typ)
}

// FlipToShort 先平多再开空。语义与 FlipToLong 对称。
func (t *Trader) FlipToShort(ctx context.Context, closePrice, closeSize, openPrice, openSize decimal.Decimal, typ order.Type) (order.Report, *order.Report, error) {
	return t.flip(ctx, order.SideSell, closePrice, closeSize, order.SideSellShort, openPrice, openSize, typ)
}

func (t *Trader) flip(ctx context.Context, closeSide order.Side, closePrice, closeSize decimal.Decimal, openSide order.Side, openPrice, openSize decimal.Decimal, typ order.Type) (order.Report, *order.Report, error) {
	closeRep, err := t.place(ctx, closeSide, closePrice, closeSize, typ)
	if err != nil {
		return closeRep, nil, err
	}
	if closeRep.State != order.StateFilled {
		t.log.LogSupervise("flip_aborted", map[string]interface{}{
			"close_state": closeRep.State,
			"close_side":  closeSide,
		})
		return closeRep, nil, nil
	}
	openRep, err := t.place(ctx, openSide, openPrice, openSize, typ)
	if err != nil {
		return closeRep, &openRep, err
	}
	return closeRep, &openRep, nil
}

func (t *Trader) place(ctx context.Context, side order.Side, price, size decimal.Decimal, typ order.Type) (order.Report, error) {
	o := order.Order{
		ClientID: uuid.NewString(),
		Side:     side,
		Price:    price,
		Size:     size,
		Type:     typ,
	}

	if t.backtest {
		rep := t.simulated(o)
		t.fanout(rep)
		return rep, nil
	}

	sup := supervisor.New(t.gw, t.norm, t.Policy(),
		supervisor.WithLogger(t.log),
		supervisor.WithClock(t.clock),
	)
	rep, err := sup.Supervise(ctx, o)
	if rep.InstrumentID == "" {
		rep.InstrumentID = t.instrument
	}
	if err != nil {
		t.notifyError(o, err)
		if errors.Is(err, supervisor.ErrReissueBudget) {
			// 预算耗尽仍然带回有效的撤单回报，照常落账
			t.fanout(rep)
		}
		return rep, err
	}
	if rep.State == order.StateRejected {
		t.notifyReject(o)
	}
	t.fanout(rep)
	return rep, nil
}

// simulated 回测模拟回执：视为按委托价全部成交，不触网关、不走策略。
// 成交金额口径与规整层一致：合约按 价×量×面值，现货按 价×量。
func (t *Trader) simulated(o order.Order) order.Report {
	notional := o.Price.Mul(o.Size)
	if !t.contractValue.IsZero() {
		notional = notional.Mul(t.contractValue)
	}
	return order.Report{
		Exchange:     t.norm.Exchange(),
		InstrumentID: t.instrument,
		Action:       o.Side.Action(),
		State:        order.StateFilled,
		Fill: &order.FillReport{
			AvgPrice:       o.Price,
			FilledQty:      o.Size,
			FilledNotional: notional,
		},
		Simulated: true,
		Attempts:  1,
	}
}

func (t *Trader) fanout(rep order.Report) {
	if t.journal != nil {
		t.journal.Record(rep)
	}
	if t.tracker != nil && !rep.Simulated {
		t.tracker.Apply(rep)
	}
}

func (t *Trader) notifyReject(o order.Order) {
	if t.alerts == nil {
		return
	}
	_ = t.alerts.SendWarning("order rejected", map[string]interface{}{
		"exchange":   t.norm.Exchange(),
		"instrument": t.instrument,
		"side":       o.Side,
		"price":      o.Price.String(),
		"size":       o.Size.String(),
	})
}

func (t *Trader) notifyError(o order.Order, err error) {
	t.log.LogError(err, map[string]interface{}{
		"exchange": t.norm.Exchange(),
		"side":     o.Side,
	})
	if t.alerts == nil {
		return
	}
	level := t.alerts.SendError
	if errors.Is(err, exchange.ErrUnknownOrderState) {
		level = t.alerts.SendCritical
	}
	_ = level("supervision failed", map[string]interface{}{
		"exchange":   t.norm.Exchange(),
		"instrument": t.instrument,
		"side":       o.Side,
		"error":      err.Error(),
	})
}
