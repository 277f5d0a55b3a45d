// Package supervisor drives a submitted order to a terminal outcome
// according to the configured cancellation/reissue policy.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"trade-pilot/exchange"
	"trade-pilot/infrastructure/logger"
	"trade-pilot/metrics"
	"trade-pilot/order"
)

// DefaultMaxReissues 默认重发预算。价格持续漂移时防止无限追单。
const DefaultMaxReissues = 10

// ErrReissueBudget 重发预算耗尽。返回时附带最后一次撤单回报，
// 调用方可以据此决定是否换策略重下。
var ErrReissueBudget = errors.New("reissue budget exhausted")

// 撤单触发原因，用于指标与日志分类。
const (
	triggerPrice = "price"
	triggerTime  = "time"
	triggerAuto  = "auto"
)

// cancelSettleDelay 撤单受理后复查仍是撤单中时的轮询间隔。
const cancelSettleDelay = 100 * time.Millisecond

// Policy 监护策略。一次监护期间只读。
// 三种撤单分支可以同时开启，按 价格撤单 > 定时撤单 > 自动撤单 的固定优先级求值。
type Policy struct {
	// PriceCancel 价格撤单：最新价对挂单价漂移超过 PriceCancelBand 时撤单重发
	PriceCancel     bool
	PriceCancelBand decimal.Decimal

	// TimeCancel 定时撤单：等待 TimeCancelDelay 后无条件撤单重发（不看价格漂移）
	TimeCancel      bool
	TimeCancelDelay time.Duration

	// AutoCancel 自动撤单：直接撤掉挂单并返回撤单回报，不重发
	AutoCancel bool

	// ReissueSlippage 重发滑点：重发价 = 最新价 × (1±slippage)，买单加、卖单减
	ReissueSlippage decimal.Decimal

	// MaxReissues 重发预算，<=0 时取 DefaultMaxReissues
	MaxReissues int
}

// Supervisor 订单监护器。一个实例串行驱动一笔订单；
// 多笔订单可各自持有实例并发运行，彼此无共享可变状态。
type Supervisor struct {
	gw     exchange.Gateway
	norm   exchange.Normalizer
	policy Policy
	clock  Clock
	log    *logger.Logger
	sm     *order.StateMachine
}

// Option 可选配置。
type Option func(*Supervisor)

// WithClock 注入时钟，测试用。
func WithClock(c Clock) Option {
	return func(s *Supervisor) { s.clock = c }
}

// WithLogger 注入日志器。
func WithLogger(l *logger.Logger) Option {
	return func(s *Supervisor) { s.log = l }
}

// New 创建监护器。
func New(gw exchange.Gateway, norm exchange.Normalizer, policy Policy, opts ...Option) *Supervisor {
	s := &Supervisor{
		gw:     gw,
		norm:   norm,
		policy: policy,
		clock:  SystemClock,
		log:    logger.NewNop(),
		sm:     order.NewStateMachine(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supervise 提交订单并监护到终态。
// 重发走循环而非递归：每次重发生成新订单重新进入提交流程，
// 受 MaxReissues 与 ctx 截止时间双重约束。
func (s *Supervisor) Supervise(ctx context.Context, o order.Order) (order.Report, error) {
	maxReissues := s.policy.MaxReissues
	if maxReissues <= 0 {
		maxReissues = DefaultMaxReissues
	}

	start := s.clock.Now()
	for attempt := 1; ; attempt++ {
		rep, next, err := s.superviseOnce(ctx, o)
		rep.Attempts = attempt
		if err != nil {
			return rep, err
		}
		if next == nil {
			s.finish(rep, start)
			return rep, nil
		}
		// attempt-1 次重发已经用掉
		if attempt > maxReissues {
			s.log.LogSupervise("reissue_budget_exhausted", map[string]interface{}{
				"exchange": s.norm.Exchange(),
				"attempts": attempt,
			})
			s.finish(rep, start)
			return rep, fmt.Errorf("after %d attempts: %w", attempt, ErrReissueBudget)
		}
		metrics.RecordReissue(s.norm.Exchange())
		s.log.LogSupervise("reissue", map[string]interface{}{
			"exchange": s.norm.Exchange(),
			"side":     next.Side,
			"price":    next.Price.String(),
			"size":     next.Size.String(),
			"attempt":  attempt + 1,
		})
		o = *next
	}
}

func (s *Supervisor) finish(rep order.Report, start time.Time) {
	if rep.State == order.StateFilled {
		metrics.RecordFill(s.norm.Exchange())
	}
	metrics.ObserveSupervise(s.norm.Exchange(), s.clock.Now().Sub(start).Seconds(), rep.Attempts)
}

// superviseOnce 走完一次 提交→快速通道→策略分支 的流程。
// 返回的 *order.Order 非空表示需要重发，由外层循环受预算约束地继续。
func (s *Supervisor) superviseOnce(ctx context.Context, o order.Order) (order.Report, *order.Order, error) {
	id, err := s.gw.SubmitOrder(ctx, o)
	if err != nil {
		if errors.Is(err, exchange.ErrOrderRejected) {
			// 拒单是正常终态回报，不是异常
			metrics.RecordReject(s.norm.Exchange())
			s.log.LogOrder("rejected", o.ClientID, map[string]interface{}{
				"exchange": s.norm.Exchange(),
				"side":     o.Side,
				"price":    o.Price.String(),
			})
			return order.Report{
				Exchange: s.norm.Exchange(),
				Action:   o.Side.Action(),
				State:    order.StateRejected,
			}, nil, nil
		}
		return order.Report{}, nil, fmt.Errorf("submit order: %w", err)
	}
	metrics.RecordSubmit(s.norm.Exchange())
	s.log.LogOrder("submitted", id, map[string]interface{}{
		"exchange": s.norm.Exchange(),
		"side":     o.Side,
		"price":    o.Price.String(),
		"size":     o.Size.String(),
	})

	prev := order.StatePendingSubmit
	rep, err := s.query(ctx, id, &prev)
	if err != nil {
		return rep, nil, err
	}

	// 快速通道：提交后立即成交或被拒，不进入任何策略分支
	if rep.State == order.StateFilled || rep.State == order.StateRejected {
		return rep, nil, nil
	}

	// 价格撤单分支
	if s.policy.PriceCancel && rep.State.Resting() {
		last, err := s.lastPrice(ctx)
		if err != nil {
			return rep, nil, err
		}
		if drifted(o, last, s.policy.PriceCancelBand) {
			s.log.LogSupervise("price_drift", map[string]interface{}{
				"exchange":   s.norm.Exchange(),
				"order_id":   id,
				"last_price": last.String(),
				"price":      o.Price.String(),
				"band":       s.policy.PriceCancelBand.String(),
			})
			return s.cancel(ctx, id, o, &prev, triggerPrice, true)
		}
	}

	// 定时撤单分支：等待后无条件撤单，不看价格漂移
	if s.policy.TimeCancel {
		if err := s.clock.Sleep(ctx, s.policy.TimeCancelDelay); err != nil {
			return rep, nil, err
		}
		rep, err = s.query(ctx, id, &prev)
		if err != nil {
			return rep, nil, err
		}
		if rep.State.Terminal() {
			return rep, nil, nil
		}
		if rep.State.Resting() {
			return s.cancel(ctx, id, o, &prev, triggerTime, true)
		}
	}

	// 自动撤单分支：撤掉挂单并直接返回，不重发
	if s.policy.AutoCancel && rep.State.Resting() {
		return s.cancel(ctx, id, o, &prev, triggerAuto, false)
	}

	// 无策略生效：提交后的那次查询就是最终回报
	return rep, nil, nil
}

// cancel 撤单并按分支决定是否重发。
// 撤单竞态（订单在撤单窗口内到达终态）通过重新查询恢复，成交回报为权威结果。
func (s *Supervisor) cancel(ctx context.Context, id string, o order.Order, prev *order.State, trigger string, reissue bool) (order.Report, *order.Order, error) {
	status, err := s.gw.CancelOrder(ctx, id)
	switch status {
	case exchange.CancelFailed:
		return order.Report{}, nil, fmt.Errorf("cancel order %s: %w", id, err)

	case exchange.CancelAlreadyTerminal:
		// 竞态：撤单时订单已到终态，重查以成交回报为准
		metrics.RecordCancelRace(s.norm.Exchange())
		s.log.LogSupervise("cancel_race", map[string]interface{}{
			"exchange": s.norm.Exchange(),
			"order_id": id,
			"trigger":  trigger,
		})
		rep, err := s.query(ctx, id, prev)
		return rep, nil, err
	}

	metrics.RecordCancel(s.norm.Exchange(), trigger)
	rep, err := s.query(ctx, id, prev)
	if err != nil {
		return rep, nil, err
	}

	// 撤单受理后复查可能仍停在撤单中，此时老单还能继续成交。
	// 必须等到终态落定才能决定重发，否则会按原数量重发造成超额成交。
	for !rep.State.Terminal() {
		s.log.LogSupervise("cancel_settling", map[string]interface{}{
			"exchange": s.norm.Exchange(),
			"order_id": id,
			"state":    rep.State,
		})
		if err := s.clock.Sleep(ctx, cancelSettleDelay); err != nil {
			return rep, nil, err
		}
		rep, err = s.query(ctx, id, prev)
		if err != nil {
			return rep, nil, err
		}
	}

	// 撤单受理后仍可能在撮合侧先成交
	if rep.State == order.StateFilled {
		return rep, nil, nil
	}
	if !reissue {
		return rep, nil, nil
	}
	// 只有撤单终态才允许重发
	if rep.State != order.StateCancelConfirmed && rep.State != order.StateCancelledFilled {
		return rep, nil, nil
	}

	// 剩余数量为零时撤单回报即最终结果，跳过重发
	remaining := o.Remaining(rep.FilledQty())
	if remaining.IsZero() {
		return rep, nil, nil
	}

	last, err := s.lastPrice(ctx)
	if err != nil {
		return rep, nil, err
	}
	next := order.Order{
		ClientID: uuid.NewString(),
		Side:     o.Side,
		Price:    reissuePrice(o.Side, last, s.policy.ReissueSlippage),
		Size:     remaining,
		Type:     o.Type,
	}
	return rep, &next, nil
}

// query 查询并规整订单状态，同时用状态机校验转换。
// 非法转换说明本地视图与交易所脱节，记日志但以交易所回报为准。
func (s *Supervisor) query(ctx context.Context, id string, prev *order.State) (order.Report, error) {
	raw, err := s.gw.QueryOrder(ctx, id)
	if err != nil {
		return order.Report{}, fmt.Errorf("query order %s: %w", id, err)
	}
	rep, err := s.norm.Normalize(raw)
	if err != nil {
		return order.Report{}, err
	}
	if verr := s.sm.ValidateTransition(*prev, rep.State); verr != nil {
		s.log.LogSupervise("state_divergence", map[string]interface{}{
			"exchange": s.norm.Exchange(),
			"order_id": id,
			"from":     *prev,
			"to":       rep.State,
		})
	}
	*prev = rep.State
	return rep, nil
}

func (s *Supervisor) lastPrice(ctx context.Context) (decimal.Decimal, error) {
	last, err := s.gw.LastPrice(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("last price: %w", err)
	}
	lf, _ := last.Float64()
	metrics.UpdateLastPrice(s.norm.Exchange(), lf)
	return last, nil
}

// drifted 判断最新价是否对挂单价漂移超过阈值。
// 买单怕价格上行（追不上），卖单怕价格下行。
func drifted(o order.Order, last, band decimal.Decimal) bool {
	one := decimal.NewFromInt(1)
	if o.Side.IsBuy() {
		return last.GreaterThanOrEqual(o.Price.Mul(one.Add(band)))
	}
	return last.LessThanOrEqual(o.Price.Mul(one.Sub(band)))
}

// reissuePrice 重发价：买单在最新价上加滑点保证成交，卖单反之。
func reissuePrice(side order.Side, last, slippage decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if side.IsBuy() {
		return last.Mul(one.Add(slippage))
	}
	return last.Mul(one.Sub(slippage))
}
