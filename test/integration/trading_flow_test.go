package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-pilot/exchange"
	"trade-pilot/internal/store"
	"trade-pilot/inventory"
	"trade-pilot/order"
	"trade-pilot/sim"
	"trade-pilot/supervisor"
	"trade-pilot/trader"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newPaperTrader(t *testing.T, venue *sim.PaperVenue, policy supervisor.Policy) (*trader.Trader, *store.Journal, *inventory.Tracker) {
	t.Helper()
	journal := store.New(64, nil)
	tracker := &inventory.Tracker{}
	tr := trader.New(venue, exchange.NewOKExSwap(), policy,
		trader.WithInstrument("BTC-USD-SWAP"),
		trader.WithJournal(journal),
		trader.WithTracker(tracker),
	)
	return tr, journal, tracker
}

func TestMarketableBuyFillsImmediately(t *testing.T) {
	venue := sim.NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)
	tr, journal, tracker := newPaperTrader(t, venue, supervisor.Policy{})

	rep, err := tr.Buy(context.Background(), dec("101"), dec("2"), order.TypeNormal)
	require.NoError(t, err)
	assert.Equal(t, order.StateFilled, rep.State)
	assert.Equal(t, 1, rep.Attempts)
	require.NotNil(t, rep.Fill)
	assert.True(t, rep.Fill.FilledQty.Equal(dec("2")))

	assert.Equal(t, 1, journal.Stats().Filled)
	assert.True(t, tracker.NetExposure().Equal(dec("2")))
}

func TestPriceCancelReissuesUntilFilled(t *testing.T) {
	// 买单挂在99，最新价100已漂移超过1%阈值：
	// 监护撤单后按 100×1.002 重发，重发单可成交
	venue := sim.NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)
	tr, journal, _ := newPaperTrader(t, venue, supervisor.Policy{
		PriceCancel:     true,
		PriceCancelBand: dec("0.01"),
		ReissueSlippage: dec("0.002"),
		MaxReissues:     5,
	})

	rep, err := tr.Buy(context.Background(), dec("99"), dec("3"), order.TypeNormal)
	require.NoError(t, err)
	assert.Equal(t, order.StateFilled, rep.State)
	assert.Equal(t, 2, rep.Attempts)
	require.NotNil(t, rep.Fill)
	assert.True(t, rep.Fill.AvgPrice.Equal(dec("100.2")), "got %s", rep.Fill.AvgPrice)
	assert.True(t, rep.Fill.FilledQty.Equal(dec("3")))

	assert.Equal(t, 1, journal.Stats().Reissues)
}

func TestTimeCancelOnQuietMarket(t *testing.T) {
	// 卖单挂在105不可成交且价格不动：定时撤单到点后撤单，
	// 重发价 100×0.998 可成交
	venue := sim.NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)
	tr, _, _ := newPaperTrader(t, venue, supervisor.Policy{
		TimeCancel:      true,
		TimeCancelDelay: 10 * time.Millisecond,
		ReissueSlippage: dec("0.002"),
		MaxReissues:     3,
	})

	rep, err := tr.Sell(context.Background(), dec("105"), dec("1"), order.TypeNormal)
	require.NoError(t, err)
	assert.Equal(t, order.StateFilled, rep.State)
	assert.Equal(t, 2, rep.Attempts)
	assert.True(t, rep.Fill.AvgPrice.Equal(dec("99.8")), "got %s", rep.Fill.AvgPrice)
}

func TestAutoCancelLeavesNoRestingOrder(t *testing.T) {
	venue := sim.NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)
	tr, journal, tracker := newPaperTrader(t, venue, supervisor.Policy{AutoCancel: true})

	rep, err := tr.Buy(context.Background(), dec("95"), dec("1"), order.TypeNormal)
	require.NoError(t, err)
	assert.Equal(t, order.StateCancelConfirmed, rep.State)
	assert.Nil(t, rep.Fill)
	assert.Equal(t, 1, journal.Stats().Cancelled)
	assert.True(t, tracker.NetExposure().IsZero())
}

func TestFlipToShortRunsBothLegs(t *testing.T) {
	venue := sim.NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)
	tr, _, tracker := newPaperTrader(t, venue, supervisor.Policy{})

	// 建多仓
	_, err := tr.Buy(context.Background(), dec("101"), dec("3"), order.TypeNormal)
	require.NoError(t, err)

	closeRep, openRep, err := tr.FlipToShort(context.Background(),
		dec("99"), dec("3"), // 平多
		dec("99"), dec("2"), // 开空
		order.TypeNormal)
	require.NoError(t, err)
	assert.Equal(t, order.StateFilled, closeRep.State)
	require.NotNil(t, openRep)
	assert.Equal(t, order.StateFilled, openRep.State)

	// 本地仓位：+3 -3 -2 = -2
	assert.True(t, tracker.NetExposure().Equal(dec("-2")), "got %s", tracker.NetExposure())
}

func TestFlipAbortsOnUnfilledCloseLeg(t *testing.T) {
	venue := sim.NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)
	tr, _, _ := newPaperTrader(t, venue, supervisor.Policy{})

	// 平仓腿挂在105不可成交，无策略时停在OPEN：开仓腿不得执行
	closeRep, openRep, err := tr.FlipToShort(context.Background(),
		dec("105"), dec("1"),
		dec("99"), dec("1"),
		order.TypeNormal)
	require.NoError(t, err)
	assert.Equal(t, order.StateOpen, closeRep.State)
	assert.Nil(t, openRep)
}

func TestPositionReconcileFromVenue(t *testing.T) {
	venue := sim.NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)
	tr, _, _ := newPaperTrader(t, venue, supervisor.Policy{})

	_, err := tr.Buy(context.Background(), dec("101"), dec("5"), order.TypeNormal)
	require.NoError(t, err)

	fresh := &inventory.Tracker{}
	sync := inventory.Sync{Tracker: fresh, Gateway: venue, Label: "okex-swap"}
	require.NoError(t, sync.Reconcile(context.Background()))
	assert.True(t, fresh.NetExposure().Equal(dec("5")))
	assert.True(t, fresh.AvgCost().Equal(dec("101")))
}
