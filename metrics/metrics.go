// Package metrics provides Prometheus metrics for the trading facade
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registry 本包私有注册表，不与默认注册表共享，
// 避免进程内其他组件的指标或测试状态相互污染。
var registry = prometheus.NewRegistry()

var factory = promauto.With(registry)

var (
	// 订单指标
	ordersSubmitted = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tp",
		Subsystem: "order",
		Name:      "submits_total",
		Help:      "订单提交总数（含重发）",
	}, []string{"exchange"})

	ordersFilled = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tp",
		Subsystem: "order",
		Name:      "fills_total",
		Help:      "完全成交订单总数",
	}, []string{"exchange"})

	ordersRejected = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tp",
		Subsystem: "order",
		Name:      "rejects_total",
		Help:      "交易所拒单总数",
	}, []string{"exchange"})

	ordersCancelled = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tp",
		Subsystem: "order",
		Name:      "cancels_total",
		Help:      "撤单总数，按触发原因分类",
	}, []string{"exchange", "trigger"})

	orderReissues = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tp",
		Subsystem: "order",
		Name:      "reissues_total",
		Help:      "撤单后重发总数",
	}, []string{"exchange"})

	cancelRaces = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tp",
		Subsystem: "order",
		Name:      "cancel_races_total",
		Help:      "撤单竞态（撤单时订单已到终态）总数",
	}, []string{"exchange"})

	// 监护指标
	superviseDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tp",
		Subsystem: "supervise",
		Name:      "duration_seconds",
		Help:      "单次监护从提交到终态的耗时分布（秒）",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"exchange"})

	superviseAttempts = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tp",
		Subsystem: "supervise",
		Name:      "attempts",
		Help:      "单次监护的下单次数分布（首发+重发）",
		Buckets:   []float64{1, 2, 3, 5, 8, 13},
	}, []string{"exchange"})

	// 市场指标
	lastPrice = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tp",
		Subsystem: "market",
		Name:      "last_price",
		Help:      "最近一次查询到的最新成交价",
	}, []string{"exchange"})

	// 仓位指标
	positionAmount = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tp",
		Subsystem: "position",
		Name:      "amount",
		Help:      "当前持仓数量（空头为负）",
	}, []string{"exchange"})

	positionEntryPrice = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tp",
		Subsystem: "position",
		Name:      "entry_price",
		Help:      "当前持仓开仓均价",
	}, []string{"exchange"})
)

// RecordSubmit 记录一次订单提交。
func RecordSubmit(exchange string) {
	ordersSubmitted.WithLabelValues(exchange).Inc()
}

// RecordFill 记录一次完全成交。
func RecordFill(exchange string) {
	ordersFilled.WithLabelValues(exchange).Inc()
}

// RecordReject 记录一次拒单。
func RecordReject(exchange string) {
	ordersRejected.WithLabelValues(exchange).Inc()
}

// RecordCancel 记录一次撤单。trigger 取值 price/time/auto。
func RecordCancel(exchange, trigger string) {
	ordersCancelled.WithLabelValues(exchange, trigger).Inc()
}

// RecordReissue 记录一次撤单后重发。
func RecordReissue(exchange string) {
	orderReissues.WithLabelValues(exchange).Inc()
}

// RecordCancelRace 记录一次撤单竞态。
func RecordCancelRace(exchange string) {
	cancelRaces.WithLabelValues(exchange).Inc()
}

// ObserveSupervise 记录一次监护的耗时与下单次数。
func ObserveSupervise(exchange string, seconds float64, attempts int) {
	superviseDuration.WithLabelValues(exchange).Observe(seconds)
	superviseAttempts.WithLabelValues(exchange).Observe(float64(attempts))
}

// UpdateLastPrice 更新最新成交价。
func UpdateLastPrice(exchange string, price float64) {
	lastPrice.WithLabelValues(exchange).Set(price)
}

// UpdatePosition 更新持仓指标。
func UpdatePosition(exchange string, amount, entryPrice float64) {
	positionAmount.WithLabelValues(exchange).Set(amount)
	positionEntryPrice.WithLabelValues(exchange).Set(entryPrice)
}

// StartMetricsServer 启动Prometheus指标服务器，只暴露本包注册表。
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
