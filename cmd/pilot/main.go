package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appcfg "trade-pilot/config"
	"trade-pilot/exchange"
	"trade-pilot/infrastructure/alert"
	"trade-pilot/infrastructure/logger"
	hotcfg "trade-pilot/internal/config"
	"trade-pilot/internal/store"
	"trade-pilot/inventory"
	"trade-pilot/metrics"
	"trade-pilot/order"
	"trade-pilot/sim"
	"trade-pilot/trader"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	paper := flag.Bool("paper", false, "纸面交易模式：用内存撮合代替真实网关")
	paperLast := flag.Float64("paperLast", 100, "纸面交易初始最新价")
	demo := flag.Bool("demo", false, "纸面模式下跑演示下单循环")
	flag.Parse()

	cfg, err := appcfg.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logCfg := cfg.Log
	if logCfg.Level == "" {
		logCfg = logger.DefaultConfig()
	}
	lg, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lg.Close()

	if cfg.Metrics.Enabled {
		metrics.StartMetricsServer(cfg.Metrics.Addr)
		lg.Info("metrics server started", zap.String("addr", cfg.Metrics.Addr))
	}

	norm, err := exchange.NewNormalizer(cfg.Exchange.Venue)
	if err != nil {
		log.Fatalf("初始化规整器失败: %v", err)
	}

	// 网关选择：真实REST适配器由部署方注入，这里只接纸面撮合。
	var venue *sim.PaperVenue
	switch {
	case *paper:
		venue = sim.NewPaperVenue(
			cfg.Exchange.InstrumentID,
			decimal.NewFromFloat(*paperLast),
			decimal.NewFromFloat(cfg.Exchange.ContractValue),
		)
		// 纸面撮合讲OKEx方言
		norm = exchange.NewOKExSwap()
	case cfg.Policy.Backtest:
		venue = sim.NewPaperVenue(cfg.Exchange.InstrumentID, decimal.NewFromFloat(*paperLast), decimal.Zero)
	default:
		log.Fatalf("no gateway adapter wired for venue %s; run with -paper or policy.backtest", cfg.Exchange.Venue)
	}

	journal := store.New(cfg.Journal.Capacity, func(event string, fields map[string]interface{}) {
		lg.LogSupervise(event, fields)
	})
	tracker := &inventory.Tracker{}

	var alerts *alert.Manager
	if cfg.Alert.Enabled {
		var channels []alert.Channel
		if cfg.Alert.LogChannel {
			channels = append(channels, alert.NewLogChannel("log", nil))
		}
		if cfg.Alert.ConsoleChannel {
			channels = append(channels, alert.NewConsoleChannel("console"))
		}
		alerts = alert.NewManager(channels, time.Duration(cfg.Alert.ThrottleSeconds)*time.Second)
	}

	tr := trader.New(venue, norm, cfg.Policy.Supervisor(),
		trader.WithBacktest(cfg.Policy.Backtest),
		trader.WithInstrument(cfg.Exchange.InstrumentID),
		trader.WithContractValue(decimal.NewFromFloat(cfg.Exchange.ContractValue)),
		trader.WithLogger(lg),
		trader.WithJournal(journal),
		trader.WithTracker(tracker),
		trader.WithAlerts(alerts),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 策略热更新：配置文件变更后重新加载并替换监护策略
	reloader, err := hotcfg.NewHotReloader(*cfgPath, hotcfg.DefaultHotReloadConfig())
	if err != nil {
		log.Fatalf("初始化热更新失败: %v", err)
	}
	reloader.RegisterValidator("policy", &hotcfg.PolicyParameterValidator{})
	reloader.SetReloadHandler(func(interface{}) error {
		newCfg, err := appcfg.LoadWithEnvOverrides(*cfgPath)
		if err != nil {
			return err
		}
		tr.ApplyPolicy(newCfg.Policy.Supervisor())
		return nil
	})
	if err := reloader.Start(ctx); err != nil {
		log.Fatalf("启动热更新失败: %v", err)
	}
	defer reloader.Stop()

	// 启动时对账一次持仓
	sync := inventory.Sync{Tracker: tracker, Gateway: venue, Label: norm.Exchange()}
	if err := sync.Reconcile(ctx); err != nil {
		lg.LogError(err, map[string]interface{}{"stage": "startup_reconcile"})
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	go watchdog(ctx)

	if *paper && *demo {
		go demoLoop(ctx, tr, venue, journal, lg)
	}

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	lg.Info("shutting down")
}

// watchdog 按systemd要求的间隔喂狗。
func watchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}

// demoLoop 纸面演示：行情随机走，交替开平仓，观察监护与重发行为。
func demoLoop(ctx context.Context, tr *trader.Trader, venue *sim.PaperVenue, journal *store.Journal, lg *logger.Logger) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	last := decimal.NewFromInt(100)
	up := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			step := decimal.NewFromFloat(0.5)
			if up {
				last = last.Add(step)
			} else {
				last = last.Sub(step)
			}
			up = !up
			venue.SetLastPrice(last)

			side := tr.Buy
			if !up {
				side = tr.Sell
			}
			rep, err := side(ctx, last, decimal.NewFromInt(1), order.TypeNormal)
			if err != nil {
				lg.LogError(err, map[string]interface{}{"stage": "demo_order"})
				continue
			}
			stats := journal.Stats()
			lg.LogSupervise("demo_round", map[string]interface{}{
				"last":      last.String(),
				"state":     rep.State,
				"attempts":  rep.Attempts,
				"filled":    stats.Filled,
				"cancelled": stats.Cancelled,
				"total":     stats.Total,
			})
		}
	}
}

