package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const validYAML = `
env: dev
exchange:
  venue: okex-futures
  instrumentId: BTC-USD-201225
  apiKey: foo
  apiSecret: bar
  baseURL: https://api.test
  contractValue: 100
policy:
  priceCancel: true
  priceCancelBand: 0.01
  reissueSlippage: 0.002
  maxReissues: 5
metrics:
  enabled: true
  addr: :9090
journal:
  capacity: 256
`

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Env != "dev" || cfg.Exchange.Venue != "okex-futures" {
		t.Fatalf("unexpected cfg values: %+v", cfg)
	}
	if !cfg.Policy.PriceCancel || cfg.Policy.MaxReissues != 5 {
		t.Fatalf("unexpected policy: %+v", cfg.Policy)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, validYAML)
	t.Setenv("TP_API_KEY", "env-key")
	t.Setenv("TP_API_SECRET", "env-secret")
	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Exchange.APIKey != "env-key" || cfg.Exchange.APISecret != "env-secret" {
		t.Fatalf("env overrides not applied: %+v", cfg.Exchange)
	}
}

func TestValidateRejectsUnknownVenue(t *testing.T) {
	path := writeTempConfig(t, `
env: dev
exchange:
  venue: mtgox
  instrumentId: BTC
  apiKey: k
  apiSecret: s
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown venue error")
	}
}

func TestValidateBacktestSkipsCredentials(t *testing.T) {
	path := writeTempConfig(t, `
env: dev
exchange:
  venue: binance-spot
  instrumentId: BTCUSDT
policy:
  backtest: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("backtest config must not require credentials: %v", err)
	}
	if !cfg.Policy.Backtest {
		t.Fatalf("expected backtest mode")
	}
}

func TestValidatePolicyBounds(t *testing.T) {
	cases := []struct {
		name string
		p    PolicyConfig
	}{
		{"negative band", PolicyConfig{PriceCancelBand: -0.1}},
		{"band too large", PolicyConfig{PriceCancelBand: 1}},
		{"price cancel without band", PolicyConfig{PriceCancel: true}},
		{"time cancel without delay", PolicyConfig{TimeCancel: true}},
		{"negative slippage", PolicyConfig{ReissueSlippage: -0.01}},
		{"negative budget", PolicyConfig{MaxReissues: -1}},
	}
	for _, c := range cases {
		if err := ValidatePolicy(c.p); err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
	if err := ValidatePolicy(PolicyConfig{PriceCancel: true, PriceCancelBand: 0.01, ReissueSlippage: 0.002}); err != nil {
		t.Fatalf("valid policy rejected: %v", err)
	}
}

func TestPolicySupervisorConversion(t *testing.T) {
	p := PolicyConfig{
		TimeCancel:             true,
		TimeCancelDelaySeconds: 7,
		ReissueSlippage:        0.002,
		MaxReissues:            3,
	}
	sp := p.Supervisor()
	if sp.TimeCancelDelay != 7*time.Second {
		t.Fatalf("unexpected delay %v", sp.TimeCancelDelay)
	}
	if sp.MaxReissues != 3 || !sp.TimeCancel {
		t.Fatalf("unexpected policy %+v", sp)
	}
}

func TestValidateParams(t *testing.T) {
	cfg := AppConfig{
		Env: "prod",
		Exchange: ExchangeConfig{
			Venue: "huobi-swap", InstrumentID: "BTC-USD",
			APIKey: "k", APISecret: "s",
		},
		Policy: PolicyConfig{PriceCancel: true, PriceCancelBand: 0.01},
	}
	if err := ValidateParams(cfg); err == nil {
		t.Fatalf("expected missing slippage error")
	}
	cfg.Policy.ReissueSlippage = 0.002
	if err := ValidateParams(cfg); err == nil {
		t.Fatalf("expected missing baseURL error")
	}
	cfg.Exchange.BaseURL = "https://api.test"
	if err := ValidateParams(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
