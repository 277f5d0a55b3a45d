package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"trade-pilot/exchange"
	"trade-pilot/infrastructure/logger"
	"trade-pilot/supervisor"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env      string         `yaml:"env"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Policy   PolicyConfig   `yaml:"policy"`
	Log      logger.Config  `yaml:"log"`
	Alert    AlertConfig    `yaml:"alert"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Journal  JournalConfig  `yaml:"journal"`
}

// ExchangeConfig 交易所接入配置。venue 取值见 exchange.Venues()。
type ExchangeConfig struct {
	Venue        string `yaml:"venue"`
	InstrumentID string `yaml:"instrumentId"`
	APIKey       string `yaml:"apiKey"`
	APISecret    string `yaml:"apiSecret"`
	Passphrase   string `yaml:"passphrase"`
	BaseURL      string `yaml:"baseURL"`
	// ContractValue 合约面值，现货为0
	ContractValue float64 `yaml:"contractValue"`
}

// PolicyConfig 监护策略配置。数值字段用float64承载，
// 转成decimal后才参与价格运算。
type PolicyConfig struct {
	Backtest               bool    `yaml:"backtest"`
	PriceCancel            bool    `yaml:"priceCancel"`
	PriceCancelBand        float64 `yaml:"priceCancelBand"`
	TimeCancel             bool    `yaml:"timeCancel"`
	TimeCancelDelaySeconds int     `yaml:"timeCancelDelaySeconds"`
	AutoCancel             bool    `yaml:"autoCancel"`
	ReissueSlippage        float64 `yaml:"reissueSlippage"`
	MaxReissues            int     `yaml:"maxReissues"`
}

// Supervisor 转换为监护器使用的策略。
func (p PolicyConfig) Supervisor() supervisor.Policy {
	return supervisor.Policy{
		PriceCancel:     p.PriceCancel,
		PriceCancelBand: decimal.NewFromFloat(p.PriceCancelBand),
		TimeCancel:      p.TimeCancel,
		TimeCancelDelay: time.Duration(p.TimeCancelDelaySeconds) * time.Second,
		AutoCancel:      p.AutoCancel,
		ReissueSlippage: decimal.NewFromFloat(p.ReissueSlippage),
		MaxReissues:     p.MaxReissues,
	}
}

// AlertConfig 告警配置。
type AlertConfig struct {
	Enabled         bool `yaml:"enabled"`
	ThrottleSeconds int  `yaml:"throttleSeconds"`
	ConsoleChannel  bool `yaml:"consoleChannel"`
	LogChannel      bool `yaml:"logChannel"`
}

// MetricsConfig Prometheus指标配置。
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// JournalConfig 回报日志配置。
type JournalConfig struct {
	Capacity int `yaml:"capacity"`
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides sensitive fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("TP_API_KEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("TP_API_SECRET"); v != "" {
		cfg.Exchange.APISecret = v
	}
	if v := os.Getenv("TP_PASSPHRASE"); v != "" {
		cfg.Exchange.Passphrase = v
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present and policy numbers are sane.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Exchange.Venue == "" {
		return errors.New("exchange.venue is required")
	}
	if _, err := exchange.NewNormalizer(cfg.Exchange.Venue); err != nil {
		return fmt.Errorf("exchange.venue: %w", err)
	}
	if cfg.Exchange.InstrumentID == "" {
		return errors.New("exchange.instrumentId is required")
	}
	if cfg.Exchange.ContractValue < 0 {
		return errors.New("exchange.contractValue must be >= 0")
	}
	// 回测不触网关，密钥可省
	if !cfg.Policy.Backtest {
		if cfg.Exchange.APIKey == "" || cfg.Exchange.APISecret == "" {
			return errors.New("exchange.apiKey/apiSecret is required (or env overrides)")
		}
	}
	if err := ValidatePolicy(cfg.Policy); err != nil {
		return err
	}
	if cfg.Alert.ThrottleSeconds < 0 {
		return errors.New("alert.throttleSeconds must be >= 0")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return errors.New("metrics.addr is required when metrics enabled")
	}
	if cfg.Journal.Capacity < 0 {
		return errors.New("journal.capacity must be >= 0")
	}
	return nil
}

// ValidatePolicy 校验监护策略数值边界。热更新也走这里。
func ValidatePolicy(p PolicyConfig) error {
	if p.PriceCancelBand < 0 || p.PriceCancelBand >= 1 {
		return fmt.Errorf("policy.priceCancelBand must be in [0,1), got %f", p.PriceCancelBand)
	}
	if p.PriceCancel && p.PriceCancelBand == 0 {
		return errors.New("policy.priceCancelBand must be > 0 when priceCancel enabled")
	}
	if p.TimeCancelDelaySeconds < 0 {
		return errors.New("policy.timeCancelDelaySeconds must be >= 0")
	}
	if p.TimeCancel && p.TimeCancelDelaySeconds == 0 {
		return errors.New("policy.timeCancelDelaySeconds must be > 0 when timeCancel enabled")
	}
	if p.ReissueSlippage < 0 || p.ReissueSlippage >= 1 {
		return fmt.Errorf("policy.reissueSlippage must be in [0,1), got %f", p.ReissueSlippage)
	}
	if p.MaxReissues < 0 {
		return errors.New("policy.maxReissues must be >= 0")
	}
	return nil
}
