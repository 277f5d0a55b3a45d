package config

// ValidateParams 额外验证生产部署要求的关键参数。
// Validate 只保证数值边界合法，这里要求真正开单的配置完整。
func ValidateParams(cfg AppConfig) error {
	if cfg.Policy.Backtest {
		return nil
	}
	if (cfg.Policy.PriceCancel || cfg.Policy.TimeCancel) && cfg.Policy.ReissueSlippage <= 0 {
		return ErrInvalid("policy.reissueSlippage must be > 0 when a reissue branch is enabled")
	}
	if cfg.Alert.Enabled && cfg.Alert.ThrottleSeconds <= 0 {
		return ErrInvalid("alert.throttleSeconds must be > 0 when alert enabled")
	}
	if cfg.Exchange.BaseURL == "" {
		return ErrInvalid("exchange.baseURL is required")
	}
	return nil
}

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }
