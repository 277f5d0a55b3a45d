package exchange

import "fmt"

// venues 已支持的交易所/品种标签与对应规整器。
var venues = map[string]func() Normalizer{
	"okex-futures":    NewOKExFutures,
	"okex-swap":       NewOKExSwap,
	"okex-spot":       NewOKExSpot,
	"huobi-futures":   NewHuobiFutures,
	"huobi-swap":      NewHuobiSwap,
	"huobi-spot":      NewHuobiSpot,
	"binance-spot":    NewBinanceSpot,
	"binance-futures": NewBinanceFutures,
	"binance-swap":    NewBinanceSwap,
}

// NewNormalizer 按交易所标签创建规整器。
func NewNormalizer(venue string) (Normalizer, error) {
	factory, ok := venues[venue]
	if !ok {
		return nil, fmt.Errorf("unsupported venue %q", venue)
	}
	return factory(), nil
}

// Venues 返回所有支持的交易所标签。
func Venues() []string {
	out := make([]string, 0, len(venues))
	for v := range venues {
		out = append(out, v)
	}
	return out
}
