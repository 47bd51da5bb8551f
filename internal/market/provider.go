package market

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2"
)

// Provider 为引擎提供对齐的历史快照。
// 实盘实现从币安拉取K线；回测实现从本地CSV按索引推进。
type Provider interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// BinanceProvider 通过币安REST接口拉取全部交易对的K线并构建快照
type BinanceProvider struct {
	client   *binance.Client
	symbols  []string
	interval string
	limit    int
}

// NewBinanceProvider 创建实盘行情提供者。公共K线接口不需要API Key。
func NewBinanceProvider(client *binance.Client, symbols []string, interval string, limit int) *BinanceProvider {
	return &BinanceProvider{client: client, symbols: symbols, interval: interval, limit: limit}
}

// Snapshot 拉取所有交易对最近limit根K线并对齐
func (p *BinanceProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	candles := make(map[string][]Candle, len(p.symbols))
	for _, symbol := range p.symbols {
		klines, err := p.client.NewKlinesService().
			Symbol(symbol).
			Interval(p.interval).
			Limit(p.limit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("拉取 %s K线失败: %w", symbol, err)
		}
		cs := make([]Candle, 0, len(klines))
		for _, k := range klines {
			c, err := candleFromKline(k)
			if err != nil {
				return nil, fmt.Errorf("解析 %s K线失败: %w", symbol, err)
			}
			cs = append(cs, c)
		}
		candles[symbol] = cs
	}
	// 各交易对上线时间不同会导致历史长度不一, 统一截到最短长度再对齐
	return BuildSnapshot(trimToShortest(candles))
}

func candleFromKline(k *binance.Kline) (Candle, error) {
	c := Candle{OpenTime: msToTime(k.OpenTime)}
	var err error
	if c.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return c, err
	}
	if c.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return c, err
	}
	if c.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return c, err
	}
	if c.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return c, err
	}
	if c.Volume, err = strconv.ParseFloat(k.Volume, 64); err != nil {
		return c, err
	}
	return c, nil
}

// trimToShortest 丢弃各交易对多出的最早K线，使所有序列等长
func trimToShortest(candles map[string][]Candle) map[string][]Candle {
	shortest := -1
	for _, cs := range candles {
		if shortest < 0 || len(cs) < shortest {
			shortest = len(cs)
		}
	}
	trimmed := make(map[string][]Candle, len(candles))
	for symbol, cs := range candles {
		trimmed[symbol] = cs[len(cs)-shortest:]
	}
	return trimmed
}
