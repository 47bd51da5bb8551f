package market

import (
	"context"
	"fmt"
	"time"
)

// ReplayProvider 在回测中按时间索引推进，把本地K线逐步喂给引擎。
// 每次 Advance 之后，Snapshot 只暴露截至当前游标的历史，避免前视偏差。
type ReplayProvider struct {
	candles map[string][]Candle
	symbols []string
	length  int
	cursor  int // 当前可见的最后一根K线下标
	warmup  int // 首个快照至少包含的K线数量
}

// NewReplayProvider 校验对齐并构建回放提供者。
// warmup 指定引擎启动前需要的最少历史长度（通常等于最长策略lookback）。
func NewReplayProvider(candles map[string][]Candle, warmup int) (*ReplayProvider, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("回放数据为空")
	}
	trimmed := trimToShortest(candles)
	// 提前做一次完整构建, 对齐错误在回测开始前暴露
	if _, err := BuildSnapshot(trimmed); err != nil {
		return nil, err
	}

	p := &ReplayProvider{candles: trimmed, warmup: warmup}
	for symbol, cs := range trimmed {
		p.symbols = append(p.symbols, symbol)
		p.length = len(cs)
	}
	if warmup < 1 {
		p.warmup = 1
	}
	if p.warmup > p.length {
		return nil, fmt.Errorf("历史数据不足: 需要至少 %d 根K线, 只有 %d 根", p.warmup, p.length)
	}
	p.cursor = p.warmup - 1
	return p, nil
}

// Advance 将游标推进一根K线, 到达末尾时返回false
func (p *ReplayProvider) Advance() bool {
	if p.cursor+1 >= p.length {
		return false
	}
	p.cursor++
	return true
}

// Snapshot 返回截至当前游标的对齐历史
func (p *ReplayProvider) Snapshot(_ context.Context) (*Snapshot, error) {
	window := make(map[string][]Candle, len(p.candles))
	for symbol, cs := range p.candles {
		window[symbol] = cs[:p.cursor+1]
	}
	return BuildSnapshot(window)
}

// CurrentPrices 返回当前游标处所有交易对的收盘价
func (p *ReplayProvider) CurrentPrices() map[string]float64 {
	prices := make(map[string]float64, len(p.candles))
	for symbol, cs := range p.candles {
		prices[symbol] = cs[p.cursor].Close
	}
	return prices
}

// CurrentTime 返回当前游标处的K线开盘时间
func (p *ReplayProvider) CurrentTime() time.Time {
	for _, cs := range p.candles {
		return cs[p.cursor].OpenTime
	}
	return time.Time{}
}
