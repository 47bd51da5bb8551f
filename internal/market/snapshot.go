package market

import (
	"fmt"
	"sort"
	"time"
)

// Candle 是一根已对齐的K线
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Series 保存单个交易对的全部对齐序列。
// VWAP 和 CLV 在快照构建时从 OHLCV 派生一次，策略层只读。
type Series struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
	VWAP   []float64
	CLV    []float64
}

// Snapshot 是一次调度周期内所有策略共享的不可变历史视图。
// 所有序列共享同一时间索引；核心不做重采样，长度不一致视为上游错误。
type Snapshot struct {
	Timestamps []time.Time
	symbols    []string
	series     map[string]*Series
}

// BuildSnapshot 从按交易对分组的K线构建快照。
// 所有交易对的K线必须等长且时间戳一致（上游合约），否则返回错误。
func BuildSnapshot(candles map[string][]Candle) (*Snapshot, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("快照为空: 没有任何交易对的K线数据")
	}

	symbols := make([]string, 0, len(candles))
	for s := range candles {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	n := len(candles[symbols[0]])
	snap := &Snapshot{
		symbols: symbols,
		series:  make(map[string]*Series, len(symbols)),
	}

	for _, symbol := range symbols {
		cs := candles[symbol]
		if len(cs) != n {
			return nil, fmt.Errorf("K线未对齐: %s 有 %d 根, %s 有 %d 根", symbols[0], n, symbol, len(cs))
		}
		if snap.Timestamps == nil {
			snap.Timestamps = make([]time.Time, n)
			for i, c := range cs {
				snap.Timestamps[i] = c.OpenTime
			}
		} else {
			for i, c := range cs {
				if !c.OpenTime.Equal(snap.Timestamps[i]) {
					return nil, fmt.Errorf("K线时间索引不一致: %s 第 %d 根为 %s, 期望 %s",
						symbol, i, c.OpenTime, snap.Timestamps[i])
				}
			}
		}
		snap.series[symbol] = buildSeries(cs)
	}
	return snap, nil
}

func buildSeries(cs []Candle) *Series {
	n := len(cs)
	s := &Series{
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
		VWAP:   make([]float64, n),
		CLV:    make([]float64, n),
	}
	for i, c := range cs {
		s.Open[i] = c.Open
		s.High[i] = c.High
		s.Low[i] = c.Low
		s.Close[i] = c.Close
		s.Volume[i] = c.Volume
		// 单根K线的VWAP用典型价近似
		s.VWAP[i] = (c.High + c.Low + c.Close) / 3
		// CLV: 收盘价在当根区间内的相对位置, [-1,1]
		if rng := c.High - c.Low; rng > 0 {
			s.CLV[i] = ((c.Close - c.Low) - (c.High - c.Close)) / rng
		}
	}
	return s
}

// Len 返回时间索引长度
func (s *Snapshot) Len() int { return len(s.Timestamps) }

// Symbols 返回快照覆盖的交易对（已排序，调用方不得修改）
func (s *Snapshot) Symbols() []string { return s.symbols }

// Series 返回指定交易对的序列, 不存在时返回nil
func (s *Snapshot) Series(symbol string) *Series { return s.series[symbol] }

// LastClose 返回指定交易对的最新收盘价, (0,false)表示无数据
func (s *Snapshot) LastClose(symbol string) (float64, bool) {
	se, ok := s.series[symbol]
	if !ok || len(se.Close) == 0 {
		return 0, false
	}
	return se.Close[len(se.Close)-1], true
}
