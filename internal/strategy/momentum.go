package strategy

import "binance-ensemble-bot-go/internal/market"

// Momentum 输出回看区间收益率相对scale的比值。
// 正动量越强信号越接近1（经long-only裁剪后），负动量裁剪为0。
type Momentum struct {
	Lookback int     // 回看K线数
	Scale    float64 // 达到该收益率时信号饱和为1
}

// NewMomentum 从策略参数构建, 缺省 lookback=14, scale=0.1
func NewMomentum(params map[string]float64) *Momentum {
	m := &Momentum{Lookback: 14, Scale: 0.1}
	if v, ok := params["lookback"]; ok && v >= 1 {
		m.Lookback = int(v)
	}
	if v, ok := params["scale"]; ok && v > 0 {
		m.Scale = v
	}
	return m
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) Evaluate(snap *market.Snapshot, symbol string) (float64, bool) {
	se := snap.Series(symbol)
	if se == nil || len(se.Close) <= m.Lookback {
		return 0, false
	}
	last := len(se.Close) - 1
	base := se.Close[last-m.Lookback]
	if base <= 0 {
		return 0, false
	}
	ret := se.Close[last]/base - 1
	return ret / m.Scale, true
}
