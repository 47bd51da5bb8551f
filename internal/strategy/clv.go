package strategy

import "binance-ensemble-bot-go/internal/market"

// CLV 取窗口内收盘位置值(close location value)的均值，并从 [-1,1] 线性映射到 [0,1]。
// 收盘持续贴近最高价说明买方占优，信号趋近1。
type CLV struct {
	Window int
}

// NewCLV 从策略参数构建, 缺省 window=20
func NewCLV(params map[string]float64) *CLV {
	c := &CLV{Window: 20}
	if v, ok := params["window"]; ok && v >= 1 {
		c.Window = int(v)
	}
	return c
}

func (c *CLV) Name() string { return "clv" }

func (c *CLV) Evaluate(snap *market.Snapshot, symbol string) (float64, bool) {
	se := snap.Series(symbol)
	if se == nil || len(se.CLV) < c.Window {
		return 0, false
	}
	sum := 0.0
	for _, v := range se.CLV[len(se.CLV)-c.Window:] {
		sum += v
	}
	mean := sum / float64(c.Window)
	return (mean + 1) / 2, true
}
