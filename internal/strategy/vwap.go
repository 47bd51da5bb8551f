package strategy

import "binance-ensemble-bot-go/internal/market"

// VWAPReversion 衡量收盘价相对窗口VWAP均值的折价幅度。
// 价格越低于VWAP信号越强（均值回归做多偏好），高于VWAP时无观点。
type VWAPReversion struct {
	Window int
	Scale  float64 // 折价达到该比例时信号饱和为1
}

// NewVWAPReversion 从策略参数构建, 缺省 window=20, scale=0.05
func NewVWAPReversion(params map[string]float64) *VWAPReversion {
	v := &VWAPReversion{Window: 20, Scale: 0.05}
	if p, ok := params["window"]; ok && p >= 1 {
		v.Window = int(p)
	}
	if p, ok := params["scale"]; ok && p > 0 {
		v.Scale = p
	}
	return v
}

func (v *VWAPReversion) Name() string { return "vwap_reversion" }

func (v *VWAPReversion) Evaluate(snap *market.Snapshot, symbol string) (float64, bool) {
	se := snap.Series(symbol)
	if se == nil || len(se.VWAP) < v.Window {
		return 0, false
	}
	sum := 0.0
	for _, p := range se.VWAP[len(se.VWAP)-v.Window:] {
		sum += p
	}
	vwap := sum / float64(v.Window)
	last := se.Close[len(se.Close)-1]
	if last <= 0 {
		return 0, false
	}
	discount := (vwap - last) / last
	return discount / v.Scale, true
}
