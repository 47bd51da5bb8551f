package strategy

import "math"

// Normalize 把策略原始输出映射为可合并的信号值。
// NaN/Inf一律映射为0，保证非法值不会进入合并器；
// long-only策略的输出裁剪到 [0,1]，其余保持原样交由下游的非负裁剪处理。
func Normalize(raw float64, longOnly bool) float64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	if !longOnly {
		return raw
	}
	if raw < 0 {
		return 0
	}
	if raw > 1 {
		return 1
	}
	return raw
}
