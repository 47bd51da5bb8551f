package engine

import "math"

// L1Distance 计算两个权重向量在交易对并集上的L1距离 Σ|aᵢ−bᵢ|
func L1Distance(a, b map[string]float64) float64 {
	var dist float64
	for symbol, av := range a {
		dist += math.Abs(av - b[symbol])
	}
	for symbol, bv := range b {
		if _, ok := a[symbol]; !ok {
			dist += math.Abs(bv)
		}
	}
	return dist
}

// ShouldRebalance 判断本周期是否生成订单。
// 低于阈值时整个周期不交易，这是对抗信号噪声导致订单抖动的第一道防线。
func ShouldRebalance(distance, threshold float64) bool {
	return distance >= threshold
}
