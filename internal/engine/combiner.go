package engine

// MemberSignals 是单个策略成员在当前时间戳的归一化输出。
// 合并器对策略的具体形态（逐交易对或截面）完全无感知。
type MemberSignals struct {
	Name    string
	Weight  float64
	Samples map[string]float64 // symbol -> 归一化信号, 缺失按0
}

// Combine 把全部成员信号合并为每个交易对一个数值。
// weighted_sum: Σ(wᵢ·sᵢ)/Σ(wᵢ), Σwᵢ为0时输出0;
// mean: 简单算术平均。
// 某策略输出中缺失的交易对按该策略贡献0处理，分母不变。
// 输出做最终的非负裁剪（long-only在此强制执行）。
func Combine(signals []MemberSignals, policy string, symbols []string) map[string]float64 {
	combined := make(map[string]float64, len(symbols))

	var weightSum float64
	for _, ms := range signals {
		weightSum += ms.Weight
	}

	for _, symbol := range symbols {
		var value float64
		switch policy {
		case "mean":
			var sum float64
			for _, ms := range signals {
				sum += ms.Samples[symbol]
			}
			if len(signals) > 0 {
				value = sum / float64(len(signals))
			}
		default: // weighted_sum, 合法性由配置层保证
			if weightSum > 0 {
				var sum float64
				for _, ms := range signals {
					sum += ms.Weight * ms.Samples[symbol]
				}
				value = sum / weightSum
			}
		}

		if value < 0 {
			value = 0
		}
		combined[symbol] = value
	}
	return combined
}
