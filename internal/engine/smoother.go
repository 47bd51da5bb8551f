package engine

// 衰减到该值以下的交易对从平滑状态中剔除，防止状态向量无限增长
const weightFloor = 1e-12

// Smoother 维护跨周期的指数平滑状态: state = λ·new + (1−λ)·state。
// 状态向量是核心中唯一跨周期携带的可变数据，由调用方负责串行调用。
type Smoother struct {
	lambda float64
}

// NewSmoother 创建平滑器, λ ∈ (0,1] 由配置层校验
func NewSmoother(lambda float64) *Smoother {
	return &Smoother{lambda: lambda}
}

// Apply 把新的合并向量混入状态并返回更新后的状态（即本周期的目标权重）。
// 规则:
//   - 状态中不存在的新交易对直接以首次观测值入位，避免人为的一周期滞后;
//   - 新向量中缺失的交易对按信号0衰减，低于下限后剔除。
func (s *Smoother) Apply(state map[string]float64, combined map[string]float64) map[string]float64 {
	next := make(map[string]float64, len(state)+len(combined))

	for symbol, v := range combined {
		prev, exists := state[symbol]
		if !exists {
			next[symbol] = v
			continue
		}
		next[symbol] = s.lambda*v + (1-s.lambda)*prev
	}

	for symbol, prev := range state {
		if _, exists := combined[symbol]; exists {
			continue
		}
		decayed := (1 - s.lambda) * prev
		if decayed >= weightFloor {
			next[symbol] = decayed
		}
	}
	return next
}
