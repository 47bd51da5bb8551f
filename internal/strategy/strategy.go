package strategy

import (
	"binance-ensemble-bot-go/internal/market"
	"binance-ensemble-bot-go/internal/models"
)

// PerSymbol 是逐交易对求值的策略：对每个交易对独立读取对齐历史。
// ok==false 表示历史不足或无法计算，调用方按“无观点”(0)处理，绝不中断集合。
type PerSymbol interface {
	Name() string
	Evaluate(snap *market.Snapshot, symbol string) (value float64, ok bool)
}

// Panel 是截面策略：一次性对快照内全部交易对联合求值。
// 返回的map中缺失的交易对同样按0处理。
type Panel interface {
	Name() string
	EvaluateAll(snap *market.Snapshot) map[string]float64
}

// Member 是集合中的一个成员：策略本体(两种变体二选一)加上配置描述。
// 合并器只依赖 Signals 的输出，不关心具体策略身份。
type Member struct {
	Config    models.StrategyConfig
	perSymbol PerSymbol
	panel     Panel
}

// Name 返回策略标识
func (m *Member) Name() string { return m.Config.Name }

// Weight 返回合并权重
func (m *Member) Weight() float64 { return m.Config.Weight }

// Signals 对快照内全部交易对求值并归一化。
// 任何交易对求值失败都映射为0，保证输出中不含NaN。
func (m *Member) Signals(snap *market.Snapshot) map[string]float64 {
	out := make(map[string]float64, len(snap.Symbols()))

	if m.panel != nil {
		raw := m.panel.EvaluateAll(snap)
		for _, symbol := range snap.Symbols() {
			out[symbol] = Normalize(raw[symbol], m.Config.LongOnly)
		}
		return out
	}

	for _, symbol := range snap.Symbols() {
		v, ok := m.perSymbol.Evaluate(snap, symbol)
		if !ok {
			out[symbol] = 0
			continue
		}
		out[symbol] = Normalize(v, m.Config.LongOnly)
	}
	return out
}
