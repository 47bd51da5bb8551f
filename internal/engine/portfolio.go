package engine

import "binance-ensemble-bot-go/internal/models"

// PortfolioState 是当前持仓换算出的权重视图
type PortfolioState struct {
	Weights      map[string]float64 // symbol -> 当前权重
	CashFraction float64            // 现金占比
	TotalValue   float64            // 现金 + Σ(数量×最新价)
}

// ResolvePortfolio 把账户快照换算成当前权重。
// 总价值 ≤ 0 时故障关闭：全部权重报0、现金占比报1，
// 避免除零错误向再平衡逻辑传播。
func ResolvePortfolio(acct *models.Account) *PortfolioState {
	ps := &PortfolioState{
		Weights:    make(map[string]float64, len(acct.Holdings)),
		TotalValue: acct.TotalValue(),
	}

	if ps.TotalValue <= 0 {
		for symbol := range acct.Holdings {
			ps.Weights[symbol] = 0
		}
		ps.CashFraction = 1
		return ps
	}

	for symbol, h := range acct.Holdings {
		ps.Weights[symbol] = h.Quantity * h.LastPrice / ps.TotalValue
	}
	ps.CashFraction = acct.Cash / ps.TotalValue
	return ps
}
