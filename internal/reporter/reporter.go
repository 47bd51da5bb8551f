package reporter

import (
	"fmt"
	"sort"
	"time"

	"binance-ensemble-bot-go/internal/engine"
	"binance-ensemble-bot-go/internal/exchange"
	"binance-ensemble-bot-go/internal/logger"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderCycle 把一个周期的可解释记录渲染成两张表：
// 权重对比表和候选订单处置表。
func RenderCycle(report *engine.CycleReport) {
	weights := table.NewWriter()
	weights.AppendHeader(table.Row{"交易对", "目标权重", "当前权重", "差值"})

	for _, symbol := range sortedSymbols(report.Targets, report.Current) {
		target := report.Targets[symbol]
		current := report.Current[symbol]
		weights.AppendRow(table.Row{
			symbol,
			fmt.Sprintf("%.4f", target),
			fmt.Sprintf("%.4f", current),
			fmt.Sprintf("%+.4f", target-current),
		})
	}
	weights.AppendFooter(table.Row{"现金占比", "", fmt.Sprintf("%.4f", report.CashFraction), ""})

	logger.S().Infof("周期 #%s | 总价值 %.2f | L1距离 %.6f | 再平衡: %v\n%s",
		report.Timestamp.Format("2006-01-02 15:04:05"),
		report.TotalValue, report.Distance, report.Rebalanced, weights.Render())

	if len(report.Outcomes) == 0 {
		return
	}

	orders := table.NewWriter()
	orders.AppendHeader(table.Row{"交易对", "方向", "数量", "名义价值", "处置", "原因"})
	for _, o := range report.Outcomes {
		orders.AppendRow(table.Row{
			o.Order.Symbol,
			string(o.Order.Side),
			fmt.Sprintf("%.8f", o.Order.Quantity),
			fmt.Sprintf("%.2f", o.Order.Notional),
			string(o.Disposition),
			o.Reason,
		})
	}
	logger.S().Infof("订单处置:\n%s", orders.Render())
}

// Metrics 存储计算出的回测性能指标
type Metrics struct {
	InitialCash      float64
	FinalEquity      float64
	TotalProfit      float64
	ProfitPercentage float64
	TotalTrades      int
	TotalFees        float64
	MaxDrawdown      float64
	EndingCash       float64
	StartTime        time.Time
	EndTime          time.Time
}

// GenerateReport 根据回测交易所的状态计算并打印性能报告
func GenerateReport(be *exchange.BacktestExchange, startTime, endTime time.Time) *Metrics {
	m := &Metrics{
		InitialCash: be.InitialCash,
		FinalEquity: be.Equity(),
		TotalTrades: len(be.TradeLog),
		TotalFees:   be.TotalFees,
		EndingCash:  be.Cash,
		MaxDrawdown: calculateMaxDrawdown(be.EquityCurve) * 100,
		StartTime:   startTime,
		EndTime:     endTime,
	}
	m.TotalProfit = m.FinalEquity - m.InitialCash
	if m.InitialCash != 0 {
		m.ProfitPercentage = m.TotalProfit / m.InitialCash * 100
	}

	t := table.NewWriter()
	t.AppendRows([]table.Row{
		{"回测周期", fmt.Sprintf("%s 到 %s", m.StartTime.Format("2006-01-02 15:04"), m.EndTime.Format("2006-01-02 15:04"))},
		{"初始资金", fmt.Sprintf("%.2f USDT", m.InitialCash)},
		{"最终权益", fmt.Sprintf("%.2f USDT", m.FinalEquity)},
		{"总利润", fmt.Sprintf("%.2f USDT", m.TotalProfit)},
		{"收益率", fmt.Sprintf("%.2f%%", m.ProfitPercentage)},
		{"总交易次数", fmt.Sprintf("%d", m.TotalTrades)},
		{"总手续费", fmt.Sprintf("%.4f USDT", m.TotalFees)},
		{"最大回撤", fmt.Sprintf("%.2f%%", m.MaxDrawdown)},
		{"期末现金", fmt.Sprintf("%.2f USDT", m.EndingCash)},
	})
	logger.S().Infof("========== 回测结果报告 ==========\n%s", t.Render())
	return m
}

func calculateMaxDrawdown(equityCurve []float64) float64 {
	if len(equityCurve) < 2 {
		return 0.0
	}
	peak := equityCurve[0]
	maxDrawdown := 0.0

	for _, equity := range equityCurve {
		if equity > peak {
			peak = equity
		}
		if peak <= 0 {
			continue
		}
		if drawdown := (peak - equity) / peak; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

func sortedSymbols(a, b map[string]float64) []string {
	seen := make(map[string]bool, len(a)+len(b))
	for s := range a {
		seen[s] = true
	}
	for s := range b {
		seen[s] = true
	}
	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
