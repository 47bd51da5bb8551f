package strategy

import (
	"sort"

	"binance-ensemble-bot-go/internal/market"
)

// XSectMomentum 是截面动量：按回看收益率对全部交易对排名，
// 排名归一化到 [0,1]，最强者为1。历史不足的交易对不出现在输出中（按0处理）。
type XSectMomentum struct {
	Lookback int
}

// NewXSectMomentum 从策略参数构建, 缺省 lookback=14
func NewXSectMomentum(params map[string]float64) *XSectMomentum {
	x := &XSectMomentum{Lookback: 14}
	if v, ok := params["lookback"]; ok && v >= 1 {
		x.Lookback = int(v)
	}
	return x
}

func (x *XSectMomentum) Name() string { return "xsect_momentum" }

func (x *XSectMomentum) EvaluateAll(snap *market.Snapshot) map[string]float64 {
	type ranked struct {
		symbol string
		ret    float64
	}

	var rows []ranked
	for _, symbol := range snap.Symbols() {
		se := snap.Series(symbol)
		if se == nil || len(se.Close) <= x.Lookback {
			continue
		}
		last := len(se.Close) - 1
		base := se.Close[last-x.Lookback]
		if base <= 0 {
			continue
		}
		rows = append(rows, ranked{symbol: symbol, ret: se.Close[last]/base - 1})
	}

	out := make(map[string]float64, len(rows))
	if len(rows) == 0 {
		return out
	}
	if len(rows) == 1 {
		// 只有一个可排名的交易对时没有截面信息，给中性值
		out[rows[0].symbol] = 0.5
		return out
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].ret < rows[j].ret })
	denom := float64(len(rows) - 1)
	for rank, row := range rows {
		out[row.symbol] = float64(rank) / denom
	}
	return out
}
