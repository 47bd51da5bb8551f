package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"binance-ensemble-bot-go/internal/models"
)

// OrderBuilder 把权重差换算成经过安全检查的市价单列表
type OrderBuilder struct {
	minNotional float64
	lotSizes    map[string]string // symbol -> 步长（十进制字符串）
}

// NewOrderBuilder 创建订单构建器。步长表对本核心只读。
func NewOrderBuilder(minNotional float64, lotSizes map[string]string) *OrderBuilder {
	return &OrderBuilder{minNotional: minNotional, lotSizes: lotSizes}
}

// BuildInput 汇总了构建一轮订单所需的全部输入
type BuildInput struct {
	Targets    map[string]float64 // 目标权重
	Current    map[string]float64 // 当前权重
	TotalValue float64            // 账户总价值
	Prices     map[string]float64 // symbol -> 最新价
	Holdings   map[string]float64 // symbol -> 当前持有数量
}

// Build 对目标与当前权重的交易对并集逐一计算交易数量，按序执行三道安全检查:
//  1. 禁止卖空: SELL数量最多为当前持有数量;
//  2. 步长截断: 数量向零截断到步长的整数倍, 截断为0则丢弃（报告为跳过）;
//  3. 最小名义价值: 截断后名义价值低于下限的订单丢弃。
//
// 返回存活的订单列表和每个候选订单的处置记录；列表内订单彼此独立，顺序无意义。
func (b *OrderBuilder) Build(in BuildInput) ([]models.TradeOrder, []models.OrderOutcome) {
	symbols := unionSymbols(in.Targets, in.Current)

	var orders []models.TradeOrder
	var outcomes []models.OrderOutcome

	for _, symbol := range symbols {
		deltaWeight := in.Targets[symbol] - in.Current[symbol]
		if deltaWeight == 0 {
			continue
		}

		price := in.Prices[symbol]
		if price <= 0 {
			outcomes = append(outcomes, skip(symbol, deltaWeight, 0, 0, "无有效最新价"))
			continue
		}

		deltaQty := deltaWeight * in.TotalValue / price
		side := models.Buy
		qty := deltaQty
		if deltaQty < 0 {
			side = models.Sell
			qty = -deltaQty
			// 卖出数量不能超过当前持仓
			if held := in.Holdings[symbol]; qty > held {
				qty = held
			}
		}

		step, ok := b.lotSizes[symbol]
		if !ok {
			outcomes = append(outcomes, skipSide(symbol, side, qty, price, "缺少步长配置"))
			continue
		}
		rounded, err := TruncateToStep(qty, step)
		if err != nil {
			outcomes = append(outcomes, skipSide(symbol, side, qty, price, fmt.Sprintf("步长非法: %v", err)))
			continue
		}
		if rounded <= 0 {
			outcomes = append(outcomes, skipSide(symbol, side, qty, price, "数量按步长截断后为0"))
			continue
		}

		notional := rounded * price
		if notional < b.minNotional {
			outcomes = append(outcomes, skipSide(symbol, side, rounded, price,
				fmt.Sprintf("名义价值 %.4f 低于下限 %.4f", notional, b.minNotional)))
			continue
		}

		order := models.TradeOrder{
			Symbol:   symbol,
			Side:     side,
			Quantity: rounded,
			Price:    price,
			Notional: notional,
		}
		orders = append(orders, order)
		outcomes = append(outcomes, models.OrderOutcome{Order: order, Disposition: models.DispositionSubmitted})
	}
	return orders, outcomes
}

func skip(symbol string, deltaWeight, qty, price float64, reason string) models.OrderOutcome {
	side := models.Buy
	if deltaWeight < 0 {
		side = models.Sell
	}
	return skipSide(symbol, side, qty, price, reason)
}

func skipSide(symbol string, side models.Side, qty, price float64, reason string) models.OrderOutcome {
	return models.OrderOutcome{
		Order:       models.TradeOrder{Symbol: symbol, Side: side, Quantity: qty, Price: price, Notional: qty * price},
		Disposition: models.DispositionSkipped,
		Reason:      reason,
	}
}

func unionSymbols(a, b map[string]float64) []string {
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

// TruncateToStep 把数量向零截断到步长的整数倍。
// 通过步长字符串的小数位数做最终量化，避免浮点误差把合法数量写歪。
func TruncateToStep(value float64, step string) (float64, error) {
	stepF, err := strconv.ParseFloat(step, 64)
	if err != nil || stepF <= 0 {
		return 0, fmt.Errorf("步长 %q 无法解析", step)
	}
	if value <= 0 {
		return 0, nil
	}

	// 除法结果紧贴整数下沿时(如400变399.9999...)加极小量补偿
	multiples := math.Floor(value/stepF + 1e-9)
	if multiples <= 0 {
		return 0, nil
	}
	adjusted := multiples * stepF

	decimalPlaces := 0
	if i := strings.Index(step, "."); i >= 0 {
		decimalPlaces = len(step) - i - 1
	}
	final, _ := strconv.ParseFloat(strconv.FormatFloat(adjusted, 'f', decimalPlaces, 64), 64)
	return final, nil
}
