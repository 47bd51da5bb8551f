package exchange

import (
	"fmt"
	"sync"
	"time"

	"binance-ensemble-bot-go/internal/models"
)

// BacktestExchange 实现了 Exchange 接口，用于模拟现货交易以进行回测。
// 成交价为当前收盘价加滑点，吃单手续费从现金中扣除；
// 与真实交易所一致，超卖和现金不足会被拒单，使引擎的安全检查可被观察到。
type BacktestExchange struct {
	InitialCash float64
	Cash        float64
	Positions   map[string]float64
	TradeLog    []models.TradeRecord
	EquityCurve []float64
	TotalFees   float64

	lotSizes     map[string]string
	takerFeeRate float64
	slippageRate float64

	prices      map[string]float64
	currentTime time.Time
	nextOrderID int64
	mu          sync.Mutex
}

// NewBacktestExchange 创建一个新的 BacktestExchange 实例
func NewBacktestExchange(cfg *models.Config) *BacktestExchange {
	return &BacktestExchange{
		InitialCash:  cfg.InitialCash,
		Cash:         cfg.InitialCash,
		Positions:    make(map[string]float64),
		EquityCurve:  make([]float64, 0, 10000),
		lotSizes:     cfg.LotSizes,
		takerFeeRate: cfg.TakerFeeRate,
		slippageRate: cfg.SlippageRate,
		prices:       make(map[string]float64),
		nextOrderID:  1,
	}
}

// SetPrices 是回测的核心驱动：每个tick更新全部最新价并记录权益曲线
func (e *BacktestExchange) SetPrices(prices map[string]float64, timestamp time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for symbol, price := range prices {
		e.prices[symbol] = price
	}
	e.currentTime = timestamp
	e.EquityCurve = append(e.EquityCurve, e.equityLocked())
}

func (e *BacktestExchange) equityLocked() float64 {
	equity := e.Cash
	for symbol, qty := range e.Positions {
		equity += qty * e.prices[symbol]
	}
	return equity
}

// Equity 返回当前总权益（现金+持仓市值）
func (e *BacktestExchange) Equity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.equityLocked()
}

// GetAccount 返回模拟账户快照
func (e *BacktestExchange) GetAccount() (*models.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	acct := &models.Account{
		Cash:     e.Cash,
		Holdings: make(map[string]models.Holding, len(e.Positions)),
	}
	for symbol, qty := range e.Positions {
		if qty <= 0 {
			continue
		}
		acct.Holdings[symbol] = models.Holding{Quantity: qty, LastPrice: e.prices[symbol]}
	}
	return acct, nil
}

// GetSymbolRules 回测中直接使用配置里的步长表
func (e *BacktestExchange) GetSymbolRules(symbols []string) (map[string]models.SymbolRules, error) {
	rules := make(map[string]models.SymbolRules, len(symbols))
	for _, symbol := range symbols {
		rules[symbol] = models.SymbolRules{Symbol: symbol, StepSize: e.lotSizes[symbol]}
	}
	return rules, nil
}

// PlaceMarketOrder 以当前价加滑点模拟成交
func (e *BacktestExchange) PlaceMarketOrder(symbol string, side models.Side, quantity float64) (*models.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	price, ok := e.prices[symbol]
	if !ok || price <= 0 {
		return nil, fmt.Errorf("回测中 %s 没有可用价格", symbol)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("非法下单数量: %v", quantity)
	}

	var fillPrice float64
	switch side {
	case models.Buy:
		fillPrice = price * (1 + e.slippageRate)
		cost := quantity * fillPrice
		fee := cost * e.takerFeeRate
		if cost+fee > e.Cash {
			return nil, &models.Error{Code: -2010, Msg: fmt.Sprintf("现金不足: 需要 %.4f, 可用 %.4f", cost+fee, e.Cash)}
		}
		e.Cash -= cost + fee
		e.Positions[symbol] += quantity
		e.TotalFees += fee
	case models.Sell:
		if quantity > e.Positions[symbol] {
			return nil, &models.Error{Code: -2010, Msg: fmt.Sprintf("持仓不足: 卖出 %.8f, 持有 %.8f", quantity, e.Positions[symbol])}
		}
		fillPrice = price * (1 - e.slippageRate)
		proceeds := quantity * fillPrice
		fee := proceeds * e.takerFeeRate
		e.Cash += proceeds - fee
		e.Positions[symbol] -= quantity
		e.TotalFees += fee
	default:
		return nil, fmt.Errorf("未知交易方向: %s", side)
	}

	order := &models.Order{
		Symbol:      symbol,
		OrderId:     e.nextOrderID,
		Price:       fillPrice,
		ExecutedQty: quantity,
		Status:      "FILLED",
		Side:        side,
		Time:        e.currentTime.UnixMilli(),
	}
	e.nextOrderID++

	e.TradeLog = append(e.TradeLog, models.TradeRecord{
		Timestamp: e.currentTime,
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Price:     fillPrice,
		Notional:  quantity * fillPrice,
	})
	return order, nil
}

// GetServerTime 返回模拟时间
func (e *BacktestExchange) GetServerTime() (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTime.UnixMilli(), nil
}

// Close 无后台资源需要释放
func (e *BacktestExchange) Close() error { return nil }
