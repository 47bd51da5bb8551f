package models

import (
	"fmt"
	"time"
)

// Config 结构体定义了机器人的所有配置参数
type Config struct {
	IsTestnet     bool   `json:"is_testnet"`   // 是否使用测试网
	DBPath        string `json:"db_path"`      // badger 数据库文件路径
	JournalPath   string `json:"journal_path"` // 成交流水CSV路径
	LiveAPIURL    string `json:"live_api_url"`
	LiveWSURL     string `json:"live_ws_url"`
	TestnetAPIURL string `json:"testnet_api_url"`
	TestnetWSURL  string `json:"testnet_ws_url"`

	QuoteAsset string   `json:"quote_asset"` // 计价货币，如 "USDT"
	Universe   []string `json:"symbols"`     // 交易对列表，如 ["BTCUSDT","ETHUSDT"]

	Strategies         []StrategyConfig  `json:"strategies"`          // 信号集合，顺序即配置顺序
	CombinePolicy      string            `json:"combine_policy"`      // 合并策略: weighted_sum 或 mean
	SmoothingLambda    float64           `json:"smoothing_lambda"`    // 指数平滑系数 λ, (0,1]
	RebalanceThreshold float64           `json:"rebalance_threshold"` // L1 距离触发阈值
	MinNotional        float64           `json:"min_notional"`        // 最小订单名义价值 (USDT)
	LotSizes           map[string]string `json:"lot_sizes"`           // symbol -> 步长 (十进制字符串, 如 "0.0001")

	IntervalSec   int    `json:"interval_sec"`   // 调度周期（秒）
	KlineInterval string `json:"kline_interval"` // K线周期, 如 "1h"
	KlineLimit    int    `json:"kline_limit"`    // 每个周期拉取的历史K线数量

	LogConfig LogConfig `json:"log"` // 日志配置

	// 回测特定配置
	InitialCash  float64 `json:"initial_cash"`   // 回测初始资金 (USDT)
	TakerFeeRate float64 `json:"taker_fee_rate"` // 吃单手续费率
	SlippageRate float64 `json:"slippage_rate"`  // 滑点率
	DataDir      string  `json:"data_dir"`       // 回测K线CSV目录

	BaseURL   string `json:"base_url"`    // REST API基础地址 (将由程序动态设置)
	WSBaseURL string `json:"ws_base_url"` // WebSocket基础地址 (将由程序动态设置)
}

// StrategyConfig 描述集合中的一个信号源，加载后不可变
type StrategyConfig struct {
	Name     string             `json:"name"`      // 策略标识, 如 "momentum"
	Weight   float64            `json:"weight"`    // 合并权重, >= 0
	LongOnly bool               `json:"long_only"` // 是否只做多（输出裁剪到 [0,1]）
	Scope    string             `json:"scope"`     // per_symbol 或 panel
	Params   map[string]float64 `json:"params"`    // 策略自定义参数, 如 lookback
}

// 策略作用域
const (
	ScopePerSymbol = "per_symbol"
	ScopePanel     = "panel"
)

// 合并策略
const (
	PolicyWeightedSum = "weighted_sum"
	PolicyMean        = "mean"
)

// LogConfig 定义了日志相关的配置
type LogConfig struct {
	Level      string `json:"level"`       // 日志级别, e.g., "debug", "info", "warn", "error"
	Output     string `json:"output"`      // 输出模式: "console", "file", "both"
	File       string `json:"file"`        // 日志文件路径
	MaxSize    int    `json:"max_size"`    // 单个日志文件的最大大小 (MB)
	MaxBackups int    `json:"max_backups"` // 保留的旧日志文件最大数量
	MaxAge     int    `json:"max_age"`     // 旧日志文件的最大保留天数
	Compress   bool   `json:"compress"`    // 是否压缩旧日志文件
}

// Side 定义了交易方向的类型
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// TradeOrder 是订单构建器的输出：一笔待提交的市价单
type TradeOrder struct {
	Symbol   string  `json:"symbol"`
	Side     Side    `json:"side"`
	Quantity float64 `json:"quantity"` // 已按步长截断
	Price    float64 `json:"price"`    // 用于估算名义价值的最新价
	Notional float64 `json:"notional"` // Quantity * Price
}

// Disposition describes the fate of a candidate order within one cycle.
type Disposition string

const (
	DispositionSubmitted Disposition = "SUBMITTED"
	DispositionSkipped   Disposition = "SKIPPED"
	DispositionRejected  Disposition = "REJECTED"
)

// OrderOutcome pairs a candidate order with its disposition and reason,
// so every cycle leaves an explainable trail.
type OrderOutcome struct {
	Order       TradeOrder  `json:"order"`
	Disposition Disposition `json:"disposition"`
	Reason      string      `json:"reason,omitempty"`
}

// Holding 是某一资产的当前持仓快照
type Holding struct {
	Quantity  float64 `json:"quantity"`   // 当前持有数量（基础货币）
	LastPrice float64 `json:"last_price"` // 最新成交价（计价货币）
}

// Account 是每个周期从交易所拉取的账户快照，周期之间不缓存
type Account struct {
	Cash     float64            `json:"cash"` // 计价货币余额
	Holdings map[string]Holding `json:"holdings"`
}

// TotalValue 返回账户总价值：现金 + Σ(数量×最新价)
func (a *Account) TotalValue() float64 {
	total := a.Cash
	for _, h := range a.Holdings {
		total += h.Quantity * h.LastPrice
	}
	return total
}

// SymbolRules 保存单个交易对的下单规则
type SymbolRules struct {
	Symbol      string `json:"symbol"`
	StepSize    string `json:"stepSize"`    // LOT_SIZE 步长（十进制字符串）
	MinNotional string `json:"minNotional"` // 交易所侧最小名义价值
}

// Order 定义了交易所返回的订单信息
type Order struct {
	Symbol        string  `json:"symbol"`
	OrderId       int64   `json:"orderId"`
	ClientOrderId string  `json:"clientOrderId"`
	Price         float64 `json:"price"`
	ExecutedQty   float64 `json:"executedQty"`
	Status        string  `json:"status"`
	Side          Side    `json:"side"`
	Time          int64   `json:"time"`
}

// TradeRecord is one appended line of the trade journal: a single executed order.
type TradeRecord struct {
	Timestamp time.Time
	Symbol    string
	Side      Side
	Quantity  float64
	Price     float64
	Notional  float64
}

// Error 定义了币安API返回的错误信息结构
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("API Error: code=%d, msg=%s", e.Code, e.Msg)
}
