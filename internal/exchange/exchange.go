package exchange

import "binance-ensemble-bot-go/internal/models"

// Exchange 定义了所有交易所实现必须提供的通用方法。
// 这使得再平衡引擎可以在真实交易和回测之间轻松切换。
type Exchange interface {
	// GetAccount 返回现金余额和交易对列表内的持仓及最新价
	GetAccount() (*models.Account, error)

	// GetSymbolRules 返回下单规则（步长、最小名义价值）
	GetSymbolRules(symbols []string) (map[string]models.SymbolRules, error)

	// PlaceMarketOrder 提交一笔市价单
	PlaceMarketOrder(symbol string, side models.Side, quantity float64) (*models.Order, error)

	// GetServerTime 返回交易所服务器时间(毫秒)，用于启动时的时钟校验
	GetServerTime() (int64, error)

	// Close 释放后台资源
	Close() error
}
