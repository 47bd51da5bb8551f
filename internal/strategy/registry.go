package strategy

import (
	"fmt"

	"binance-ensemble-bot-go/internal/models"
)

// Build 根据配置构建集合成员列表。
// 未知策略名或scope与策略实际形态不符都是配置错误，必须在启动阶段失败。
func Build(configs []models.StrategyConfig) ([]*Member, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("配置错误: 策略列表为空")
	}

	members := make([]*Member, 0, len(configs))
	for _, sc := range configs {
		m := &Member{Config: sc}
		switch sc.Name {
		case "momentum":
			m.perSymbol = NewMomentum(sc.Params)
		case "clv":
			m.perSymbol = NewCLV(sc.Params)
		case "vwap_reversion":
			m.perSymbol = NewVWAPReversion(sc.Params)
		case "xsect_momentum":
			m.panel = NewXSectMomentum(sc.Params)
		default:
			return nil, fmt.Errorf("配置错误: 未知策略 %q", sc.Name)
		}

		switch sc.Scope {
		case models.ScopePerSymbol:
			if m.perSymbol == nil {
				return nil, fmt.Errorf("配置错误: 策略 %s 是截面策略, scope 不能为 per_symbol", sc.Name)
			}
		case models.ScopePanel:
			if m.panel == nil {
				return nil, fmt.Errorf("配置错误: 策略 %s 是逐交易对策略, scope 不能为 panel", sc.Name)
			}
		default:
			return nil, fmt.Errorf("配置错误: 策略 %s 的 scope 无法识别: %q", sc.Name, sc.Scope)
		}
		members = append(members, m)
	}
	return members, nil
}
