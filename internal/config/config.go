package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"binance-ensemble-bot-go/internal/models"
)

// LoadConfig 从指定路径加载JSON配置文件并解析到Config结构体中。
// 配置校验失败是致命的：引擎必须拒绝启动，而不是带着非法配置进入交易周期。
func LoadConfig(path string) (*models.Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := &models.Config{}
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate 在任何交易周期运行之前校验配置的合法性
func Validate(cfg *models.Config) error {
	if len(cfg.Universe) == 0 {
		return fmt.Errorf("配置错误: symbols 不能为空")
	}
	if cfg.QuoteAsset == "" {
		return fmt.Errorf("配置错误: quote_asset 不能为空")
	}
	if len(cfg.Strategies) == 0 {
		return fmt.Errorf("配置错误: strategies 不能为空")
	}
	for i, sc := range cfg.Strategies {
		if sc.Name == "" {
			return fmt.Errorf("配置错误: strategies[%d] 缺少 name", i)
		}
		if sc.Weight < 0 {
			return fmt.Errorf("配置错误: 策略 %s 的权重不能为负: %v", sc.Name, sc.Weight)
		}
		if sc.Scope != models.ScopePerSymbol && sc.Scope != models.ScopePanel {
			return fmt.Errorf("配置错误: 策略 %s 的 scope 无法识别: %q", sc.Name, sc.Scope)
		}
	}
	switch cfg.CombinePolicy {
	case models.PolicyWeightedSum, models.PolicyMean:
	default:
		return fmt.Errorf("配置错误: combine_policy 无法识别: %q", cfg.CombinePolicy)
	}
	if cfg.SmoothingLambda <= 0 || cfg.SmoothingLambda > 1 {
		return fmt.Errorf("配置错误: smoothing_lambda 必须在 (0,1] 区间内: %v", cfg.SmoothingLambda)
	}
	if cfg.RebalanceThreshold < 0 {
		return fmt.Errorf("配置错误: rebalance_threshold 不能为负: %v", cfg.RebalanceThreshold)
	}
	if cfg.MinNotional < 0 {
		return fmt.Errorf("配置错误: min_notional 不能为负: %v", cfg.MinNotional)
	}
	for symbol, step := range cfg.LotSizes {
		v, err := strconv.ParseFloat(step, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("配置错误: %s 的步长非法: %q", symbol, step)
		}
	}
	if cfg.KlineLimit < 0 {
		return fmt.Errorf("配置错误: kline_limit 不能为负: %d", cfg.KlineLimit)
	}
	return nil
}
