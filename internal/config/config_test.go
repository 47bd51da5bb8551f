package config

import (
	"os"
	"path/filepath"
	"testing"

	"binance-ensemble-bot-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *models.Config {
	return &models.Config{
		Universe:   []string{"BTCUSDT", "ETHUSDT"},
		QuoteAsset: "USDT",
		Strategies: []models.StrategyConfig{
			{Name: "momentum", Weight: 1, LongOnly: true, Scope: models.ScopePerSymbol},
		},
		CombinePolicy:      models.PolicyWeightedSum,
		SmoothingLambda:    0.3,
		RebalanceThreshold: 0.02,
		MinNotional:        10,
		LotSizes:           map[string]string{"BTCUSDT": "0.0001"},
		KlineLimit:         100,
	}
}

func TestValidatePasses(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.Config)
	}{
		{"empty universe", func(c *models.Config) { c.Universe = nil }},
		{"empty quote asset", func(c *models.Config) { c.QuoteAsset = "" }},
		{"no strategies", func(c *models.Config) { c.Strategies = nil }},
		{"strategy without name", func(c *models.Config) { c.Strategies[0].Name = "" }},
		{"negative strategy weight", func(c *models.Config) { c.Strategies[0].Weight = -1 }},
		{"bad scope", func(c *models.Config) { c.Strategies[0].Scope = "global" }},
		{"bad combine policy", func(c *models.Config) { c.CombinePolicy = "median" }},
		{"lambda zero", func(c *models.Config) { c.SmoothingLambda = 0 }},
		{"lambda above one", func(c *models.Config) { c.SmoothingLambda = 1.5 }},
		{"negative threshold", func(c *models.Config) { c.RebalanceThreshold = -0.01 }},
		{"negative min notional", func(c *models.Config) { c.MinNotional = -1 }},
		{"unparseable lot step", func(c *models.Config) { c.LotSizes["BTCUSDT"] = "abc" }},
		{"zero lot step", func(c *models.Config) { c.LotSizes["BTCUSDT"] = "0" }},
		{"negative kline limit", func(c *models.Config) { c.KlineLimit = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	content := `{
		"symbols": ["BTCUSDT"],
		"quote_asset": "USDT",
		"strategies": [{"name": "momentum", "weight": 1, "long_only": true, "scope": "per_symbol"}],
		"combine_policy": "weighted_sum",
		"smoothing_lambda": 0.3,
		"rebalance_threshold": 0.02,
		"min_notional": 10,
		"lot_sizes": {"BTCUSDT": "0.0001"}
	}`
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, cfg.Universe)
	assert.Equal(t, 0.3, cfg.SmoothingLambda)
	require.Len(t, cfg.Strategies, 1)
	assert.True(t, cfg.Strategies[0].LongOnly)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfigMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
