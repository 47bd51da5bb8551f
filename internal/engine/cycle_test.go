package engine

import (
	"testing"
	"time"

	"binance-ensemble-bot-go/internal/market"
	"binance-ensemble-bot-go/internal/models"
	"binance-ensemble-bot-go/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func cycleSnapshot(t *testing.T) *market.Snapshot {
	t.Helper()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 102, 104, 106, 108, 110}
	candles := make([]market.Candle, len(closes))
	for i, c := range closes {
		candles[i] = market.Candle{
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     c, High: c + 1, Low: c - 1, Close: c, Volume: 100,
		}
	}
	snap, err := market.BuildSnapshot(map[string][]market.Candle{"BTCUSDT": candles})
	require.NoError(t, err)
	return snap
}

func cycleConfig() *models.Config {
	return &models.Config{
		CombinePolicy:      models.PolicyWeightedSum,
		SmoothingLambda:    1.0,
		RebalanceThreshold: 0.02,
		MinNotional:        10,
		LotSizes:           map[string]string{"BTCUSDT": "0.0001"},
	}
}

func TestRunCycleFreshAccountBuys(t *testing.T) {
	members, err := strategy.Build([]models.StrategyConfig{{
		Name:     "momentum",
		Weight:   1,
		LongOnly: true,
		Scope:    models.ScopePerSymbol,
		Params:   map[string]float64{"lookback": 5, "scale": 0.1},
	}})
	require.NoError(t, err)

	eng := NewEngine(cycleConfig(), members, nil, zap.NewNop().Sugar())
	acct := &models.Account{Cash: 1000, Holdings: map[string]models.Holding{}}

	report := eng.RunCycle(cycleSnapshot(t), acct)

	// 10% momentum over the lookback saturates the signal at 1.0; with λ=1 the
	// target weight tracks it directly and the all-cash account must rebalance.
	assert.InDelta(t, 1.0, report.Targets["BTCUSDT"], 1e-9)
	assert.True(t, report.Rebalanced)
	require.Len(t, report.Orders, 1)
	assert.Equal(t, models.Buy, report.Orders[0].Side)
	assert.InDelta(t, 110.0, report.Orders[0].Price, 1e-9)

	state := eng.StateSnapshot()
	assert.Equal(t, int64(1), state.CycleCount)
	assert.InDelta(t, 1.0, state.Weights["BTCUSDT"], 1e-9)
}

func TestRunCycleBelowThresholdDoesNotTrade(t *testing.T) {
	members, err := strategy.Build([]models.StrategyConfig{{
		Name:     "momentum",
		Weight:   1,
		LongOnly: true,
		Scope:    models.ScopePerSymbol,
		Params:   map[string]float64{"lookback": 5, "scale": 0.1},
	}})
	require.NoError(t, err)

	eng := NewEngine(cycleConfig(), members, nil, zap.NewNop().Sugar())
	// Account already fully positioned at the target weight.
	acct := &models.Account{
		Cash: 0,
		Holdings: map[string]models.Holding{
			"BTCUSDT": {Quantity: 0.01, LastPrice: 110},
		},
	}

	report := eng.RunCycle(cycleSnapshot(t), acct)

	assert.False(t, report.Rebalanced)
	assert.Empty(t, report.Orders)
	assert.Less(t, report.Distance, 0.02)
}

func TestStateSnapshotIsDeepCopy(t *testing.T) {
	eng := NewEngine(cycleConfig(), nil, nil, zap.NewNop().Sugar())
	first := eng.StateSnapshot()
	first.Weights["BTCUSDT"] = 0.9

	second := eng.StateSnapshot()
	_, leaked := second.Weights["BTCUSDT"]
	assert.False(t, leaked, "mutating a snapshot must not touch engine state")
}

func TestNewEngineRestoresState(t *testing.T) {
	prior := models.NewEngineState("ensemble")
	prior.Weights = map[string]float64{"BTCUSDT": 0.4}
	prior.CycleCount = 7

	eng := NewEngine(cycleConfig(), nil, prior, zap.NewNop().Sugar())
	state := eng.StateSnapshot()
	assert.Equal(t, int64(7), state.CycleCount)
	assert.InDelta(t, 0.4, state.Weights["BTCUSDT"], 1e-12)
}
