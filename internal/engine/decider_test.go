package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestL1DistanceUnion(t *testing.T) {
	a := map[string]float64{"AAAUSDT": 0.5}
	b := map[string]float64{"BBBUSDT": 0.2}
	// Symbols present on only one side contribute their full weight.
	assert.InDelta(t, 0.7, L1Distance(a, b), 1e-9)
}

func TestL1DistanceIdentical(t *testing.T) {
	a := map[string]float64{"BTCUSDT": 0.5, "ETHUSDT": 0.3}
	assert.Equal(t, 0.0, L1Distance(a, a))
}

func TestShouldRebalanceThreshold(t *testing.T) {
	target := map[string]float64{"BTCUSDT": 0.5, "ETHUSDT": 0.3}
	current := map[string]float64{"BTCUSDT": 0.5, "ETHUSDT": 0.3}

	d := L1Distance(target, current)
	assert.False(t, ShouldRebalance(d, 0.02), "matching weights must not trade")

	current["ETHUSDT"] = 0.27
	d = L1Distance(target, current)
	assert.True(t, ShouldRebalance(d, 0.02))
}

func TestShouldRebalanceBoundaryInclusive(t *testing.T) {
	assert.True(t, ShouldRebalance(0.02, 0.02), "distance equal to threshold triggers a rebalance")
	assert.False(t, ShouldRebalance(0.019999, 0.02))
}
