package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmootherSteadyState(t *testing.T) {
	s := NewSmoother(0.3)
	state := map[string]float64{"BTCUSDT": 0.5}

	// Feeding the state's own value back must be a fixed point.
	next := s.Apply(state, map[string]float64{"BTCUSDT": 0.5})
	assert.InDelta(t, 0.5, next["BTCUSDT"], 1e-12)
}

func TestSmootherConvergesToTarget(t *testing.T) {
	s := NewSmoother(0.3)
	state := map[string]float64{"BTCUSDT": 0.0}

	for i := 0; i < 100; i++ {
		state = s.Apply(state, map[string]float64{"BTCUSDT": 0.8})
	}
	assert.InDelta(t, 0.8, state["BTCUSDT"], 1e-9)
}

func TestSmootherSeedsNewSymbolAtObservedValue(t *testing.T) {
	s := NewSmoother(0.3)
	state := map[string]float64{"BTCUSDT": 0.5}

	next := s.Apply(state, map[string]float64{"BTCUSDT": 0.5, "ETHUSDT": 0.4})
	// New symbols enter at full value rather than blending against an implied 0.
	assert.InDelta(t, 0.4, next["ETHUSDT"], 1e-12)
}

func TestSmootherDecaysMissingSymbol(t *testing.T) {
	s := NewSmoother(0.25)
	state := map[string]float64{"BTCUSDT": 0.5, "ETHUSDT": 0.4}

	next := s.Apply(state, map[string]float64{"BTCUSDT": 0.5})
	assert.InDelta(t, 0.3, next["ETHUSDT"], 1e-9)

	// Repeated absence shrinks the weight until it falls out of the state.
	for i := 0; i < 200; i++ {
		next = s.Apply(next, map[string]float64{"BTCUSDT": 0.5})
	}
	_, exists := next["ETHUSDT"]
	assert.False(t, exists, "decayed symbol must be dropped from the state vector")
}

func TestSmootherFullLambdaTracksInput(t *testing.T) {
	s := NewSmoother(1.0)
	state := map[string]float64{"BTCUSDT": 0.9}

	next := s.Apply(state, map[string]float64{"BTCUSDT": 0.1})
	assert.InDelta(t, 0.1, next["BTCUSDT"], 1e-12)
}
