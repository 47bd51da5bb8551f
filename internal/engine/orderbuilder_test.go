package engine

import (
	"math"
	"testing"

	"binance-ensemble-bot-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSingleBuy(t *testing.T) {
	b := NewOrderBuilder(10, map[string]string{"BTCUSDT": "0.0001"})
	orders, outcomes := b.Build(BuildInput{
		Targets:    map[string]float64{"BTCUSDT": 0.6},
		Current:    map[string]float64{"BTCUSDT": 0.4},
		TotalValue: 10000,
		Prices:     map[string]float64{"BTCUSDT": 50000},
		Holdings:   map[string]float64{"BTCUSDT": 0.08},
	})

	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, "BTCUSDT", o.Symbol)
	assert.Equal(t, models.Buy, o.Side)
	assert.InDelta(t, 0.04, o.Quantity, 1e-12)
	assert.InDelta(t, 2000.0, o.Notional, 1e-6)

	require.Len(t, outcomes, 1)
	assert.Equal(t, models.DispositionSubmitted, outcomes[0].Disposition)
}

// A tiny target on a coarse lot grid truncates to a dust quantity whose
// notional falls under the exchange minimum; the order is skipped, not errored.
func TestBuildMinNotionalSkip(t *testing.T) {
	b := NewOrderBuilder(10, map[string]string{"ADAUSDT": "1.0"})
	orders, outcomes := b.Build(BuildInput{
		Targets:    map[string]float64{"ADAUSDT": 0.001},
		Current:    map[string]float64{},
		TotalValue: 1000,
		Prices:     map[string]float64{"ADAUSDT": 0.5},
		Holdings:   map[string]float64{},
	})

	assert.Empty(t, orders)
	require.Len(t, outcomes, 1)
	assert.Equal(t, models.DispositionSkipped, outcomes[0].Disposition)
	assert.InDelta(t, 2.0, outcomes[0].Order.Quantity, 1e-12)
	assert.NotEmpty(t, outcomes[0].Reason)
}

func TestBuildSellCappedAtHoldings(t *testing.T) {
	b := NewOrderBuilder(10, map[string]string{"BTCUSDT": "0.0001"})
	orders, _ := b.Build(BuildInput{
		Targets:    map[string]float64{"BTCUSDT": 0.0},
		Current:    map[string]float64{"BTCUSDT": 0.5},
		TotalValue: 10000,
		Prices:     map[string]float64{"BTCUSDT": 50000},
		Holdings:   map[string]float64{"BTCUSDT": 0.004},
	})

	// Raw delta asks for 0.1 BTC but only 0.004 is held.
	require.Len(t, orders, 1)
	assert.Equal(t, models.Sell, orders[0].Side)
	assert.InDelta(t, 0.004, orders[0].Quantity, 1e-12)
}

func TestBuildSkipsMissingPrice(t *testing.T) {
	b := NewOrderBuilder(10, map[string]string{"BTCUSDT": "0.0001"})
	orders, outcomes := b.Build(BuildInput{
		Targets:    map[string]float64{"BTCUSDT": 0.5},
		Current:    map[string]float64{},
		TotalValue: 10000,
		Prices:     map[string]float64{},
		Holdings:   map[string]float64{},
	})

	assert.Empty(t, orders)
	require.Len(t, outcomes, 1)
	assert.Equal(t, models.DispositionSkipped, outcomes[0].Disposition)
}

func TestBuildSkipsMissingLotSize(t *testing.T) {
	b := NewOrderBuilder(10, map[string]string{})
	orders, outcomes := b.Build(BuildInput{
		Targets:    map[string]float64{"ETHUSDT": 0.5},
		Current:    map[string]float64{},
		TotalValue: 10000,
		Prices:     map[string]float64{"ETHUSDT": 3000},
		Holdings:   map[string]float64{},
	})

	assert.Empty(t, orders)
	require.Len(t, outcomes, 1)
	assert.Equal(t, models.DispositionSkipped, outcomes[0].Disposition)
}

func TestBuildIgnoresZeroDelta(t *testing.T) {
	b := NewOrderBuilder(10, map[string]string{"BTCUSDT": "0.0001"})
	orders, outcomes := b.Build(BuildInput{
		Targets:    map[string]float64{"BTCUSDT": 0.5},
		Current:    map[string]float64{"BTCUSDT": 0.5},
		TotalValue: 10000,
		Prices:     map[string]float64{"BTCUSDT": 50000},
		Holdings:   map[string]float64{"BTCUSDT": 0.1},
	})
	assert.Empty(t, orders)
	assert.Empty(t, outcomes)
}

func TestTruncateToStep(t *testing.T) {
	cases := []struct {
		value    float64
		step     string
		expected float64
	}{
		{0.04, "0.0001", 0.04},
		{2.0, "1.0", 2},
		{2.7, "1.0", 2},
		{0.0009, "0.001", 0},
		{5.5, "0.5", 5.5},
		{5.7, "0.5", 5.5},
		{0, "0.1", 0},
	}
	for _, c := range cases {
		got, err := TruncateToStep(c.value, c.step)
		require.NoError(t, err)
		assert.InDelta(t, c.expected, got, 1e-12, "value=%v step=%s", c.value, c.step)
	}
}

func TestTruncateToStepInvalid(t *testing.T) {
	_, err := TruncateToStep(1.0, "abc")
	assert.Error(t, err)
	_, err = TruncateToStep(1.0, "0")
	assert.Error(t, err)
}

// Every surviving order quantity must be an exact multiple of its step.
func TestBuildQuantitiesAlignedToStep(t *testing.T) {
	b := NewOrderBuilder(1, map[string]string{"BTCUSDT": "0.0001", "ETHUSDT": "0.001"})
	orders, _ := b.Build(BuildInput{
		Targets:    map[string]float64{"BTCUSDT": 0.37, "ETHUSDT": 0.21},
		Current:    map[string]float64{},
		TotalValue: 12345.67,
		Prices:     map[string]float64{"BTCUSDT": 47123.5, "ETHUSDT": 2987.3},
		Holdings:   map[string]float64{},
	})

	steps := map[string]float64{"BTCUSDT": 0.0001, "ETHUSDT": 0.001}
	require.Len(t, orders, 2)
	for _, o := range orders {
		ratio := o.Quantity / steps[o.Symbol]
		assert.InDelta(t, math.Round(ratio), ratio, 1e-6, "%s quantity off the lot grid", o.Symbol)
	}
}
