package persistence

import (
	"testing"
	"time"

	"binance-ensemble-bot-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) StateRepository {
	t.Helper()
	repo, err := NewBadgerRepository(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAndLoadState(t *testing.T) {
	repo := newTestRepo(t)

	state := models.NewEngineState("ensemble")
	state.Weights = map[string]float64{"BTCUSDT": 0.6, "ETHUSDT": 0.4}
	state.CycleCount = 42
	state.LastUpdateTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveState(state))

	loaded, err := repo.LoadState()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "ensemble", loaded.BotID)
	assert.Equal(t, int64(42), loaded.CycleCount)
	assert.InDelta(t, 0.6, loaded.Weights["BTCUSDT"], 1e-12)
	assert.InDelta(t, 0.4, loaded.Weights["ETHUSDT"], 1e-12)
	assert.True(t, loaded.LastUpdateTime.Equal(state.LastUpdateTime))
}

// A fresh database has no state; that is a normal cold start, not an error.
func TestLoadStateMissingKey(t *testing.T) {
	repo := newTestRepo(t)

	loaded, err := repo.LoadState()
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveStateOverwrites(t *testing.T) {
	repo := newTestRepo(t)

	first := models.NewEngineState("ensemble")
	first.Weights = map[string]float64{"BTCUSDT": 0.5}
	require.NoError(t, repo.SaveState(first))

	second := models.NewEngineState("ensemble")
	second.Weights = map[string]float64{"BTCUSDT": 0.9}
	second.CycleCount = 2
	require.NoError(t, repo.SaveState(second))

	loaded, err := repo.LoadState()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(2), loaded.CycleCount)
	assert.InDelta(t, 0.9, loaded.Weights["BTCUSDT"], 1e-12)
}
