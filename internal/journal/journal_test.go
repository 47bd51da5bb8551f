package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"binance-ensemble-bot-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestJournalHeaderAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	j, err := Open(path)
	require.NoError(t, err)

	rec := models.TradeRecord{
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Symbol:    "BTCUSDT",
		Side:      models.Buy,
		Quantity:  0.04,
		Price:     50000,
		Notional:  2000,
	}
	require.NoError(t, j.Append(rec))
	require.NoError(t, j.Close())

	rows := readAll(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"timestamp", "symbol", "side", "quantity", "price", "notional"}, rows[0])
	assert.Equal(t, "2025-01-02T03:04:05Z", rows[1][0])
	assert.Equal(t, "BTCUSDT", rows[1][1])
	assert.Equal(t, "BUY", rows[1][2])
	assert.Equal(t, "0.04", rows[1][3])
	assert.Equal(t, "50000", rows[1][4])
	assert.Equal(t, "2000", rows[1][5])
}

// Reopening an existing journal must append after the old rows without
// writing a second header.
func TestJournalReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(models.TradeRecord{
		Timestamp: time.Now(), Symbol: "BTCUSDT", Side: models.Buy, Quantity: 1, Price: 2, Notional: 2,
	}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(models.TradeRecord{
		Timestamp: time.Now(), Symbol: "ETHUSDT", Side: models.Sell, Quantity: 3, Price: 4, Notional: 12,
	}))
	require.NoError(t, j.Close())

	rows := readAll(t, path)
	require.Len(t, rows, 3, "one header plus two records")
	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, "BTCUSDT", rows[1][1])
	assert.Equal(t, "ETHUSDT", rows[2][1])
}

func TestJournalCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "trades.csv")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
