package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"binance-ensemble-bot-go/internal/models"
)

var header = []string{"timestamp", "symbol", "side", "quantity", "price", "notional"}

// Journal is the append-only CSV trade log: one record per executed order.
// Records are flushed on every append so a crash never loses confirmed fills.
type Journal struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// Open opens (or creates) the journal file and writes the header for new files.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("无法创建日志目录 %s: %w", dir, err)
		}
	}

	info, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr) || (statErr == nil && info.Size() == 0)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	j := &Journal{file: file, writer: csv.NewWriter(file)}
	if fresh {
		if err := j.writer.Write(header); err != nil {
			file.Close()
			return nil, err
		}
		j.writer.Flush()
	}
	return j, j.writer.Error()
}

// Append writes one executed trade to the journal.
func (j *Journal) Append(rec models.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	row := []string{
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.Symbol,
		string(rec.Side),
		strconv.FormatFloat(rec.Quantity, 'f', -1, 64),
		strconv.FormatFloat(rec.Price, 'f', -1, 64),
		strconv.FormatFloat(rec.Notional, 'f', -1, 64),
	}
	if err := j.writer.Write(row); err != nil {
		return err
	}
	j.writer.Flush()
	return j.writer.Error()
}

// Close flushes and closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.writer.Flush()
	if err := j.writer.Error(); err != nil {
		j.file.Close()
		return err
	}
	return j.file.Close()
}
