package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
)

var csvHeader = []string{"open_time", "open", "high", "low", "close", "volume"}

// KlineDownloader 用于从币安下载回测所需的K线数据
type KlineDownloader struct {
	client *binance.Client
}

// NewKlineDownloader 创建一个新的下载器实例
func NewKlineDownloader() *KlineDownloader {
	return &KlineDownloader{
		client: binance.NewClient("", ""), // 公共接口不需要API Key
	}
}

// DownloadKlines 下载指定交易对和时间范围内的K线数据，并保存到CSV文件。
// 如果文件已存在，则会跳过下载，直接使用缓存。
func (d *KlineDownloader) DownloadKlines(symbol, interval, filePath string, startTime, endTime time.Time) error {
	if _, err := os.Stat(filePath); !os.IsNotExist(err) {
		return nil // 文件已存在，直接使用缓存
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("无法创建目录 %s: %w", filepath.Dir(filePath), err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("无法创建文件 %s: %w", filePath, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("写入CSV表头失败: %w", err)
	}

	for t := startTime; t.Before(endTime); {
		klines, err := d.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(t.UnixMilli()).
			EndTime(endTime.UnixMilli()).
			Limit(1000).
			Do(context.Background())
		if err != nil {
			return fmt.Errorf("下载 %s K线失败: %w", symbol, err)
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			row := []string{
				strconv.FormatInt(k.OpenTime, 10),
				k.Open, k.High, k.Low, k.Close, k.Volume,
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("写入CSV记录失败: %w", err)
			}
		}

		last := klines[len(klines)-1]
		t = msToTime(last.CloseTime).Add(time.Millisecond)
		// 限速，避免触发交易所的权重限制
		time.Sleep(200 * time.Millisecond)
	}
	return nil
}

// LoadCandlesCSV 读取下载器产出的CSV文件
func LoadCandlesCSV(filePath string) ([]Candle, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取CSV失败: %w", err)
	}
	if len(records) <= 1 {
		return nil, fmt.Errorf("%s 为空或只有表头", filePath)
	}

	candles := make([]Candle, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 6 {
			return nil, fmt.Errorf("%s 第 %d 行字段不足", filePath, i+2)
		}
		ms, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s 第 %d 行时间戳非法: %w", filePath, i+2, err)
		}
		c := Candle{OpenTime: msToTime(ms)}
		fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
		for j, dst := range fields {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s 第 %d 行价格非法: %w", filePath, i+2, err)
			}
			*dst = v
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}
