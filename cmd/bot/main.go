package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"binance-ensemble-bot-go/internal/bot"
	"binance-ensemble-bot-go/internal/config"
	"binance-ensemble-bot-go/internal/engine"
	"binance-ensemble-bot-go/internal/exchange"
	"binance-ensemble-bot-go/internal/journal"
	"binance-ensemble-bot-go/internal/logger"
	"binance-ensemble-bot-go/internal/market"
	"binance-ensemble-bot-go/internal/models"
	"binance-ensemble-bot-go/internal/persistence"
	"binance-ensemble-bot-go/internal/reporter"
	"binance-ensemble-bot-go/internal/strategy"

	"github.com/adshao/go-binance/v2"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the config file")
	mode := flag.String("mode", "live", "running mode: live or backtest")
	startDate := flag.String("start", "", "start date for backtest data download (YYYY-MM-DD)")
	endDate := flag.String("end", "", "end date for backtest data download (YYYY-MM-DD)")
	flag.Parse()

	// 提前用默认配置初始化日志，保证加载.env和配置文件时就能记录
	logger.InitLogger(models.LogConfig{Level: "info", Output: "console"})

	if err := godotenv.Load(); err != nil {
		logger.S().Info("未找到 .env 文件，将从系统环境变量中读取。")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.S().Fatalf("无法加载配置文件: %v", err)
	}

	logger.InitLogger(cfg.LogConfig)
	defer logger.S().Sync()

	switch *mode {
	case "live":
		runLiveMode(cfg)
	case "backtest":
		runBacktestMode(cfg, *startDate, *endDate)
	default:
		logger.S().Fatalf("未知的运行模式: %s。请选择 'live' 或 'backtest'。", *mode)
	}
}

// runLiveMode 运行实时再平衡机器人
func runLiveMode(cfg *models.Config) {
	logger.S().Info("--- 启动实时交易模式 ---")

	apiKey := os.Getenv("BINANCE_API_KEY")
	secretKey := os.Getenv("BINANCE_SECRET_KEY")
	if apiKey == "" || secretKey == "" {
		logger.S().Fatal("错误：BINANCE_API_KEY 和 BINANCE_SECRET_KEY 环境变量必须被设置。")
	}

	if cfg.IsTestnet {
		cfg.BaseURL = cfg.TestnetAPIURL
		cfg.WSBaseURL = cfg.TestnetWSURL
		logger.S().Info("正在使用币安测试网...")
	} else {
		cfg.BaseURL = cfg.LiveAPIURL
		cfg.WSBaseURL = cfg.LiveWSURL
	}

	liveExchange, err := exchange.NewLiveExchange(apiKey, secretKey, cfg.BaseURL, cfg.WSBaseURL,
		cfg.QuoteAsset, cfg.Universe, logger.S())
	if err != nil {
		logger.S().Fatalf("初始化交易所失败: %v", err)
	}
	defer liveExchange.Close()

	// 用交易所的真实规则覆盖配置中的步长表，配置值只做兜底
	refreshLotSizes(cfg, liveExchange)

	dataClient := binance.NewClient("", "")
	if cfg.BaseURL != "" {
		dataClient.BaseURL = cfg.BaseURL
	}
	provider := market.NewBinanceProvider(dataClient, cfg.Universe, cfg.KlineInterval, cfg.KlineLimit)

	repo, err := persistence.NewBadgerRepository(cfg.DBPath)
	if err != nil {
		logger.S().Fatalf("打开状态数据库失败: %v", err)
	}
	defer repo.Close()

	state, err := repo.LoadState()
	if err != nil {
		logger.S().Fatalf("加载引擎状态失败: %v", err)
	}
	if state != nil {
		logger.S().Infof("从数据库恢复平滑状态: %d 个交易对, 已完成 %d 个周期。", len(state.Weights), state.CycleCount)
	}

	jr, err := journal.Open(cfg.JournalPath)
	if err != nil {
		logger.S().Fatalf("打开成交流水失败: %v", err)
	}
	defer jr.Close()

	members, err := strategy.Build(cfg.Strategies)
	if err != nil {
		logger.S().Fatalf("构建策略集合失败: %v", err)
	}

	eng := engine.NewEngine(cfg, members, state, logger.S())
	ensembleBot := bot.NewEnsembleBot(cfg, eng, provider, liveExchange, repo, jr, logger.S())

	if err := ensembleBot.Start(); err != nil {
		logger.S().Fatalf("机器人启动失败: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ensembleBot.Stop()
	logger.S().Info("机器人已成功停止，状态已保存。")
}

// refreshLotSizes 用交易所规则刷新步长表
func refreshLotSizes(cfg *models.Config, ex exchange.Exchange) {
	rules, err := ex.GetSymbolRules(cfg.Universe)
	if err != nil {
		logger.S().Warnf("拉取交易规则失败，使用配置中的步长表: %v", err)
		return
	}
	if cfg.LotSizes == nil {
		cfg.LotSizes = make(map[string]string, len(rules))
	}
	for symbol, r := range rules {
		if r.StepSize != "" {
			cfg.LotSizes[symbol] = r.StepSize
		}
	}
}

// runBacktestMode 运行回测模式：下载（或读取缓存的）K线后逐根回放
func runBacktestMode(cfg *models.Config, startDate, endDate string) {
	logger.S().Info("--- 启动回测模式 ---")

	if startDate != "" && endDate != "" {
		if err := downloadBacktestData(cfg, startDate, endDate); err != nil {
			logger.S().Fatal(err)
		}
	}

	candles := make(map[string][]market.Candle, len(cfg.Universe))
	for _, symbol := range cfg.Universe {
		cs, err := market.LoadCandlesCSV(dataFile(cfg, symbol))
		if err != nil {
			logger.S().Fatalf("加载 %s 回测数据失败: %v", symbol, err)
		}
		candles[symbol] = cs
	}

	replay, err := market.NewReplayProvider(candles, cfg.KlineLimit)
	if err != nil {
		logger.S().Fatalf("构建回放数据失败: %v", err)
	}

	backtestExchange := exchange.NewBacktestExchange(cfg)

	members, err := strategy.Build(cfg.Strategies)
	if err != nil {
		logger.S().Fatalf("构建策略集合失败: %v", err)
	}
	eng := engine.NewEngine(cfg, members, nil, logger.S())
	ensembleBot := bot.NewEnsembleBot(cfg, eng, replay, backtestExchange, nil, nil, logger.S())

	startTime := replay.CurrentTime()
	logger.S().Info("开始回测...")
	for {
		backtestExchange.SetPrices(replay.CurrentPrices(), replay.CurrentTime())
		if _, err := ensembleBot.RunOnce(context.Background()); err != nil {
			logger.S().Fatalf("回测周期执行失败: %v", err)
		}
		if !replay.Advance() {
			break
		}
	}
	logger.S().Info("回测结束。")

	reporter.GenerateReport(backtestExchange, startTime, replay.CurrentTime())
}

func downloadBacktestData(cfg *models.Config, startDate, endDate string) error {
	startTime, err1 := time.Parse("2006-01-02", startDate)
	endTime, err2 := time.Parse("2006-01-02", endDate)
	if err1 != nil || err2 != nil {
		return fmt.Errorf("日期格式错误，请使用 YYYY-MM-DD 格式。start: %v, end: %v", err1, err2)
	}

	downloader := market.NewKlineDownloader()
	for _, symbol := range cfg.Universe {
		logger.S().Infof("下载 %s 从 %s 到 %s 的K线数据...", symbol, startDate, endDate)
		if err := downloader.DownloadKlines(symbol, cfg.KlineInterval, dataFile(cfg, symbol), startTime, endTime); err != nil {
			return fmt.Errorf("下载 %s 数据失败: %w", symbol, err)
		}
	}
	return nil
}

func dataFile(cfg *models.Config, symbol string) string {
	dir := cfg.DataDir
	if dir == "" {
		dir = "data"
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.csv", symbol, cfg.KlineInterval))
}
