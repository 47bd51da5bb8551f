package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"binance-ensemble-bot-go/internal/engine"
	"binance-ensemble-bot-go/internal/exchange"
	"binance-ensemble-bot-go/internal/journal"
	"binance-ensemble-bot-go/internal/market"
	"binance-ensemble-bot-go/internal/models"
	"binance-ensemble-bot-go/internal/persistence"
	"binance-ensemble-bot-go/internal/reporter"

	"go.uber.org/zap"
)

// EnsembleBot 是再平衡机器人的外层驱动：
// 按固定间隔触发一个完整周期，把引擎产出的订单逐笔提交给交易所，
// 并负责成交流水与平滑状态的落盘。引擎本身保持纯计算。
type EnsembleBot struct {
	cfg      *models.Config
	engine   *engine.Engine
	provider market.Provider
	exchange exchange.Exchange
	repo     persistence.StateRepository
	journal  *journal.Journal
	logger   *zap.SugaredLogger

	isRunning   bool
	mutex       sync.Mutex
	stopChannel chan struct{}
	cycleBusy   int32 // 周期进行中标记，调度重叠时跳过而不是并发执行
}

// NewEnsembleBot 创建机器人实例。repo和journal可以为nil（回测中常见）。
func NewEnsembleBot(cfg *models.Config, eng *engine.Engine, provider market.Provider,
	ex exchange.Exchange, repo persistence.StateRepository, jr *journal.Journal,
	logger *zap.SugaredLogger) *EnsembleBot {
	return &EnsembleBot{
		cfg:         cfg,
		engine:      eng,
		provider:    provider,
		exchange:    ex,
		repo:        repo,
		journal:     jr,
		logger:      logger,
		stopChannel: make(chan struct{}),
	}
}

// Start 启动调度循环。启动前做一次时钟校验，偏差过大直接拒绝启动。
func (b *EnsembleBot) Start() error {
	b.mutex.Lock()
	if b.isRunning {
		b.mutex.Unlock()
		return fmt.Errorf("机器人已在运行")
	}
	b.isRunning = true
	b.stopChannel = make(chan struct{})
	b.mutex.Unlock()

	serverTime, err := b.exchange.GetServerTime()
	if err != nil {
		return fmt.Errorf("获取服务器时间失败: %w", err)
	}
	if diff := serverTime - time.Now().UnixMilli(); diff > 1000 || diff < -1000 {
		return fmt.Errorf("系统时间与服务器时间偏差 %d ms，请先同步时钟(NTP)", diff)
	}

	go b.scheduleLoop()
	b.logger.Info("再平衡机器人已启动。")
	return nil
}

// scheduleLoop 是外部调度器：固定间隔触发周期，立即执行第一轮
func (b *EnsembleBot) scheduleLoop() {
	interval := time.Duration(b.cfg.IntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.tick()
	for {
		select {
		case <-b.stopChannel:
			return
		case <-ticker.C:
			b.tick()
		}
	}
}

// tick 执行一轮周期；上一轮尚未结束时跳过本次调度（周期必须串行）
func (b *EnsembleBot) tick() {
	if !atomic.CompareAndSwapInt32(&b.cycleBusy, 0, 1) {
		b.logger.Warn("上一周期尚未完成，跳过本次调度。")
		return
	}
	defer atomic.StoreInt32(&b.cycleBusy, 0)

	if _, err := b.RunOnce(context.Background()); err != nil {
		b.logger.Errorf("周期执行失败: %v", err)
	}
}

// RunOnce 执行一个完整周期: 拉取数据 → 引擎计算 → 提交订单 → 落盘。
// 回测驱动器也直接调用本方法，保证实盘与回测走完全相同的路径。
func (b *EnsembleBot) RunOnce(ctx context.Context) (*engine.CycleReport, error) {
	snap, err := b.provider.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取行情快照失败: %w", err)
	}
	acct, err := b.exchange.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("获取账户快照失败: %w", err)
	}

	report := b.engine.RunCycle(snap, acct)
	b.submitOrders(report)
	b.persistState()
	reporter.RenderCycle(report)
	return report, nil
}

// submitOrders 逐笔提交订单。单笔失败只影响该笔（标记为REJECTED），
// 不回滚也不阻塞同周期的其他订单；核心内不做重试。
func (b *EnsembleBot) submitOrders(report *engine.CycleReport) {
	outcomeIndex := make(map[string]int, len(report.Outcomes))
	for i, o := range report.Outcomes {
		if o.Disposition == models.DispositionSubmitted {
			outcomeIndex[o.Order.Symbol] = i
		}
	}

	for _, order := range report.Orders {
		placed, err := b.exchange.PlaceMarketOrder(order.Symbol, order.Side, order.Quantity)
		if err != nil {
			b.logger.Warnf("订单被拒绝 %s %s %.8f: %v", order.Side, order.Symbol, order.Quantity, err)
			if i, ok := outcomeIndex[order.Symbol]; ok {
				report.Outcomes[i].Disposition = models.DispositionRejected
				report.Outcomes[i].Reason = err.Error()
			}
			continue
		}

		fillPrice := placed.Price
		if fillPrice <= 0 {
			fillPrice = order.Price
		}
		b.logger.Infof("订单成交 %s %s %.8f @ %.8f", order.Side, order.Symbol, order.Quantity, fillPrice)

		if b.journal != nil {
			rec := models.TradeRecord{
				Timestamp: time.UnixMilli(placed.Time),
				Symbol:    order.Symbol,
				Side:      order.Side,
				Quantity:  order.Quantity,
				Price:     fillPrice,
				Notional:  order.Quantity * fillPrice,
			}
			if err := b.journal.Append(rec); err != nil {
				b.logger.Errorf("写入成交流水失败: %v", err)
			}
		}
	}
}

// persistState 在周期末尾保存平滑状态快照
func (b *EnsembleBot) persistState() {
	if b.repo == nil {
		return
	}
	if err := b.repo.SaveState(b.engine.StateSnapshot()); err != nil {
		b.logger.Errorf("保存引擎状态失败: %v", err)
	}
}

// Stop 停止调度循环并保存最终状态
func (b *EnsembleBot) Stop() {
	b.mutex.Lock()
	if !b.isRunning {
		b.mutex.Unlock()
		return
	}
	b.isRunning = false
	close(b.stopChannel)
	b.mutex.Unlock()

	b.persistState()
	b.logger.Info("再平衡机器人已停止。")
}
