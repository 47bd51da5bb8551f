package engine

import (
	"sync"
	"time"

	"binance-ensemble-bot-go/internal/market"
	"binance-ensemble-bot-go/internal/models"
	"binance-ensemble-bot-go/internal/strategy"

	"go.uber.org/zap"
)

// CycleReport 是一个再平衡周期留下的完整可解释记录:
// 目标权重、当前权重、L1距离、以及每个候选订单的处置。
type CycleReport struct {
	Timestamp    time.Time
	Signals      []MemberSignals
	Targets      map[string]float64
	Current      map[string]float64
	CashFraction float64
	TotalValue   float64
	Distance     float64
	Rebalanced   bool
	Orders       []models.TradeOrder
	Outcomes     []models.OrderOutcome
}

// Engine 是信号集合与再平衡引擎的核心。
// 一次RunCycle对应一个完整的同步流水线:
// 策略求值 → 归一化 → 合并 → 平滑 → 对比当前持仓 → 订单构建。
// 周期之间唯一携带的可变状态是平滑后的权重向量。
type Engine struct {
	policy    string
	threshold float64
	members   []*strategy.Member
	smoother  *Smoother
	builder   *OrderBuilder

	mu    sync.Mutex // 串行化周期: 上一周期的状态变更完成前新周期不得开始
	state *models.EngineState

	logger *zap.SugaredLogger
}

// NewEngine 创建引擎。state为nil时从全新状态启动。
func NewEngine(cfg *models.Config, members []*strategy.Member, state *models.EngineState, logger *zap.SugaredLogger) *Engine {
	if state == nil {
		state = models.NewEngineState("ensemble")
	}
	if state.Weights == nil {
		state.Weights = make(map[string]float64)
	}
	return &Engine{
		policy:    cfg.CombinePolicy,
		threshold: cfg.RebalanceThreshold,
		members:   members,
		smoother:  NewSmoother(cfg.SmoothingLambda),
		builder:   NewOrderBuilder(cfg.MinNotional, cfg.LotSizes),
		state:     state,
		logger:    logger,
	}
}

// RunCycle 对一份不可变的历史快照和账户快照执行一个完整周期。
// 平滑状态在本方法内恰好变更一次；互斥锁保证周期不重叠。
func (e *Engine) RunCycle(snap *market.Snapshot, acct *models.Account) *CycleReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := &CycleReport{Timestamp: time.Now()}

	// 策略是同一快照上的纯函数，可以并行求值（无共享可变状态）
	report.Signals = e.evaluateMembers(snap)

	combined := Combine(report.Signals, e.policy, snap.Symbols())
	e.state.Weights = e.smoother.Apply(e.state.Weights, combined)
	e.state.CycleCount++
	e.state.LastUpdateTime = report.Timestamp
	report.Targets = e.state.CloneWeights()

	portfolio := ResolvePortfolio(acct)
	if portfolio.TotalValue <= 0 {
		e.logger.Warnf("账户总价值非正 (%.4f)，当前权重按全零处理", portfolio.TotalValue)
	}
	report.Current = portfolio.Weights
	report.CashFraction = portfolio.CashFraction
	report.TotalValue = portfolio.TotalValue

	report.Distance = L1Distance(report.Targets, report.Current)
	if !ShouldRebalance(report.Distance, e.threshold) {
		e.logger.Infof("L1距离 %.6f 低于阈值 %.6f，本周期不交易", report.Distance, e.threshold)
		return report
	}
	report.Rebalanced = true

	report.Orders, report.Outcomes = e.builder.Build(BuildInput{
		Targets:    report.Targets,
		Current:    report.Current,
		TotalValue: portfolio.TotalValue,
		Prices:     resolvePrices(snap, acct, report.Targets, report.Current),
		Holdings:   holdingQuantities(acct),
	})
	return report
}

// evaluateMembers 并发地对全部成员求值，输出顺序与配置顺序一致
func (e *Engine) evaluateMembers(snap *market.Snapshot) []MemberSignals {
	signals := make([]MemberSignals, len(e.members))

	var wg sync.WaitGroup
	for i, m := range e.members {
		wg.Add(1)
		go func(i int, m *strategy.Member) {
			defer wg.Done()
			signals[i] = MemberSignals{
				Name:    m.Name(),
				Weight:  m.Weight(),
				Samples: m.Signals(snap),
			}
		}(i, m)
	}
	wg.Wait()
	return signals
}

// StateSnapshot 返回平滑状态的深拷贝，供持久化层安全读取
func (e *Engine) StateSnapshot() *models.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := *e.state
	snapshot.Weights = e.state.CloneWeights()
	return &snapshot
}

// resolvePrices 汇总订单定价所需的最新价: 优先账户快照，其次历史快照收盘价
func resolvePrices(snap *market.Snapshot, acct *models.Account, targets, current map[string]float64) map[string]float64 {
	prices := make(map[string]float64)
	for _, symbol := range unionSymbols(targets, current) {
		if h, ok := acct.Holdings[symbol]; ok && h.LastPrice > 0 {
			prices[symbol] = h.LastPrice
			continue
		}
		if close, ok := snap.LastClose(symbol); ok {
			prices[symbol] = close
		}
	}
	return prices
}

func holdingQuantities(acct *models.Account) map[string]float64 {
	held := make(map[string]float64, len(acct.Holdings))
	for symbol, h := range acct.Holdings {
		held[symbol] = h.Quantity
	}
	return held
}
