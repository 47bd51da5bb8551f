package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"binance-ensemble-bot-go/internal/models"

	"github.com/adshao/go-binance/v2"
	"github.com/gorilla/websocket"
	"github.com/jxskiss/base62"
	"go.uber.org/zap"
)

// LiveExchange 实现了 Exchange 接口，用于与真实的币安现货接口交互。
// 最新价通过 miniTicker 推送维护在本地缓存中，REST 查询只做兜底。
type LiveExchange struct {
	client     *binance.Client
	wsBaseURL  string
	quoteAsset string
	universe   []string
	logger     *zap.SugaredLogger

	mu         sync.RWMutex
	lastPrices map[string]float64

	wsConn      *websocket.Conn
	stopChannel chan struct{}
	timeOffset  int64
}

// NewLiveExchange 创建一个新的 LiveExchange 实例，同步服务器时间并启动行情推送。
func NewLiveExchange(apiKey, secretKey, baseURL, wsBaseURL, quoteAsset string, universe []string, logger *zap.SugaredLogger) (*LiveExchange, error) {
	client := binance.NewClient(apiKey, secretKey)
	if baseURL != "" {
		client.BaseURL = baseURL
	}

	e := &LiveExchange{
		client:      client,
		wsBaseURL:   wsBaseURL,
		quoteAsset:  quoteAsset,
		universe:    universe,
		logger:      logger,
		lastPrices:  make(map[string]float64),
		stopChannel: make(chan struct{}),
	}

	if err := e.syncTime(); err != nil {
		return nil, fmt.Errorf("与币安服务器同步时间失败: %w", err)
	}

	go e.priceStreamLoop()
	return e, nil
}

// syncTime 与币安服务器同步时间，计算时间偏移。
func (e *LiveExchange) syncTime() error {
	serverTime, err := e.GetServerTime()
	if err != nil {
		return err
	}
	localTime := time.Now().UnixMilli()
	e.timeOffset = serverTime - localTime
	if e.timeOffset > 1000 || e.timeOffset < -1000 {
		e.logger.Warnf("系统时间与币安服务器偏差 %d ms，请检查NTP同步", e.timeOffset)
	}
	return nil
}

// GetServerTime 返回币安服务器时间(毫秒)
func (e *LiveExchange) GetServerTime() (int64, error) {
	return e.client.NewServerTimeService().Do(context.Background())
}

// GetAccount 拉取现货余额并换算为引擎所需的账户快照。
// 余额快照每周期都重新拉取，周期之间不缓存。
func (e *LiveExchange) GetAccount() (*models.Account, error) {
	res, err := e.client.NewGetAccountService().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("拉取账户余额失败: %w", err)
	}

	free := make(map[string]float64, len(res.Balances))
	for _, b := range res.Balances {
		f, _ := strconv.ParseFloat(b.Free, 64)
		l, _ := strconv.ParseFloat(b.Locked, 64)
		if f+l > 0 {
			free[b.Asset] = f + l
		}
	}

	acct := &models.Account{
		Cash:     free[e.quoteAsset],
		Holdings: make(map[string]models.Holding, len(e.universe)),
	}
	for _, symbol := range e.universe {
		base := strings.TrimSuffix(symbol, e.quoteAsset)
		qty := free[base]
		if qty <= 0 {
			continue
		}
		price, err := e.lastPrice(symbol)
		if err != nil {
			return nil, err
		}
		acct.Holdings[symbol] = models.Holding{Quantity: qty, LastPrice: price}
	}
	return acct, nil
}

// lastPrice 优先读取推送缓存，缓存未命中时走REST兜底
func (e *LiveExchange) lastPrice(symbol string) (float64, error) {
	e.mu.RLock()
	price, ok := e.lastPrices[symbol]
	e.mu.RUnlock()
	if ok && price > 0 {
		return price, nil
	}

	prices, err := e.client.NewListPricesService().Symbol(symbol).Do(context.Background())
	if err != nil || len(prices) == 0 {
		return 0, fmt.Errorf("获取 %s 最新价失败: %w", symbol, err)
	}
	price, err = strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("解析 %s 最新价失败: %w", symbol, err)
	}

	e.mu.Lock()
	e.lastPrices[symbol] = price
	e.mu.Unlock()
	return price, nil
}

// GetSymbolRules 从交易所规则中提取步长和最小名义价值
func (e *LiveExchange) GetSymbolRules(symbols []string) (map[string]models.SymbolRules, error) {
	info, err := e.client.NewExchangeInfoService().Symbols(symbols...).Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("拉取交易规则失败: %w", err)
	}

	rules := make(map[string]models.SymbolRules, len(info.Symbols))
	for _, s := range info.Symbols {
		r := models.SymbolRules{Symbol: s.Symbol}
		for _, f := range s.Filters {
			switch f["filterType"] {
			case "LOT_SIZE":
				if v, ok := f["stepSize"].(string); ok {
					r.StepSize = v
				}
			case "NOTIONAL", "MIN_NOTIONAL":
				if v, ok := f["minNotional"].(string); ok {
					r.MinNotional = v
				}
			}
		}
		rules[s.Symbol] = r
	}
	return rules, nil
}

// PlaceMarketOrder 提交市价单。客户端订单ID用base62编码的纳秒时间戳，保证周期内可追溯。
func (e *LiveExchange) PlaceMarketOrder(symbol string, side models.Side, quantity float64) (*models.Order, error) {
	res, err := e.client.NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideType(side)).
		Type(binance.OrderTypeMarket).
		Quantity(strconv.FormatFloat(quantity, 'f', -1, 64)).
		NewClientOrderID("ens-" + string(base62.FormatInt(time.Now().UnixNano()))).
		Do(context.Background())
	if err != nil {
		return nil, err
	}

	executedQty, _ := strconv.ParseFloat(res.ExecutedQuantity, 64)
	quoteQty, _ := strconv.ParseFloat(res.CummulativeQuoteQuantity, 64)
	order := &models.Order{
		Symbol:        res.Symbol,
		OrderId:       res.OrderID,
		ClientOrderId: res.ClientOrderID,
		ExecutedQty:   executedQty,
		Status:        string(res.Status),
		Side:          side,
		Time:          res.TransactTime,
	}
	if executedQty > 0 {
		order.Price = quoteQty / executedQty
	}
	return order, nil
}

// priceStreamLoop 是一个守护进程，负责维持行情推送的连接和重连
func (e *LiveExchange) priceStreamLoop() {
	for {
		select {
		case <-e.stopChannel:
			return
		default:
			if err := e.connectPriceStream(); err != nil {
				e.logger.Warnf("行情推送连接失败: %v。5秒后重试...", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if err := e.readPriceStream(); err != nil {
				e.logger.Warnf("行情推送中断: %v", err)
			}
			if e.wsConn != nil {
				e.wsConn.Close()
			}
			time.Sleep(5 * time.Second)
		}
	}
}

func (e *LiveExchange) connectPriceStream() error {
	streams := make([]string, 0, len(e.universe))
	for _, symbol := range e.universe {
		streams = append(streams, strings.ToLower(symbol)+"@miniTicker")
	}
	wsURL := fmt.Sprintf("%s/stream?streams=%s", e.wsBaseURL, strings.Join(streams, "/"))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	e.wsConn = conn
	return nil
}

// readPriceStream 为一个已建立的连接处理消息，并实现心跳机制
func (e *LiveExchange) readPriceStream() error {
	const (
		pongWait   = 60 * time.Second
		pingPeriod = (pongWait * 9) / 10
	)

	e.wsConn.SetReadDeadline(time.Now().Add(pongWait))
	e.wsConn.SetPongHandler(func(string) error {
		e.wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()
	pingStop := make(chan struct{})
	defer close(pingStop)

	go func() {
		for {
			select {
			case <-pingTicker.C:
				if err := e.wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingStop:
				return
			case <-e.stopChannel:
				return
			}
		}
	}()

	for {
		select {
		case <-e.stopChannel:
			return e.wsConn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		default:
			_, message, err := e.wsConn.ReadMessage()
			if err != nil {
				return fmt.Errorf("读取消息失败: %w", err)
			}

			var frame struct {
				Data struct {
					Symbol string      `json:"s"`
					Close  json.Number `json:"c"`
				} `json:"data"`
			}
			if err := json.Unmarshal(message, &frame); err != nil {
				e.logger.Debugf("解析行情推送失败: %v", err)
				continue
			}
			price, err := frame.Data.Close.Float64()
			if err != nil || frame.Data.Symbol == "" {
				continue
			}

			e.mu.Lock()
			e.lastPrices[frame.Data.Symbol] = price
			e.mu.Unlock()
		}
	}
}

// Close 停止行情推送
func (e *LiveExchange) Close() error {
	close(e.stopChannel)
	return nil
}
