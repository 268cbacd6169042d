package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WatcherOption pumpportal 数据流地址和每个 mint 的观察时长
type WatcherOption struct {
	URL    string
	Window time.Duration
}

// Tracker 消费成交消息并生成报告，一般是 execctor.LaunchTracker
type Tracker interface {
	ExpectLaunch(mint string, expectedBuys []string, window time.Duration)
	ProcessTradeMessage(message []byte)
	Finish(mint string) *model.WatchReport
}

// TradeWatcher 发射成功后订阅新 mint 的成交，窗口结束后取消订阅
type TradeWatcher struct {
	opt     WatcherOption
	tracker Tracker

	conn   *websocket.Conn
	mutex  sync.Mutex             // 保护 conn 和 active，gorilla 连接不支持并发写
	active map[string]*time.Timer // 订阅中的 mint

	reconnectDelay time.Duration
	maxRetries     int
	stopChan       chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
}

func NewTradeWatcher(opt WatcherOption, tracker Tracker) *TradeWatcher {
	if opt.Window <= 0 {
		opt.Window = time.Minute
	}
	return &TradeWatcher{
		opt:            opt,
		tracker:        tracker,
		active:         make(map[string]*time.Timer),
		reconnectDelay: 3 * time.Second,
		maxRetries:     5,
		stopChan:       make(chan struct{}),
	}
}

// Start 建立连接并开始读取推送
func (w *TradeWatcher) Start() error {
	conn, err := w.dial()
	if err != nil {
		return err
	}
	w.wg.Add(1)
	go w.readLoop(conn)
	return nil
}

func (w *TradeWatcher) dial() (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(w.opt.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("连接WebSocket服务失败: %w", err)
	}
	w.mutex.Lock()
	w.conn = conn
	w.mutex.Unlock()
	common.Log.WithField("url", w.opt.URL).Info("已连接成交数据流")
	return conn, nil
}

func (w *TradeWatcher) readLoop(conn *websocket.Conn) {
	defer w.wg.Done()
	for {
		_, data, err := conn.ReadMessage()
		if err == nil {
			w.tracker.ProcessTradeMessage(data)
			continue
		}

		select {
		case <-w.stopChan:
			return
		default:
		}
		common.Log.WithError(err).Warn("成交数据流断开，准备重连")
		conn = w.reconnect()
		if conn == nil {
			return
		}
	}
}

// reconnect 重连成功后重新订阅仍在观察窗口内的 mint
func (w *TradeWatcher) reconnect() *websocket.Conn {
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		select {
		case <-w.stopChan:
			return nil
		case <-time.After(w.reconnectDelay):
		}
		conn, err := w.dial()
		if err != nil {
			common.Log.WithError(err).WithField("attempt", attempt).Warn("重连失败")
			continue
		}
		if mints := w.activeMints(); len(mints) > 0 {
			if err := w.send("subscribeTokenTrade", mints); err != nil {
				common.Log.WithError(err).Warn("重新订阅失败")
			}
		}
		return conn
	}
	common.Log.Errorf("重连 %d 次失败，停止监听成交", w.maxRetries)
	return nil
}

func (w *TradeWatcher) activeMints() []string {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	mints := make([]string, 0, len(w.active))
	for m := range w.active {
		mints = append(mints, m)
	}
	return mints
}

func (w *TradeWatcher) send(method string, keys []string) error {
	payload := map[string]interface{}{
		"method": method,
		"keys":   keys,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.conn == nil {
		return fmt.Errorf("WebSocket连接未建立")
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("发送 %s 失败: %w", method, err)
	}
	return nil
}

// SubscribeTokenTrades 订阅代币交易事件
func (w *TradeWatcher) SubscribeTokenTrades(mints []string) error {
	return w.send("subscribeTokenTrade", mints)
}

// UnsubscribeTokenTrades 取消订阅代币交易事件
func (w *TradeWatcher) UnsubscribeTokenTrades(mints []string) error {
	return w.send("unsubscribeTokenTrade", mints)
}

// HandleMessage 只跟踪真正上链的发射，模拟结果和失败的发射直接跳过
func (w *TradeWatcher) HandleMessage(msg *model.QueueMessage) {
	if msg.Type != model.MessageTypeLaunch || msg.Result == nil {
		return
	}
	result := msg.Result
	if !result.Success || result.State == common.StateSimulated {
		return
	}

	var expected []string
	for _, o := range result.Outcomes {
		if o.Succeeded() {
			expected = append(expected, o.Wallets...)
		}
	}
	w.Watch(msg.MintAddress, expected)
}

// Watch 订阅 mint 的成交，观察窗口结束后取消订阅并生成报告
func (w *TradeWatcher) Watch(mint string, expectedBuys []string) {
	log := common.Log.WithFields(logrus.Fields{"mint": mint, "expected": len(expectedBuys)})

	w.mutex.Lock()
	if _, exists := w.active[mint]; exists {
		w.mutex.Unlock()
		return
	}
	w.tracker.ExpectLaunch(mint, expectedBuys, w.opt.Window)
	w.active[mint] = time.AfterFunc(w.opt.Window, func() { w.finish(mint) })
	w.mutex.Unlock()

	if err := w.SubscribeTokenTrades([]string{mint}); err != nil {
		log.WithError(err).Warn("订阅成交失败")
		return
	}
	log.Info("开始观察成交")
}

func (w *TradeWatcher) finish(mint string) {
	w.mutex.Lock()
	delete(w.active, mint)
	w.mutex.Unlock()

	if err := w.UnsubscribeTokenTrades([]string{mint}); err != nil {
		common.Log.WithError(err).WithField("mint", mint).Warn("取消订阅失败")
	}
	w.tracker.Finish(mint)
}

// Close 停止所有观察并关闭连接
func (w *TradeWatcher) Close() {
	w.stopOnce.Do(func() {
		close(w.stopChan)

		w.mutex.Lock()
		for mint, timer := range w.active {
			timer.Stop()
			delete(w.active, mint)
		}
		if w.conn != nil {
			_ = w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			w.conn.Close()
		}
		w.mutex.Unlock()

		w.wg.Wait()
		common.Log.Info("成交监听已关闭")
	})
}
