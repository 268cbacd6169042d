package execctor

import (
	"sync"
	"time"

	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/sirupsen/logrus"
)

// 发射跟踪状态
type TrackStatus int

const (
	TrackNone     TrackStatus = iota
	TrackWatching             // 观察窗口内
	TrackFinished             // 已出报告
)

// 单个 mint 的跟踪信息
type launchTrack struct {
	report  model.WatchReport
	wallets map[string]bool // 本批钱包
	seen    map[string]bool // 已记录的交易签名，推送可能重复
	status  TrackStatus

	mutex sync.Mutex
}

// LaunchTracker 消费 pumpportal 推送的成交，统计本批钱包的买入是否上链
type LaunchTracker struct {
	tracks map[string]*launchTrack // 按 mint 索引
	mutex  sync.RWMutex
	now    func() time.Time

	onFinished func(report *model.WatchReport)
}

// NewLaunchTracker onFinished 在 Finish 出报告时调用，可以为 nil
func NewLaunchTracker(onFinished func(report *model.WatchReport)) *LaunchTracker {
	return &LaunchTracker{
		tracks:     make(map[string]*launchTrack),
		now:        time.Now,
		onFinished: onFinished,
	}
}

// ExpectLaunch 开始跟踪一个 mint，expectedBuys 为成功提交的买入钱包
func (t *LaunchTracker) ExpectLaunch(mint string, expectedBuys []string, window time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, exists := t.tracks[mint]; exists {
		common.Log.WithField("mint", mint).Debug("mint 已在跟踪中")
		return
	}
	wallets := make(map[string]bool, len(expectedBuys))
	for _, w := range expectedBuys {
		wallets[w] = true
	}
	t.tracks[mint] = &launchTrack{
		report: model.WatchReport{
			MintAddress:    mint,
			ExpectedBuys:   len(wallets),
			WindowStart:    t.now(),
			WindowDuration: window,
		},
		wallets: wallets,
		seen:    make(map[string]bool),
		status:  TrackWatching,
	}
}

// Tracking mint 是否在观察窗口内
func (t *LaunchTracker) Tracking(mint string) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	track, exists := t.tracks[mint]
	return exists && track.status == TrackWatching
}

// ProcessTradeMessage 处理从 WebSocket 收到的消息，非成交消息和未跟踪的 mint 直接忽略
func (t *LaunchTracker) ProcessTradeMessage(message []byte) {
	event, ok, err := model.ParseTokenEvent(message)
	if err != nil {
		common.Log.WithError(err).WithField("raw", string(message)).Warn("解析成交消息失败")
		return
	}
	if !ok {
		return
	}
	t.Record(event)
}

// Record 记录一笔成交
func (t *LaunchTracker) Record(event *model.TokenEvent) {
	t.mutex.RLock()
	track, exists := t.tracks[event.Mint]
	t.mutex.RUnlock()
	if !exists {
		return
	}

	track.mutex.Lock()
	defer track.mutex.Unlock()
	if track.status != TrackWatching {
		return
	}
	if event.Signature != "" && track.seen[event.Signature+event.TraderPublicKey] {
		return
	}
	track.seen[event.Signature+event.TraderPublicKey] = true

	r := &track.report
	if event.MarketCapSol > 0 {
		r.LastMarketCap = event.MarketCapSol
		if event.MarketCapSol > r.HighestMarketCap {
			r.HighestMarketCap = event.MarketCapSol
		}
	}
	if !track.wallets[event.TraderPublicKey] {
		r.ForeignTrades++
		return
	}

	direction := model.TradeDirection(event.TxType)
	switch direction {
	case model.TRADE_DIRECTION_BUY:
		r.ObservedBuys++
	case model.TRADE_DIRECTION_SELL:
		r.ObservedSells++
	default:
		// create 事件由第一笔交易的 fee payer 发出，同时包含它的买入
		if event.InitialBuy > 0 {
			r.ObservedBuys++
			direction = model.TRADE_DIRECTION_BUY
		}
	}
	r.Trades = append(r.Trades, model.ObservedTrade{
		Wallet:    event.TraderPublicKey,
		Direction: direction,
		SolAmount: event.SolAmount,
		TxHash:    event.Signature,
		Timestamp: t.now(),
	})
}

// Finish 结束观察并返回报告，未跟踪的 mint 返回 nil
func (t *LaunchTracker) Finish(mint string) *model.WatchReport {
	t.mutex.Lock()
	track, exists := t.tracks[mint]
	delete(t.tracks, mint)
	t.mutex.Unlock()
	if !exists {
		return nil
	}

	track.mutex.Lock()
	track.status = TrackFinished
	report := track.report
	report.Trades = append([]model.ObservedTrade(nil), track.report.Trades...)
	track.mutex.Unlock()

	common.Log.WithFields(logrus.Fields{
		"mint":     mint,
		"expected": report.ExpectedBuys,
		"observed": report.ObservedBuys,
		"foreign":  report.ForeignTrades,
		"mcap":     report.LastMarketCap,
	}).Info("发射观察窗口结束")
	if t.onFinished != nil {
		t.onFinished(&report)
	}
	return &report
}

// Stop 丢弃所有未完成的跟踪
func (t *LaunchTracker) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.tracks = make(map[string]*launchTrack)
	common.Log.Info("发射跟踪器已停止")
}
