package execctor

import (
	"strconv"
	"testing"
	"time"

	"pump_bundler/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tradeMessage(txType, mint, trader, sig string, mcap float64) []byte {
	return []byte(`{"signature":"` + sig + `","mint":"` + mint + `","traderPublicKey":"` + trader +
		`","txType":"` + txType + `","solAmount":0.1,"tokenAmount":1000,"marketCapSol":` +
		strconv.FormatFloat(mcap, 'f', -1, 64) + `}`)
}

func TestLaunchTracker(t *testing.T) {
	var finished *model.WatchReport
	tracker := NewLaunchTracker(func(r *model.WatchReport) { finished = r })
	tracker.ExpectLaunch("MINT1", []string{"w1", "w2", "w3"}, time.Minute)
	require.True(t, tracker.Tracking("MINT1"))

	t.Run("记录本批钱包的买入", func(t *testing.T) {
		tracker.ProcessTradeMessage(tradeMessage("buy", "MINT1", "w1", "s1", 30))
		tracker.ProcessTradeMessage(tradeMessage("buy", "MINT1", "w2", "s2", 42.5))
	})

	t.Run("重复推送只计一次", func(t *testing.T) {
		tracker.ProcessTradeMessage(tradeMessage("buy", "MINT1", "w2", "s2", 42.5))
	})

	t.Run("其他钱包计为外部成交", func(t *testing.T) {
		tracker.ProcessTradeMessage(tradeMessage("sell", "MINT1", "stranger", "s3", 35))
	})

	t.Run("忽略未跟踪的 mint 和系统消息", func(t *testing.T) {
		tracker.ProcessTradeMessage(tradeMessage("buy", "OTHER", "w1", "s4", 30))
		tracker.ProcessTradeMessage([]byte(`{"message":"Successfully subscribed to keys."}`))
		tracker.ProcessTradeMessage([]byte(`not json`))
	})

	report := tracker.Finish("MINT1")
	require.NotNil(t, report)
	assert.Equal(t, "MINT1", report.MintAddress)
	assert.Equal(t, 3, report.ExpectedBuys)
	assert.Equal(t, 2, report.ObservedBuys)
	assert.Equal(t, 1, report.ForeignTrades)
	assert.Equal(t, 35.0, report.LastMarketCap)
	assert.Equal(t, 42.5, report.HighestMarketCap)
	assert.Len(t, report.Trades, 2)
	assert.Equal(t, time.Minute, report.WindowDuration)
	require.NotNil(t, finished)
	assert.Equal(t, report.ObservedBuys, finished.ObservedBuys)

	assert.False(t, tracker.Tracking("MINT1"))
	assert.Nil(t, tracker.Finish("MINT1"))
}

func TestLaunchTrackerCreateEvent(t *testing.T) {
	tracker := NewLaunchTracker(nil)
	tracker.ExpectLaunch("MINT2", []string{"dev"}, time.Second)
	tracker.ExpectLaunch("MINT2", []string{"other"}, time.Second)

	tracker.Record(&model.TokenEvent{
		Signature:       "sig",
		Mint:            "MINT2",
		TraderPublicKey: "dev",
		TxType:          "create",
		InitialBuy:      1_000_000,
		SolAmount:       0.5,
	})
	report := tracker.Finish("MINT2")
	require.NotNil(t, report)
	assert.Equal(t, 1, report.ExpectedBuys)
	assert.Equal(t, 1, report.ObservedBuys)
	require.Len(t, report.Trades, 1)
	assert.Equal(t, model.TRADE_DIRECTION_BUY, report.Trades[0].Direction)
}

func TestLaunchTrackerStop(t *testing.T) {
	tracker := NewLaunchTracker(nil)
	tracker.ExpectLaunch("MINT3", []string{"w"}, time.Second)
	tracker.Stop()
	assert.False(t, tracker.Tracking("MINT3"))
	assert.Nil(t, tracker.Finish("MINT3"))
}
