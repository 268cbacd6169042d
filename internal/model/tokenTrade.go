package model

import "time"

// TradeDirection 交易方向枚举
type TradeDirection string

const (
	TRADE_DIRECTION_BUY  TradeDirection = "buy"  // 买入
	TRADE_DIRECTION_SELL TradeDirection = "sell" // 卖出
)

// ObservedTrade 监听到的本批钱包的交易
type ObservedTrade struct {
	Wallet    string         `json:"wallet"`
	Direction TradeDirection `json:"direction"`
	SolAmount float64        `json:"solAmount"`
	TxHash    string         `json:"txHash"`
	Timestamp time.Time      `json:"timestamp"`
}

// WatchReport 发射后观察窗口内的成交统计
type WatchReport struct {
	MintAddress      string          `json:"mintAddress"`
	ExpectedBuys     int             `json:"expectedBuys"`
	ObservedBuys     int             `json:"observedBuys"`
	ObservedSells    int             `json:"observedSells"`
	ForeignTrades    int             `json:"foreignTrades"` // 非本批钱包的交易
	LastMarketCap    float64         `json:"lastMarketCapSol"`
	HighestMarketCap float64         `json:"highestMarketCapSol"`
	Trades           []ObservedTrade `json:"trades"`
	WindowStart      time.Time       `json:"windowStart"`
	WindowDuration   time.Duration   `json:"windowDuration"`
}
