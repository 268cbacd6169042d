package model

import "time"

// 消息类型
type MessageType int

const (
	MessageTypeLaunch  MessageType = iota // 发射结果
	MessageTypeSell                       // 卖出结果
	MessageTypeReclaim                    // 回收结果
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeLaunch:
		return "launch"
	case MessageTypeSell:
		return "sell"
	case MessageTypeReclaim:
		return "reclaim"
	default:
		return "unknown"
	}
}

// 队列消息
type QueueMessage struct {
	Type        MessageType            `json:"type"`
	MintAddress string                 `json:"mintAddress"`
	TokenSymbol string                 `json:"symbol,omitempty"`
	TokenName   string                 `json:"name,omitempty"`
	TokenURI    string                 `json:"uri,omitempty"`
	Wallets     []string               `json:"wallets,omitempty"` // 参与交易的钱包地址
	Result      *SubmissionResult      `json:"result,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	ExtraData   map[string]interface{} `json:"extra,omitempty"`
}

// 创建发射结果消息
func NewLaunchMessage(token *TokenDescriptor, wallets []string, result *SubmissionResult) *QueueMessage {
	msg := &QueueMessage{
		Type:        MessageTypeLaunch,
		MintAddress: result.MintAddress,
		Wallets:     wallets,
		Result:      result,
		Timestamp:   time.Now(),
		ExtraData:   make(map[string]interface{}),
	}
	if token != nil {
		msg.TokenSymbol = token.Symbol
		msg.TokenName = token.Name
		msg.TokenURI = token.URI
	}
	return msg
}

// 创建卖出结果消息
func NewSellMessage(result *SellResult) *QueueMessage {
	wallets := make([]string, 0, len(result.Results))
	for _, r := range result.Results {
		wallets = append(wallets, r.Wallet)
	}
	return &QueueMessage{
		Type:        MessageTypeSell,
		MintAddress: result.MintAddress,
		Wallets:     wallets,
		Timestamp:   time.Now(),
		ExtraData: map[string]interface{}{
			"bundleIds":    result.BundleIDs,
			"successCount": result.SuccessCount,
			"failedCount":  result.FailedCount,
		},
	}
}

// 创建回收结果消息
func NewReclaimMessage(destination string, result *ReclaimResult) *QueueMessage {
	return &QueueMessage{
		Type:      MessageTypeReclaim,
		Timestamp: time.Now(),
		ExtraData: map[string]interface{}{
			"destination":    destination,
			"totalReclaimed": result.TotalReclaimed,
			"successCount":   result.SuccessCount,
		},
	}
}
