package model

import (
	"encoding/json"
	"fmt"
)

// TokenEvent pumpportal 推送的代币事件（create/buy/sell）
type TokenEvent struct {
	Signature             string  `json:"signature"`
	Mint                  string  `json:"mint"`
	TraderPublicKey       string  `json:"traderPublicKey"`
	TxType                string  `json:"txType"`
	InitialBuy            float64 `json:"initialBuy"`
	TokenAmount           float64 `json:"tokenAmount"`
	SolAmount             float64 `json:"solAmount"`
	NewTokenBalance       float64 `json:"newTokenBalance"`
	BondingCurveKey       string  `json:"bondingCurveKey"`
	VTokensInBondingCurve float64 `json:"vTokensInBondingCurve"`
	VSolInBondingCurve    float64 `json:"vSolInBondingCurve"`
	MarketCapSol          float64 `json:"marketCapSol"`
	Name                  string  `json:"name"`
	Symbol                string  `json:"symbol"`
	Uri                   string  `json:"uri"`
	Pool                  string  `json:"pool"`
}

// ParseTokenEvent 解析推送消息，订阅确认等系统消息返回 ok=false
func ParseTokenEvent(data []byte) (*TokenEvent, bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false, fmt.Errorf("解析消息失败: %w", err)
	}
	if _, isSystem := fields["message"]; isSystem {
		return nil, false, nil
	}
	if _, isSystem := fields["method"]; isSystem {
		return nil, false, nil
	}
	var event TokenEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, false, fmt.Errorf("解析为TokenEvent失败: %w", err)
	}
	if event.Mint == "" || event.TxType == "" {
		return nil, false, nil
	}
	return &event, true, nil
}

func (e *TokenEvent) String() string {
	return fmt.Sprintf("%s mint=%s trader=%s sol=%.6f tokens=%.2f mcap=%.2f sig=%s",
		e.TxType, e.Mint, e.TraderPublicKey, e.SolAmount, e.TokenAmount, e.MarketCapSol, e.Signature)
}
