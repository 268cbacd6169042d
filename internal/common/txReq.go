package common

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// SecretKey 64字节私钥，兼容数字数组和 base58 字符串两种 JSON 格式
type SecretKey []byte

func (k *SecretKey) UnmarshalJSON(data []byte) error {
	var nums []int
	if err := json.Unmarshal(data, &nums); err == nil {
		buf := make([]byte, len(nums))
		for i, n := range nums {
			if n < 0 || n > 255 {
				return fmt.Errorf("私钥第 %d 字节越界: %d", i, n)
			}
			buf[i] = byte(n)
		}
		*k = buf
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("私钥格式错误: %w", err)
	}
	pk, err := solana.PrivateKeyFromBase58(str)
	if err != nil {
		return fmt.Errorf("解析 base58 私钥失败: %w", err)
	}
	*k = SecretKey(pk)
	return nil
}

type WalletReq struct {
	PublicKey string    `json:"publicKey"`
	SecretKey SecretKey `json:"secretKey"`
}

type TokenConfigReq struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	ImageUrl    string `json:"imageUrl"`
}

type LaunchReq struct {
	TokenConfig     TokenConfigReq `json:"tokenConfig"`
	Wallets         []WalletReq    `json:"wallets"`
	TotalBuyAmount  float64        `json:"totalBuyAmount"`  // SOL，默认5
	SlippagePercent float64        `json:"slippagePercent"` // 默认15
}

type SellReq struct {
	MintAddress string      `json:"mintAddress"`
	Wallets     []WalletReq `json:"wallets"`
}

type ReclaimReq struct {
	Wallets            []WalletReq `json:"wallets"`
	DestinationAddress string      `json:"destinationAddress"`
}

type FundReq struct {
	Funder        WalletReq     `json:"funder"`
	Wallets       []string      `json:"wallets"`
	TotalAmount   float64       `json:"totalAmount"` // SOL
	PrivacyMethod PrivacyMethod `json:"privacyMethod"`
}
