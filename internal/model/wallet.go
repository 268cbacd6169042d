package model

import (
	"fmt"

	"pump_bundler/internal/common"

	"github.com/gagliardetto/solana-go"
)

// SignerWallet 调用方持有的签名钱包，私钥只在签名时使用
type SignerWallet struct {
	PublicKey  solana.PublicKey
	PrivateKey solana.PrivateKey
}

// WalletFromReq 校验私钥与公钥是否匹配
func WalletFromReq(w common.WalletReq) (*SignerWallet, error) {
	if len(w.SecretKey) != 64 {
		return nil, &common.ValidationError{Field: "secretKey", Reason: fmt.Sprintf("长度应为64字节, 实际 %d", len(w.SecretKey))}
	}
	priv := solana.PrivateKey(append([]byte(nil), w.SecretKey...))
	pub := priv.PublicKey()
	if w.PublicKey != "" && w.PublicKey != pub.String() {
		return nil, &common.ValidationError{Field: "publicKey", Reason: "与私钥不匹配: " + w.PublicKey}
	}
	return &SignerWallet{PublicKey: pub, PrivateKey: priv}, nil
}

func WalletsFromReq(reqs []common.WalletReq) ([]*SignerWallet, error) {
	wallets := make([]*SignerWallet, 0, len(reqs))
	for i, r := range reqs {
		w, err := WalletFromReq(r)
		if err != nil {
			return nil, fmt.Errorf("钱包 %d: %w", i+1, err)
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}
