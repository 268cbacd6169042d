package privacy

import (
	"context"
	"fmt"
	"time"

	"pump_bundler/internal/chainTx"
	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go"
)

// Provider 资金隐私通道：先存入（shield），再分别提取到各个钱包
type Provider interface {
	Name() common.PrivacyMethod
	Shield(ctx context.Context, lamports uint64) (*ShieldResult, error)
	Withdraw(ctx context.Context, recipient solana.PublicKey, lamports uint64) (*WithdrawResult, error)
	Balance(ctx context.Context) (uint64, error)
}

type ShieldResult struct {
	Signature string
}

type WithdrawResult struct {
	Recipient   solana.PublicKey
	Lamports    uint64
	FeeLamports uint64
	Signature   string
	Partial     bool
}

// RPC 直接转账需要的链上接口
type RPC interface {
	chainTx.RPC
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
}

type Options struct {
	Method         common.PrivacyMethod
	Network        common.NetworkMode
	Endpoints      map[common.PrivacyMethod]string // 各隐私通道的 sidecar 地址
	Timeout        time.Duration
	TransfersPerTx int
	UnitPrice      uint64
	TxSizeLimit    int
	AmountVariance float64
	MinDelay       time.Duration
	MaxDelay       time.Duration
}

// NewProvider 非主网时隐私通道只做模拟
func NewProvider(opt Options, rpc RPC, funder *model.SignerWallet) (Provider, error) {
	switch opt.Method {
	case common.PRIVACY_NONE, "":
		return NewDirect(rpc, funder, opt), nil
	case common.PRIVACY_MOCK:
		return NewMock(common.PRIVACY_MOCK, 0), nil
	case common.PRIVACY_CASH, common.PRIVACY_SHADOWWIRE:
		if opt.Network != common.MAINNET {
			return NewMock(opt.Method, 0), nil
		}
		endpoint := opt.Endpoints[opt.Method]
		if endpoint == "" {
			return nil, fmt.Errorf("%s 未配置 sidecar 地址", opt.Method)
		}
		if opt.Method == common.PRIVACY_CASH {
			return NewPrivacyCash(endpoint, opt.Timeout, funder), nil
		}
		return NewShadowWire(endpoint, opt.Timeout, funder), nil
	default:
		return nil, &common.ValidationError{Field: "privacyMethod", Reason: fmt.Sprintf("不支持 %q", opt.Method)}
	}
}
