package privacy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// sidecar privacy-cash / shadowwire 只有 JS SDK，由本机 sidecar 进程以 JSON-RPC 暴露
type sidecar struct {
	client  jsonrpc.RPCClient
	timeout time.Duration
}

func newSidecar(endpoint string, timeout time.Duration) sidecar {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return sidecar{
		client: jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
			HTTPClient: &http.Client{Timeout: timeout},
		}),
		timeout: timeout,
	}
}

func (s sidecar) call(ctx context.Context, method string, params, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Call(ctx, method, params)
	if err != nil {
		return &common.NetworkError{Op: method, Err: err}
	}
	if resp.Error != nil {
		return fmt.Errorf("%s 失败: %s", method, resp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := resp.GetObject(out); err != nil {
		return fmt.Errorf("解析 %s 响应失败: %w", method, err)
	}
	return nil
}

// PrivacyCash ZK 证明的隐私池，提取后链上无法关联存入方
type PrivacyCash struct {
	sidecar
	owner *model.SignerWallet
}

func NewPrivacyCash(endpoint string, timeout time.Duration, owner *model.SignerWallet) *PrivacyCash {
	return &PrivacyCash{sidecar: newSidecar(endpoint, timeout), owner: owner}
}

func (p *PrivacyCash) Name() common.PrivacyMethod { return common.PRIVACY_CASH }

type cashDepositParams struct {
	Owner    string `json:"owner"` // base58 私钥，sidecar 只在本机
	Lamports uint64 `json:"lamports"`
}

type cashWithdrawParams struct {
	Owner            string `json:"owner"`
	Lamports         uint64 `json:"lamports"`
	RecipientAddress string `json:"recipientAddress"`
}

type cashTxResult struct {
	Tx        string `json:"tx"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount_in_lamports"`
	Fee       uint64 `json:"fee_in_lamports"`
	IsPartial bool   `json:"isPartial"`
}

func (p *PrivacyCash) Shield(ctx context.Context, lamports uint64) (*ShieldResult, error) {
	var out cashTxResult
	if err := p.call(ctx, "deposit", cashDepositParams{Owner: p.owner.PrivateKey.String(), Lamports: lamports}, &out); err != nil {
		return nil, err
	}
	return &ShieldResult{Signature: out.Tx}, nil
}

func (p *PrivacyCash) Withdraw(ctx context.Context, recipient solana.PublicKey, lamports uint64) (*WithdrawResult, error) {
	var out cashTxResult
	params := cashWithdrawParams{Owner: p.owner.PrivateKey.String(), Lamports: lamports, RecipientAddress: recipient.String()}
	if err := p.call(ctx, "withdraw", params, &out); err != nil {
		return nil, err
	}
	return &WithdrawResult{
		Recipient:   recipient,
		Lamports:    out.Amount,
		FeeLamports: out.Fee,
		Signature:   out.Tx,
		Partial:     out.IsPartial,
	}, nil
}

func (p *PrivacyCash) Balance(ctx context.Context) (uint64, error) {
	var out struct {
		Lamports uint64 `json:"lamports"`
	}
	if err := p.call(ctx, "getPrivateBalance", map[string]string{"owner": p.owner.PrivateKey.String()}, &out); err != nil {
		return 0, err
	}
	return out.Lamports, nil
}

// ShadowWire Bulletproofs 隐藏金额，发送方匿名
type ShadowWire struct {
	sidecar
	wallet *model.SignerWallet
}

func NewShadowWire(endpoint string, timeout time.Duration, wallet *model.SignerWallet) *ShadowWire {
	return &ShadowWire{sidecar: newSidecar(endpoint, timeout), wallet: wallet}
}

func (s *ShadowWire) Name() common.PrivacyMethod { return common.PRIVACY_SHADOWWIRE }

func lamportsToSol(lamports uint64) float64 {
	return float64(lamports) / common.LAMPORTS_PER_SOL
}

func (s *ShadowWire) Shield(ctx context.Context, lamports uint64) (*ShieldResult, error) {
	var out struct {
		Success bool `json:"success"`
	}
	params := map[string]interface{}{"wallet": s.wallet.PublicKey.String(), "amount": lamportsToSol(lamports)}
	if err := s.call(ctx, "deposit", params, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("shadowwire 存入失败")
	}
	return &ShieldResult{}, nil
}

func (s *ShadowWire) Withdraw(ctx context.Context, recipient solana.PublicKey, lamports uint64) (*WithdrawResult, error) {
	var out struct {
		TxSignature string `json:"tx_signature"`
	}
	params := map[string]interface{}{
		"sender":    s.wallet.PublicKey.String(),
		"recipient": recipient.String(),
		"amount":    lamportsToSol(lamports),
		"token":     "SOL",
		"type":      "external",
	}
	if err := s.call(ctx, "transfer", params, &out); err != nil {
		return nil, err
	}
	return &WithdrawResult{Recipient: recipient, Lamports: lamports, Signature: out.TxSignature}, nil
}

func (s *ShadowWire) Balance(ctx context.Context) (uint64, error) {
	var out struct {
		Available float64 `json:"available"`
	}
	if err := s.call(ctx, "getBalance", map[string]string{"wallet": s.wallet.PublicKey.String()}, &out); err != nil {
		return 0, err
	}
	return uint64(out.Available * common.LAMPORTS_PER_SOL), nil
}

var (
	_ Provider = (*PrivacyCash)(nil)
	_ Provider = (*ShadowWire)(nil)
)
