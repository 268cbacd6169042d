package privacy

import (
	"context"
	"fmt"

	"pump_bundler/internal/bundle"
	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go"
)

const (
	fundingBaseUnits      = 50_000
	fundingUnitsPerWallet = 1_500
	minLamportsPerWallet  = 1000
)

// Direct 不使用隐私通道，直接从 funder 转账，链上可见
type Direct struct {
	rpc    RPC
	funder *model.SignerWallet
	opt    Options
}

func NewDirect(rpc RPC, funder *model.SignerWallet, opt Options) *Direct {
	return &Direct{rpc: rpc, funder: funder, opt: opt}
}

func (d *Direct) Name() common.PrivacyMethod { return common.PRIVACY_NONE }

func (d *Direct) Shield(context.Context, uint64) (*ShieldResult, error) {
	return &ShieldResult{}, nil
}

// Withdraw 单笔转账并等待确认
func (d *Direct) Withdraw(ctx context.Context, recipient solana.PublicKey, lamports uint64) (*WithdrawResult, error) {
	blockhash, lastValid, err := d.rpc.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := FundingTransactions(d.funder, []bundle.Transfer{{To: recipient, Lamports: lamports}}, 1, d.opt.UnitPrice, blockhash, d.opt.TxSizeLimit)
	if err != nil {
		return nil, err
	}
	sig, err := d.rpc.SendRawTransaction(ctx, txs[0].Raw, false)
	if err != nil {
		return nil, err
	}
	if err := d.rpc.ConfirmTransaction(ctx, sig, lastValid); err != nil {
		return nil, err
	}
	return &WithdrawResult{Recipient: recipient, Lamports: lamports, Signature: sig.String()}, nil
}

func (d *Direct) Balance(ctx context.Context) (uint64, error) {
	return d.rpc.GetBalance(ctx, d.funder.PublicKey)
}

// FundingTransactions 每笔交易最多 perTx 个收款钱包
func FundingTransactions(funder *model.SignerWallet, transfers []bundle.Transfer, perTx int, unitPrice uint64, blockhash solana.Hash, sizeLimit int) ([]*bundle.SignedTx, error) {
	if len(transfers) == 0 {
		return nil, &common.ValidationError{Field: "wallets", Reason: common.ErrNoWallets.Error()}
	}
	if perTx <= 0 {
		perTx = 20
	}
	var txs []*bundle.SignedTx
	for start := 0; start < len(transfers); start += perTx {
		end := start + perTx
		if end > len(transfers) {
			end = len(transfers)
		}
		batch := transfers[start:end]
		for _, t := range batch {
			if t.Lamports < minLamportsPerWallet {
				return nil, &common.ValidationError{Field: "totalAmount", Reason: fmt.Sprintf("每个钱包至少 %d lamports", minLamportsPerWallet)}
			}
		}
		budget := bundle.ComputeBudget{
			UnitLimit: uint32(fundingBaseUnits + fundingUnitsPerWallet*len(batch)),
			UnitPrice: unitPrice,
		}
		tx, err := bundle.BuildTransferTx(funder, batch, budget, blockhash, sizeLimit)
		if err != nil {
			return nil, fmt.Errorf("构建第 %d 笔注资交易失败: %w", len(txs)+1, err)
		}
		tx.Index = len(txs)
		txs = append(txs, tx)
	}
	return txs, nil
}

// SplitEvenly 余数给最后一个钱包，总额不变
func SplitEvenly(recipients []solana.PublicKey, total uint64) []bundle.Transfer {
	if len(recipients) == 0 {
		return nil
	}
	per := total / uint64(len(recipients))
	out := make([]bundle.Transfer, len(recipients))
	for i, r := range recipients {
		out[i] = bundle.Transfer{To: r, Lamports: per}
	}
	out[len(out)-1].Lamports += total - per*uint64(len(recipients))
	return out
}

var _ Provider = (*Direct)(nil)
