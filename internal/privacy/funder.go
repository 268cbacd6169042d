package privacy

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Funder 把 funder 钱包的 SOL 分发到发射用的钱包
type Funder struct {
	rpc RPC
	opt Options

	newProvider func(Options, RPC, *model.SignerWallet) (Provider, error)
}

func NewFunder(rpc RPC, opt Options) *Funder {
	return &Funder{rpc: rpc, opt: opt, newProvider: NewProvider}
}

// Method 本次使用的方式，请求未指定时用配置
func (f *Funder) Method(requested common.PrivacyMethod) common.PrivacyMethod {
	if requested == "" {
		return f.opt.Method
	}
	return requested
}

// Fund 直接转账时按批次顺序发送并逐笔确认；走隐私通道时先 shield 再按计划提取
func (f *Funder) Fund(ctx context.Context, method common.PrivacyMethod, funder *model.SignerWallet, recipients []solana.PublicKey, total uint64) (*model.FundResult, error) {
	start := time.Now()
	if len(recipients) == 0 {
		return nil, &common.ValidationError{Field: "wallets", Reason: common.ErrNoWallets.Error()}
	}
	opt := f.opt
	opt.Method = f.Method(method)

	var result *model.FundResult
	var err error
	if opt.Method == common.PRIVACY_NONE {
		result, err = f.fundDirect(ctx, opt, funder, recipients, total)
	} else {
		result, err = f.fundPrivate(ctx, opt, funder, recipients, total)
	}
	if result != nil {
		result.DurationMs = time.Since(start).Milliseconds()
	}
	return result, err
}

func (f *Funder) fundDirect(ctx context.Context, opt Options, funder *model.SignerWallet, recipients []solana.PublicKey, total uint64) (*model.FundResult, error) {
	blockhash, lastValid, err := f.rpc.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	transfers := SplitEvenly(recipients, total)
	txs, err := FundingTransactions(funder, transfers, opt.TransfersPerTx, opt.UnitPrice, blockhash, opt.TxSizeLimit)
	if err != nil {
		return nil, err
	}

	result := &model.FundResult{Method: common.PRIVACY_NONE, TotalLamports: total}
	for _, t := range transfers {
		result.Results = append(result.Results, model.FundOutcome{Wallet: t.To.String(), Lamports: t.Lamports})
	}

	perTx := opt.TransfersPerTx
	if perTx <= 0 {
		perTx = 20
	}
	log := common.Log.WithFields(logrus.Fields{"funder": funder.PublicKey.String(), "txs": len(txs)})

	// 逐笔确认后再发下一笔，失败后剩余批次不再发送
	var failure error
	for i, tx := range txs {
		lo, hi := i*perTx, i*perTx+perTx
		if hi > len(transfers) {
			hi = len(transfers)
		}
		if failure == nil {
			sig, err := f.rpc.SendRawTransaction(ctx, tx.Raw, false)
			if err == nil {
				err = f.rpc.ConfirmTransaction(ctx, sig, lastValid)
			}
			if err == nil {
				log.WithField("tx_index", i+1).Info("注资交易已确认")
				for j := lo; j < hi; j++ {
					result.Results[j].Signature = sig.String()
					result.SuccessCount++
					result.FundedLamports += transfers[j].Lamports
				}
				continue
			}
			failure = fmt.Errorf("第 %d 笔注资交易失败: %w", i+1, err)
			log.WithError(err).WithField("tx_index", i+1).Error("注资交易失败")
		}
		for j := lo; j < hi; j++ {
			result.Results[j].Error = failure.Error()
			result.FailedCount++
		}
	}
	result.Success = failure == nil
	return result, failure
}

func (f *Funder) fundPrivate(ctx context.Context, opt Options, funder *model.SignerWallet, recipients []solana.PublicKey, total uint64) (*model.FundResult, error) {
	provider, err := f.newProvider(opt, f.rpc, funder)
	if err != nil {
		return nil, err
	}
	log := common.Log.WithFields(logrus.Fields{"provider": provider.Name(), "wallets": len(recipients)})

	result := &model.FundResult{Method: provider.Name(), TotalLamports: total}
	shield, err := provider.Shield(ctx, total)
	if err != nil {
		log.WithError(err).Error("shield 失败")
		return result, fmt.Errorf("shield 失败: %w", err)
	}
	result.ShieldSignature = shield.Signature

	plan, err := NewDistributionPlan(recipients, total, opt, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return result, err
	}
	result.PrivacyScore = plan.Score()
	log.WithFields(logrus.Fields{
		"estimated": plan.EstimatedDuration.String(),
		"score":     result.PrivacyScore,
	}).Info("开始按计划分发")

	for _, w := range Execute(ctx, provider, plan, nil) {
		out := model.FundOutcome{Wallet: w.Target.String(), Lamports: w.ActualLamports, Signature: w.Signature, Error: w.Error}
		if w.Status == WithdrawalCompleted {
			result.SuccessCount++
			result.FundedLamports += w.ActualLamports
		} else {
			result.FailedCount++
		}
		result.Results = append(result.Results, out)
	}
	result.Success = result.FailedCount == 0
	return result, nil
}
