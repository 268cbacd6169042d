package reclaim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pump_bundler/internal/bundle"
	"pump_bundler/internal/chainTx"
	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

const ReasonBalanceTooLow = "余额不足，无需回收"

// RPC 回收需要的链上接口
type RPC interface {
	chainTx.Sender
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
}

type Options struct {
	GroupSize   int    // 每组并发查询/发送的钱包数
	FeeBuffer   uint64 // 基础手续费
	Budget      bundle.ComputeBudget
	TxSizeLimit int
}

// Reclaimer 把钱包里的 SOL 转回指定地址，只发送不等待确认
type Reclaimer struct {
	rpc RPC
	opt Options
}

func NewReclaimer(rpc RPC, opt Options) *Reclaimer {
	if opt.GroupSize <= 0 {
		opt.GroupSize = 20
	}
	return &Reclaimer{rpc: rpc, opt: opt}
}

// reserve 转账后留下的手续费：基础费 + 优先费
func (r *Reclaimer) reserve() uint64 {
	priority := (uint64(r.opt.Budget.UnitLimit)*r.opt.Budget.UnitPrice + 999_999) / 1_000_000
	return r.opt.FeeBuffer + priority
}

func (r *Reclaimer) Reclaim(ctx context.Context, destination solana.PublicKey, wallets []*model.SignerWallet) (*model.ReclaimResult, error) {
	start := time.Now()
	if len(wallets) == 0 {
		return nil, &common.ValidationError{Field: "wallets", Reason: common.ErrNoWallets.Error()}
	}
	log := common.Log.WithFields(logrus.Fields{"destination": destination.String(), "wallets": len(wallets)})

	blockhash, _, err := r.rpc.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	balances, balanceErrs := r.fetchBalances(ctx, wallets)
	outcomes := make([]model.ReclaimOutcome, len(wallets))
	var txs []*bundle.SignedTx
	var txWallet []int
	reserve := r.reserve()

	for i, w := range wallets {
		outcomes[i].Wallet = w.PublicKey.String()
		if balanceErrs[i] != nil {
			outcomes[i].Error = balanceErrs[i].Error()
			continue
		}
		if balances[i] <= reserve {
			outcomes[i].Error = ReasonBalanceTooLow
			continue
		}
		amount := balances[i] - reserve
		tx, err := bundle.BuildTransferTx(w, []bundle.Transfer{{To: destination, Lamports: amount}}, r.opt.Budget, blockhash, r.opt.TxSizeLimit)
		if err != nil {
			outcomes[i].Error = fmt.Sprintf("构建转账交易失败: %v", err)
			continue
		}
		tx.Index = len(txs)
		outcomes[i].Lamports = amount
		txs = append(txs, tx)
		txWallet = append(txWallet, i)
	}

	log.WithField("txs", len(txs)).Info("发送回收交易")
	result := &model.ReclaimResult{Success: true}
	for _, sent := range chainTx.SendInGroups(ctx, r.rpc, txs, r.opt.GroupSize, true) {
		i := txWallet[sent.Tx.Index]
		if sent.Err != nil {
			outcomes[i].Error = sent.Err.Error()
			outcomes[i].Lamports = 0
			continue
		}
		outcomes[i].Signature = sent.Signature.String()
		result.TotalReclaimed += outcomes[i].Lamports
		result.SuccessCount++
	}

	result.FailedCount = len(wallets) - result.SuccessCount
	result.Results = outcomes
	result.DurationMs = time.Since(start).Milliseconds()
	log.WithFields(logrus.Fields{
		"reclaimed": result.TotalReclaimed,
		"success":   result.SuccessCount,
		"failed":    result.FailedCount,
	}).Info("回收完成")
	return result, nil
}

// fetchBalances 分组并发查询余额
func (r *Reclaimer) fetchBalances(ctx context.Context, wallets []*model.SignerWallet) ([]uint64, []error) {
	balances := make([]uint64, len(wallets))
	errs := make([]error, len(wallets))

	for start := 0; start < len(wallets); start += r.opt.GroupSize {
		end := start + r.opt.GroupSize
		if end > len(wallets) {
			end = len(wallets)
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				balances[i], errs[i] = r.rpc.GetBalance(ctx, wallets[i].PublicKey)
			}(i)
		}
		wg.Wait()
	}
	return balances, errs
}
