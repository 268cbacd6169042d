package execctor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pump_bundler/internal/bundle"
	"pump_bundler/internal/chainTx"
	"pump_bundler/internal/common"
	"pump_bundler/internal/model"
	"pump_bundler/internal/pump"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// SubmitStrategy 提交已签名的发射 bundle：原子+降级、仅顺序或只模拟
type SubmitStrategy interface {
	Submit(ctx context.Context, b *bundle.Bundle) (*model.SubmissionResult, error)
}

// RPC 发射和卖出需要的链上接口
type RPC interface {
	chainTx.RPC
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
	GetTokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// Relay 可以查询 bundle 状态的 relay
type Relay interface {
	chainTx.Relay
	GetBundleStatuses(ctx context.Context, ids []string) ([]model.BundleStatusResult, error)
}

// EventSink 发射/卖出结果的下游，一般是 queue.MessageQueue
type EventSink interface {
	SendMessage(msg *model.QueueMessage) bool
}

type Options struct {
	Network        common.NetworkMode
	Plan           bundle.PlanConfig
	Assembler      bundle.AssemblerConfig
	Retry          chainTx.RetryPolicy
	SellBundleSize int
	BalanceGroup   int // 卖出前并发查询余额的钱包数
}

// Launcher 发射、卖出的统一入口
type Launcher struct {
	opt       Options
	rpc       RPC
	relay     Relay
	assembler *bundle.Assembler
	strategy  SubmitStrategy
	submitter *chainTx.Submitter // 只有 mainnet 有
	events    EventSink
	newMint   func() (solana.PrivateKey, error)
}

// NewLauncher 按网络模式选择提交策略。relay 只在 mainnet 使用，events 可以为 nil
func NewLauncher(opt Options, rpc RPC, relay Relay, events EventSink) (*Launcher, error) {
	if err := opt.Plan.Validate(); err != nil {
		return nil, err
	}
	if opt.BalanceGroup <= 0 {
		opt.BalanceGroup = 20
	}
	l := &Launcher{
		opt:       opt,
		rpc:       rpc,
		assembler: bundle.NewAssembler(opt.Assembler),
		events:    events,
		newMint:   solana.NewRandomPrivateKey,
	}

	switch opt.Network {
	case common.MAINNET:
		if relay == nil {
			return nil, fmt.Errorf("mainnet 模式需要配置 relay")
		}
		l.relay = relay
		l.submitter = chainTx.NewSubmitter(relay, chainTx.NewSequentialSubmitter(rpc), opt.Retry)
		l.strategy = l.submitter
	case common.DEVNET:
		l.strategy = chainTx.NewSequentialSubmitter(rpc)
	case common.MOCK:
		l.strategy = chainTx.DryRun{}
	default:
		return nil, &common.ValidationError{Field: "network_mode", Reason: "未知网络模式: " + string(opt.Network)}
	}
	return l, nil
}

// Ceiling 当前配置下单个 bundle 最多能服务的钱包数
func (l *Launcher) Ceiling() int {
	return l.opt.Plan.Ceiling()
}

// LaunchInput 已校验的发射参数
type LaunchInput struct {
	Token            *model.TokenDescriptor
	Wallets          []*model.SignerWallet
	TotalBuyLamports uint64
	SlippagePercent  float64
}

// Launch 分批 -> 生成 mint -> 推导地址 -> 取 blockhash -> 组装签名 -> 提交。
// 钱包数超过上限时在推导任何地址之前返回 TooManyWalletsError。
func (l *Launcher) Launch(ctx context.Context, in *LaunchInput) (*model.SubmissionResult, error) {
	if len(in.Wallets) == 0 {
		return nil, &common.ValidationError{Field: "wallets", Reason: common.ErrNoWallets.Error()}
	}
	if in.Token == nil {
		return nil, &common.ValidationError{Field: "tokenConfig", Reason: "缺少代币信息"}
	}
	batches, err := l.opt.Plan.Plan(len(in.Wallets))
	if err != nil {
		return nil, err
	}

	mintKey, err := l.newMint()
	if err != nil {
		return nil, fmt.Errorf("生成 mint 密钥失败: %w", err)
	}
	derived := pump.Derive(mintKey.PublicKey())
	log := common.Log.WithFields(logrus.Fields{
		"mint":    derived.Mint.String(),
		"wallets": len(in.Wallets),
		"txs":     len(batches),
		"network": l.opt.Network,
	})

	blockhash, lastValid, err := l.rpc.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	b, err := l.assembler.Assemble(&bundle.LaunchParams{
		Batches:              batches,
		Wallets:              in.Wallets,
		MintKey:              mintKey,
		Derived:              derived,
		Token:                in.Token,
		TotalBuyLamports:     in.TotalBuyLamports,
		BasePercent:          in.SlippagePercent,
		Blockhash:            blockhash,
		LastValidBlockHeight: lastValid,
	})
	if err != nil {
		return nil, err
	}
	log.Info("bundle 已签名，开始提交")

	result, err := l.strategy.Submit(ctx, b)
	if result != nil {
		l.publish(model.NewLaunchMessage(in.Token, walletStrings(in.Wallets), result))
	}
	if err != nil {
		log.WithError(err).Error("发射失败")
		return result, err
	}
	log.WithFields(logrus.Fields{"state": result.State, "atomic": result.Atomic}).Info("发射完成")
	return result, nil
}

// SellInput 卖出指定 mint 下各钱包的全部代币
type SellInput struct {
	Mint    solana.PublicKey
	Wallets []*model.SignerWallet
}

// ReasonNoTokens 钱包没有该代币
const ReasonNoTokens = "没有可卖出的代币"

// Sell 每个钱包一笔卖出交易，按 bundle 分组提交，各 bundle 互不影响
func (l *Launcher) Sell(ctx context.Context, in *SellInput) (*model.SellResult, error) {
	start := time.Now()
	if len(in.Wallets) == 0 {
		return nil, &common.ValidationError{Field: "wallets", Reason: common.ErrNoWallets.Error()}
	}
	derived := pump.Derive(in.Mint)
	log := common.Log.WithFields(logrus.Fields{"mint": in.Mint.String(), "wallets": len(in.Wallets)})

	result := &model.SellResult{
		MintAddress: in.Mint.String(),
		Results:     make([]model.SellOutcome, len(in.Wallets)),
	}
	balances, errs := l.tokenBalances(ctx, in.Mint, in.Wallets)

	orders := make([]bundle.SellOrder, 0, len(in.Wallets))
	positions := make([]int, 0, len(in.Wallets)) // 卖单对应的钱包下标
	for i, w := range in.Wallets {
		out := &result.Results[i]
		out.Wallet = w.PublicKey.String()
		switch {
		case errs[i] != nil:
			out.Error = errs[i].Error()
		case balances[i] == 0:
			out.Error = ReasonNoTokens
		default:
			out.TokenAmount = balances[i]
			orders = append(orders, bundle.SellOrder{Wallet: w, TokenAmount: balances[i]})
			positions = append(positions, i)
		}
	}

	if len(orders) == 0 {
		log.Warn("没有可卖出的钱包")
		result.FailedCount = len(in.Wallets)
		result.DurationMs = time.Since(start).Milliseconds()
		return result, nil
	}

	blockhash, lastValid, err := l.rpc.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	bundles, err := l.assembler.AssembleSells(&bundle.SellParams{
		Orders:               orders,
		Derived:              derived,
		Blockhash:            blockhash,
		LastValidBlockHeight: lastValid,
		BundleSize:           l.opt.SellBundleSize,
	})
	if err != nil {
		return nil, err
	}

	next := 0
	for _, b := range bundles {
		sub, err := l.submitSells(ctx, b)
		for j := range b.Transactions {
			out := &result.Results[positions[next+j]]
			switch {
			case err != nil:
				out.Error = err.Error()
			case j < len(sub.Outcomes):
				out.Signature = sub.Outcomes[j].Signature
				out.Error = sub.Outcomes[j].Error
			}
			if err == nil && sub.Atomic {
				out.BundleID = sub.BundleID
			}
		}
		next += b.Size()
		if sub != nil {
			result.Submissions = append(result.Submissions, sub)
			if sub.BundleID != "" {
				result.BundleIDs = append(result.BundleIDs, sub.BundleID)
			}
		}
	}

	for _, out := range result.Results {
		if out.Succeeded() {
			result.SuccessCount++
		} else {
			result.FailedCount++
		}
	}
	result.Success = result.SuccessCount > 0
	result.DurationMs = time.Since(start).Milliseconds()
	l.publish(model.NewSellMessage(result))

	log.WithFields(logrus.Fields{
		"bundles":    len(bundles),
		"successful": result.SuccessCount,
		"failed":     result.FailedCount,
	}).Info("卖出完成")
	return result, nil
}

func (l *Launcher) submitSells(ctx context.Context, b *bundle.Bundle) (*model.SubmissionResult, error) {
	switch {
	case l.submitter != nil:
		return l.submitter.SubmitIndependent(ctx, b, l.rpc)
	case l.opt.Network == common.MOCK:
		return chainTx.DryRun{}.Submit(ctx, b)
	default:
		return chainTx.SendIndependent(ctx, l.rpc, b), nil
	}
}

// tokenBalances 按组并发查询每个钱包在 mint 下的 ATA 余额
func (l *Launcher) tokenBalances(ctx context.Context, mint solana.PublicKey, wallets []*model.SignerWallet) ([]uint64, []error) {
	balances := make([]uint64, len(wallets))
	errs := make([]error, len(wallets))

	for start := 0; start < len(wallets); start += l.opt.BalanceGroup {
		end := start + l.opt.BalanceGroup
		if end > len(wallets) {
			end = len(wallets)
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ata := pump.AssociatedTokenAddress(wallets[i].PublicKey, mint)
				balances[i], errs[i] = l.rpc.GetTokenBalance(ctx, ata)
			}(i)
		}
		wg.Wait()
	}
	return balances, errs
}

// BundleStatus 查询 bundle 的上链状态，只在有 relay 的网络模式下可用
func (l *Launcher) BundleStatus(ctx context.Context, ids []string) ([]model.BundleStatusResult, error) {
	if len(ids) == 0 {
		return nil, &common.ValidationError{Field: "id", Reason: "缺少 bundle id"}
	}
	if l.relay == nil {
		return nil, fmt.Errorf("%s 模式不支持查询 bundle 状态", l.opt.Network)
	}
	return l.relay.GetBundleStatuses(ctx, ids)
}

func (l *Launcher) publish(msg *model.QueueMessage) {
	if l.events == nil {
		return
	}
	l.events.SendMessage(msg)
}

func walletStrings(wallets []*model.SignerWallet) []string {
	out := make([]string, len(wallets))
	for i, w := range wallets {
		out[i] = w.PublicKey.String()
	}
	return out
}
