package chainTx

import (
	"context"
	"sync"

	"pump_bundler/internal/bundle"
	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go"
)

// Sender 发送单笔已签名交易
type Sender interface {
	SendRawTransaction(ctx context.Context, raw []byte, skipPreflight bool) (solana.Signature, error)
}

// RPC 降级提交需要的链上接口
type RPC interface {
	Sender
	ConfirmTransaction(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error
}

// SendResult 单笔交易的发送结果
type SendResult struct {
	Tx        *bundle.SignedTx
	Signature solana.Signature
	Err       error
}

func (r SendResult) Outcome() model.TxOutcome {
	out := model.TxOutcome{
		Index:   r.Tx.Index,
		Kind:    r.Tx.Kind,
		Wallets: r.Tx.WalletStrings(),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	} else {
		out.Signature = r.Signature.String()
	}
	return out
}

// SendParallel 并发发送多笔交易，互不等待确认，结果按输入顺序返回
func SendParallel(ctx context.Context, sender Sender, txs []*bundle.SignedTx, skipPreflight bool) []SendResult {
	type indexed struct {
		pos int
		res SendResult
	}

	var wg sync.WaitGroup
	resultCh := make(chan indexed, len(txs)) // 缓冲避免阻塞

	for i, tx := range txs {
		wg.Add(1)
		go func(pos int, tx *bundle.SignedTx) {
			defer wg.Done()
			sig, err := sender.SendRawTransaction(ctx, tx.Raw, skipPreflight)
			resultCh <- indexed{pos: pos, res: SendResult{Tx: tx, Signature: sig, Err: err}}
		}(i, tx)
	}

	// 等待所有发送完成再关闭结果通道
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]SendResult, len(txs))
	for r := range resultCh {
		results[r.pos] = r.res
	}
	return results
}

// SendInGroups 分组并发发送，每组最多 groupSize 个同时在途的请求
func SendInGroups(ctx context.Context, sender Sender, txs []*bundle.SignedTx, groupSize int, skipPreflight bool) []SendResult {
	if groupSize <= 0 {
		groupSize = len(txs)
	}
	results := make([]SendResult, 0, len(txs))
	for start := 0; start < len(txs); start += groupSize {
		end := start + groupSize
		if end > len(txs) {
			end = len(txs)
		}
		results = append(results, SendParallel(ctx, sender, txs[start:end], skipPreflight)...)
	}
	return results
}
