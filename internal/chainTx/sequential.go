package chainTx

import (
	"context"
	"fmt"
	"time"

	"pump_bundler/internal/bundle"
	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/sirupsen/logrus"
)

// SequentialSubmitter 非原子提交：先发送 create 交易并等待确认，再并发发送其余买入交易
type SequentialSubmitter struct {
	rpc RPC
}

func NewSequentialSubmitter(rpc RPC) *SequentialSubmitter {
	return &SequentialSubmitter{rpc: rpc}
}

// Submit create 未在 lastValidBlockHeight 前确认时整体失败，不再发送任何买入。
// create 确认后 Success 为 true，每笔买入的结果单独记录。
func (s *SequentialSubmitter) Submit(ctx context.Context, b *bundle.Bundle) (*model.SubmissionResult, error) {
	start := time.Now()
	result := &model.SubmissionResult{
		State:       common.StateFallbackSubmitting,
		Atomic:      false,
		MintAddress: b.Mint.String(),
	}
	log := common.Log.WithFields(logrus.Fields{"mint": result.MintAddress, "txs": b.Size()})

	create := b.CreateTx()
	sig, err := s.rpc.SendRawTransaction(ctx, create.Raw, false)
	if err == nil {
		result.CreateSignature = sig.String()
		log.WithField("signature", sig.String()).Info("create 交易已发送，等待确认")
		err = s.rpc.ConfirmTransaction(ctx, sig, b.LastValidBlockHeight)
	}
	if err != nil {
		log.WithError(err).Error("create 交易未上链，放弃发送买入交易")
		result.State = common.StateFallbackFailed
		result.Error = err.Error()
		result.Outcomes = []model.TxOutcome{SendResult{Tx: create, Signature: sig, Err: err}.Outcome()}
		result.Finish(start)
		return result, fmt.Errorf("%w: %w", common.ErrFallbackFailed, err)
	}
	result.Outcomes = append(result.Outcomes, SendResult{Tx: create, Signature: sig}.Outcome())

	buys := SendParallel(ctx, s.rpc, b.BuyTxs(), true)
	stats := &model.BuyStats{TotalBuyTxs: len(buys)}
	for _, r := range buys {
		if r.Err != nil {
			stats.FailedBuyTxs++
			log.WithError(r.Err).WithField("tx_index", r.Tx.Index+1).Warn("买入交易发送失败")
		} else {
			stats.SuccessfulBuyTxs++
		}
		result.Outcomes = append(result.Outcomes, r.Outcome())
	}

	result.State = common.StatePartiallyLanded
	result.Success = true
	result.Stats = stats
	result.Finish(start)
	log.WithFields(logrus.Fields{
		"successful": stats.SuccessfulBuyTxs,
		"failed":     stats.FailedBuyTxs,
	}).Info("降级提交完成")
	return result, nil
}
