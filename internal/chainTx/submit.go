package chainTx

import (
	"context"
	"errors"
	"time"

	"pump_bundler/internal/bundle"
	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/sirupsen/logrus"
)

// RetryPolicy relay 重试策略。只重试超时/连接失败，relay 明确拒绝的 bundle 直接降级
type RetryPolicy struct {
	MaxAttempts int // 1 表示不重试
	Backoff     time.Duration
}

// Submitter 原子提交 bundle，relay 拒绝后降级为顺序提交
type Submitter struct {
	relay    Relay
	fallback *SequentialSubmitter
	retry    RetryPolicy
	onState  func(common.LaunchState)
}

// NewSubmitter fallback 为 nil 时 relay 失败直接返回错误
func NewSubmitter(relay Relay, fallback *SequentialSubmitter, retry RetryPolicy) *Submitter {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Submitter{relay: relay, fallback: fallback, retry: retry}
}

// OnState 注册状态变化回调
func (s *Submitter) OnState(fn func(common.LaunchState)) {
	s.onState = fn
}

func (s *Submitter) transition(log *logrus.Entry, state common.LaunchState) {
	log.WithField("state", state).Debug("状态变化")
	if s.onState != nil {
		s.onState(state)
	}
}

// Submit Built -> Submitting -> AtomicallyLanded | RelayRejected -> FallbackSubmitting -> ...
// 原子提交成功只返回 bundle id，是否上链由调用方另行确认。
func (s *Submitter) Submit(ctx context.Context, b *bundle.Bundle) (*model.SubmissionResult, error) {
	start := time.Now()
	log := common.Log.WithFields(logrus.Fields{"mint": b.Mint.String(), "txs": b.Size()})

	s.transition(log, common.StateSubmitting)
	bundleID, err := s.sendWithRetry(ctx, log, b)
	if err == nil {
		s.transition(log, common.StateAtomicallyLanded)
		log.WithField("bundle_id", bundleID).Info("bundle 已被 relay 接受")
		result := &model.SubmissionResult{
			State:       common.StateAtomicallyLanded,
			Success:     true,
			Atomic:      true,
			MintAddress: b.Mint.String(),
			BundleID:    bundleID,
			Outcomes:    signedOutcomes(b),
		}
		result.Finish(start)
		return result, nil
	}

	s.transition(log, common.StateRelayRejected)
	log.WithError(err).Warn("relay 拒绝 bundle")
	if s.fallback == nil {
		result := &model.SubmissionResult{
			State:       common.StateRelayRejected,
			MintAddress: b.Mint.String(),
			RelayError:  err.Error(),
			Error:       err.Error(),
		}
		result.Finish(start)
		return result, err
	}

	s.transition(log, common.StateFallbackSubmitting)
	result, fbErr := s.fallback.Submit(ctx, b)
	result.RelayError = err.Error()
	result.Finish(start)
	s.transition(log, result.State)
	return result, fbErr
}

// SubmitIndependent 用于互不依赖的交易（如卖出）：relay 失败后逐笔并发发送
func (s *Submitter) SubmitIndependent(ctx context.Context, b *bundle.Bundle, sender Sender) (*model.SubmissionResult, error) {
	start := time.Now()
	log := common.Log.WithFields(logrus.Fields{"mint": b.Mint.String(), "txs": b.Size()})

	bundleID, err := s.sendWithRetry(ctx, log, b)
	if err == nil {
		result := &model.SubmissionResult{MintAddress: b.Mint.String()}
		result.State = common.StateAtomicallyLanded
		result.Success = true
		result.Atomic = true
		result.BundleID = bundleID
		result.Outcomes = signedOutcomes(b)
		result.Finish(start)
		return result, nil
	}

	log.WithError(err).Warn("relay 提交失败，逐笔发送")
	fallback := SendIndependent(ctx, sender, b)
	fallback.RelayError = err.Error()
	fallback.Finish(start)
	return fallback, nil
}

// SendIndependent 并发发送互不依赖的交易，不等待确认，至少一笔发送成功即视为成功
func SendIndependent(ctx context.Context, sender Sender, b *bundle.Bundle) *model.SubmissionResult {
	start := time.Now()
	result := &model.SubmissionResult{MintAddress: b.Mint.String()}
	stats := &model.BuyStats{}
	for _, r := range SendParallel(ctx, sender, b.Transactions, false) {
		stats.TotalBuyTxs++
		if r.Err != nil {
			stats.FailedBuyTxs++
		} else {
			stats.SuccessfulBuyTxs++
		}
		result.Outcomes = append(result.Outcomes, r.Outcome())
	}
	result.Stats = stats
	result.Success = stats.SuccessfulBuyTxs > 0
	result.State = common.StatePartiallyLanded
	if !result.Success {
		result.State = common.StateFallbackFailed
	}
	result.Finish(start)
	return result
}

func (s *Submitter) sendWithRetry(ctx context.Context, log *logrus.Entry, b *bundle.Bundle) (string, error) {
	raws := make([][]byte, b.Size())
	for i, tx := range b.Transactions {
		raws[i] = tx.Raw
	}

	var err error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		var bundleID string
		bundleID, err = s.relay.SendBundle(ctx, raws)
		if err == nil {
			return bundleID, nil
		}
		var relayErr *common.RelayError
		if !errors.As(err, &relayErr) || !relayErr.Transient || attempt == s.retry.MaxAttempts {
			break
		}
		log.WithError(err).WithField("attempt", attempt).Warn("relay 暂时不可用，重试")
		select {
		case <-ctx.Done():
			return "", &common.RelayError{Message: "等待重试时被取消", Err: ctx.Err()}
		case <-time.After(s.retry.Backoff):
		}
	}
	return "", err
}

func signedOutcomes(b *bundle.Bundle) []model.TxOutcome {
	out := make([]model.TxOutcome, len(b.Transactions))
	for i, tx := range b.Transactions {
		out[i] = SendResult{Tx: tx, Signature: tx.Signature}.Outcome()
	}
	return out
}
