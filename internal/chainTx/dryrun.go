package chainTx

import (
	"context"
	"time"

	"pump_bundler/internal/bundle"
	"pump_bundler/internal/common"
	"pump_bundler/internal/model"
)

// DryRun 只返回签名结果，不发送任何交易（mock 网络模式）
type DryRun struct{}

func (DryRun) Submit(_ context.Context, b *bundle.Bundle) (*model.SubmissionResult, error) {
	start := time.Now()
	common.Log.WithField("mint", b.Mint.String()).Info("mock 模式，跳过提交")
	result := &model.SubmissionResult{
		State:       common.StateSimulated,
		Success:     true,
		MintAddress: b.Mint.String(),
		Outcomes:    signedOutcomes(b),
	}
	result.Finish(start)
	return result, nil
}
