package model

import (
	"time"

	"pump_bundler/internal/common"
)

// TxKind bundle 内交易类型
type TxKind string

const (
	TxKindCreate TxKind = "create" // create + 第一批买入
	TxKindBuy    TxKind = "buy"
	TxKindSell   TxKind = "sell"
)

// TxOutcome 单笔交易的提交结果
type TxOutcome struct {
	Index     int      `json:"index"`
	Kind      TxKind   `json:"kind"`
	Wallets   []string `json:"wallets"`
	Signature string   `json:"signature,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func (o TxOutcome) Succeeded() bool {
	return o.Error == "" && o.Signature != ""
}

// BuyStats 降级提交时买入交易的统计
type BuyStats struct {
	TotalBuyTxs      int `json:"totalBuyTxs"`
	SuccessfulBuyTxs int `json:"successfulBuyTxs"`
	FailedBuyTxs     int `json:"failedBuyTxs"`
}

// SubmissionResult 一次发射尝试的最终结果，返回给调用方后不再保留
type SubmissionResult struct {
	State           common.LaunchState `json:"state"`
	Success         bool               `json:"success"`
	Atomic          bool               `json:"atomic"`
	MintAddress     string             `json:"mintAddress"`
	BundleID        string             `json:"bundleId,omitempty"`
	CreateSignature string             `json:"createSignature,omitempty"`
	RelayError      string             `json:"jitoError,omitempty"`
	Error           string             `json:"error,omitempty"`
	Outcomes        []TxOutcome        `json:"outcomes,omitempty"`
	Stats           *BuyStats          `json:"stats,omitempty"`
	Duration        time.Duration      `json:"-"`
	DurationMs      int64              `json:"durationMs"`
}

// Finish 记录耗时
func (r *SubmissionResult) Finish(start time.Time) {
	r.Duration = time.Since(start)
	r.DurationMs = r.Duration.Milliseconds()
}

// BundleStatusResult getBundleStatuses 单个 bundle 的状态
type BundleStatusResult struct {
	BundleID string              `json:"bundleId"`
	Status   common.BundleStatus `json:"status"`
	Slot     uint64              `json:"slot,omitempty"`
	Error    string              `json:"error,omitempty"`
}
