package model

import "pump_bundler/internal/common"

// FundOutcome 单个钱包的注资结果
type FundOutcome struct {
	Wallet    string `json:"wallet"`
	Lamports  uint64 `json:"lamports"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

type FundResult struct {
	Success         bool                 `json:"success"`
	Method          common.PrivacyMethod `json:"method"`
	ShieldSignature string               `json:"shieldSignature,omitempty"`
	TotalLamports   uint64               `json:"totalLamports"`
	FundedLamports  uint64               `json:"fundedLamports"`
	SuccessCount    int                  `json:"successCount"`
	FailedCount     int                  `json:"failedCount"`
	PrivacyScore    int                  `json:"privacyScore,omitempty"`
	Results         []FundOutcome        `json:"results"`
	DurationMs      int64                `json:"durationMs"`
}
