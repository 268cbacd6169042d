package model

// ReclaimOutcome 单个钱包的回收结果
type ReclaimOutcome struct {
	Wallet    string `json:"wallet"`
	Lamports  uint64 `json:"lamports"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ReclaimResult struct {
	Success        bool             `json:"success"`
	TotalReclaimed uint64           `json:"totalReclaimed"` // lamports
	SuccessCount   int              `json:"successCount"`
	FailedCount    int              `json:"failedCount"`
	Results        []ReclaimOutcome `json:"results"`
	DurationMs     int64            `json:"durationMs"`
}
