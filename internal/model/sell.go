package model

// SellOutcome 单个钱包的卖出结果
type SellOutcome struct {
	Wallet      string `json:"wallet"`
	TokenAmount uint64 `json:"tokenAmount"`
	BundleID    string `json:"bundleId,omitempty"`
	Signature   string `json:"signature,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (o SellOutcome) Succeeded() bool {
	return o.Error == "" && (o.Signature != "" || o.BundleID != "")
}

// SellResult 一次批量卖出的结果，每个 bundle 独立提交
type SellResult struct {
	Success      bool                `json:"success"`
	MintAddress  string              `json:"mintAddress"`
	BundleIDs    []string            `json:"bundleIds,omitempty"`
	Results      []SellOutcome       `json:"results"`
	Submissions  []*SubmissionResult `json:"-"`
	SuccessCount int                 `json:"successCount"`
	FailedCount  int                 `json:"failedCount"`
	DurationMs   int64               `json:"durationMs"`
}
