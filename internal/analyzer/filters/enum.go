package filters

import "pump_bundler/internal/common"

type Filter interface {
	// Filter 校验代币信息，通过时返回 nil，否则返回不通过的原因
	Filter(token *common.TokenConfigReq) error
	Name() string // 对应的请求字段
	Type() FilterType
}

type FilterType int

const (
	TokenName   FilterType = 1
	TokenSymbol FilterType = 2
	ImageURL    FilterType = 3
)
