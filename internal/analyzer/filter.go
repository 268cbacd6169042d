package analyzer

import (
	"time"

	"pump_bundler/internal/analyzer/filters"
	"pump_bundler/internal/common"
)

// FilterResult 过滤结果
type FilterResult struct {
	Token        *common.TokenConfigReq
	IsFiltered   bool
	FilteredBy   []string
	Reasons      []string // 与 FilteredBy 一一对应
	AnalysisTime time.Time
}

// Err 第一个不通过的过滤器转成 ValidationError
func (r *FilterResult) Err() error {
	if !r.IsFiltered {
		return nil
	}
	return &common.ValidationError{Field: r.FilteredBy[0], Reason: r.Reasons[0]}
}

// ProcessToken 对代币信息应用所有过滤器
func ProcessToken(token *common.TokenConfigReq, config *Config) *FilterResult {
	result := &FilterResult{
		Token:        token,
		IsFiltered:   false,
		FilteredBy:   []string{},
		AnalysisTime: time.Now(),
	}

	for _, filter := range config.Filters {
		if err := filter.Filter(token); err != nil {
			result.IsFiltered = true
			result.FilteredBy = append(result.FilteredBy, filter.Name())
			result.Reasons = append(result.Reasons, err.Error())
		}
	}

	return result
}

// Config 校验配置
type Config struct {
	Filters []filters.Filter // 代币信息过滤器

	MaxWallets             int
	MinBuySol              float64
	MaxBuySol              float64
	MinSlippagePercent     float64
	MaxSlippagePercent     float64
	DefaultBuySol          float64 // 请求未填写时使用
	DefaultSlippagePercent float64
}

// DefaultConfig 返回默认校验配置
func DefaultConfig() *Config {
	return &Config{
		Filters: []filters.Filter{
			filters.NewNameFilter(),
			filters.NewSymbolFilter(),
			filters.NewImageURLFilter(),
		},
		MaxWallets:             50,
		MinBuySol:              0.001,
		MaxBuySol:              1000,
		MinSlippagePercent:     0.1,
		MaxSlippagePercent:     50,
		DefaultBuySol:          5,
		DefaultSlippagePercent: 15,
	}
}
