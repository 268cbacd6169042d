package common

import (
	"errors"
	"fmt"
)

var (
	ErrNoWallets       = errors.New("钱包列表为空")
	ErrFallbackFailed  = errors.New("降级提交失败: create 交易未上链")
	ErrBlockHeightPast = errors.New("区块高度已超过 lastValidBlockHeight")
	ErrRateLimited     = errors.New("请求过于频繁")
)

// ValidationError 请求参数不合法，在任何网络调用前返回，不重试
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数校验失败 [%s]: %s", e.Field, e.Reason)
}

// EncodingError 字段超过程序的长度限制
type EncodingError struct {
	Field string
	Len   int
	Max   int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("编码失败: %s 长度 %d 超过上限 %d", e.Field, e.Len, e.Max)
}

// TooManyWalletsError 钱包数超过单个 bundle 可容纳的上限，调用方需减少钱包
type TooManyWalletsError struct {
	Requested int
	Ceiling   int
}

func (e *TooManyWalletsError) Error() string {
	return fmt.Sprintf("钱包数量 %d 超过上限 %d", e.Requested, e.Ceiling)
}

// TxTooLargeError 序列化后的交易超过网络大小限制
type TxTooLargeError struct {
	TxIndex int
	Size    int
	Limit   int
}

func (e *TxTooLargeError) Error() string {
	return fmt.Sprintf("交易 %d 大小 %d 字节超过限制 %d", e.TxIndex+1, e.Size, e.Limit)
}

// RelayError bundle 被 relay 拒绝或 relay 不可达
type RelayError struct {
	Code      int
	Message   string
	Transient bool // 超时/连接失败，可按配置重试
	Err       error
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("relay 错误: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("relay 错误: %s", e.Message)
}

func (e *RelayError) Unwrap() error { return e.Err }

// NetworkError RPC 调用失败
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s 失败: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
