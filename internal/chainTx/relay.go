package chainTx

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/mr-tron/base58"
)

// Relay 接收 bundle 的外部服务
type Relay interface {
	SendBundle(ctx context.Context, txs [][]byte) (string, error)
}

// JitoClient Jito block engine 的 JSON-RPC 客户端
type JitoClient struct {
	client  jsonrpc.RPCClient
	timeout time.Duration
}

// NewJitoClient endpoint 形如 https://mainnet.block-engine.jito.wtf/api/v1/bundles
func NewJitoClient(endpoint string, timeout time.Duration) *JitoClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &JitoClient{
		client: jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
			HTTPClient: &http.Client{Timeout: timeout},
		}),
		timeout: timeout,
	}
}

// SendBundle 以 base58 编码提交整个 bundle，成功返回 bundle id
func (c *JitoClient) SendBundle(ctx context.Context, txs [][]byte) (string, error) {
	encoded := make([]string, len(txs))
	for i, raw := range txs {
		encoded[i] = base58.Encode(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Call(ctx, "sendBundle", []interface{}{encoded})
	if relayErr := toRelayError(resp, err); relayErr != nil {
		return "", relayErr
	}

	var bundleID string
	if err := resp.GetObject(&bundleID); err != nil {
		return "", &common.RelayError{Message: "解析 bundle id 失败", Err: err}
	}
	if bundleID == "" {
		return "", &common.RelayError{Message: "relay 返回空的 bundle id"}
	}
	return bundleID, nil
}

type bundleStatusesResult struct {
	Value []struct {
		BundleID           string          `json:"bundle_id"`
		Slot               uint64          `json:"slot"`
		ConfirmationStatus string          `json:"confirmation_status"`
		Err                json.RawMessage `json:"err"`
	} `json:"value"`
}

// GetBundleStatuses 查询 bundle 上链状态，供调用方确认，提交流程本身不轮询
func (c *JitoClient) GetBundleStatuses(ctx context.Context, ids []string) ([]model.BundleStatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Call(ctx, "getBundleStatuses", []interface{}{ids})
	if relayErr := toRelayError(resp, err); relayErr != nil {
		return nil, relayErr
	}

	var out bundleStatusesResult
	if err := resp.GetObject(&out); err != nil {
		return nil, &common.RelayError{Message: "解析 bundle 状态失败", Err: err}
	}

	found := make(map[string]model.BundleStatusResult, len(out.Value))
	for _, v := range out.Value {
		st := model.BundleStatusResult{BundleID: v.BundleID, Slot: v.Slot, Status: common.BundlePending}
		switch {
		case v.ConfirmationStatus == "confirmed" || v.ConfirmationStatus == "finalized":
			st.Status = common.BundleLanded
		case bundleFailed(v.Err):
			st.Status = common.BundleFailed
			st.Error = string(v.Err)
		}
		found[v.BundleID] = st
	}

	results := make([]model.BundleStatusResult, len(ids))
	for i, id := range ids {
		if st, ok := found[id]; ok {
			results[i] = st
			continue
		}
		results[i] = model.BundleStatusResult{BundleID: id, Status: common.BundlePending}
	}
	return results, nil
}

// err 为 {"Ok":null} 表示成功
func bundleFailed(raw json.RawMessage) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	var ok map[string]json.RawMessage
	if json.Unmarshal(raw, &ok) == nil {
		if _, isOk := ok["Ok"]; isOk {
			return false
		}
	}
	return true
}

func toRelayError(resp *jsonrpc.RPCResponse, err error) error {
	if resp != nil && resp.Error != nil {
		return &common.RelayError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	if err != nil {
		return &common.RelayError{Message: "relay 请求失败", Transient: isTransient(err), Err: err}
	}
	if resp == nil {
		return &common.RelayError{Message: "relay 无响应"}
	}
	return nil
}

// isTransient 超时和连接错误可重试，relay 明确拒绝的不可重试
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code == http.StatusTooManyRequests || httpErr.Code >= 500
	}
	return false
}

var _ Relay = (*JitoClient)(nil)
