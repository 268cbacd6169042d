package chainTx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pump_bundler/internal/common"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     interface{}       `json:"id"`
}

// newRelayServer handler 返回 result 或 error 字段（原样 JSON）
func newRelayServer(t *testing.T, handler func(req rpcRequest) (result, rpcErr string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		result, rpcErr := handler(req)
		id, _ := json.Marshal(req.ID)
		w.Header().Set("Content-Type", "application/json")
		if rpcErr != "" {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","error":` + rpcErr + `,"id":` + string(id) + `}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":` + result + `,"id":` + string(id) + `}`))
	}))
}

func TestJitoClient_SendBundle(t *testing.T) {
	raws := [][]byte{{1, 2, 3}, {4, 5, 6, 7}}

	t.Run("交易以base58编码提交", func(t *testing.T) {
		var got []string
		srv := newRelayServer(t, func(req rpcRequest) (string, string) {
			assert.Equal(t, "sendBundle", req.Method)
			require.Len(t, req.Params, 1)
			require.NoError(t, json.Unmarshal(req.Params[0], &got))
			return `"bundle-123"`, ""
		})
		defer srv.Close()

		id, err := NewJitoClient(srv.URL, time.Second).SendBundle(context.Background(), raws)
		require.NoError(t, err)
		assert.Equal(t, "bundle-123", id)
		require.Len(t, got, 2)
		for i, s := range got {
			decoded, err := base58.Decode(s)
			require.NoError(t, err)
			assert.Equal(t, raws[i], decoded)
		}
	})

	t.Run("relay拒绝不可重试", func(t *testing.T) {
		srv := newRelayServer(t, func(rpcRequest) (string, string) {
			return "", `{"code":-32602,"message":"bundle too large"}`
		})
		defer srv.Close()

		_, err := NewJitoClient(srv.URL, time.Second).SendBundle(context.Background(), raws)
		var relayErr *common.RelayError
		require.True(t, errors.As(err, &relayErr))
		assert.False(t, relayErr.Transient)
		assert.Equal(t, -32602, relayErr.Code)
		assert.Contains(t, relayErr.Message, "too large")
	})

	t.Run("服务端5xx可重试", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable"))
		}))
		defer srv.Close()

		_, err := NewJitoClient(srv.URL, time.Second).SendBundle(context.Background(), raws)
		var relayErr *common.RelayError
		require.True(t, errors.As(err, &relayErr))
		assert.True(t, relayErr.Transient)
	})

	t.Run("空bundle id视为失败", func(t *testing.T) {
		srv := newRelayServer(t, func(rpcRequest) (string, string) {
			return `""`, ""
		})
		defer srv.Close()

		_, err := NewJitoClient(srv.URL, time.Second).SendBundle(context.Background(), raws)
		assert.Error(t, err)
	})
}

func TestJitoClient_GetBundleStatuses(t *testing.T) {
	srv := newRelayServer(t, func(req rpcRequest) (string, string) {
		assert.Equal(t, "getBundleStatuses", req.Method)
		return `{"context":{"slot":10},"value":[
			{"bundle_id":"a","slot":9,"confirmation_status":"finalized","err":{"Ok":null}},
			{"bundle_id":"b","slot":0,"confirmation_status":"processed","err":{"Err":"dropped"}},
			{"bundle_id":"c","slot":0,"confirmation_status":"processed","err":{"Ok":null}}
		]}`, ""
	})
	defer srv.Close()

	got, err := NewJitoClient(srv.URL, time.Second).GetBundleStatuses(context.Background(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, common.BundleLanded, got[0].Status)
	assert.Equal(t, uint64(9), got[0].Slot)
	assert.Equal(t, common.BundleFailed, got[1].Status)
	assert.NotEmpty(t, got[1].Error)
	assert.Equal(t, common.BundlePending, got[2].Status)
	assert.Equal(t, "d", got[3].BundleID)
	assert.Equal(t, common.BundlePending, got[3].Status)
}

func TestBundleFailed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"空", "", false},
		{"null", "null", false},
		{"Ok", `{"Ok":null}`, false},
		{"Err", `{"Err":{"InstructionError":[0,"Custom"]}}`, true},
		{"字符串", `"failed"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bundleFailed(json.RawMessage(tt.raw)))
		})
	}
}
