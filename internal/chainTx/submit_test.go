package chainTx

import (
	"context"
	"errors"
	"testing"

	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitter_Submit(t *testing.T) {
	t.Run("relay接受后原子成功", func(t *testing.T) {
		relay := &fakeRelay{id: "bundle-ok"}
		rpc := &fakeRPC{}
		s := NewSubmitter(relay, NewSequentialSubmitter(rpc), RetryPolicy{})

		var states []common.LaunchState
		s.OnState(func(st common.LaunchState) { states = append(states, st) })

		b := testBundle(3)
		res, err := s.Submit(context.Background(), b)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.True(t, res.Atomic)
		assert.Equal(t, "bundle-ok", res.BundleID)
		assert.Equal(t, common.StateAtomicallyLanded, res.State)
		assert.Len(t, res.Outcomes, 3)
		assert.Empty(t, rpc.sent, "原子成功后不应逐笔发送")
		assert.Equal(t, []common.LaunchState{common.StateSubmitting, common.StateAtomicallyLanded}, states)
	})

	t.Run("relay拒绝后降级，部分买入失败", func(t *testing.T) {
		relay := &fakeRelay{errs: []error{&common.RelayError{Code: -32602, Message: "too large"}}}
		rpc := &fakeRPC{failSend: map[byte]bool{2: true}}
		s := NewSubmitter(relay, NewSequentialSubmitter(rpc), RetryPolicy{MaxAttempts: 3})

		var states []common.LaunchState
		s.OnState(func(st common.LaunchState) { states = append(states, st) })

		b := testBundle(5)
		res, err := s.Submit(context.Background(), b)
		require.NoError(t, err)

		assert.Equal(t, 1, relay.calls, "拒绝不应重试")
		assert.True(t, res.Success)
		assert.False(t, res.Atomic)
		assert.Equal(t, common.StatePartiallyLanded, res.State)
		assert.Contains(t, res.RelayError, "too large")
		assert.NotEmpty(t, res.CreateSignature)
		require.NotNil(t, res.Stats)
		assert.Equal(t, 4, res.Stats.TotalBuyTxs)
		assert.Equal(t, 3, res.Stats.SuccessfulBuyTxs)
		assert.Equal(t, 1, res.Stats.FailedBuyTxs)

		require.Len(t, res.Outcomes, 5)
		assert.Equal(t, model.TxKindCreate, res.Outcomes[0].Kind)
		assert.False(t, res.Outcomes[2].Succeeded())
		assert.True(t, res.Outcomes[4].Succeeded())

		// create 先发送且做预检，买入跳过预检
		require.Len(t, rpc.sent, 5)
		assert.Equal(t, byte(0), rpc.sent[0][0])
		assert.True(t, rpc.preflight[0])
		for _, p := range rpc.preflight[1:] {
			assert.False(t, p)
		}
		assert.Len(t, rpc.confirmed, 1)

		assert.Equal(t, []common.LaunchState{
			common.StateSubmitting,
			common.StateRelayRejected,
			common.StateFallbackSubmitting,
			common.StatePartiallyLanded,
		}, states)
	})

	t.Run("create未确认时不发送买入", func(t *testing.T) {
		relay := &fakeRelay{errs: []error{&common.RelayError{Message: "rejected"}}}
		rpc := &fakeRPC{failConfirm: true}
		s := NewSubmitter(relay, NewSequentialSubmitter(rpc), RetryPolicy{})

		res, err := s.Submit(context.Background(), testBundle(4))
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrFallbackFailed))
		assert.False(t, res.Success)
		assert.Equal(t, common.StateFallbackFailed, res.State)
		assert.Len(t, rpc.sent, 1)
		assert.Nil(t, res.Stats)
	})

	t.Run("create发送失败", func(t *testing.T) {
		relay := &fakeRelay{errs: []error{&common.RelayError{Message: "rejected"}}}
		rpc := &fakeRPC{failSend: map[byte]bool{0: true}}
		s := NewSubmitter(relay, NewSequentialSubmitter(rpc), RetryPolicy{})

		res, err := s.Submit(context.Background(), testBundle(2))
		assert.ErrorIs(t, err, common.ErrFallbackFailed)
		assert.Equal(t, common.StateFallbackFailed, res.State)
		assert.Empty(t, rpc.confirmed)
		assert.Len(t, rpc.sent, 1)
	})

	t.Run("临时错误重试后成功", func(t *testing.T) {
		transient := &common.RelayError{Message: "timeout", Transient: true}
		relay := &fakeRelay{errs: []error{transient, transient}, id: "bundle-retry"}
		s := NewSubmitter(relay, NewSequentialSubmitter(&fakeRPC{}), RetryPolicy{MaxAttempts: 3})

		res, err := s.Submit(context.Background(), testBundle(2))
		require.NoError(t, err)
		assert.Equal(t, 3, relay.calls)
		assert.True(t, res.Atomic)
		assert.Equal(t, "bundle-retry", res.BundleID)
	})

	t.Run("重试次数用尽后降级", func(t *testing.T) {
		transient := &common.RelayError{Message: "timeout", Transient: true}
		relay := &fakeRelay{errs: []error{transient, transient, transient}}
		rpc := &fakeRPC{}
		s := NewSubmitter(relay, NewSequentialSubmitter(rpc), RetryPolicy{MaxAttempts: 2})

		res, err := s.Submit(context.Background(), testBundle(3))
		require.NoError(t, err)
		assert.Equal(t, 2, relay.calls)
		assert.False(t, res.Atomic)
		assert.Equal(t, 2, res.Stats.SuccessfulBuyTxs)
	})

	t.Run("无降级时返回relay错误", func(t *testing.T) {
		relay := &fakeRelay{errs: []error{&common.RelayError{Message: "rejected"}}}
		s := NewSubmitter(relay, nil, RetryPolicy{})

		res, err := s.Submit(context.Background(), testBundle(2))
		require.Error(t, err)
		assert.Equal(t, common.StateRelayRejected, res.State)
		assert.False(t, res.Success)
	})
}

func TestSubmitter_SubmitIndependent(t *testing.T) {
	relay := &fakeRelay{errs: []error{&common.RelayError{Message: "rejected"}}}
	rpc := &fakeRPC{failSend: map[byte]bool{1: true}}
	s := NewSubmitter(relay, nil, RetryPolicy{})

	res, err := s.SubmitIndependent(context.Background(), testBundle(3), rpc)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.Atomic)
	assert.Equal(t, 2, res.Stats.SuccessfulBuyTxs)
	assert.Equal(t, 1, res.Stats.FailedBuyTxs)
	assert.Len(t, rpc.sent, 3)
}

func TestSendInGroups(t *testing.T) {
	rpc := &fakeRPC{failSend: map[byte]bool{3: true}}
	b := testBundle(7)

	results := SendInGroups(context.Background(), rpc, b.Transactions, 3, true)
	require.Len(t, results, 7)
	for i, r := range results {
		assert.Equal(t, i, r.Tx.Index, "结果应保持输入顺序")
		if i == 3 {
			assert.Error(t, r.Err)
			continue
		}
		assert.NoError(t, r.Err)
	}
}

func TestDryRun_Submit(t *testing.T) {
	res, err := DryRun{}.Submit(context.Background(), testBundle(2))
	require.NoError(t, err)
	assert.Equal(t, common.StateSimulated, res.State)
	assert.True(t, res.Success)
	assert.Empty(t, res.BundleID)
	assert.Len(t, res.Outcomes, 2)
}
