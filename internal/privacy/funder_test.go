package privacy

import (
	"context"
	"errors"
	"testing"

	"pump_bundler/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	funder := newSigner()
	rpc := &fakeRPC{}

	tests := []struct {
		name    string
		opt     Options
		want    common.PrivacyMethod
		wantErr bool
	}{
		{"直接转账", Options{Method: common.PRIVACY_NONE}, common.PRIVACY_NONE, false},
		{"非主网隐私通道走模拟", Options{Method: common.PRIVACY_CASH, Network: common.DEVNET}, common.PRIVACY_CASH, false},
		{"主网缺少sidecar", Options{Method: common.PRIVACY_SHADOWWIRE, Network: common.MAINNET}, "", true},
		{"主网privacy-cash", Options{Method: common.PRIVACY_CASH, Network: common.MAINNET, Endpoints: map[common.PrivacyMethod]string{common.PRIVACY_CASH: "http://127.0.0.1:1"}}, common.PRIVACY_CASH, false},
		{"未知方式", Options{Method: "tornado"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.opt, rpc, funder)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}

	p, _ := NewProvider(Options{Method: common.PRIVACY_CASH, Network: common.MAINNET, Endpoints: map[common.PrivacyMethod]string{common.PRIVACY_CASH: "http://127.0.0.1:1"}}, rpc, funder)
	_, ok := p.(*PrivacyCash)
	assert.True(t, ok)
}

func TestFunder_FundDirect(t *testing.T) {
	opt := Options{Method: common.PRIVACY_NONE, TransfersPerTx: 20, UnitPrice: 10_000, TxSizeLimit: 1232}

	t.Run("逐笔确认全部成功", func(t *testing.T) {
		rpc := &fakeRPC{}
		recipients := newRecipients(25)
		total := uint64(25 * 10_000_000)

		res, err := NewFunder(rpc, opt).Fund(context.Background(), "", newSigner(), recipients, total)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, common.PRIVACY_NONE, res.Method)
		assert.Equal(t, 25, res.SuccessCount)
		assert.Equal(t, total, res.FundedLamports)
		assert.Len(t, rpc.sent, 2)
		assert.Equal(t, res.Results[0].Signature, res.Results[19].Signature)
		assert.NotEqual(t, res.Results[0].Signature, res.Results[20].Signature)
	})

	t.Run("第一笔失败后不再发送", func(t *testing.T) {
		rpc := &fakeRPC{failConfirm: true}
		res, err := NewFunder(rpc, opt).Fund(context.Background(), common.PRIVACY_NONE, newSigner(), newRecipients(25), 25*10_000_000)
		require.Error(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, 25, res.FailedCount)
		assert.Len(t, rpc.sent, 1)
	})

	t.Run("没有钱包", func(t *testing.T) {
		_, err := NewFunder(&fakeRPC{}, opt).Fund(context.Background(), "", newSigner(), nil, 1)
		var ve *common.ValidationError
		assert.True(t, errors.As(err, &ve))
	})
}

func TestFunder_FundPrivate(t *testing.T) {
	opt := Options{Method: common.PRIVACY_NONE, Network: common.DEVNET, AmountVariance: 0.15}
	f := NewFunder(&fakeRPC{}, opt)

	res, err := f.Fund(context.Background(), common.PRIVACY_SHADOWWIRE, newSigner(), newRecipients(5), 5_000_000)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, common.PRIVACY_SHADOWWIRE, res.Method)
	assert.NotEmpty(t, res.ShieldSignature)
	assert.Equal(t, 5, res.SuccessCount)
	assert.Equal(t, uint64(5_000_000), res.FundedLamports)
	assert.GreaterOrEqual(t, res.PrivacyScore, 30)
}
