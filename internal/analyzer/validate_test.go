package analyzer

import (
	"errors"
	"strings"
	"testing"

	"pump_bundler/internal/common"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walletReqs(n int) []common.WalletReq {
	reqs := make([]common.WalletReq, n)
	for i := range reqs {
		w := solana.NewWallet()
		reqs[i] = common.WalletReq{PublicKey: w.PublicKey().String(), SecretKey: common.SecretKey(w.PrivateKey)}
	}
	return reqs
}

func validLaunch() *common.LaunchReq {
	return &common.LaunchReq{
		TokenConfig: common.TokenConfigReq{
			Name:        "  Moon Dog ",
			Symbol:      "mdog",
			Description: "to the moon",
			ImageUrl:    "https://cdn.example.com/dog.png",
		},
		Wallets: walletReqs(3),
	}
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var vErr *common.ValidationError
	require.True(t, errors.As(err, &vErr), "期望 ValidationError, 实际 %v", err)
	return vErr.Field
}

func TestProcessToken(t *testing.T) {
	token := common.TokenConfigReq{Name: "", Symbol: "bad symbol", ImageUrl: "ftp://x.io/a"}
	res := ProcessToken(&token, DefaultConfig())
	assert.True(t, res.IsFiltered)
	assert.Equal(t, []string{"name", "symbol", "imageUrl"}, res.FilteredBy)
	assert.Len(t, res.Reasons, 3)
	assert.Equal(t, "name", fieldOf(t, res.Err()))

	ok := common.TokenConfigReq{Name: "ok", Symbol: "OK"}
	assert.NoError(t, ProcessToken(&ok, DefaultConfig()).Err())
}

func TestValidateLaunch(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("填充默认值并规范化", func(t *testing.T) {
		in, err := ValidateLaunch(validLaunch(), cfg)
		require.NoError(t, err)
		assert.Equal(t, "Moon Dog", in.Token.Name)
		assert.Equal(t, "MDOG", in.Token.Symbol)
		assert.True(t, strings.HasPrefix(in.Token.URI, "https://pump.fun/api/ipfs?"))
		assert.Equal(t, uint64(5*common.LAMPORTS_PER_SOL), in.TotalBuyLamports)
		assert.Equal(t, 15.0, in.SlippagePercent)
		assert.Len(t, in.Wallets, 3)
	})

	t.Run("金额按9位精度换算", func(t *testing.T) {
		req := validLaunch()
		req.TotalBuyAmount = 0.1234567891
		in, err := ValidateLaunch(req, cfg)
		require.NoError(t, err)
		assert.Equal(t, uint64(123_456_789), in.TotalBuyLamports)
	})

	tests := []struct {
		name   string
		mutate func(r *common.LaunchReq)
		field  string
	}{
		{name: "名称非法", mutate: func(r *common.LaunchReq) { r.TokenConfig.Name = "a$b" }, field: "name"},
		{name: "符号过长", mutate: func(r *common.LaunchReq) { r.TokenConfig.Symbol = "ABCDEFGHIJKL" }, field: "symbol"},
		{name: "金额过小", mutate: func(r *common.LaunchReq) { r.TotalBuyAmount = 0.0001 }, field: "totalBuyAmount"},
		{name: "金额过大", mutate: func(r *common.LaunchReq) { r.TotalBuyAmount = 1001 }, field: "totalBuyAmount"},
		{name: "滑点过大", mutate: func(r *common.LaunchReq) { r.SlippagePercent = 51 }, field: "slippagePercent"},
		{name: "滑点为负", mutate: func(r *common.LaunchReq) { r.SlippagePercent = -1 }, field: "slippagePercent"},
		{name: "没有钱包", mutate: func(r *common.LaunchReq) { r.Wallets = nil }, field: "wallets"},
		{name: "钱包超过50个", mutate: func(r *common.LaunchReq) { r.Wallets = walletReqs(51) }, field: "wallets"},
		{name: "公钥格式错误", mutate: func(r *common.LaunchReq) { r.Wallets[1].PublicKey = "not-a-key" }, field: "wallets[1].publicKey"},
		{name: "公钥与私钥不匹配", mutate: func(r *common.LaunchReq) { r.Wallets[0].PublicKey = r.Wallets[2].PublicKey }, field: "publicKey"},
		{name: "私钥长度错误", mutate: func(r *common.LaunchReq) { r.Wallets[0].SecretKey = r.Wallets[0].SecretKey[:32] }, field: "secretKey"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validLaunch()
			tt.mutate(req)
			_, err := ValidateLaunch(req, cfg)
			assert.Equal(t, tt.field, fieldOf(t, err))
		})
	}
}

func TestValidateSellAndReclaim(t *testing.T) {
	cfg := DefaultConfig()
	mint := solana.NewWallet().PublicKey()

	in, err := ValidateSell(&common.SellReq{MintAddress: " " + mint.String() + " ", Wallets: walletReqs(2)}, cfg)
	require.NoError(t, err)
	assert.Equal(t, mint, in.Mint)
	assert.Len(t, in.Wallets, 2)

	_, err = ValidateSell(&common.SellReq{Wallets: walletReqs(1)}, cfg)
	assert.Equal(t, "mintAddress", fieldOf(t, err))

	dest, wallets, err := ValidateReclaim(&common.ReclaimReq{DestinationAddress: mint.String(), Wallets: walletReqs(4)}, cfg)
	require.NoError(t, err)
	assert.Equal(t, mint, dest)
	assert.Len(t, wallets, 4)

	_, _, err = ValidateReclaim(&common.ReclaimReq{DestinationAddress: "short", Wallets: walletReqs(1)}, cfg)
	assert.Equal(t, "destinationAddress", fieldOf(t, err))
}

func TestValidateFund(t *testing.T) {
	cfg := DefaultConfig()
	funder := walletReqs(1)[0]
	recipients := []string{solana.NewWallet().PublicKey().String(), solana.NewWallet().PublicKey().String()}

	in, err := ValidateFund(&common.FundReq{Funder: funder, Wallets: recipients, TotalAmount: 2, PrivacyMethod: " ShadowWire "}, cfg)
	require.NoError(t, err)
	assert.Equal(t, common.PRIVACY_SHADOWWIRE, in.Method)
	assert.Equal(t, uint64(2*common.LAMPORTS_PER_SOL), in.TotalLamports)
	assert.Len(t, in.Recipients, 2)

	in, err = ValidateFund(&common.FundReq{Funder: funder, Wallets: recipients, TotalAmount: 1}, cfg)
	require.NoError(t, err)
	assert.Equal(t, common.PrivacyMethod(""), in.Method)

	tests := []struct {
		name  string
		req   common.FundReq
		field string
	}{
		{name: "未知隐私方式", req: common.FundReq{Funder: funder, Wallets: recipients, TotalAmount: 1, PrivacyMethod: "tornado"}, field: "privacyMethod"},
		{name: "收款地址错误", req: common.FundReq{Funder: funder, Wallets: []string{"xyz"}, TotalAmount: 1}, field: "wallets[0]"},
		{name: "金额为0", req: common.FundReq{Funder: funder, Wallets: recipients}, field: "totalAmount"},
		{name: "没有收款钱包", req: common.FundReq{Funder: funder, TotalAmount: 1}, field: "wallets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateFund(&tt.req, cfg)
			assert.Equal(t, tt.field, fieldOf(t, err))
		})
	}
}
