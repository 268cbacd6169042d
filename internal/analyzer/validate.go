package analyzer

import (
	"fmt"
	"math"
	"strings"

	"pump_bundler/internal/common"
	"pump_bundler/internal/execctor"
	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go"
)

// 请求校验，全部在任何网络调用之前完成

// ParsePublicKey 校验 base58 公钥
func ParsePublicKey(field, s string) (solana.PublicKey, error) {
	s = strings.TrimSpace(s)
	if len(s) < 32 || len(s) > 44 {
		return solana.PublicKey{}, &common.ValidationError{Field: field, Reason: "公钥长度错误"}
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, &common.ValidationError{Field: field, Reason: "公钥格式错误"}
	}
	return pk, nil
}

// SolToLamports 按 9 位精度四舍五入
func SolToLamports(sol float64) uint64 {
	return uint64(math.Round(sol * common.LAMPORTS_PER_SOL))
}

func checkRange(field string, v, lo, hi float64, unit string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &common.ValidationError{Field: field, Reason: "数值格式错误"}
	}
	if v < lo {
		return &common.ValidationError{Field: field, Reason: fmt.Sprintf("不能小于 %g%s", lo, unit)}
	}
	if v > hi {
		return &common.ValidationError{Field: field, Reason: fmt.Sprintf("不能超过 %g%s", hi, unit)}
	}
	return nil
}

func validateWallets(reqs []common.WalletReq, limit int) ([]*model.SignerWallet, error) {
	if len(reqs) == 0 {
		return nil, &common.ValidationError{Field: "wallets", Reason: common.ErrNoWallets.Error()}
	}
	if len(reqs) > limit {
		return nil, &common.ValidationError{Field: "wallets", Reason: fmt.Sprintf("最多 %d 个钱包", limit)}
	}
	for i, w := range reqs {
		if w.PublicKey == "" {
			continue
		}
		if _, err := ParsePublicKey(fmt.Sprintf("wallets[%d].publicKey", i), w.PublicKey); err != nil {
			return nil, err
		}
	}
	return model.WalletsFromReq(reqs)
}

// NormalizeToken 去掉首尾空格，符号转大写
func NormalizeToken(req common.TokenConfigReq) common.TokenConfigReq {
	return common.TokenConfigReq{
		Name:        strings.TrimSpace(req.Name),
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Description: strings.TrimSpace(req.Description),
		ImageUrl:    strings.TrimSpace(req.ImageUrl),
	}
}

// ValidateLaunch 校验发射请求并填充默认值
func ValidateLaunch(req *common.LaunchReq, cfg *Config) (*execctor.LaunchInput, error) {
	token := NormalizeToken(req.TokenConfig)
	if err := ProcessToken(&token, cfg).Err(); err != nil {
		return nil, err
	}

	buySol := req.TotalBuyAmount
	if buySol == 0 {
		buySol = cfg.DefaultBuySol
	}
	if err := checkRange("totalBuyAmount", buySol, cfg.MinBuySol, cfg.MaxBuySol, " SOL"); err != nil {
		return nil, err
	}
	slippage := req.SlippagePercent
	if slippage == 0 {
		slippage = cfg.DefaultSlippagePercent
	}
	if err := checkRange("slippagePercent", slippage, cfg.MinSlippagePercent, cfg.MaxSlippagePercent, "%"); err != nil {
		return nil, err
	}

	wallets, err := validateWallets(req.Wallets, cfg.MaxWallets)
	if err != nil {
		return nil, err
	}
	return &execctor.LaunchInput{
		Token:            model.NewTokenDescriptor(token.Name, token.Symbol, token.Description, token.ImageUrl),
		Wallets:          wallets,
		TotalBuyLamports: SolToLamports(buySol),
		SlippagePercent:  slippage,
	}, nil
}

func ValidateSell(req *common.SellReq, cfg *Config) (*execctor.SellInput, error) {
	if strings.TrimSpace(req.MintAddress) == "" {
		return nil, &common.ValidationError{Field: "mintAddress", Reason: "缺少 mint 地址"}
	}
	mint, err := ParsePublicKey("mintAddress", req.MintAddress)
	if err != nil {
		return nil, err
	}
	wallets, err := validateWallets(req.Wallets, cfg.MaxWallets)
	if err != nil {
		return nil, err
	}
	return &execctor.SellInput{Mint: mint, Wallets: wallets}, nil
}

func ValidateReclaim(req *common.ReclaimReq, cfg *Config) (solana.PublicKey, []*model.SignerWallet, error) {
	dest, err := ParsePublicKey("destinationAddress", req.DestinationAddress)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	wallets, err := validateWallets(req.Wallets, cfg.MaxWallets)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return dest, wallets, nil
}

// FundInput 已校验的分发请求
type FundInput struct {
	Funder        *model.SignerWallet
	Recipients    []solana.PublicKey
	TotalLamports uint64
	Method        common.PrivacyMethod // 为空时使用配置
}

// ValidatePrivacyMethod 空值表示使用配置的方式
func ValidatePrivacyMethod(method common.PrivacyMethod) (common.PrivacyMethod, error) {
	m := common.PrivacyMethod(strings.ToLower(strings.TrimSpace(string(method))))
	switch m {
	case "", common.PRIVACY_NONE, common.PRIVACY_CASH, common.PRIVACY_SHADOWWIRE:
		return m, nil
	default:
		return "", &common.ValidationError{
			Field:  "privacyMethod",
			Reason: fmt.Sprintf("只支持 %s, %s, %s", common.PRIVACY_NONE, common.PRIVACY_CASH, common.PRIVACY_SHADOWWIRE),
		}
	}
}

func ValidateFund(req *common.FundReq, cfg *Config) (*FundInput, error) {
	funder, err := model.WalletFromReq(req.Funder)
	if err != nil {
		return nil, err
	}
	if len(req.Wallets) == 0 {
		return nil, &common.ValidationError{Field: "wallets", Reason: common.ErrNoWallets.Error()}
	}
	if len(req.Wallets) > cfg.MaxWallets {
		return nil, &common.ValidationError{Field: "wallets", Reason: fmt.Sprintf("最多 %d 个钱包", cfg.MaxWallets)}
	}
	recipients := make([]solana.PublicKey, len(req.Wallets))
	for i, w := range req.Wallets {
		if recipients[i], err = ParsePublicKey(fmt.Sprintf("wallets[%d]", i), w); err != nil {
			return nil, err
		}
	}
	if err := checkRange("totalAmount", req.TotalAmount, cfg.MinBuySol, cfg.MaxBuySol, " SOL"); err != nil {
		return nil, err
	}
	method, err := ValidatePrivacyMethod(req.PrivacyMethod)
	if err != nil {
		return nil, err
	}
	return &FundInput{
		Funder:        funder,
		Recipients:    recipients,
		TotalLamports: SolToLamports(req.TotalAmount),
		Method:        method,
	}, nil
}
