package bundle

import (
	"fmt"

	"pump_bundler/internal/common"
	"pump_bundler/internal/model"
	"pump_bundler/internal/pump"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/sirupsen/logrus"
)

// ComputeBudget compute budget 指令参数
type ComputeBudget struct {
	UnitLimit uint32
	UnitPrice uint64 // micro-lamports
}

func (b ComputeBudget) instructions() []solana.Instruction {
	ixs := make([]solana.Instruction, 0, 2)
	if b.UnitLimit > 0 {
		ixs = append(ixs, computebudget.NewSetComputeUnitLimitInstruction(b.UnitLimit).Build())
	}
	if b.UnitPrice > 0 {
		ixs = append(ixs, computebudget.NewSetComputeUnitPriceInstruction(b.UnitPrice).Build())
	}
	return ixs
}

type AssemblerConfig struct {
	TxSizeLimit         int
	FirstTxBudget       ComputeBudget // create 交易
	TxBudget            ComputeBudget // 其余买入交易
	PlatformFeeLamports uint64        // 0 表示不收平台费
	PlatformFeeWallet   solana.PublicKey
	TipLamports         uint64
	TipAccounts         []solana.PublicKey
	Slippage            SlippagePolicy

	SellBudget      ComputeBudget
	SellTipLamports uint64
}

// Assembler 把分批结果组装成已签名交易，不做任何网络调用
type Assembler struct {
	cfg AssemblerConfig
}

func NewAssembler(cfg AssemblerConfig) *Assembler {
	return &Assembler{cfg: cfg}
}

// LaunchParams 一次发射的构建参数
type LaunchParams struct {
	Batches              []TransactionBatch
	Wallets              []*model.SignerWallet
	MintKey              solana.PrivateKey
	Derived              *pump.DerivedAddresses
	Token                *model.TokenDescriptor
	TotalBuyLamports     uint64
	BasePercent          float64
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// SignedTx 已签名并序列化的交易
type SignedTx struct {
	Index     int
	Kind      model.TxKind
	Wallets   []solana.PublicKey // 该交易中执行买入/卖出的钱包
	Signature solana.Signature
	Raw       []byte
	Tx        *solana.Transaction
}

func (t *SignedTx) WalletStrings() []string {
	out := make([]string, len(t.Wallets))
	for i, w := range t.Wallets {
		out[i] = w.String()
	}
	return out
}

// Bundle 签名后不可修改；重新签名需要用新的 blockhash 重建
type Bundle struct {
	Mint                 solana.PublicKey
	Transactions         []*SignedTx
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

func (b *Bundle) Size() int {
	return len(b.Transactions)
}

// CreateTx 第一笔交易（create + 第一批买入）
func (b *Bundle) CreateTx() *SignedTx {
	return b.Transactions[0]
}

// BuyTxs 第一笔之后的买入交易
func (b *Bundle) BuyTxs() []*SignedTx {
	return b.Transactions[1:]
}

// Assemble 按批次构建交易：compute budget -> create/buys -> 平台费/tip
func (a *Assembler) Assemble(p *LaunchParams) (*Bundle, error) {
	if len(p.Wallets) == 0 || len(p.Batches) == 0 {
		return nil, &common.ValidationError{Field: "wallets", Reason: common.ErrNoWallets.Error()}
	}
	perWallet := p.TotalBuyLamports / uint64(len(p.Wallets))
	if perWallet == 0 {
		return nil, &common.ValidationError{Field: "totalBuyAmount", Reason: "每个钱包的买入金额为0"}
	}
	if a.cfg.TipLamports > 0 && len(a.cfg.TipAccounts) == 0 {
		return nil, fmt.Errorf("未配置 tip 账户")
	}
	mintPub := p.MintKey.PublicKey()
	if !mintPub.Equals(p.Derived.Mint) {
		return nil, fmt.Errorf("mint 私钥 %s 与推导地址 %s 不一致", mintPub, p.Derived.Mint)
	}

	out := &Bundle{
		Mint:                 p.Derived.Mint,
		Transactions:         make([]*SignedTx, 0, len(p.Batches)),
		Blockhash:            p.Blockhash,
		LastValidBlockHeight: p.LastValidBlockHeight,
	}

	for _, batch := range p.Batches {
		last := batch.Wallets[len(batch.Wallets)-1]
		if last >= len(p.Wallets) {
			return nil, fmt.Errorf("批次 %d 引用了不存在的钱包 %d", batch.Index, last)
		}
		payer := p.Wallets[batch.FeePayer]

		budget := a.cfg.TxBudget
		if batch.HasCreate {
			budget = a.cfg.FirstTxBudget
		}
		ixs := budget.instructions()
		keys := map[solana.PublicKey]*solana.PrivateKey{
			payer.PublicKey: &payer.PrivateKey,
		}
		kind := model.TxKindBuy

		if batch.HasCreate {
			create, err := pump.EncodeCreate(payer.PublicKey, p.Derived, p.Token)
			if err != nil {
				return nil, err
			}
			ixs = append(ixs, create)
			keys[mintPub] = &p.MintKey
			kind = model.TxKindCreate
		}

		buyers := make([]solana.PublicKey, 0, len(batch.Wallets))
		for _, idx := range batch.Wallets {
			w := p.Wallets[idx]
			maxCost := a.cfg.Slippage.MaxCost(perWallet, p.BasePercent, idx)
			buy, err := pump.EncodeBuy(w.PublicKey, p.Derived, perWallet, maxCost)
			if err != nil {
				return nil, fmt.Errorf("钱包 %d 买入指令: %w", idx+1, err)
			}
			ixs = append(ixs, buy)
			keys[w.PublicKey] = &w.PrivateKey
			buyers = append(buyers, w.PublicKey)
		}

		if batch.HasPlatformFee && a.cfg.PlatformFeeLamports > 0 {
			ixs = append(ixs, system.NewTransferInstruction(a.cfg.PlatformFeeLamports, payer.PublicKey, a.cfg.PlatformFeeWallet).Build())
		}
		if batch.HasTip && a.cfg.TipLamports > 0 {
			ixs = append(ixs, system.NewTransferInstruction(a.cfg.TipLamports, payer.PublicKey, a.tipAccount(p.Blockhash)).Build())
		}

		tx, err := compileAndSign(batch.Index, ixs, payer.PublicKey, keys, p.Blockhash, a.cfg.TxSizeLimit)
		if err != nil {
			return nil, err
		}
		tx.Kind = kind
		tx.Wallets = buyers
		out.Transactions = append(out.Transactions, tx)

		common.Log.WithFields(logrus.Fields{
			"mint":     out.Mint.String(),
			"tx_index": batch.Index + 1,
			"wallets":  len(buyers),
			"bytes":    len(tx.Raw),
		}).Debug("交易已签名")
	}
	return out, nil
}

// tipAccount 由 blockhash 选择 tip 账户，分散到不同账户上
func (a *Assembler) tipAccount(blockhash solana.Hash) solana.PublicKey {
	return a.cfg.TipAccounts[int(blockhash[0])%len(a.cfg.TipAccounts)]
}

// compileAndSign 编译 v0 消息并用签名者集合签名。
// 签名者集合必须与指令中标记为 signer 的账户完全一致，否则是组装逻辑错误。
func compileAndSign(index int, ixs []solana.Instruction, payer solana.PublicKey, keys map[solana.PublicKey]*solana.PrivateKey, blockhash solana.Hash, sizeLimit int) (*SignedTx, error) {
	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("构建交易 %d 失败: %w", index+1, err)
	}
	tx.Message.SetVersion(solana.MessageVersionV0)

	required := tx.Message.Signers()
	if len(required) != len(keys) {
		panic(fmt.Sprintf("交易 %d 签名者数量不一致: 需要 %d, 提供 %d", index+1, len(required), len(keys)))
	}
	for _, pk := range required {
		if _, ok := keys[pk]; !ok {
			panic(fmt.Sprintf("交易 %d 缺少签名者 %s", index+1, pk))
		}
	}

	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		return keys[pk]
	}); err != nil {
		return nil, fmt.Errorf("签名交易 %d 失败: %w", index+1, err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("序列化交易 %d 失败: %w", index+1, err)
	}
	if sizeLimit > 0 && len(raw) > sizeLimit {
		return nil, &common.TxTooLargeError{TxIndex: index, Size: len(raw), Limit: sizeLimit}
	}

	return &SignedTx{
		Index:     index,
		Signature: tx.Signatures[0],
		Raw:       raw,
		Tx:        tx,
	}, nil
}
