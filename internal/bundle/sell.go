package bundle

import (
	"fmt"

	"pump_bundler/internal/model"
	"pump_bundler/internal/pump"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// SellOrder 单个钱包的卖出数量
type SellOrder struct {
	Wallet      *model.SignerWallet
	TokenAmount uint64
}

type SellParams struct {
	Orders               []SellOrder
	Derived              *pump.DerivedAddresses
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
	BundleSize           int // 每个 bundle 的交易数上限
}

// AssembleSells 每个钱包一笔卖出交易，按 BundleSize 切分，每个 bundle 的第一笔带 tip
func (a *Assembler) AssembleSells(p *SellParams) ([]*Bundle, error) {
	if len(p.Orders) == 0 {
		return nil, fmt.Errorf("没有可卖出的钱包")
	}
	size := p.BundleSize
	if size <= 0 {
		size = 1
	}

	bundles := make([]*Bundle, 0, (len(p.Orders)+size-1)/size)
	for i, order := range p.Orders {
		w := order.Wallet
		sell, err := pump.EncodeSell(w.PublicKey, p.Derived, order.TokenAmount, 0)
		if err != nil {
			return nil, err
		}
		ixs := append(a.cfg.SellBudget.instructions(), sell)

		firstInBundle := i%size == 0
		if firstInBundle && a.cfg.SellTipLamports > 0 && len(a.cfg.TipAccounts) > 0 {
			ixs = append(ixs, system.NewTransferInstruction(a.cfg.SellTipLamports, w.PublicKey, a.tipAccount(p.Blockhash)).Build())
		}

		keys := map[solana.PublicKey]*solana.PrivateKey{w.PublicKey: &w.PrivateKey}
		tx, err := compileAndSign(i%size, ixs, w.PublicKey, keys, p.Blockhash, a.cfg.TxSizeLimit)
		if err != nil {
			return nil, err
		}
		tx.Kind = model.TxKindSell
		tx.Wallets = []solana.PublicKey{w.PublicKey}

		if firstInBundle {
			bundles = append(bundles, &Bundle{
				Mint:                 p.Derived.Mint,
				Blockhash:            p.Blockhash,
				LastValidBlockHeight: p.LastValidBlockHeight,
			})
		}
		cur := bundles[len(bundles)-1]
		cur.Transactions = append(cur.Transactions, tx)
	}
	return bundles, nil
}
