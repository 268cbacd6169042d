package bundle

import (
	"fmt"

	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// Transfer 一次 SOL 转账
type Transfer struct {
	To       solana.PublicKey
	Lamports uint64
}

// BuildTransferTx 由 payer 签名的多笔转账交易，用于资金分发和回收
func BuildTransferTx(payer *model.SignerWallet, transfers []Transfer, budget ComputeBudget, blockhash solana.Hash, sizeLimit int) (*SignedTx, error) {
	if len(transfers) == 0 {
		return nil, fmt.Errorf("转账列表为空")
	}
	ixs := budget.instructions()
	for _, t := range transfers {
		ixs = append(ixs, system.NewTransferInstruction(t.Lamports, payer.PublicKey, t.To).Build())
	}
	keys := map[solana.PublicKey]*solana.PrivateKey{payer.PublicKey: &payer.PrivateKey}
	tx, err := compileAndSign(0, ixs, payer.PublicKey, keys, blockhash, sizeLimit)
	if err != nil {
		return nil, err
	}
	tx.Wallets = []solana.PublicKey{payer.PublicKey}
	return tx, nil
}
