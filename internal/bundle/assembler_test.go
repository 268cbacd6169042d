package bundle

import (
	"errors"
	"testing"

	"pump_bundler/internal/common"
	"pump_bundler/internal/model"
	"pump_bundler/internal/pump"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testBlockhash   = solana.Hash(solana.MustPublicKeyFromBase58("DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL"))
	testFeeWallet   = solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5")
	testTipAccounts = []solana.PublicKey{
		solana.MustPublicKeyFromBase58("HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe"),
		solana.MustPublicKeyFromBase58("Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY"),
	}
)

func testAssemblerConfig(sizeLimit int) AssemblerConfig {
	return AssemblerConfig{
		TxSizeLimit:         sizeLimit,
		FirstTxBudget:       ComputeBudget{UnitLimit: 1_400_000, UnitPrice: 500_000},
		TxBudget:            ComputeBudget{UnitLimit: 1_400_000, UnitPrice: 300_000},
		PlatformFeeLamports: 500_000_000,
		PlatformFeeWallet:   testFeeWallet,
		TipLamports:         10_000_000,
		TipAccounts:         testTipAccounts,
		Slippage:            SlippagePolicy{StepPercent: 0.3, MaxPercent: 50},
		SellBudget:          ComputeBudget{UnitLimit: 200_000, UnitPrice: 100_000},
		SellTipLamports:     500_000,
	}
}

func newWallets(n int) []*model.SignerWallet {
	wallets := make([]*model.SignerWallet, n)
	for i := range wallets {
		w := solana.NewWallet()
		wallets[i] = &model.SignerWallet{PublicKey: w.PublicKey(), PrivateKey: w.PrivateKey}
	}
	return wallets
}

func launchParams(t *testing.T, cfg PlanConfig, n int) *LaunchParams {
	t.Helper()
	batches, err := cfg.Plan(n)
	require.NoError(t, err)
	mint := solana.NewWallet()
	return &LaunchParams{
		Batches:              batches,
		Wallets:              newWallets(n),
		MintKey:              mint.PrivateKey,
		Derived:              pump.Derive(mint.PublicKey()),
		Token:                &model.TokenDescriptor{Name: "Test Token", Symbol: "TEST", URI: "https://example.com/m.json"},
		TotalBuyLamports:     5 * common.LAMPORTS_PER_SOL,
		BasePercent:          15,
		Blockhash:            testBlockhash,
		LastValidBlockHeight: 1000,
	}
}

// 交易中所有 signer 账户
func txSigners(tx *solana.Transaction) map[solana.PublicKey]bool {
	out := make(map[solana.PublicKey]bool)
	for _, key := range tx.Message.AccountKeys {
		if tx.Message.IsSigner(key) {
			out[key] = true
		}
	}
	return out
}

func TestAssembleSignerSets(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PlanConfig
		limit   int
		wallets int
		wantTxs int
	}{
		{name: "8个钱包单笔", cfg: slotConfig(), limit: 0, wallets: 8, wantTxs: 1},
		{name: "35个钱包4笔", cfg: slotConfig(), limit: 0, wallets: 35, wantTxs: 4},
		{name: "按字节分批18个钱包", cfg: sizedConfig(), limit: 1232, wallets: 18, wantTxs: 5},
		{name: "按字节分批2个钱包", cfg: sizedConfig(), limit: 1232, wallets: 2, wantTxs: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := launchParams(t, tt.cfg, tt.wallets)
			b, err := NewAssembler(testAssemblerConfig(tt.limit)).Assemble(p)
			require.NoError(t, err)
			require.Equal(t, tt.wantTxs, b.Size())
			assert.Equal(t, p.Derived.Mint, b.Mint)

			for i, stx := range b.Transactions {
				batch := p.Batches[i]
				want := map[solana.PublicKey]bool{p.Wallets[batch.FeePayer].PublicKey: true}
				for _, idx := range batch.Wallets {
					want[p.Wallets[idx].PublicKey] = true
				}
				if i == 0 {
					want[p.Derived.Mint] = true
					assert.Equal(t, model.TxKindCreate, stx.Kind)
				} else {
					assert.Equal(t, model.TxKindBuy, stx.Kind)
				}

				assert.Equal(t, want, txSigners(stx.Tx), "交易 %d", i+1)
				assert.Equal(t, p.Wallets[batch.FeePayer].PublicKey, stx.Tx.Message.AccountKeys[0])
				assert.Len(t, stx.Tx.Signatures, len(want))
				assert.NoError(t, stx.Tx.VerifySignatures())
				assert.Equal(t, stx.Tx.Signatures[0], stx.Signature)
				assert.Len(t, stx.Wallets, batch.BuyCount())
				if tt.limit > 0 {
					assert.LessOrEqual(t, len(stx.Raw), tt.limit)
				}
			}
		})
	}
}

func TestAssembleFeeAndTipPlacement(t *testing.T) {
	p := launchParams(t, slotConfig(), 35)
	b, err := NewAssembler(testAssemblerConfig(0)).Assemble(p)
	require.NoError(t, err)

	tip := testTipAccounts[int(testBlockhash[0])%len(testTipAccounts)]
	for i, stx := range b.Transactions {
		keys := stx.Tx.Message.AccountKeys
		assert.Equal(t, i == 0, keys.Contains(testFeeWallet), "平台费只在第一笔 交易 %d", i+1)
		assert.Equal(t, i == b.Size()-1, keys.Contains(tip), "tip 只在最后一笔 交易 %d", i+1)
		assert.Equal(t, i == 0, keys.Contains(common.MetaplexMetadataProgram), "create 只在第一笔 交易 %d", i+1)
	}
}

func TestAssembleTooLarge(t *testing.T) {
	p := launchParams(t, slotConfig(), 8)
	_, err := NewAssembler(testAssemblerConfig(1232)).Assemble(p)

	var tooLarge *common.TxTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, 0, tooLarge.TxIndex)
	assert.Greater(t, tooLarge.Size, 1232)
}

func TestAssembleMintMismatch(t *testing.T) {
	p := launchParams(t, slotConfig(), 2)
	p.MintKey = solana.NewWallet().PrivateKey
	_, err := NewAssembler(testAssemblerConfig(0)).Assemble(p)
	assert.Error(t, err)
}

func TestAssembleSells(t *testing.T) {
	wallets := newWallets(7)
	orders := make([]SellOrder, len(wallets))
	for i, w := range wallets {
		orders[i] = SellOrder{Wallet: w, TokenAmount: uint64(1000 * (i + 1))}
	}
	mint := solana.NewWallet().PublicKey()

	bundles, err := NewAssembler(testAssemblerConfig(1232)).AssembleSells(&SellParams{
		Orders:     orders,
		Derived:    pump.Derive(mint),
		Blockhash:  testBlockhash,
		BundleSize: 5,
	})
	require.NoError(t, err)
	require.Len(t, bundles, 2)
	assert.Equal(t, 5, bundles[0].Size())
	assert.Equal(t, 2, bundles[1].Size())

	tip := testTipAccounts[int(testBlockhash[0])%len(testTipAccounts)]
	for _, b := range bundles {
		for i, stx := range b.Transactions {
			assert.Equal(t, model.TxKindSell, stx.Kind)
			assert.Equal(t, i == 0, stx.Tx.Message.AccountKeys.Contains(tip))
			assert.Len(t, txSigners(stx.Tx), 1)
		}
	}
}

func TestBuildTransferTx(t *testing.T) {
	payer := newWallets(1)[0]
	to := newWallets(3)
	transfers := make([]Transfer, len(to))
	for i, w := range to {
		transfers[i] = Transfer{To: w.PublicKey, Lamports: 1_000_000}
	}

	stx, err := BuildTransferTx(payer, transfers, ComputeBudget{UnitLimit: 54_500, UnitPrice: 10_000}, testBlockhash, 1232)
	require.NoError(t, err)
	assert.Equal(t, map[solana.PublicKey]bool{payer.PublicKey: true}, txSigners(stx.Tx))
	assert.Len(t, stx.Tx.Message.Instructions, 5)

	_, err = BuildTransferTx(payer, nil, ComputeBudget{}, testBlockhash, 0)
	assert.Error(t, err)
}
