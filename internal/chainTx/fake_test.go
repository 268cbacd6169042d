package chainTx

import (
	"context"
	"errors"
	"sync"

	"pump_bundler/internal/bundle"
	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go"
)

// fakeRPC 按交易首字节决定发送/确认是否失败
type fakeRPC struct {
	mu          sync.Mutex
	sent        [][]byte
	preflight   []bool
	failSend    map[byte]bool
	failConfirm bool
	confirmed   []solana.Signature
}

func (f *fakeRPC) SendRawTransaction(_ context.Context, raw []byte, skipPreflight bool) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, raw)
	f.preflight = append(f.preflight, !skipPreflight)
	if f.failSend[raw[0]] {
		return solana.Signature{}, errors.New("Transaction simulation failed")
	}
	var sig solana.Signature
	sig[0] = raw[0] + 1
	return sig, nil
}

func (f *fakeRPC) ConfirmTransaction(_ context.Context, sig solana.Signature, _ uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, sig)
	if f.failConfirm {
		return errors.New("block height exceeded")
	}
	return nil
}

type fakeRelay struct {
	mu    sync.Mutex
	calls int
	errs  []error // 依次返回，用完后成功
	id    string
}

func (f *fakeRelay) SendBundle(_ context.Context, txs [][]byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= len(f.errs) {
		return "", f.errs[f.calls-1]
	}
	return f.id, nil
}

// testBundle 交易 i 的 Raw 首字节为 i
func testBundle(n int) *bundle.Bundle {
	b := &bundle.Bundle{
		Mint:                 solana.NewWallet().PublicKey(),
		LastValidBlockHeight: 100,
	}
	for i := 0; i < n; i++ {
		kind := model.TxKindBuy
		if i == 0 {
			kind = model.TxKindCreate
		}
		var sig solana.Signature
		sig[0] = byte(i) + 1
		b.Transactions = append(b.Transactions, &bundle.SignedTx{
			Index:     i,
			Kind:      kind,
			Wallets:   []solana.PublicKey{solana.NewWallet().PublicKey()},
			Signature: sig,
			Raw:       []byte{byte(i), 0xAA},
		})
	}
	return b
}
