package privacy

import (
	"context"
	"errors"
	"sync"

	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go"
)

type fakeRPC struct {
	mu          sync.Mutex
	sent        []*solana.Transaction
	failConfirm bool
	balance     uint64
}

func (f *fakeRPC) SendRawTransaction(_ context.Context, raw []byte, _ bool) (solana.Signature, error) {
	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return solana.Signature{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return tx.Signatures[0], nil
}

func (f *fakeRPC) ConfirmTransaction(context.Context, solana.Signature, uint64) error {
	if f.failConfirm {
		return errors.New("block height exceeded")
	}
	return nil
}

func (f *fakeRPC) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	return f.balance, nil
}

func (f *fakeRPC) LatestBlockhash(context.Context) (solana.Hash, uint64, error) {
	return solana.Hash(solana.MustPublicKeyFromBase58("HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe")), 200, nil
}

func newSigner() *model.SignerWallet {
	w := solana.NewWallet()
	return &model.SignerWallet{PublicKey: w.PublicKey(), PrivateKey: w.PrivateKey}
}

func newRecipients(n int) []solana.PublicKey {
	out := make([]solana.PublicKey, n)
	for i := range out {
		out[i] = solana.NewWallet().PublicKey()
	}
	return out
}
