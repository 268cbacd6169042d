package privacy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pump_bundler/internal/common"

	"github.com/gagliardetto/solana-go"
)

// Mock 非主网时模拟隐私通道，只记账不上链
type Mock struct {
	name    common.PrivacyMethod
	latency time.Duration

	mu      sync.Mutex
	balance uint64
	seq     int
}

func NewMock(name common.PrivacyMethod, latency time.Duration) *Mock {
	return &Mock{name: name, latency: latency}
}

func (m *Mock) Name() common.PrivacyMethod { return m.name }

func (m *Mock) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(m.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *Mock) nextSignature(op string) string {
	m.seq++
	return fmt.Sprintf("MOCK_%s_%s_%d", m.name, op, m.seq)
}

func (m *Mock) Shield(ctx context.Context, lamports uint64) (*ShieldResult, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance += lamports
	return &ShieldResult{Signature: m.nextSignature("shield")}, nil
}

func (m *Mock) Withdraw(ctx context.Context, recipient solana.PublicKey, lamports uint64) (*WithdrawResult, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if lamports > m.balance {
		return nil, fmt.Errorf("隐私余额不足: %d < %d", m.balance, lamports)
	}
	m.balance -= lamports
	return &WithdrawResult{Recipient: recipient, Lamports: lamports, Signature: m.nextSignature("withdraw")}, nil
}

func (m *Mock) Balance(context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance, nil
}

var _ Provider = (*Mock)(nil)
