package privacy

import (
	"context"
	"math"
	"math/rand"
	"time"

	"pump_bundler/internal/common"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalFailed    WithdrawalStatus = "failed"
)

// Withdrawal 计划中的一次提取，Delay 相对计划开始执行的时间
type Withdrawal struct {
	Target         solana.PublicKey
	TargetLamports uint64
	ActualLamports uint64
	Delay          time.Duration
	Status         WithdrawalStatus
	Signature      string
	Error          string
}

type DistributionPlan struct {
	TotalLamports     uint64
	Withdrawals       []Withdrawal
	EstimatedDuration time.Duration
}

// NewDistributionPlan 每个钱包金额随机浮动 ±variance，最后一个钱包拿剩余部分保证总额不变，
// 然后打乱顺序并重新分配随机间隔
func NewDistributionPlan(wallets []solana.PublicKey, total uint64, opt Options, rng *rand.Rand) (*DistributionPlan, error) {
	if len(wallets) == 0 {
		return nil, &common.ValidationError{Field: "wallets", Reason: common.ErrNoWallets.Error()}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	base := total / uint64(len(wallets))
	remaining := total
	withdrawals := make([]Withdrawal, len(wallets))
	for i, w := range wallets {
		target, actual := base, applyVariance(base, opt.AmountVariance, rng)
		if i == len(wallets)-1 {
			target, actual = remaining, remaining
		}
		if actual > remaining {
			actual = remaining
		}
		remaining -= actual
		withdrawals[i] = Withdrawal{Target: w, TargetLamports: target, ActualLamports: actual, Status: WithdrawalPending}
	}

	rng.Shuffle(len(withdrawals), func(i, j int) {
		withdrawals[i], withdrawals[j] = withdrawals[j], withdrawals[i]
	})

	var offset time.Duration
	for i := range withdrawals {
		if i > 0 {
			offset += randomDelay(opt.MinDelay, opt.MaxDelay, rng)
		}
		withdrawals[i].Delay = offset
	}

	return &DistributionPlan{TotalLamports: total, Withdrawals: withdrawals, EstimatedDuration: offset}, nil
}

func applyVariance(amount uint64, variance float64, rng *rand.Rand) uint64 {
	if variance <= 0 {
		return amount
	}
	factor := 1 + (rng.Float64()*2-1)*variance
	return uint64(math.Floor(float64(amount) * factor))
}

func randomDelay(lo, hi time.Duration, rng *rand.Rand) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rng.Int63n(int64(hi-lo)+1))
}

// Score 隐私评分 0-100：间隔越长、钱包越多、金额越分散分数越高
func (p *DistributionPlan) Score() int {
	n := len(p.Withdrawals)
	if n == 0 {
		return 0
	}
	score := 30

	avgDelay := p.EstimatedDuration / time.Duration(n)
	if avgDelay > time.Minute {
		score += 20
	}
	if avgDelay > 2*time.Minute {
		score += 10
	}

	switch {
	case n >= 50:
		score += 30
	case n >= 25:
		score += 25
	case n >= 10:
		score += 15
	}

	var sum float64
	for _, w := range p.Withdrawals {
		sum += float64(w.ActualLamports)
	}
	avg := sum / float64(n)
	var sq float64
	for _, w := range p.Withdrawals {
		d := float64(w.ActualLamports) - avg
		sq += d * d
	}
	if avg > 0 && math.Sqrt(sq/float64(n))/avg > 0.1 {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

// Execute 按计划依次提取，单笔失败不影响后续
func Execute(ctx context.Context, provider Provider, plan *DistributionPlan, onProgress func(w Withdrawal, index, total int)) []Withdrawal {
	start := time.Now()
	results := make([]Withdrawal, 0, len(plan.Withdrawals))

	for i, w := range plan.Withdrawals {
		if wait := time.Until(start.Add(w.Delay)); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}

		if err := ctx.Err(); err != nil {
			w.Status = WithdrawalFailed
			w.Error = err.Error()
		} else if res, err := provider.Withdraw(ctx, w.Target, w.ActualLamports); err != nil {
			w.Status = WithdrawalFailed
			w.Error = err.Error()
		} else {
			w.Status = WithdrawalCompleted
			w.Signature = res.Signature
		}

		if w.Status == WithdrawalFailed {
			common.Log.WithFields(logrus.Fields{
				"provider": provider.Name(),
				"wallet":   w.Target.String(),
			}).Warn("隐私提取失败: " + w.Error)
		}
		results = append(results, w)
		if onProgress != nil {
			onProgress(w, i, len(plan.Withdrawals))
		}
	}
	return results
}
