package bundle

import (
	"fmt"

	"pump_bundler/internal/common"
)

// PlanConfig 分批参数。字节估算为0时只按槽位分批
type PlanConfig struct {
	FirstBatchSlots int // 第一笔交易的买入槽位（create 占用了空间）
	BatchSize       int // 后续交易的买入槽位
	MaxTxCount      int // relay 单个 bundle 的交易上限
	MaxWallets      int
	TxSizeLimit     int // 网络交易大小上限

	TxOverheadBytes     int // 签名数、消息头、blockhash、公共账户、compute budget 指令
	CreateOverheadBytes int // create 指令、mint 签名及其账户
	TransferBytes       int // 一次 SOL 转账（指令 + 收款账户）
	PerBuyBytes         int // 每个买入钱包（签名 + 钱包/ATA 账户 + buy 指令）
}

// TransactionBatch 一笔交易包含的钱包，FeePayer 总是 Wallets[0]
type TransactionBatch struct {
	Index          int
	Wallets        []int // 钱包在请求中的下标，保持原顺序
	FeePayer       int
	HasCreate      bool
	HasPlatformFee bool
	HasTip         bool
}

func (b TransactionBatch) BuyCount() int {
	return len(b.Wallets)
}

// InstructionCount 业务指令数（create + buys）
func (b TransactionBatch) InstructionCount() int {
	if b.HasCreate {
		return len(b.Wallets) + 1
	}
	return len(b.Wallets)
}

func (c PlanConfig) Validate() error {
	if c.FirstBatchSlots < 1 || c.BatchSize < 1 || c.MaxTxCount < 1 || c.MaxWallets < 1 {
		return fmt.Errorf("分批参数必须为正数: %+v", c)
	}
	if c.PerBuyBytes > 0 {
		if c.capacity(true, true) < 1 {
			return fmt.Errorf("交易大小限制 %d 字节装不下 create + 1 个买入", c.TxSizeLimit)
		}
		if c.MaxTxCount > 1 && c.capacity(false, true) < 1 {
			return fmt.Errorf("交易大小限制 %d 字节装不下 1 个买入", c.TxSizeLimit)
		}
	}
	return nil
}

// capacity 按字节估算一笔交易最多能放多少个买入，未配置估算时返回槽位数
func (c PlanConfig) capacity(first, tip bool) int {
	slots := c.BatchSize
	if first {
		slots = c.FirstBatchSlots
	}
	if c.PerBuyBytes <= 0 || c.TxSizeLimit <= 0 {
		return slots
	}
	budget := c.TxSizeLimit - c.TxOverheadBytes
	if first {
		budget -= c.CreateOverheadBytes + c.TransferBytes
	}
	if tip {
		budget -= c.TransferBytes
	}
	if budget < c.PerBuyBytes {
		return 0
	}
	if fit := budget / c.PerBuyBytes; fit < slots {
		return fit
	}
	return slots
}

// Ceiling 单个 bundle 可服务的最大钱包数
func (c PlanConfig) Ceiling() int {
	var ceiling int
	if c.MaxTxCount <= 1 {
		ceiling = c.capacity(true, true)
	} else {
		ceiling = c.capacity(true, false) + (c.MaxTxCount-2)*c.capacity(false, false) + c.capacity(false, true)
	}
	if c.MaxWallets < ceiling {
		ceiling = c.MaxWallets
	}
	return ceiling
}

// Plan 把钱包按顺序分成若干笔交易：第一笔带 create 和平台费，最后一笔带 tip。
// 超过上限时返回 TooManyWalletsError，不会截断。
func (c PlanConfig) Plan(walletCount int) ([]TransactionBatch, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if walletCount < 1 {
		return nil, &common.ValidationError{Field: "wallets", Reason: common.ErrNoWallets.Error()}
	}
	ceiling := c.Ceiling()
	if walletCount > ceiling {
		return nil, &common.TooManyWalletsError{Requested: walletCount, Ceiling: ceiling}
	}

	batches := make([]TransactionBatch, 0, c.MaxTxCount)
	next := 0
	take := func(n int, first, tip bool) {
		wallets := make([]int, n)
		for i := range wallets {
			wallets[i] = next + i
		}
		batches = append(batches, TransactionBatch{
			Index:          len(batches),
			Wallets:        wallets,
			FeePayer:       next,
			HasCreate:      first,
			HasPlatformFee: first,
			HasTip:         tip,
		})
		next += n
	}

	if walletCount <= c.capacity(true, true) {
		take(walletCount, true, true)
		return batches, nil
	}

	// 第一批至少留一个钱包给带 tip 的最后一笔
	first := c.capacity(true, false)
	if first > walletCount-1 {
		first = walletCount - 1
	}
	take(first, true, false)

	for next < walletCount {
		remaining := walletCount - next
		if last := c.capacity(false, true); remaining <= last {
			take(remaining, false, true)
			break
		}
		mid := c.capacity(false, false)
		if mid > remaining-1 {
			mid = remaining - 1
		}
		take(mid, false, false)
	}

	if len(batches) > c.MaxTxCount {
		return nil, &common.TooManyWalletsError{Requested: walletCount, Ceiling: ceiling}
	}
	return batches, nil
}
