package bundle

import (
	"errors"
	"testing"

	"pump_bundler/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 只按槽位分批
func slotConfig() PlanConfig {
	return PlanConfig{
		FirstBatchSlots: 8,
		BatchSize:       10,
		MaxTxCount:      5,
		MaxWallets:      50,
	}
}

// 按 1232 字节估算分批
func sizedConfig() PlanConfig {
	return PlanConfig{
		FirstBatchSlots:     8,
		BatchSize:           10,
		MaxTxCount:          5,
		MaxWallets:          50,
		TxSizeLimit:         1232,
		TxOverheadBytes:     412,
		CreateOverheadBytes: 400,
		TransferBytes:       49,
		PerBuyBytes:         167,
	}
}

func batchSizes(batches []TransactionBatch) []int {
	sizes := make([]int, len(batches))
	for i, b := range batches {
		sizes[i] = b.BuyCount()
	}
	return sizes
}

func TestPlanScenarios(t *testing.T) {
	tests := []struct {
		name      string
		cfg       PlanConfig
		wallets   int
		wantSizes []int
	}{
		{name: "8个钱包只有一笔交易", cfg: slotConfig(), wallets: 8, wantSizes: []int{8}},
		{name: "35个钱包分4笔", cfg: slotConfig(), wallets: 35, wantSizes: []int{8, 10, 10, 7}},
		{name: "1个钱包", cfg: slotConfig(), wallets: 1, wantSizes: []int{1}},
		{name: "9个钱包最后一笔只有1个", cfg: slotConfig(), wallets: 9, wantSizes: []int{8, 1}},
		{name: "48个钱包填满5笔", cfg: slotConfig(), wallets: 48, wantSizes: []int{8, 10, 10, 10, 10}},
		{name: "按字节估算单笔", cfg: sizedConfig(), wallets: 1, wantSizes: []int{1}},
		{name: "按字节估算两笔", cfg: sizedConfig(), wallets: 2, wantSizes: []int{1, 1}},
		{name: "按字节估算18个钱包", cfg: sizedConfig(), wallets: 18, wantSizes: []int{2, 4, 4, 4, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches, err := tt.cfg.Plan(tt.wallets)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSizes, batchSizes(batches))

			for i, b := range batches {
				assert.Equal(t, i, b.Index)
				assert.Equal(t, b.Wallets[0], b.FeePayer)
				assert.Equal(t, i == 0, b.HasCreate)
				assert.Equal(t, i == 0, b.HasPlatformFee)
				assert.Equal(t, i == len(batches)-1, b.HasTip)
			}
		})
	}
}

func TestPlanProperties(t *testing.T) {
	cfg := slotConfig()
	ceiling := cfg.Ceiling()
	assert.Equal(t, 48, ceiling)

	for w := 1; w <= ceiling; w++ {
		batches, err := cfg.Plan(w)
		require.NoError(t, err, "w=%d", w)

		instructions := 0
		next := 0
		for _, b := range batches {
			instructions += b.InstructionCount()
			for _, idx := range b.Wallets {
				assert.Equal(t, next, idx, "钱包顺序 w=%d", w)
				next++
			}
		}
		assert.Equal(t, w+1, instructions, "w=%d", w)
		assert.Equal(t, w, next)

		wantBatches := 1
		if w > cfg.FirstBatchSlots {
			wantBatches = (w-cfg.FirstBatchSlots+cfg.BatchSize-1)/cfg.BatchSize + 1
		}
		assert.Equal(t, wantBatches, len(batches), "w=%d", w)
		assert.LessOrEqual(t, len(batches), cfg.MaxTxCount)
	}
}

func TestPlanTooManyWallets(t *testing.T) {
	tests := []struct {
		name        string
		cfg         PlanConfig
		wallets     int
		wantCeiling int
	}{
		{name: "60个钱包超过上限", cfg: slotConfig(), wallets: 60, wantCeiling: 48},
		{name: "49个钱包超过分批上限", cfg: slotConfig(), wallets: 49, wantCeiling: 48},
		{name: "按字节估算19个钱包", cfg: sizedConfig(), wallets: 19, wantCeiling: 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches, err := tt.cfg.Plan(tt.wallets)
			assert.Nil(t, batches)
			var tooMany *common.TooManyWalletsError
			require.True(t, errors.As(err, &tooMany))
			assert.Equal(t, tt.wallets, tooMany.Requested)
			assert.Equal(t, tt.wantCeiling, tooMany.Ceiling)
		})
	}
}

func TestPlanCeilingByMaxWallets(t *testing.T) {
	cfg := slotConfig()
	cfg.MaxWallets = 20
	assert.Equal(t, 20, cfg.Ceiling())

	_, err := cfg.Plan(21)
	var tooMany *common.TooManyWalletsError
	assert.True(t, errors.As(err, &tooMany))
}

func TestPlanInvalid(t *testing.T) {
	_, err := slotConfig().Plan(0)
	var vErr *common.ValidationError
	assert.True(t, errors.As(err, &vErr))

	cfg := sizedConfig()
	cfg.TxSizeLimit = 900
	_, err = cfg.Plan(3)
	assert.Error(t, err)
}
