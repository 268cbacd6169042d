package bundle

import "math"

// SlippagePolicy 按钱包位置递增滑点：同一区块中越靠后的买入价格越差
type SlippagePolicy struct {
	StepPercent float64 // 每个位置增加的百分比，默认0.3
	MaxPercent  float64 // 有效滑点上限，0表示不限制
}

// MaxCost 计算 maxSolCost：floor(base * (1 + bps/10000))，bps = floor(有效滑点 * 100)
func (p SlippagePolicy) MaxCost(base uint64, basePercent float64, position int) uint64 {
	return applyBps(base, p.Bps(basePercent, position))
}

// Bps 有效滑点（基点），对位置单调不减
func (p SlippagePolicy) Bps(basePercent float64, position int) uint64 {
	if position < 0 {
		position = 0
	}
	effective := basePercent + float64(position)*p.StepPercent
	if p.MaxPercent > 0 && effective > p.MaxPercent {
		effective = p.MaxPercent
	}
	if effective <= 0 {
		return 0
	}
	// 0.3*3 之类的浮点误差会让 floor 少算1bp
	return uint64(math.Floor(effective*100 + 1e-6))
}

func applyBps(base, bps uint64) uint64 {
	return base + (base/10000)*bps + (base%10000)*bps/10000
}
