package pump

import (
	"fmt"

	"pump_bundler/internal/common"

	"github.com/gagliardetto/solana-go"
)

// DerivedAddresses 由 mint 推导出的程序地址，单次构建内缓存，不可修改
type DerivedAddresses struct {
	Mint                   solana.PublicKey
	BondingCurve           solana.PublicKey
	AssociatedBondingCurve solana.PublicKey
	Metadata               solana.PublicKey
}

// Derive 推导 bonding curve、关联 bonding curve 和 metadata 地址，纯函数
func Derive(mint solana.PublicKey) *DerivedAddresses {
	bondingCurve := DeriveBondingCurve(mint)
	return &DerivedAddresses{
		Mint:                   mint,
		BondingCurve:           bondingCurve,
		AssociatedBondingCurve: AssociatedTokenAddress(bondingCurve, mint),
		Metadata:               DeriveMetadata(mint),
	}
}

// DeriveBondingCurve seeds: ["bonding-curve", mint]
func DeriveBondingCurve(mint solana.PublicKey) solana.PublicKey {
	return mustFindPDA([][]byte{[]byte(common.BondingCurveSeed), mint[:]}, common.PumpProgramID)
}

// DeriveMintAuthority seeds: ["mint-authority"]，所有代币共用一个
func DeriveMintAuthority() solana.PublicKey {
	return mustFindPDA([][]byte{[]byte(common.MintAuthoritySeed)}, common.PumpProgramID)
}

// AssociatedTokenAddress seeds: [owner, token program, mint]，归属 ATA 程序
func AssociatedTokenAddress(owner, mint solana.PublicKey) solana.PublicKey {
	return mustFindPDA([][]byte{owner[:], common.TokenProgramID[:], mint[:]}, common.AssociatedTokenProgram)
}

// DeriveMetadata seeds: ["metadata", metadata program, mint]
func DeriveMetadata(mint solana.PublicKey) solana.PublicKey {
	return mustFindPDA(
		[][]byte{[]byte(common.MetadataSeed), common.MetaplexMetadataProgram[:], mint[:]},
		common.MetaplexMetadataProgram,
	)
}

// 固定长度种子总能找到可用 bump
func mustFindPDA(seeds [][]byte, programID solana.PublicKey) solana.PublicKey {
	addr, _, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		panic(fmt.Sprintf("推导程序地址失败 program=%s: %v", programID, err))
	}
	return addr
}
