package common

import "github.com/gagliardetto/solana-go"

// pump.fun 及相关程序地址
var (
	PumpProgramID           = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	PumpGlobal              = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	PumpFeeRecipient        = solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")
	PumpEventAuthority      = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
	TokenProgramID          = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgram  = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	MetaplexMetadataProgram = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
	SysvarRent              = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
)

// 指令鉴别器（8字节）
var (
	CreateDiscriminator = [8]byte{24, 30, 200, 40, 5, 28, 7, 119}
	BuyDiscriminator    = [8]byte{102, 6, 61, 18, 1, 218, 235, 234}
	SellDiscriminator   = [8]byte{51, 230, 133, 164, 1, 127, 131, 173}
)

// PDA 种子
const (
	BondingCurveSeed  = "bonding-curve"
	MintAuthoritySeed = "mint-authority"
	MetadataSeed      = "metadata"
)

// pump.fun 程序对字符串字段的隐式长度限制
const (
	MAX_NAME_LEN   = 32
	MAX_SYMBOL_LEN = 10
)

// PumpfunCreateInstruction create 指令的账户列表，字段顺序即链上账户顺序
type PumpfunCreateInstruction struct {
	Mint                   solana.PublicKey
	MintAuthority          solana.PublicKey
	BondingCurve           solana.PublicKey
	AssociatedBondingCurve solana.PublicKey
	Global                 solana.PublicKey
	MetadataProgram        solana.PublicKey
	Metadata               solana.PublicKey
	Creator                solana.PublicKey
	SystemProgram          solana.PublicKey
	TokenProgram           solana.PublicKey
	AssociatedTokenProgram solana.PublicKey
	Rent                   solana.PublicKey
	EventAuthority         solana.PublicKey
	Program                solana.PublicKey
	Input                  *CreateInstruction
}

// CreateInstruction 定义创建指令的输入数据
type CreateInstruction struct {
	Name   string
	Symbol string
	Uri    string
}

type PumpfunBuyInstruction struct {
	Global                 solana.PublicKey
	FeeRecipient           solana.PublicKey
	Mint                   solana.PublicKey
	BondingCurve           solana.PublicKey
	AssociatedBondingCurve solana.PublicKey
	AssociatedUser         solana.PublicKey
	User                   solana.PublicKey
	SystemProgram          solana.PublicKey
	TokenProgram           solana.PublicKey
	Rent                   solana.PublicKey
	EventAuthority         solana.PublicKey
	Program                solana.PublicKey
	Input                  *BuyInstruction
}

// BuyInstruction 定义购买指令的输入数据
type BuyInstruction struct {
	Amount     uint64
	MaxSolCost uint64
}

type PumpfunSellInstruction struct {
	Global                 solana.PublicKey
	FeeRecipient           solana.PublicKey
	Mint                   solana.PublicKey
	BondingCurve           solana.PublicKey
	AssociatedBondingCurve solana.PublicKey
	AssociatedUser         solana.PublicKey
	User                   solana.PublicKey
	SystemProgram          solana.PublicKey
	AssociatedTokenProgram solana.PublicKey
	TokenProgram           solana.PublicKey
	EventAuthority         solana.PublicKey
	Program                solana.PublicKey
	Input                  *SellInstruction
}

// SellInstruction 定义卖出指令的输入数据
type SellInstruction struct {
	Amount       uint64
	MinSolOutput uint64
}
