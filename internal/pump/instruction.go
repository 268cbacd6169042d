package pump

import (
	"fmt"
	"unicode/utf8"

	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

// EncodeCreate 构建 create 指令：鉴别器 + borsh(name, symbol, uri)
func EncodeCreate(creator solana.PublicKey, d *DerivedAddresses, token *model.TokenDescriptor) (*solana.GenericInstruction, error) {
	if err := checkLen("name", token.Name, common.MAX_NAME_LEN); err != nil {
		return nil, err
	}
	if err := checkLen("symbol", token.Symbol, common.MAX_SYMBOL_LEN); err != nil {
		return nil, err
	}

	ix := &common.PumpfunCreateInstruction{
		Mint:                   d.Mint,
		MintAuthority:          DeriveMintAuthority(),
		BondingCurve:           d.BondingCurve,
		AssociatedBondingCurve: d.AssociatedBondingCurve,
		Global:                 common.PumpGlobal,
		MetadataProgram:        common.MetaplexMetadataProgram,
		Metadata:               d.Metadata,
		Creator:                creator,
		SystemProgram:          solana.SystemProgramID,
		TokenProgram:           common.TokenProgramID,
		AssociatedTokenProgram: common.AssociatedTokenProgram,
		Rent:                   common.SysvarRent,
		EventAuthority:         common.PumpEventAuthority,
		Program:                common.PumpProgramID,
		Input: &common.CreateInstruction{
			Name:   token.Name,
			Symbol: token.Symbol,
			Uri:    token.URI,
		},
	}

	data, err := encodeData(common.CreateDiscriminator, *ix.Input)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		{PublicKey: ix.Mint, IsSigner: true, IsWritable: true},
		{PublicKey: ix.MintAuthority},
		{PublicKey: ix.BondingCurve, IsWritable: true},
		{PublicKey: ix.AssociatedBondingCurve, IsWritable: true},
		{PublicKey: ix.Global},
		{PublicKey: ix.MetadataProgram},
		{PublicKey: ix.Metadata, IsWritable: true},
		{PublicKey: ix.Creator, IsSigner: true, IsWritable: true},
		{PublicKey: ix.SystemProgram},
		{PublicKey: ix.TokenProgram},
		{PublicKey: ix.AssociatedTokenProgram},
		{PublicKey: ix.Rent},
		{PublicKey: ix.EventAuthority},
		{PublicKey: ix.Program},
	}

	return &solana.GenericInstruction{
		ProgID:        common.PumpProgramID,
		AccountValues: metas,
		DataBytes:     data,
	}, nil
}

// EncodeBuy 构建 buy 指令。amount 固定为0，表示在 maxSolCost 上限内花费 lamports
func EncodeBuy(buyer solana.PublicKey, d *DerivedAddresses, lamports, maxSolCost uint64) (*solana.GenericInstruction, error) {
	if maxSolCost < lamports {
		return nil, fmt.Errorf("maxSolCost %d 低于买入金额 %d", maxSolCost, lamports)
	}

	ix := &common.PumpfunBuyInstruction{
		Global:                 common.PumpGlobal,
		FeeRecipient:           common.PumpFeeRecipient,
		Mint:                   d.Mint,
		BondingCurve:           d.BondingCurve,
		AssociatedBondingCurve: d.AssociatedBondingCurve,
		AssociatedUser:         AssociatedTokenAddress(buyer, d.Mint),
		User:                   buyer,
		SystemProgram:          solana.SystemProgramID,
		TokenProgram:           common.TokenProgramID,
		Rent:                   common.SysvarRent,
		EventAuthority:         common.PumpEventAuthority,
		Program:                common.PumpProgramID,
		Input:                  &common.BuyInstruction{Amount: 0, MaxSolCost: maxSolCost},
	}

	data, err := encodeData(common.BuyDiscriminator, *ix.Input)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		{PublicKey: ix.Global},
		{PublicKey: ix.FeeRecipient, IsWritable: true},
		{PublicKey: ix.Mint},
		{PublicKey: ix.BondingCurve, IsWritable: true},
		{PublicKey: ix.AssociatedBondingCurve, IsWritable: true},
		{PublicKey: ix.AssociatedUser, IsWritable: true},
		{PublicKey: ix.User, IsSigner: true, IsWritable: true},
		{PublicKey: ix.SystemProgram},
		{PublicKey: ix.TokenProgram},
		{PublicKey: ix.Rent},
		{PublicKey: ix.EventAuthority},
		{PublicKey: ix.Program},
	}

	return &solana.GenericInstruction{
		ProgID:        common.PumpProgramID,
		AccountValues: metas,
		DataBytes:     data,
	}, nil
}

// EncodeSell 构建 sell 指令
func EncodeSell(seller solana.PublicKey, d *DerivedAddresses, tokenAmount, minSolOutput uint64) (*solana.GenericInstruction, error) {
	ix := &common.PumpfunSellInstruction{
		Global:                 common.PumpGlobal,
		FeeRecipient:           common.PumpFeeRecipient,
		Mint:                   d.Mint,
		BondingCurve:           d.BondingCurve,
		AssociatedBondingCurve: d.AssociatedBondingCurve,
		AssociatedUser:         AssociatedTokenAddress(seller, d.Mint),
		User:                   seller,
		SystemProgram:          solana.SystemProgramID,
		AssociatedTokenProgram: common.AssociatedTokenProgram,
		TokenProgram:           common.TokenProgramID,
		EventAuthority:         common.PumpEventAuthority,
		Program:                common.PumpProgramID,
		Input:                  &common.SellInstruction{Amount: tokenAmount, MinSolOutput: minSolOutput},
	}

	data, err := encodeData(common.SellDiscriminator, *ix.Input)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		{PublicKey: ix.Global},
		{PublicKey: ix.FeeRecipient, IsWritable: true},
		{PublicKey: ix.Mint},
		{PublicKey: ix.BondingCurve, IsWritable: true},
		{PublicKey: ix.AssociatedBondingCurve, IsWritable: true},
		{PublicKey: ix.AssociatedUser, IsWritable: true},
		{PublicKey: ix.User, IsSigner: true, IsWritable: true},
		{PublicKey: ix.SystemProgram},
		{PublicKey: ix.AssociatedTokenProgram},
		{PublicKey: ix.TokenProgram},
		{PublicKey: ix.EventAuthority},
		{PublicKey: ix.Program},
	}

	return &solana.GenericInstruction{
		ProgID:        common.PumpProgramID,
		AccountValues: metas,
		DataBytes:     data,
	}, nil
}

func encodeData(discriminator [8]byte, args interface{}) ([]byte, error) {
	argsBin, err := borsh.Serialize(args)
	if err != nil {
		return nil, fmt.Errorf("borsh 序列化失败: %w", err)
	}
	data := make([]byte, 0, len(discriminator)+len(argsBin))
	data = append(data, discriminator[:]...)
	return append(data, argsBin...), nil
}

func checkLen(field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return &common.EncodingError{Field: field, Len: n, Max: max}
	}
	return nil
}
