package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"pump_bundler/internal/bundle"
	"pump_bundler/internal/common"
	"pump_bundler/internal/config"
	"pump_bundler/internal/model"
	"pump_bundler/internal/pump"

	"github.com/davecgh/go-spew/spew"
	"github.com/gagliardetto/solana-go"
)

// 离线构建不同钱包数的 bundle，打印每笔交易的字节数，用来校准 bundle 配置里的大小估算

var (
	configFile string
	counts     string
	verbose    bool
)

func init() {
	flag.StringVar(&configFile, "f", "", "配置文件，为空时使用默认配置")
	flag.StringVar(&counts, "n", "1,8,9,18,28,38,48", "钱包数量，多个用英文逗号分隔")
	flag.BoolVar(&verbose, "v", false, "打印每个 bundle 的分批详情")
}

type txReport struct {
	Index   int
	Kind    model.TxKind
	Buys    int
	Signers int
	Size    int
	Spare   int // 距离大小上限还剩的字节
}

func randomWallets(n int) []*model.SignerWallet {
	wallets := make([]*model.SignerWallet, n)
	for i := range wallets {
		w := solana.NewWallet()
		wallets[i] = &model.SignerWallet{PublicKey: w.PublicKey(), PrivateKey: w.PrivateKey}
	}
	return wallets
}

func build(c *config.Config, n int) ([]txReport, error) {
	plan := c.ToPlanConfig()
	batches, err := plan.Plan(n)
	if err != nil {
		return nil, err
	}
	asmCfg, err := c.ToAssemblerConfig()
	if err != nil {
		return nil, err
	}
	// 报告只关心大小，放开上限避免组装时直接报错
	limit := asmCfg.TxSizeLimit
	asmCfg.TxSizeLimit = 0

	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	token := model.NewTokenDescriptor(
		strings.Repeat("N", 32),
		strings.Repeat("S", 10),
		"size report",
		"https://example.com/image.png",
	)
	b, err := bundle.NewAssembler(asmCfg).Assemble(&bundle.LaunchParams{
		Batches:          batches,
		Wallets:          randomWallets(n),
		MintKey:          mintKey,
		Derived:          pump.Derive(mintKey.PublicKey()),
		Token:            token,
		TotalBuyLamports: uint64(n) * common.LAMPORTS_PER_SOL,
		BasePercent:      c.LaunchConf.DefaultSlippagePercent,
		Blockhash:        solana.Hash{},
	})
	if err != nil {
		return nil, err
	}
	if verbose {
		spew.Config.DisablePointerAddresses = true
		spew.Config.Indent = "  "
		spew.Dump(batches)
	}

	reports := make([]txReport, len(b.Transactions))
	for i, tx := range b.Transactions {
		reports[i] = txReport{
			Index:   tx.Index,
			Kind:    tx.Kind,
			Buys:    len(tx.Wallets),
			Signers: len(tx.Tx.Signatures),
			Size:    len(tx.Raw),
			Spare:   limit - len(tx.Raw),
		}
	}
	return reports, nil
}

func main() {
	flag.Parse()

	c := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			common.Log.WithError(err).Fatal("加载配置失败")
		}
		c = loaded
	}
	fmt.Printf("上限: %d 个钱包, 每笔交易 %d 字节\n", c.ToPlanConfig().Ceiling(), c.BundleConf.TxSizeLimit)

	for _, s := range strings.Split(counts, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "钱包数量无效: %q\n", s)
			os.Exit(1)
		}
		reports, err := build(c, n)
		if err != nil {
			fmt.Printf("%3d 个钱包: %v\n", n, err)
			continue
		}
		fmt.Printf("%3d 个钱包, %d 笔交易\n", n, len(reports))
		for _, r := range reports {
			mark := ""
			if r.Spare < 0 {
				mark = "  超出上限"
			}
			fmt.Printf("    #%d %-6s buys=%-2d signers=%-2d size=%-4d spare=%d%s\n",
				r.Index+1, r.Kind, r.Buys, r.Signers, r.Size, r.Spare, mark)
		}
	}
}
