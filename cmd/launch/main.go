package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"pump_bundler/internal/analyzer"
	"pump_bundler/internal/chainTx"
	"pump_bundler/internal/common"
	"pump_bundler/internal/config"
	"pump_bundler/internal/execctor"
	solclient "pump_bundler/internal/solana"
)

// 命令行参数
var (
	configFile  string
	action      string
	walletsFile string
	name        string
	symbol      string
	description string
	imageURL    string
	amount      float64
	slippage    float64
	mint        string
	bundleIDs   string
	timeout     time.Duration
)

func init() {
	flag.StringVar(&configFile, "f", "etc/launcher.yaml", "配置文件")
	flag.StringVar(&action, "action", "launch", "操作类型 (launch, sell, status)")
	flag.StringVar(&walletsFile, "wallets", "wallets.json", "钱包文件，格式为 [{publicKey, secretKey}]")
	flag.StringVar(&name, "name", "", "代币名称")
	flag.StringVar(&symbol, "symbol", "", "代币符号")
	flag.StringVar(&description, "desc", "", "代币描述")
	flag.StringVar(&imageURL, "image", "", "图片地址")
	flag.Float64Var(&amount, "amount", 0, "总买入金额（SOL），0 表示使用配置的默认值")
	flag.Float64Var(&slippage, "slippage", 0, "基础滑点百分比，0 表示使用配置的默认值")
	flag.StringVar(&mint, "mint", "", "卖出的代币地址")
	flag.StringVar(&bundleIDs, "bundle", "", "查询的 bundle id，多个用英文逗号分隔")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "整个操作的超时时间")
}

func loadWallets(path string) ([]common.WalletReq, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取钱包文件失败: %w", err)
	}
	var wallets []common.WalletReq
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, fmt.Errorf("解析钱包文件失败: %w", err)
	}
	return wallets, nil
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		common.Log.WithError(err).Fatal("序列化结果失败")
	}
	fmt.Println(string(out))
}

func main() {
	flag.Parse()

	c, err := config.Load(configFile)
	if err != nil {
		common.Log.WithError(err).Fatal("加载配置失败")
	}
	common.InitLogger(c.LogConf.ToLogOption())

	rpcClient := solclient.New(c.RpcURL, c.ConfirmPollInterval())
	defer rpcClient.Close()

	var relay execctor.Relay
	if c.NetworkMode == common.MAINNET {
		relay = chainTx.NewJitoClient(c.JitoConf.Endpoint, c.JitoTimeout())
	}
	opt, err := c.ToLauncherOptions()
	if err != nil {
		common.Log.WithError(err).Fatal("发射参数无效")
	}
	launcher, err := execctor.NewLauncher(opt, rpcClient, relay, nil)
	if err != nil {
		common.Log.WithError(err).Fatal("初始化 Launcher 失败")
	}
	rules := c.ToAnalyzerConfig()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch action {
	case "launch":
		wallets, err := loadWallets(walletsFile)
		if err != nil {
			common.Log.WithError(err).Fatal("加载钱包失败")
		}
		in, err := analyzer.ValidateLaunch(&common.LaunchReq{
			TokenConfig:     common.TokenConfigReq{Name: name, Symbol: symbol, Description: description, ImageUrl: imageURL},
			Wallets:         wallets,
			TotalBuyAmount:  amount,
			SlippagePercent: slippage,
		}, rules)
		if err != nil {
			common.Log.WithError(err).Fatal("参数校验失败")
		}
		result, err := launcher.Launch(ctx, in)
		if result != nil {
			printJSON(result)
		}
		if err != nil {
			common.Log.WithError(err).Fatal("发射失败")
		}

	case "sell":
		wallets, err := loadWallets(walletsFile)
		if err != nil {
			common.Log.WithError(err).Fatal("加载钱包失败")
		}
		in, err := analyzer.ValidateSell(&common.SellReq{MintAddress: mint, Wallets: wallets}, rules)
		if err != nil {
			common.Log.WithError(err).Fatal("参数校验失败")
		}
		result, err := launcher.Sell(ctx, in)
		if err != nil {
			common.Log.WithError(err).Fatal("卖出失败")
		}
		printJSON(result)

	case "status":
		var ids []string
		for _, id := range strings.Split(bundleIDs, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		statuses, err := launcher.BundleStatus(ctx, ids)
		if err != nil {
			common.Log.WithError(err).Fatal("查询 bundle 状态失败")
		}
		printJSON(statuses)

	default:
		fmt.Printf("未知操作类型: %s\n", action)
		flag.PrintDefaults()
		os.Exit(1)
	}
}
