package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"pump_bundler/internal/analyzer"
	"pump_bundler/internal/bundle"
	"pump_bundler/internal/chainTx"
	"pump_bundler/internal/common"
	"pump_bundler/internal/execctor"
	"pump_bundler/internal/mq"
	"pump_bundler/internal/privacy"
	"pump_bundler/internal/ratelimit"
	"pump_bundler/internal/reclaim"
	"pump_bundler/internal/ws"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var defaultTipAccounts = []string{
	"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
	"HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe",
	"Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY",
	"ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49",
	"DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh",
	"ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt",
	"DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL",
	"3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT",
}

// Default 主网上观察到的参数
func Default() *Config {
	return &Config{
		NetworkMode:   common.MAINNET,
		RpcURL:        "https://api.mainnet-beta.solana.com",
		ConfirmPollMs: 1000,
		ListenAddr:    ":8080",
		LogConf: LogConfig{
			Format:     "json",
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 7,
			Compress:   true,
		},
		LaunchConf: LaunchConfig{
			DefaultBuySol:          5,
			DefaultSlippagePercent: 15,
		},
		BundleConf: BundleConfig{
			FirstBatchSlots:     8,
			BatchSize:           10,
			MaxTxCount:          5,
			MaxWallets:          50,
			TxSizeLimit:         1232,
			TxOverheadBytes:     412,
			CreateOverheadBytes: 400,
			TransferBytes:       49,
			PerBuyBytes:         167,
			FirstTxCompute:      ComputeConfig{UnitLimit: 1_400_000, UnitPrice: 500_000},
			TxCompute:           ComputeConfig{UnitLimit: 1_400_000, UnitPrice: 300_000},
		},
		FeeConf: FeeConfig{
			PlatformFeeLamports: common.LAMPORTS_PER_SOL / 2,
			PlatformFeeWallet:   "96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
			TipLamports:         10_000_000,
			TipAccounts:         append([]string(nil), defaultTipAccounts...),
		},
		SlippageConf: SlippageConfig{StepPercent: 0.3, MaxPercent: 50},
		JitoConf: JitoConfig{
			Endpoint:       "https://mainnet.block-engine.jito.wtf/api/v1/bundles",
			TimeoutMs:      10_000,
			MaxAttempts:    1,
			RetryBackoffMs: 500,
		},
		SellConf: SellConfig{
			Compute:     ComputeConfig{UnitLimit: 200_000, UnitPrice: 100_000},
			TipLamports: 500_000,
			BundleSize:  5,
		},
		ReclaimConf: ReclaimConfig{
			GroupSize:         20,
			FeeBufferLamports: 5000,
			Compute:           ComputeConfig{UnitLimit: 5000, UnitPrice: 1000},
		},
		PrivacyConf: PrivacyConfig{
			Method:           common.PRIVACY_NONE,
			TimeoutMs:        60_000,
			TransfersPerTx:   20,
			AmountVariance:   0.15,
			MinDelayMs:       30_000,
			MaxDelayMs:       300_000,
			ComputeUnitPrice: 10_000,
		},
		RateLimitConf: RateLimitConfig{
			Store: "memory",
			Rules: map[string]RateRule{
				ratelimit.RouteLaunch:  {Limit: 3, WindowMs: 60_000},
				ratelimit.RouteSell:    {Limit: 5, WindowMs: 60_000},
				ratelimit.RouteReclaim: {Limit: 5, WindowMs: 60_000},
				ratelimit.RouteFund:    {Limit: 10, WindowMs: 60_000},
				ratelimit.RouteStatus:  {Limit: 30, WindowMs: 10_000},
			},
		},
		KafkaConf: KafkaConfig{
			Topic:         "pump-launch-events",
			Partitions:    1,
			BatchSize:     32 * 1024,
			LingerMs:      5,
			SendTimeoutMs: 5000,
		},
		WatcherConf: WatcherConfig{
			URL:     "wss://pumpportal.fun/api/data",
			WindowS: 60,
		},
	}
}

// Load 默认值 <- yaml 文件 <- 环境变量（含 .env）
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		common.Log.Debug("未找到 .env 文件，只读取系统环境变量")
	}

	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("RPC_URL"); v != "" {
		c.RpcURL = v
	}
	if v := os.Getenv("JITO_BLOCK_ENGINE_URL"); v != "" {
		c.JitoConf.Endpoint = v
	}
	if v := os.Getenv("PLATFORM_FEE_WALLET"); v != "" {
		c.FeeConf.PlatformFeeWallet = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaConf.Brokers = v
	}
	if v := os.Getenv("NETWORK_MODE"); v != "" {
		c.NetworkMode = common.NetworkMode(strings.ToLower(v))
	}
}

func (c *Config) ToPlanConfig() bundle.PlanConfig {
	b := c.BundleConf
	return bundle.PlanConfig{
		FirstBatchSlots:     b.FirstBatchSlots,
		BatchSize:           b.BatchSize,
		MaxTxCount:          b.MaxTxCount,
		MaxWallets:          b.MaxWallets,
		TxSizeLimit:         b.TxSizeLimit,
		TxOverheadBytes:     b.TxOverheadBytes,
		CreateOverheadBytes: b.CreateOverheadBytes,
		TransferBytes:       b.TransferBytes,
		PerBuyBytes:         b.PerBuyBytes,
	}
}

func (cc ComputeConfig) toBudget() bundle.ComputeBudget {
	return bundle.ComputeBudget{UnitLimit: cc.UnitLimit, UnitPrice: cc.UnitPrice}
}

// ToAssemblerConfig 平台费只在主网收取
func (c *Config) ToAssemblerConfig() (bundle.AssemblerConfig, error) {
	out := bundle.AssemblerConfig{
		TxSizeLimit:     c.BundleConf.TxSizeLimit,
		FirstTxBudget:   c.BundleConf.FirstTxCompute.toBudget(),
		TxBudget:        c.BundleConf.TxCompute.toBudget(),
		TipLamports:     c.FeeConf.TipLamports,
		Slippage:        bundle.SlippagePolicy{StepPercent: c.SlippageConf.StepPercent, MaxPercent: c.SlippageConf.MaxPercent},
		SellBudget:      c.SellConf.Compute.toBudget(),
		SellTipLamports: c.SellConf.TipLamports,
	}
	if len(c.FeeConf.TipAccounts) == 0 {
		return out, fmt.Errorf("fee.tip_accounts 不能为空")
	}
	for _, s := range c.FeeConf.TipAccounts {
		key, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return out, fmt.Errorf("tip 账户 %s 无效: %w", s, err)
		}
		out.TipAccounts = append(out.TipAccounts, key)
	}
	if c.NetworkMode == common.MAINNET && c.FeeConf.PlatformFeeLamports > 0 {
		wallet, err := solana.PublicKeyFromBase58(c.FeeConf.PlatformFeeWallet)
		if err != nil {
			return out, fmt.Errorf("平台费钱包 %s 无效: %w", c.FeeConf.PlatformFeeWallet, err)
		}
		out.PlatformFeeWallet = wallet
		out.PlatformFeeLamports = c.FeeConf.PlatformFeeLamports
	}
	return out, nil
}

// ToLauncherOptions 组合分批、组装和重试参数
func (c *Config) ToLauncherOptions() (execctor.Options, error) {
	asm, err := c.ToAssemblerConfig()
	if err != nil {
		return execctor.Options{}, err
	}
	return execctor.Options{
		Network:        c.NetworkMode,
		Plan:           c.ToPlanConfig(),
		Assembler:      asm,
		Retry:          c.ToRetryPolicy(),
		SellBundleSize: c.SellConf.BundleSize,
		BalanceGroup:   c.ReclaimConf.GroupSize,
	}, nil
}

// ToAnalyzerConfig 钱包上限取配置值，超过分批上限的由 Launcher 返回 TooManyWalletsError
func (c *Config) ToAnalyzerConfig() *analyzer.Config {
	out := analyzer.DefaultConfig()
	out.MaxWallets = c.BundleConf.MaxWallets
	out.DefaultBuySol = c.LaunchConf.DefaultBuySol
	out.DefaultSlippagePercent = c.LaunchConf.DefaultSlippagePercent
	if c.SlippageConf.MaxPercent > 0 {
		out.MaxSlippagePercent = c.SlippageConf.MaxPercent
	}
	return out
}

func (c *Config) ToRetryPolicy() chainTx.RetryPolicy {
	return chainTx.RetryPolicy{
		MaxAttempts: c.JitoConf.MaxAttempts,
		Backoff:     time.Duration(c.JitoConf.RetryBackoffMs) * time.Millisecond,
	}
}

func (c *Config) JitoTimeout() time.Duration {
	return time.Duration(c.JitoConf.TimeoutMs) * time.Millisecond
}

func (c *Config) ToRateRules() map[string]ratelimit.Rule {
	rules := make(map[string]ratelimit.Rule, len(c.RateLimitConf.Rules))
	for name, r := range c.RateLimitConf.Rules {
		rules[name] = ratelimit.Rule{Limit: r.Limit, Window: time.Duration(r.WindowMs) * time.Millisecond}
	}
	return rules
}

func (c *Config) ToReclaimOptions() reclaim.Options {
	return reclaim.Options{
		GroupSize:   c.ReclaimConf.GroupSize,
		FeeBuffer:   c.ReclaimConf.FeeBufferLamports,
		Budget:      c.ReclaimConf.Compute.toBudget(),
		TxSizeLimit: c.BundleConf.TxSizeLimit,
	}
}

func (c *Config) ToPrivacyOptions() privacy.Options {
	p := c.PrivacyConf
	return privacy.Options{
		Method:  p.Method,
		Network: c.NetworkMode,
		Endpoints: map[common.PrivacyMethod]string{
			common.PRIVACY_CASH:       p.CashEndpoint,
			common.PRIVACY_SHADOWWIRE: p.ShadowWireEndpoint,
		},
		Timeout:        time.Duration(p.TimeoutMs) * time.Millisecond,
		TransfersPerTx: p.TransfersPerTx,
		UnitPrice:      p.ComputeUnitPrice,
		TxSizeLimit:    c.BundleConf.TxSizeLimit,
		AmountVariance: p.AmountVariance,
		MinDelay:       time.Duration(p.MinDelayMs) * time.Millisecond,
		MaxDelay:       time.Duration(p.MaxDelayMs) * time.Millisecond,
	}
}

func (c *Config) ToPublisherOption() mq.PublisherOption {
	k := c.KafkaConf
	return mq.PublisherOption{
		Brokers:     k.Brokers,
		Topic:       k.Topic,
		Partitions:  k.Partitions,
		BatchSize:   k.BatchSize,
		LingerMs:    k.LingerMs,
		SendTimeout: time.Duration(k.SendTimeoutMs) * time.Millisecond,
	}
}

func (c *Config) ToWatcherOption() ws.WatcherOption {
	return ws.WatcherOption{
		URL:    c.WatcherConf.URL,
		Window: time.Duration(c.WatcherConf.WindowS) * time.Second,
	}
}
