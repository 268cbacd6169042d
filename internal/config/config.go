package config

import (
	"fmt"
	"time"

	"pump_bundler/internal/common"
)

type LogConfig struct {
	Format     string `yaml:"format"`      // 日志格式，支持 "text" 或 "json"
	LogDir     string `yaml:"log_dir"`     // 日志目录，为空时只输出到控制台
	Level      string `yaml:"level"`       // 日志级别：debug / info / warn / error
	MaxSizeMB  int    `yaml:"max_size_mb"` // 单个日志文件大小上限
	MaxBackups int    `yaml:"max_backups"` // 保留的旧日志文件数
	Compress   bool   `yaml:"compress"`    // 是否压缩旧日志文件
	Caller     bool   `yaml:"caller"`      // 是否记录调用位置
}

func (c *LogConfig) ToLogOption() common.LogOption {
	return common.LogOption{
		Format:     c.Format,
		LogDir:     c.LogDir,
		Level:      c.Level,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		Compress:   c.Compress,
		Caller:     c.Caller,
	}
}

// ComputeConfig 一类交易的 compute budget
type ComputeConfig struct {
	UnitLimit uint32 `yaml:"unit_limit"`
	UnitPrice uint64 `yaml:"unit_price"` // micro-lamports
}

// BundleConfig 分批与交易大小相关配置
type BundleConfig struct {
	FirstBatchSlots int `yaml:"first_batch_slots"` // 第一笔交易的买入槽位
	BatchSize       int `yaml:"batch_size"`        // 后续交易的买入槽位
	MaxTxCount      int `yaml:"max_tx_count"`      // 单个 bundle 最多交易数
	MaxWallets      int `yaml:"max_wallets"`       // 单次发射最多钱包数
	TxSizeLimit     int `yaml:"tx_size_limit"`     // 序列化后的交易大小上限（字节）

	// 交易大小估算，per_buy_bytes 为 0 时只按槽位分批
	TxOverheadBytes     int `yaml:"tx_overhead_bytes"`
	CreateOverheadBytes int `yaml:"create_overhead_bytes"`
	TransferBytes       int `yaml:"transfer_bytes"`
	PerBuyBytes         int `yaml:"per_buy_bytes"`

	FirstTxCompute ComputeConfig `yaml:"first_tx_compute"`
	TxCompute      ComputeConfig `yaml:"tx_compute"`
}

// FeeConfig 平台费与 tip
type FeeConfig struct {
	PlatformFeeLamports uint64   `yaml:"platform_fee_lamports"` // 只在主网收取
	PlatformFeeWallet   string   `yaml:"platform_fee_wallet"`
	TipLamports         uint64   `yaml:"tip_lamports"`
	TipAccounts         []string `yaml:"tip_accounts"`
}

// SlippageConfig 按钱包位置递增的滑点
type SlippageConfig struct {
	StepPercent float64 `yaml:"step_percent"`
	MaxPercent  float64 `yaml:"max_percent"`
}

// JitoConfig relay 地址与重试策略
type JitoConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutMs      int    `yaml:"timeout_ms"`
	MaxAttempts    int    `yaml:"max_attempts"` // 1 表示不重试
	RetryBackoffMs int    `yaml:"retry_backoff_ms"`
}

// SellConfig 卖出交易参数
type SellConfig struct {
	Compute     ComputeConfig `yaml:"compute"`
	TipLamports uint64        `yaml:"tip_lamports"`
	BundleSize  int           `yaml:"bundle_size"` // 每个 bundle 的卖出交易数
}

// ReclaimConfig 资金回收
type ReclaimConfig struct {
	GroupSize         int           `yaml:"group_size"`          // 每组并发查询/发送的钱包数
	FeeBufferLamports uint64        `yaml:"fee_buffer_lamports"` // 留在钱包里支付手续费
	Compute           ComputeConfig `yaml:"compute"`
}

// PrivacyConfig 资金分发
type PrivacyConfig struct {
	Method             common.PrivacyMethod `yaml:"method"`
	CashEndpoint       string               `yaml:"cash_endpoint"`       // privacy-cash sidecar
	ShadowWireEndpoint string               `yaml:"shadowwire_endpoint"` // shadowwire sidecar
	TimeoutMs          int                  `yaml:"timeout_ms"`
	TransfersPerTx     int                  `yaml:"transfers_per_tx"` // 直接转账时每笔交易的收款钱包数
	AmountVariance     float64              `yaml:"amount_variance"`  // 0.15 表示 ±15%
	MinDelayMs         int                  `yaml:"min_delay_ms"`
	MaxDelayMs         int                  `yaml:"max_delay_ms"`
	ComputeUnitPrice   uint64               `yaml:"compute_unit_price"` // 直接转账交易的优先费
}

// RateRule 单条限流规则
type RateRule struct {
	Limit    int `yaml:"limit"`
	WindowMs int `yaml:"window_ms"`
}

type RateLimitConfig struct {
	Store string              `yaml:"store"` // memory / redis
	Rules map[string]RateRule `yaml:"rules"`
}

// KafkaConfig 发射事件的 Kafka 生产者，brokers 为空时不发送
type KafkaConfig struct {
	Brokers       string `yaml:"brokers"` // 多个用英文逗号分隔
	Topic         string `yaml:"topic"`
	Partitions    int    `yaml:"partitions"`
	BatchSize     int    `yaml:"batch_size"`
	LingerMs      int    `yaml:"linger_ms"`
	SendTimeoutMs int    `yaml:"send_timeout_ms"`
}

// WatcherConfig 发射后观察链上成交
type WatcherConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	WindowS int    `yaml:"window_s"` // 订阅时长（秒）
}

// LaunchConfig 请求未填写时的默认值
type LaunchConfig struct {
	DefaultBuySol          float64 `yaml:"default_buy_sol"`
	DefaultSlippagePercent float64 `yaml:"default_slippage_percent"`
}

// Config 主配置结构体
type Config struct {
	NetworkMode   common.NetworkMode `yaml:"network_mode"`
	RpcURL        string             `yaml:"rpc_url"`
	ConfirmPollMs int                `yaml:"confirm_poll_ms"` // create 交易确认轮询间隔
	ListenAddr    string             `yaml:"listen_addr"`
	RedisAddr     string             `yaml:"redis_addr"`

	LogConf       LogConfig       `yaml:"logger"`
	LaunchConf    LaunchConfig    `yaml:"launch"`
	BundleConf    BundleConfig    `yaml:"bundle"`
	FeeConf       FeeConfig       `yaml:"fee"`
	SlippageConf  SlippageConfig  `yaml:"slippage"`
	JitoConf      JitoConfig      `yaml:"jito"`
	SellConf      SellConfig      `yaml:"sell"`
	ReclaimConf   ReclaimConfig   `yaml:"reclaim"`
	PrivacyConf   PrivacyConfig   `yaml:"privacy"`
	RateLimitConf RateLimitConfig `yaml:"rate_limit"`
	KafkaConf     KafkaConfig     `yaml:"kafka"`
	WatcherConf   WatcherConfig   `yaml:"watcher"`
}

func (c *Config) ConfirmPollInterval() time.Duration {
	return time.Duration(c.ConfirmPollMs) * time.Millisecond
}

func (c *Config) Validate() error {
	switch c.NetworkMode {
	case common.MAINNET, common.DEVNET, common.MOCK:
	default:
		return fmt.Errorf("network_mode 无效: %q", c.NetworkMode)
	}
	if c.RpcURL == "" && c.NetworkMode != common.MOCK {
		return fmt.Errorf("rpc_url 不能为空")
	}
	if c.NetworkMode == common.MAINNET && c.JitoConf.Endpoint == "" {
		return fmt.Errorf("主网模式需要 jito.endpoint")
	}
	if err := c.ToPlanConfig().Validate(); err != nil {
		return err
	}
	if _, err := c.ToAssemblerConfig(); err != nil {
		return err
	}
	if c.SlippageConf.StepPercent < 0 || c.SlippageConf.MaxPercent < 0 {
		return fmt.Errorf("滑点参数不能为负数")
	}
	if c.LaunchConf.DefaultBuySol <= 0 {
		return fmt.Errorf("launch.default_buy_sol 必须大于0")
	}
	if c.SellConf.BundleSize < 1 || c.SellConf.BundleSize > c.BundleConf.MaxTxCount {
		return fmt.Errorf("sell.bundle_size 必须在 1 到 %d 之间", c.BundleConf.MaxTxCount)
	}
	if c.ReclaimConf.GroupSize < 1 {
		return fmt.Errorf("reclaim.group_size 必须大于0")
	}
	switch c.PrivacyConf.Method {
	case common.PRIVACY_NONE, common.PRIVACY_CASH, common.PRIVACY_SHADOWWIRE, common.PRIVACY_MOCK:
	default:
		return fmt.Errorf("privacy.method 无效: %q", c.PrivacyConf.Method)
	}
	if c.PrivacyConf.MinDelayMs > c.PrivacyConf.MaxDelayMs {
		return fmt.Errorf("privacy.min_delay_ms 不能大于 max_delay_ms")
	}
	if c.PrivacyConf.AmountVariance < 0 || c.PrivacyConf.AmountVariance >= 1 {
		return fmt.Errorf("privacy.amount_variance 必须在 [0, 1) 之间")
	}
	switch c.RateLimitConf.Store {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("redis 限流需要 redis_addr")
		}
	default:
		return fmt.Errorf("rate_limit.store 无效: %q", c.RateLimitConf.Store)
	}
	for name, r := range c.RateLimitConf.Rules {
		if r.Limit < 1 || r.WindowMs < 1 {
			return fmt.Errorf("限流规则 %s 无效", name)
		}
	}
	return nil
}
