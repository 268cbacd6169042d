package common

type TradeAction string

const (
	BUY  TradeAction = "buy"
	SELL TradeAction = "sell"
)

// NetworkMode 运行网络
type NetworkMode string

const (
	MAINNET NetworkMode = "mainnet"
	DEVNET  NetworkMode = "devnet"
	MOCK    NetworkMode = "mock" // 只构建签名，不发送
)

// PrivacyMethod 资金分发方式
type PrivacyMethod string

const (
	PRIVACY_NONE       PrivacyMethod = "none"
	PRIVACY_CASH       PrivacyMethod = "privacy-cash"
	PRIVACY_SHADOWWIRE PrivacyMethod = "shadowwire"
	PRIVACY_MOCK       PrivacyMethod = "mock"
)

// LaunchState 提交状态机
type LaunchState string

const (
	StateBuilt              LaunchState = "built"
	StateSubmitting         LaunchState = "submitting"
	StateAtomicallyLanded   LaunchState = "atomically_landed"
	StateRelayRejected      LaunchState = "relay_rejected"
	StateFallbackSubmitting LaunchState = "fallback_submitting"
	StatePartiallyLanded    LaunchState = "partially_landed"
	StateFallbackFailed     LaunchState = "fallback_failed"
	StateSimulated          LaunchState = "simulated"
)

// BundleStatus bundle 上链状态
type BundleStatus string

const (
	BundlePending BundleStatus = "pending"
	BundleLanded  BundleStatus = "landed"
	BundleFailed  BundleStatus = "failed"
)

const LAMPORTS_PER_SOL = 1_000_000_000
