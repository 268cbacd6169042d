package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"pump_bundler/internal/analyzer"
	"pump_bundler/internal/common"
	"pump_bundler/internal/execctor"
	"pump_bundler/internal/model"
	"pump_bundler/internal/ratelimit"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Launcher 发射、卖出和 bundle 状态查询，一般是 execctor.Launcher
type Launcher interface {
	Launch(ctx context.Context, in *execctor.LaunchInput) (*model.SubmissionResult, error)
	Sell(ctx context.Context, in *execctor.SellInput) (*model.SellResult, error)
	BundleStatus(ctx context.Context, ids []string) ([]model.BundleStatusResult, error)
}

type Reclaimer interface {
	Reclaim(ctx context.Context, destination solana.PublicKey, wallets []*model.SignerWallet) (*model.ReclaimResult, error)
}

type Funder interface {
	Method(requested common.PrivacyMethod) common.PrivacyMethod
	Fund(ctx context.Context, method common.PrivacyMethod, funder *model.SignerWallet, recipients []solana.PublicKey, total uint64) (*model.FundResult, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, route, client string) (ratelimit.Result, error)
}

type EventSink interface {
	SendMessage(msg *model.QueueMessage) bool
}

type Options struct {
	ListenAddr     string
	RequestTimeout time.Duration // 单个请求的处理时长上限，异步注资不受限制
	FundWorkers    int           // 同时进行的隐私注资数
}

// Deps 为 nil 的能力对应的接口返回 503
type Deps struct {
	Launcher  Launcher
	Reclaimer Reclaimer
	Funder    Funder
	Limiter   RateLimiter
	Events    EventSink
	Analyzer  *analyzer.Config
}

type Bot struct {
	opt  Options
	deps Deps

	server     *http.Server
	ctx        context.Context
	cancelFunc context.CancelFunc
	workerPool chan struct{}  // 限制异步注资的并发数
	workerWg   sync.WaitGroup // 等待异步注资完成
}

// 创建新的Bot实例
func NewBot(opt Options, deps Deps) *Bot {
	if opt.RequestTimeout <= 0 {
		opt.RequestTimeout = 2 * time.Minute
	}
	if opt.FundWorkers <= 0 {
		opt.FundWorkers = 2
	}
	if deps.Analyzer == nil {
		deps.Analyzer = analyzer.DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		opt:        opt,
		deps:       deps,
		ctx:        ctx,
		cancelFunc: cancel,
		workerPool: make(chan struct{}, opt.FundWorkers),
	}
	b.server = &http.Server{
		Addr:              opt.ListenAddr,
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return b
}

// Handler 路由表
func (b *Bot) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/launch", b.route(http.MethodPost, ratelimit.RouteLaunch, b.handleLaunch))
	mux.HandleFunc("/api/sell", b.route(http.MethodPost, ratelimit.RouteSell, b.handleSell))
	mux.HandleFunc("/api/reclaim", b.route(http.MethodPost, ratelimit.RouteReclaim, b.handleReclaim))
	mux.HandleFunc("/api/fund", b.route(http.MethodPost, ratelimit.RouteFund, b.handleFund))
	mux.HandleFunc("/api/bundle-status", b.route(http.MethodGet, ratelimit.RouteStatus, b.handleBundleStatus))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	return mux
}

// Start 阻塞直到 Stop 被调用
func (b *Bot) Start() {
	common.Log.WithField("addr", b.opt.ListenAddr).Info("HTTP 服务已启动")
	if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		common.Log.WithError(err).Error("HTTP 服务异常退出")
	}
}

// Stop 停止接收请求并等待异步注资完成
func (b *Bot) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.server.Shutdown(ctx); err != nil {
		common.Log.WithError(err).Warn("HTTP 服务关闭超时")
	}
	b.cancelFunc()
	b.workerWg.Wait()
	common.Log.Info("所有工作线程已完成，Bot已关闭")
}

// 会向链上提交交易的路由
var detachedRoutes = map[string]bool{
	ratelimit.RouteLaunch: true,
	ratelimit.RouteSell:   true,
}

type handlerFunc func(ctx context.Context, w http.ResponseWriter, r *http.Request)

// route 检查方法和限流，再带上请求超时调用 h
func (b *Bot) route(method, name string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if !b.allow(w, r, name) {
			return
		}
		parent := r.Context()
		if detachedRoutes[name] {
			// 提交开始后不随客户端断开而中止，只受请求超时约束
			parent = context.WithoutCancel(parent)
		}
		ctx, cancel := context.WithTimeout(parent, b.opt.RequestTimeout)
		defer cancel()
		h(ctx, w, r)
	}
}

func (b *Bot) allow(w http.ResponseWriter, r *http.Request, name string) bool {
	if b.deps.Limiter == nil {
		return true
	}
	res, err := b.deps.Limiter.Allow(r.Context(), name, ClientIP(r))
	if err != nil {
		// 计数存储不可用时放行，只记录日志
		common.Log.WithError(err).WithField("route", name).Warn("限流检查失败")
		return true
	}
	if res.Remaining >= 0 {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(res.RetryAfterSeconds()))
	}
	if !res.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfterSeconds()))
		writeError(w, http.StatusTooManyRequests, res.Err().Error())
		return false
	}
	return true
}

// ClientIP 优先使用代理转发的地址
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("请求体解析失败: %v", err))
		return false
	}
	return true
}

func (b *Bot) handleLaunch(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if b.deps.Launcher == nil {
		writeError(w, http.StatusServiceUnavailable, "发射服务未启用")
		return
	}
	var req common.LaunchReq
	if !decodeBody(w, r, &req) {
		return
	}
	in, err := analyzer.ValidateLaunch(&req, b.deps.Analyzer)
	if err != nil {
		writeErr(w, err)
		return
	}
	result, err := b.deps.Launcher.Launch(ctx, in)
	if err != nil {
		if result != nil {
			// 降级提交失败时仍返回每笔交易的结果
			writeJSON(w, http.StatusBadGateway, result)
			return
		}
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (b *Bot) handleSell(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if b.deps.Launcher == nil {
		writeError(w, http.StatusServiceUnavailable, "卖出服务未启用")
		return
	}
	var req common.SellReq
	if !decodeBody(w, r, &req) {
		return
	}
	in, err := analyzer.ValidateSell(&req, b.deps.Analyzer)
	if err != nil {
		writeErr(w, err)
		return
	}
	result, err := b.deps.Launcher.Sell(ctx, in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (b *Bot) handleReclaim(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if b.deps.Reclaimer == nil {
		writeError(w, http.StatusServiceUnavailable, "回收服务未启用")
		return
	}
	var req common.ReclaimReq
	if !decodeBody(w, r, &req) {
		return
	}
	dest, wallets, err := analyzer.ValidateReclaim(&req, b.deps.Analyzer)
	if err != nil {
		writeErr(w, err)
		return
	}
	result, err := b.deps.Reclaimer.Reclaim(ctx, dest, wallets)
	if err != nil {
		writeErr(w, err)
		return
	}
	if b.deps.Events != nil {
		b.deps.Events.SendMessage(model.NewReclaimMessage(dest.String(), result))
	}
	writeJSON(w, http.StatusOK, result)
}

// handleFund 直接转账同步返回；隐私通道的提取带随机延迟，后台执行并立即返回 202
func (b *Bot) handleFund(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if b.deps.Funder == nil {
		writeError(w, http.StatusServiceUnavailable, "注资服务未启用")
		return
	}
	var req common.FundReq
	if !decodeBody(w, r, &req) {
		return
	}
	in, err := analyzer.ValidateFund(&req, b.deps.Analyzer)
	if err != nil {
		writeErr(w, err)
		return
	}

	method := b.deps.Funder.Method(in.Method)
	if method == common.PRIVACY_NONE {
		result, err := b.deps.Funder.Fund(ctx, method, in.Funder, in.Recipients, in.TotalLamports)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	select {
	case b.workerPool <- struct{}{}:
	default:
		writeError(w, http.StatusServiceUnavailable, "注资任务过多，请稍后重试")
		return
	}
	b.workerWg.Add(1)
	go b.fundAsync(method, in)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"accepted":      true,
		"method":        method,
		"wallets":       len(in.Recipients),
		"totalLamports": in.TotalLamports,
	})
}

func (b *Bot) fundAsync(method common.PrivacyMethod, in *analyzer.FundInput) {
	defer func() {
		<-b.workerPool
		b.workerWg.Done()
	}()

	log := common.Log.WithFields(logrus.Fields{
		"method":  method,
		"funder":  in.Funder.PublicKey.String(),
		"wallets": len(in.Recipients),
	})
	result, err := b.deps.Funder.Fund(b.ctx, method, in.Funder, in.Recipients, in.TotalLamports)
	if err != nil {
		log.WithError(err).Error("注资失败")
		return
	}
	log.WithFields(logrus.Fields{
		"success": result.SuccessCount,
		"failed":  result.FailedCount,
		"score":   result.PrivacyScore,
	}).Info("注资完成")
}

func (b *Bot) handleBundleStatus(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if b.deps.Launcher == nil {
		writeError(w, http.StatusServiceUnavailable, "发射服务未启用")
		return
	}
	var ids []string
	for _, v := range r.URL.Query()["id"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	statuses, err := b.deps.Launcher.BundleStatus(ctx, ids)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"statuses": statuses})
}

type errorBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Ceiling   int    `json:"ceiling,omitempty"`
	Requested int    `json:"requested,omitempty"`
}

// writeErr 按错误类型选择状态码
func writeErr(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var vErr *common.ValidationError
	var tooMany *common.TooManyWalletsError
	var tooLarge *common.TxTooLargeError
	var encErr *common.EncodingError
	var relayErr *common.RelayError
	var netErr *common.NetworkError
	switch {
	case errors.As(err, &vErr):
		status, body.Field = http.StatusBadRequest, vErr.Field
	case errors.As(err, &tooMany):
		status, body.Ceiling, body.Requested = http.StatusBadRequest, tooMany.Ceiling, tooMany.Requested
	case errors.As(err, &encErr), errors.As(err, &tooLarge):
		status = http.StatusBadRequest
	case errors.As(err, &relayErr), errors.As(err, &netErr):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		common.Log.WithError(err).Error("请求处理失败")
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		common.Log.WithError(err).Warn("写入响应失败")
	}
}
