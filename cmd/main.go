package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"pump_bundler/internal/bot"
	"pump_bundler/internal/chainTx"
	"pump_bundler/internal/common"
	"pump_bundler/internal/config"
	"pump_bundler/internal/execctor"
	"pump_bundler/internal/model"
	"pump_bundler/internal/mq"
	"pump_bundler/internal/privacy"
	"pump_bundler/internal/queue"
	"pump_bundler/internal/ratelimit"
	"pump_bundler/internal/reclaim"
	solclient "pump_bundler/internal/solana"
	"pump_bundler/internal/ws"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/launcher.yaml", "the config file")

// queueService 让消息队列跟随服务组启停
type queueService struct {
	q *queue.MessageQueue
}

func (s queueService) Start() { s.q.Start() }
func (s queueService) Stop()  { s.q.Stop() }

// watcherService 连接失败只记录日志，不影响发射
type watcherService struct {
	w *ws.TradeWatcher
}

func (s watcherService) Start() {
	if err := s.w.Start(); err != nil {
		common.Log.WithError(err).Error("成交监听启动失败")
	}
}
func (s watcherService) Stop() { s.w.Close() }

func main() {
	defer func() {
		if r := recover(); r != nil {
			common.Log.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	c, err := config.Load(*configFile)
	if err != nil {
		common.Log.WithError(err).Fatal("加载配置失败")
	}
	common.InitLogger(c.LogConf.ToLogOption())
	log := common.Log.WithField("network", c.NetworkMode)

	rpcClient := solclient.New(c.RpcURL, c.ConfirmPollInterval())
	defer rpcClient.Close()

	var relay execctor.Relay
	if c.NetworkMode == common.MAINNET {
		relay = chainTx.NewJitoClient(c.JitoConf.Endpoint, c.JitoTimeout())
	}

	events := queue.NewMessageQueue("launch-events", 256)

	if opt := c.ToPublisherOption(); opt.Enabled() {
		publisher, err := mq.NewEventPublisher(opt)
		if err != nil {
			log.WithError(err).Fatal("初始化 Kafka 生产者失败")
		}
		defer publisher.Close()
		events.RegisterHandler(publisher)
		log.WithField("topic", opt.Topic).Info("发射事件将写入 Kafka")
	}

	var watcher *ws.TradeWatcher
	if c.WatcherConf.Enabled {
		tracker := execctor.NewLaunchTracker(func(r *model.WatchReport) {
			common.Log.WithFields(logrus.Fields{
				"mint":     r.MintAddress,
				"expected": r.ExpectedBuys,
				"observed": r.ObservedBuys,
				"highest":  r.HighestMarketCap,
			}).Info("发射观察报告")
		})
		watcher = ws.NewTradeWatcher(c.ToWatcherOption(), tracker)
		events.RegisterHandler(watcher)
	}

	launcherOpt, err := c.ToLauncherOptions()
	if err != nil {
		log.WithError(err).Fatal("发射参数无效")
	}
	launcher, err := execctor.NewLauncher(launcherOpt, rpcClient, relay, events)
	if err != nil {
		log.WithError(err).Fatal("初始化 Launcher 失败")
	}
	log.WithField("ceiling", launcher.Ceiling()).Info("单个 bundle 的钱包上限")

	limiter, err := newLimiter(c)
	if err != nil {
		log.WithError(err).Fatal("初始化限流失败")
	}

	httpServer := bot.NewBot(bot.Options{ListenAddr: c.ListenAddr}, bot.Deps{
		Launcher:  launcher,
		Reclaimer: reclaim.NewReclaimer(rpcClient, c.ToReclaimOptions()),
		Funder:    privacy.NewFunder(rpcClient, c.ToPrivacyOptions()),
		Limiter:   limiter,
		Events:    events,
		Analyzer:  c.ToAnalyzerConfig(),
	})

	// 按加入顺序停止：先停 HTTP，再处理完队列里的事件
	sg := zerosvc.NewServiceGroup()
	sg.Add(httpServer)
	sg.Add(queueService{q: events})
	if watcher != nil {
		sg.Add(watcherService{w: watcher})
	}

	log.Info("Starting launcher service")
	go sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("Shutting down services...")
	sg.Stop()
}

// newLimiter 多实例部署时使用 redis 共享计数
func newLimiter(c *config.Config) (*ratelimit.Limiter, error) {
	rules := c.ToRateRules()
	if c.RateLimitConf.Store != "redis" {
		return ratelimit.NewLimiter(ratelimit.NewMemoryStore(0, ratelimit.MaxWindow(rules)), rules), nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return ratelimit.NewLimiter(ratelimit.NewRedisStore(rdb), rules), nil
}
