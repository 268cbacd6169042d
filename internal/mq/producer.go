package mq

import (
	"context"
	"fmt"
	"os"
	"time"

	"pump_bundler/internal/common"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	defaultBatchSize   = 32 * 1024
	defaultLingerMs    = 5
	defaultSendTimeout = 5 * time.Second
)

// PublisherOption 发射事件的 Kafka 参数
type PublisherOption struct {
	Brokers     string // 多个用英文逗号分隔，为空表示不发送
	Topic       string
	Partitions  int
	BatchSize   int // 批处理大小（字节）
	LingerMs    int // 批处理最大延迟（毫秒）
	SendTimeout time.Duration
}

func (o PublisherOption) Enabled() bool {
	return o.Brokers != "" && o.Topic != ""
}

// ensureTopic topic 不存在时按 broker 数量选择副本数创建
func ensureTopic(opt PublisherOption) error {
	adminClient, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": opt.Brokers,
	})
	if err != nil {
		return fmt.Errorf("创建 admin client 失败: %w", err)
	}
	defer adminClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	meta, err := adminClient.GetMetadata(nil, true, 10000)
	if err != nil {
		return fmt.Errorf("获取 metadata 失败: %w", err)
	}
	for _, topic := range meta.Topics {
		if topic.Topic == opt.Topic {
			return nil
		}
	}

	replicationFactor := 1
	if len(meta.Brokers) > 1 {
		replicationFactor = 2
	}
	partitions := opt.Partitions
	if partitions <= 0 {
		partitions = 1
	}
	common.Log.WithField("topic", opt.Topic).Infof("创建 topic, broker 数 %d, 副本数 %d", len(meta.Brokers), replicationFactor)

	results, err := adminClient.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             opt.Topic,
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	}})
	if err != nil {
		return fmt.Errorf("创建 topic 失败: %w", err)
	}
	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("创建 topic %s 失败: %w", result.Topic, result.Error)
		}
	}
	return nil
}

// NewKafkaProducer 创建 Kafka 生产者
func NewKafkaProducer(opt PublisherOption) (*kafka.Producer, error) {
	if err := ensureTopic(opt); err != nil {
		return nil, err
	}

	batchSize := opt.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	lingerMs := opt.LingerMs
	if lingerMs < 0 {
		lingerMs = defaultLingerMs
	}
	hostname, _ := os.Hostname()

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": opt.Brokers,
		"client.id":         fmt.Sprintf("pump-bundler-%s", hostname),

		// 可靠性保障
		"acks":                                  "all",
		"enable.idempotence":                    true,
		"max.in.flight.requests.per.connection": 5, // 幂等场景下最大值为 5

		// 超时与重试
		"delivery.timeout.ms": 30000,
		"request.timeout.ms":  30000,
		"retries":             5,
		"retry.backoff.ms":    100,

		"batch.size":       batchSize,
		"linger.ms":        lingerMs,
		"compression.type": "none",

		"message.max.bytes": 2 * 1024 * 1024, // 2MB
	})
	if err != nil {
		return nil, fmt.Errorf("创建 producer 失败: %w", err)
	}
	return producer, nil
}
