package mq

import (
	"context"
	"encoding/json"
	"time"

	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

// launchEvent 写入 Kafka 的消息体，type 用字符串方便下游过滤
type launchEvent struct {
	Type string `json:"type"`
	*model.QueueMessage
}

// EventPublisher 把发射/卖出/回收结果写入 Kafka，作为 queue 的处理器
type EventPublisher struct {
	producer Producer
	topic    string
	timeout  time.Duration
	closeFn  func()
}

func newEventPublisher(producer Producer, opt PublisherOption) *EventPublisher {
	timeout := opt.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &EventPublisher{producer: producer, topic: opt.Topic, timeout: timeout}
}

// NewEventPublisher 连接 Kafka 并确保 topic 存在
func NewEventPublisher(opt PublisherOption) (*EventPublisher, error) {
	producer, err := NewKafkaProducer(opt)
	if err != nil {
		return nil, err
	}
	// 投递回执走各自的 deliveryChan，这里只剩客户端级别的错误
	go func() {
		for e := range producer.Events() {
			if kErr, ok := e.(kafka.Error); ok {
				common.Log.WithError(kErr).Warn("kafka 客户端错误")
			}
		}
	}()

	p := newEventPublisher(producer, opt)
	p.closeFn = func() {
		producer.Flush(5000)
		producer.Close()
	}
	common.Log.WithFields(logrus.Fields{"brokers": opt.Brokers, "topic": opt.Topic}).Info("kafka 发布器已启动")
	return p, nil
}

func encodeEvent(msg *model.QueueMessage) ([]byte, error) {
	return json.Marshal(launchEvent{Type: msg.Type.String(), QueueMessage: msg})
}

// HandleMessage 同 mint 的消息使用相同 key，保证分区内有序
func (p *EventPublisher) HandleMessage(msg *model.QueueMessage) {
	log := common.Log.WithFields(logrus.Fields{"type": msg.Type.String(), "mint": msg.MintAddress, "topic": p.topic})
	value, err := encodeEvent(msg)
	if err != nil {
		log.WithError(err).Error("序列化事件失败")
		return
	}

	job := &KafkaJob{
		Topic:     p.topic,
		Partition: kafka.PartitionAny,
		Key:       []byte(msg.MintAddress),
		Value:     value,
	}
	_, failed := SendKafkaJobs(context.Background(), p.producer, []*KafkaJob{job}, p.timeout)
	for _, f := range failed {
		log.WithError(f.Err).Error("事件写入 kafka 失败")
	}
	if len(failed) == 0 {
		log.Debug("事件已写入 kafka")
	}
}

// Close 等待未完成的消息发送后关闭
func (p *EventPublisher) Close() {
	if p.closeFn != nil {
		p.closeFn()
	}
}
