package queue

import (
	"sync"

	"pump_bundler/internal/common"
	"pump_bundler/internal/model"

	"github.com/sirupsen/logrus"
)

// 消息队列管理器
type MessageQueue struct {
	name     string                   // 队列名称
	messages chan *model.QueueMessage // 消息通道
	handlers []MessageHandler         // 消息处理器
	mutex    sync.RWMutex             // 保护 handlers 和 closed
	started  bool
	closed   bool
	wg       sync.WaitGroup // 等待处理中的消息
	done     chan struct{}
}

// 消息处理器接口
type MessageHandler interface {
	HandleMessage(msg *model.QueueMessage)
}

// HandlerFunc 函数适配为 MessageHandler
type HandlerFunc func(msg *model.QueueMessage)

func (f HandlerFunc) HandleMessage(msg *model.QueueMessage) { f(msg) }

// 创建新消息队列
func NewMessageQueue(name string, bufferSize int) *MessageQueue {
	return &MessageQueue{
		name:     name,
		messages: make(chan *model.QueueMessage, bufferSize),
		handlers: make([]MessageHandler, 0),
		done:     make(chan struct{}),
	}
}

func (q *MessageQueue) Name() string {
	return q.name
}

// 注册消息处理器
func (q *MessageQueue) RegisterHandler(handler MessageHandler) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.handlers = append(q.handlers, handler)
}

// SendMessage 非阻塞发送，队列满或已停止时丢弃并返回 false
func (q *MessageQueue) SendMessage(msg *model.QueueMessage) bool {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	log := common.Log.WithFields(logrus.Fields{"queue": q.name, "type": msg.Type.String(), "mint": msg.MintAddress})
	if q.closed {
		log.Warn("队列已停止，消息被丢弃")
		return false
	}
	select {
	case q.messages <- msg:
		log.Debug("消息已发送到队列")
		return true
	default:
		log.Warn("队列已满，消息被丢弃")
		return false
	}
}

// 启动消息处理
func (q *MessageQueue) Start() {
	q.mutex.Lock()
	if q.started {
		q.mutex.Unlock()
		return
	}
	q.started = true
	q.mutex.Unlock()

	go func() {
		defer close(q.done)
		for msg := range q.messages {
			msg := msg
			q.mutex.RLock()
			handlers := q.handlers
			q.mutex.RUnlock()

			for _, handler := range handlers {
				q.wg.Add(1)
				go func(h MessageHandler) {
					defer q.wg.Done()
					h.HandleMessage(msg)
				}(handler)
			}
		}
	}()

	common.Log.WithField("queue", q.name).Info("队列已启动")
}

// Stop 停止接收新消息，处理完缓冲中的消息后返回
func (q *MessageQueue) Stop() {
	q.mutex.Lock()
	if q.closed {
		q.mutex.Unlock()
		return
	}
	q.closed = true
	started := q.started
	close(q.messages)
	q.mutex.Unlock()

	if !started {
		return
	}
	<-q.done
	q.wg.Wait()
	common.Log.WithField("queue", q.name).Info("队列已停止")
}
