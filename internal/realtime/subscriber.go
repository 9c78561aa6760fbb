// Package realtime nhận event từ gateway WhatsApp qua RabbitMQ và đẩy vào Reconciliation Engine.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"sistema_restaurante/internal/logger"
)

// Subscriber tiêu thụ message từ một topic exchange với worker pool.
type Subscriber interface {
	RegisterHandler(routingKey string, handler func(context.Context, amqp091.Delivery) error)
	Start(queueName string) error
	NotifyClose() <-chan *amqp091.Error
	Close() error
}

type rmqSubscriber struct {
	conn      *amqp091.Connection
	ch        *amqp091.Channel
	exchange  string
	log       *logrus.Logger
	handlers  map[string]func(context.Context, amqp091.Delivery) error
	msgChan   chan amqp091.Delivery
	done      chan struct{}
	wg        sync.WaitGroup
	once      sync.Once
	workerCnt int
}

// NewSubscriber kết nối tới RabbitMQ và khai báo topic exchange.
func NewSubscriber(url, exchange string, bufferCap, workerCnt int) (Subscriber, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &rmqSubscriber{
		conn:      conn,
		ch:        ch,
		exchange:  exchange,
		log:       logger.GetAppLogger(),
		handlers:  make(map[string]func(context.Context, amqp091.Delivery) error),
		msgChan:   make(chan amqp091.Delivery, bufferCap),
		done:      make(chan struct{}),
		workerCnt: workerCnt,
	}, nil
}

func (s *rmqSubscriber) RegisterHandler(routingKey string, handler func(context.Context, amqp091.Delivery) error) {
	s.handlers[routingKey] = handler
}

// NotifyClose báo khi kết nối tới broker bị mất — caller tự reconnect.
func (s *rmqSubscriber) NotifyClose() <-chan *amqp091.Error {
	return s.conn.NotifyClose(make(chan *amqp091.Error, 1))
}

func (s *rmqSubscriber) Start(queueName string) error {
	var startErr error
	s.once.Do(func() {
		if err := s.setupQueue(queueName); err != nil {
			startErr = err
			return
		}

		s.runWorkerPool()
		s.log.WithField("queue", queueName).Info("📡 [REALTIME] Subscriber đã khởi động")
	})
	return startErr
}

func (s *rmqSubscriber) setupQueue(queueName string) error {
	if err := s.ch.Qos(10, 0, false); err != nil {
		return err
	}
	q, err := s.ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return err
	}
	for key := range s.handlers {
		if err := s.ch.QueueBind(q.Name, key, s.exchange, false, nil); err != nil {
			return err
		}
	}
	msgs, err := s.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go s.forward(msgs)
	return nil
}

// forward bơm delivery từ broker vào msgChan. Dù dừng vì Close hay vì broker
// đóng channel consume, msgChan đều phải được close để worker pool thoát —
// không close thì worker treo mãi trên range và Close() kẹt ở wg.Wait.
func (s *rmqSubscriber) forward(msgs <-chan amqp091.Delivery) {
	defer close(s.msgChan)
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			s.msgChan <- msg
		}
	}
}

func (s *rmqSubscriber) runWorkerPool() {
	for i := 0; i < s.workerCnt; i++ {
		s.wg.Add(1)
		go s.workerLoop()
	}
}

func (s *rmqSubscriber) workerLoop() {
	defer s.wg.Done()
	for msg := range s.msgChan {
		handler, ok := s.handlers[msg.RoutingKey]
		if !ok {
			s.log.WithField("routingKey", msg.RoutingKey).Warn("📡 [REALTIME] Không có handler cho routing key")
			_ = msg.Nack(false, false)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := handler(ctx, msg)
		cancel()
		if err != nil {
			s.log.WithError(err).WithField("routingKey", msg.RoutingKey).Error("📡 [REALTIME] Handler xử lý event lỗi")
			_ = msg.Nack(false, true)
		} else {
			_ = msg.Ack(false)
		}
	}
}

func (s *rmqSubscriber) Close() error {
	close(s.done)
	s.wg.Wait()
	_ = s.ch.Close()
	return s.conn.Close()
}
