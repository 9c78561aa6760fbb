package realtime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sistema_restaurante/internal/logger"
)

// testSubscriber dựng rmqSubscriber không cần broker — chỉ test forwarder và worker pool.
func testSubscriber(workerCnt int) *rmqSubscriber {
	return &rmqSubscriber{
		log:       logger.GetAppLogger(),
		handlers:  make(map[string]func(context.Context, amqp091.Delivery) error),
		msgChan:   make(chan amqp091.Delivery, 16),
		done:      make(chan struct{}),
		workerCnt: workerCnt,
	}
}

func waitWorkers(t *testing.T, s *rmqSubscriber) {
	t.Helper()
	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("worker pool không thoát")
	}
}

func TestForward_BrokerClosedConsumeChannelStopsWorkers(t *testing.T) {
	s := testSubscriber(4)
	var handled int64
	s.RegisterHandler("wa.message.received", func(_ context.Context, _ amqp091.Delivery) error {
		atomic.AddInt64(&handled, 1)
		return nil
	})

	msgs := make(chan amqp091.Delivery)
	s.runWorkerPool()
	go s.forward(msgs)

	msgs <- amqp091.Delivery{RoutingKey: "wa.message.received"}
	msgs <- amqp091.Delivery{RoutingKey: "wa.message.received"}

	// Broker rớt: channel consume đóng — toàn bộ worker phải thoát, không rò goroutine
	close(msgs)
	waitWorkers(t, s)

	assert.Equal(t, int64(2), atomic.LoadInt64(&handled))
}

func TestForward_DoneStopsWorkers(t *testing.T) {
	s := testSubscriber(2)

	msgs := make(chan amqp091.Delivery)
	s.runWorkerPool()
	go s.forward(msgs)

	close(s.done)
	waitWorkers(t, s)
}

func TestWorkerLoop_RoutesByRoutingKey(t *testing.T) {
	s := testSubscriber(1)
	got := make(chan string, 4)
	s.RegisterHandler("wa.chat.updated", func(_ context.Context, d amqp091.Delivery) error {
		got <- string(d.Body)
		return nil
	})

	msgs := make(chan amqp091.Delivery)
	s.runWorkerPool()
	go s.forward(msgs)

	// Routing key không đăng ký bị nack, không làm worker chết
	msgs <- amqp091.Delivery{RoutingKey: "wa.desconhecido"}
	msgs <- amqp091.Delivery{RoutingKey: "wa.chat.updated", Body: []byte("atualizado")}

	select {
	case body := <-got:
		require.Equal(t, "atualizado", body)
	case <-time.After(2 * time.Second):
		t.Fatal("handler không được gọi")
	}

	close(msgs)
	waitWorkers(t, s)
}
