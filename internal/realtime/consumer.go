package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	wasvc "sistema_restaurante/internal/api/wa/service"
	"sistema_restaurante/internal/logger"
)

// Routing keys gateway publish lên exchange wa.events.
const (
	RoutingKeyMessageReceived = "wa.message.received"
	RoutingKeyChatUpdated     = "wa.chat.updated"
	RoutingKeyMessageReceipt  = "wa.message.receipt"
)

// messageEnvelope bọc một message event với tổ chức đích.
type messageEnvelope struct {
	OrganizationID string             `json:"organizationId"`
	Message        wasvc.MessageEvent `json:"message"`
}

// chatUpdateEnvelope bọc một chat update event với tổ chức đích.
type chatUpdateEnvelope struct {
	OrganizationID string                `json:"organizationId"`
	ChatUpdate     wasvc.ChatUpdateEvent `json:"chatUpdate"`
}

// receiptEnvelope bọc một receipt trạng thái gửi với tổ chức đích.
type receiptEnvelope struct {
	OrganizationID string             `json:"organizationId"`
	Receipt        wasvc.ReceiptEvent `json:"receipt"`
}

// WaEventConsumer kết nối transport realtime với Reconciliation Engine.
// Tự reconnect với backoff khi mất kết nối; sau mỗi lần reconnect, nạp lại
// snapshot cho các tổ chức đã thấy — khoảng trống event trong lúc đứt
// được store bền + snapshot hòa giải.
type WaEventConsumer struct {
	url         string
	exchange    string
	queue       string
	syncService *wasvc.WaSyncService

	mu        sync.Mutex
	knownOrgs map[primitive.ObjectID]struct{}
}

// NewWaEventConsumer tạo mới WaEventConsumer.
func NewWaEventConsumer(url, exchange, queue string, syncService *wasvc.WaSyncService) *WaEventConsumer {
	return &WaEventConsumer{
		url:         url,
		exchange:    exchange,
		queue:       queue,
		syncService: syncService,
		knownOrgs:   make(map[primitive.ObjectID]struct{}),
	}
}

// Run chạy vòng consume cho tới khi ctx bị hủy. Mất kết nối thì reconnect
// với backoff lũy tiến (tối đa 30s giữa hai lần thử).
func (c *WaEventConsumer) Run(ctx context.Context) {
	log := logger.GetAppLogger()
	backoff := time.Second
	reconnected := false

	for {
		if ctx.Err() != nil {
			return
		}

		sub, err := c.connect()
		if err != nil {
			log.WithError(err).WithField("url", c.url).Warn("📡 [REALTIME] Kết nối broker thất bại, thử lại")
			if !sleepCtx(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if reconnected {
			c.resyncKnownOrgs(ctx)
		}
		reconnected = true

		closed := sub.NotifyClose()
		select {
		case <-ctx.Done():
			_ = sub.Close()
			return
		case amqpErr := <-closed:
			log.WithField("error", fmt.Sprintf("%v", amqpErr)).Warn("📡 [REALTIME] Mất kết nối broker, sẽ reconnect")
			// Close để worker pool thoát — không thì mỗi lần reconnect rò một pool
			_ = sub.Close()
		}
	}
}

func (c *WaEventConsumer) connect() (Subscriber, error) {
	sub, err := NewSubscriber(c.url, c.exchange, 256, 4)
	if err != nil {
		return nil, err
	}
	sub.RegisterHandler(RoutingKeyMessageReceived, c.handleMessageDelivery)
	sub.RegisterHandler(RoutingKeyChatUpdated, c.handleChatUpdateDelivery)
	sub.RegisterHandler(RoutingKeyMessageReceipt, c.handleReceiptDelivery)
	if err := sub.Start(c.queue); err != nil {
		_ = sub.Close()
		return nil, err
	}
	return sub, nil
}

func (c *WaEventConsumer) handleMessageDelivery(ctx context.Context, d amqp091.Delivery) error {
	var env messageEnvelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		// Payload hỏng không requeue được — log và ack để không kẹt queue
		logger.GetErrorLogger().WithError(err).WithField("routingKey", d.RoutingKey).Error("📡 [REALTIME] Payload message event không parse được")
		return nil
	}
	orgID, err := primitive.ObjectIDFromHex(env.OrganizationID)
	if err != nil {
		logger.GetErrorLogger().WithField("organizationId", env.OrganizationID).Error("📡 [REALTIME] organizationId không hợp lệ trong message event")
		return nil
	}
	c.rememberOrg(orgID)
	return c.syncService.ApplyMessageEvent(ctx, orgID, env.Message)
}

func (c *WaEventConsumer) handleChatUpdateDelivery(ctx context.Context, d amqp091.Delivery) error {
	var env chatUpdateEnvelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		logger.GetErrorLogger().WithError(err).WithField("routingKey", d.RoutingKey).Error("📡 [REALTIME] Payload chat update không parse được")
		return nil
	}
	orgID, err := primitive.ObjectIDFromHex(env.OrganizationID)
	if err != nil {
		logger.GetErrorLogger().WithField("organizationId", env.OrganizationID).Error("📡 [REALTIME] organizationId không hợp lệ trong chat update")
		return nil
	}
	c.rememberOrg(orgID)
	return c.syncService.ApplyChatUpdateEvent(ctx, orgID, env.ChatUpdate)
}

func (c *WaEventConsumer) handleReceiptDelivery(ctx context.Context, d amqp091.Delivery) error {
	var env receiptEnvelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		logger.GetErrorLogger().WithError(err).WithField("routingKey", d.RoutingKey).Error("📡 [REALTIME] Payload receipt không parse được")
		return nil
	}
	orgID, err := primitive.ObjectIDFromHex(env.OrganizationID)
	if err != nil {
		logger.GetErrorLogger().WithField("organizationId", env.OrganizationID).Error("📡 [REALTIME] organizationId không hợp lệ trong receipt")
		return nil
	}
	c.rememberOrg(orgID)
	return c.syncService.ApplyReceiptEvent(ctx, orgID, env.Receipt)
}

func (c *WaEventConsumer) rememberOrg(orgID primitive.ObjectID) {
	c.mu.Lock()
	c.knownOrgs[orgID] = struct{}{}
	c.mu.Unlock()
}

// resyncKnownOrgs nạp lại snapshot cho các tổ chức đã từng nhận event.
func (c *WaEventConsumer) resyncKnownOrgs(ctx context.Context) {
	c.mu.Lock()
	orgs := make([]primitive.ObjectID, 0, len(c.knownOrgs))
	for orgID := range c.knownOrgs {
		orgs = append(orgs, orgID)
	}
	c.mu.Unlock()

	for _, orgID := range orgs {
		if err := c.syncService.LoadSnapshot(ctx, orgID); err != nil {
			logger.GetErrorLogger().WithError(err).WithField("organizationId", orgID.Hex()).Error("📡 [REALTIME] Resync sau reconnect thất bại")
		}
	}
}

// sleepCtx ngủ d hoặc tới khi ctx hủy. Trả về false nếu ctx đã hủy.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
