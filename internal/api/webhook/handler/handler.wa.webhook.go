// Package webhookhdl - handler webhook từ gateway WhatsApp (message, chat update).
package webhookhdl

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "sistema_restaurante/internal/api/base/handler"
	wasvc "sistema_restaurante/internal/api/wa/service"
	webhookdto "sistema_restaurante/internal/api/webhook/dto"
	webhookmodels "sistema_restaurante/internal/api/webhook/models"
	webhooksvc "sistema_restaurante/internal/api/webhook/service"
	"sistema_restaurante/internal/common"
	"sistema_restaurante/internal/logger"
)

// WaWebhookHandler xử lý webhook từ gateway WhatsApp.
// Luôn trả 200 — gateway không retry khi bị lỗi xử lý, log là nguồn để replay.
type WaWebhookHandler struct {
	webhookLogService *webhooksvc.WebhookLogService
	syncService       *wasvc.WaSyncService
}

// NewWaWebhookHandler tạo mới WaWebhookHandler
func NewWaWebhookHandler(syncService *wasvc.WaSyncService) (*WaWebhookHandler, error) {
	webhookLogService, err := webhooksvc.NewWebhookLogService()
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook log service: %v", err)
	}
	return &WaWebhookHandler{
		webhookLogService: webhookLogService,
		syncService:       syncService,
	}, nil
}

// HandleWaWebhook xử lý webhook từ gateway WhatsApp
func (h *WaWebhookHandler) HandleWaWebhook(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		log := logger.GetAppLogger()
		rawBody := string(c.Body())
		ctx := c.Context()
		var req webhookdto.WaWebhookRequest
		parseErr := c.Bind().Body(&req)

		webhookLog, logErr := h.saveWebhookLog(ctx, c, req, rawBody, parseErr)
		if logErr != nil {
			log.WithError(logErr).Warn("🔔 [WA WEBHOOK] Không thể lưu webhook log")
		}

		if parseErr != nil {
			return h.ackWebhook(c)
		}

		var processErr error
		if req.Payload.EventType != "" {
			orgID, err := primitive.ObjectIDFromHex(req.Payload.OrganizationID)
			if err != nil {
				processErr = fmt.Errorf("organizationId không hợp lệ: %q", req.Payload.OrganizationID)
			} else {
				switch req.Payload.EventType {
				case "message_received":
					processErr = h.handleMessageEvent(ctx, orgID, req.Payload)
				case "chat_updated":
					processErr = h.handleChatUpdateEvent(ctx, orgID, req.Payload)
				case "message_receipt":
					processErr = h.handleReceiptEvent(ctx, orgID, req.Payload)
				default:
					log.WithField("eventType", req.Payload.EventType).Warn("🔔 [WA WEBHOOK] Event type chưa được xử lý")
				}
			}
			if webhookLog != nil {
				errorMsg := ""
				if processErr != nil {
					errorMsg = processErr.Error()
				}
				_ = h.webhookLogService.UpdateProcessedStatus(ctx, webhookLog.ID, processErr == nil, errorMsg)
			}
			if processErr != nil {
				log.WithError(processErr).WithField("eventType", req.Payload.EventType).Error("🔔 [WA WEBHOOK] Lỗi khi xử lý webhook")
			}
		} else {
			log.Warn("🔔 [WA WEBHOOK] Không có eventType, chỉ lưu log")
		}

		return h.ackWebhook(c)
	})
}

// ackWebhook luôn trả 200 cho gateway, bất kể kết quả xử lý.
func (h *WaWebhookHandler) ackWebhook(c fiber.Ctx) error {
	c.Status(common.StatusOK).JSON(fiber.Map{
		"code": common.StatusOK, "message": "Webhook đã được nhận và lưu log", "status": "success",
	})
	return nil
}

func (h *WaWebhookHandler) handleMessageEvent(ctx context.Context, orgID primitive.ObjectID, payload webhookdto.WaWebhookPayload) error {
	if payload.Message == nil {
		return fmt.Errorf("không tìm thấy dữ liệu message trong payload")
	}
	ev := *payload.Message
	if ev.Timestamp == 0 {
		ev.Timestamp = payload.Timestamp
	}
	return h.syncService.ApplyMessageEvent(ctx, orgID, ev)
}

func (h *WaWebhookHandler) handleChatUpdateEvent(ctx context.Context, orgID primitive.ObjectID, payload webhookdto.WaWebhookPayload) error {
	if payload.ChatUpdate == nil {
		return fmt.Errorf("không tìm thấy dữ liệu chatUpdate trong payload")
	}
	return h.syncService.ApplyChatUpdateEvent(ctx, orgID, *payload.ChatUpdate)
}

func (h *WaWebhookHandler) handleReceiptEvent(ctx context.Context, orgID primitive.ObjectID, payload webhookdto.WaWebhookPayload) error {
	if payload.Receipt == nil {
		return fmt.Errorf("không tìm thấy dữ liệu receipt trong payload")
	}
	return h.syncService.ApplyReceiptEvent(ctx, orgID, *payload.Receipt)
}

func (h *WaWebhookHandler) saveWebhookLog(ctx context.Context, c fiber.Ctx, req webhookdto.WaWebhookRequest, rawBody string, parseErr error) (*webhookmodels.WebhookLog, error) {
	now := time.Now().UnixMilli()
	requestHeaders := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		requestHeaders[string(key)] = string(value)
	})
	requestBody := make(map[string]interface{})
	if parseErr == nil && req.Payload.EventType != "" {
		requestBody = map[string]interface{}{"payload": req.Payload}
	} else {
		parseErrStr := ""
		if parseErr != nil {
			parseErrStr = parseErr.Error()
		}
		requestBody = map[string]interface{}{"raw": rawBody, "parseError": parseErrStr}
	}
	webhookLog := webhookmodels.WebhookLog{
		Source: "wa_gateway", EventType: req.Payload.EventType, OrganizationID: req.Payload.OrganizationID,
		RequestHeaders: requestHeaders, RequestBody: requestBody, RawBody: rawBody,
		Processed: false,
		ProcessError: func() string {
			if parseErr != nil {
				return fmt.Sprintf("Parse error: %v", parseErr)
			}
			return ""
		}(),
		IPAddress: c.IP(), UserAgent: c.Get("User-Agent"), ReceivedAt: now, CreatedAt: now, UpdatedAt: now,
	}
	return h.webhookLogService.CreateWebhookLog(ctx, webhookLog)
}
