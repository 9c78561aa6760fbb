// Package webhookdto - request/response cho domain webhook.
package webhookdto

import wasvc "sistema_restaurante/internal/api/wa/service"

// WaWebhookPayload là payload nhận được từ gateway WhatsApp.
// Mỗi webhook mang đúng một event; các field dữ liệu loại trừ nhau theo eventType.
type WaWebhookPayload struct {
	EventType      string                 `json:"eventType"`      // message_received | chat_updated | message_receipt
	OrganizationID string                 `json:"organizationId"` // Tổ chức đích (hex ObjectID)
	Message        *wasvc.MessageEvent    `json:"message"`        // Dữ liệu cho message_received
	ChatUpdate     *wasvc.ChatUpdateEvent `json:"chatUpdate"`     // Dữ liệu cho chat_updated
	Receipt        *wasvc.ReceiptEvent    `json:"receipt"`        // Dữ liệu cho message_receipt
	Timestamp      int64                  `json:"timestamp"`      // Thời gian gateway phát event (unix ms)
}

// WaWebhookRequest là request body từ gateway WhatsApp.
type WaWebhookRequest struct {
	Payload   WaWebhookPayload `json:"payload" validate:"required"`
	Signature string           `json:"signature,omitempty"`
}
