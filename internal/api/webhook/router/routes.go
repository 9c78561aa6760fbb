// Package router đăng ký các route thuộc domain Webhook: gateway WhatsApp (public), WebhookLog (read-only).
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	apirouter "sistema_restaurante/internal/api/router"
	wasvc "sistema_restaurante/internal/api/wa/service"
	webhookhdl "sistema_restaurante/internal/api/webhook/handler"
)

// NewRegister tạo hàm đăng ký route webhook với sync service đã khởi tạo sẵn.
func NewRegister(syncService *wasvc.WaSyncService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		waWebhookHandler, err := webhookhdl.NewWaWebhookHandler(syncService)
		if err != nil {
			return fmt.Errorf("create wa webhook handler: %w", err)
		}
		// Public — gateway không có JWT, ghi log luôn là bước đầu
		v1.Post("/wa/webhook", waWebhookHandler.HandleWaWebhook)

		webhookLogHandler, err := webhookhdl.NewWebhookLogHandler()
		if err != nil {
			return fmt.Errorf("create webhook log handler: %w", err)
		}
		r.RegisterCRUDRoutes(v1, "/webhook-log", webhookLogHandler, apirouter.ReadOnlyConfig)

		return nil
	}
}
