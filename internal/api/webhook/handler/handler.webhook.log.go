package webhookhdl

import (
	"fmt"

	basehdl "sistema_restaurante/internal/api/base/handler"
	webhookmodels "sistema_restaurante/internal/api/webhook/models"
	webhooksvc "sistema_restaurante/internal/api/webhook/service"
)

// WebhookLogHandler xử lý tra cứu webhook log (read-only cho console kỹ thuật).
type WebhookLogHandler struct {
	*basehdl.BaseHandler[webhookmodels.WebhookLog, webhookmodels.WebhookLog, webhookmodels.WebhookLog]
}

// NewWebhookLogHandler tạo mới WebhookLogHandler
func NewWebhookLogHandler() (*WebhookLogHandler, error) {
	webhookLogService, err := webhooksvc.NewWebhookLogService()
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook log service: %v", err)
	}
	return &WebhookLogHandler{
		BaseHandler: basehdl.NewBaseHandler[webhookmodels.WebhookLog, webhookmodels.WebhookLog, webhookmodels.WebhookLog](webhookLogService),
	}, nil
}
