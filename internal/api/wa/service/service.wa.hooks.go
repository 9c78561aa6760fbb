package wasvc

import (
	"context"
	"time"

	crmmodels "sistema_restaurante/internal/api/crm/models"
	"sistema_restaurante/internal/api/events"
	wamodels "sistema_restaurante/internal/api/wa/models"
	"sistema_restaurante/internal/global"
	"sistema_restaurante/internal/logger"
)

// RegisterDataChangeHooks nối Reconciliation Engine vào event CRUD trung tâm.
// Khi khách hàng CRM được tạo/sửa ngoài luồng đồng bộ (operator sửa tên,
// import danh bạ), các hội thoại mang số điện thoại của khách đó được
// cập nhật tên ngay trong store và đánh dấu resync ưu tiên.
func (s *WaSyncService) RegisterDataChangeHooks() {
	events.OnDataChanged(s.handleDataChanged)
}

func (s *WaSyncService) handleDataChanged(_ context.Context, e events.DataChangeEvent) {
	if e.CollectionName != global.MongoDB_ColNames.CrmCustomers || e.Operation == events.OpDelete {
		return
	}

	var customer crmmodels.CrmCustomer
	switch doc := e.Document.(type) {
	case crmmodels.CrmCustomer:
		customer = doc
	case *crmmodels.CrmCustomer:
		if doc == nil {
			return
		}
		customer = *doc
	default:
		return
	}
	if customer.OwnerOrganizationID.IsZero() || customer.Name == "" {
		return
	}

	// Ctx của request phát event có thể đã kết thúc — hook chạy với ctx riêng
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orgID := customer.OwnerOrganizationID
	for _, raw := range customer.PhoneKeys {
		chatKey := s.identity.Normalize(raw)
		if chatKey == "" {
			continue
		}
		if _, ok := s.store.GetChat(orgID, chatKey); !ok {
			continue
		}

		s.store.UpdateChatFields(orgID, chatKey, func(chat *wamodels.WaChat) {
			chat.DisplayName = customer.Name
		})
		if err := s.RequestPrioritySync(ctx, orgID, chatKey); err != nil {
			s.logSyncWriteFailure(orgID, chatKey, "đánh dấu resync ưu tiên", err)
		}

		logger.GetAppLogger().WithFields(map[string]interface{}{
			"chatKey":        chatKey,
			"organizationId": orgID.Hex(),
			"customerName":   customer.Name,
		}).Debug("🔄 [WA SYNC] Tên hội thoại cập nhật theo thay đổi CRM")
	}
}
