// Package handler - các Fiber handler cho domain wa (console hội thoại WhatsApp).
package handler

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "sistema_restaurante/internal/api/base/handler"
	wadto "sistema_restaurante/internal/api/wa/dto"
	wamodels "sistema_restaurante/internal/api/wa/models"
	wasvc "sistema_restaurante/internal/api/wa/service"
	"sistema_restaurante/internal/common"
)

// WaChatHandler xử lý các route hội thoại: danh sách, mở hội thoại, resync.
type WaChatHandler struct {
	*basehdl.BaseHandler[wamodels.WaChat, wamodels.WaChat, wamodels.WaChat]
	chatService *wasvc.WaChatService
	syncService *wasvc.WaSyncService
	identity    *wasvc.WaIdentityService
}

// NewWaChatHandler tạo mới WaChatHandler
func NewWaChatHandler(chatService *wasvc.WaChatService, syncService *wasvc.WaSyncService, identity *wasvc.WaIdentityService) *WaChatHandler {
	return &WaChatHandler{
		BaseHandler: basehdl.NewBaseHandler[wamodels.WaChat, wamodels.WaChat, wamodels.WaChat](chatService),
		chatService: chatService,
		syncService: syncService,
		identity:    identity,
	}
}

// requireOrgAndChatKey lấy tổ chức đang hoạt động và chatKey chuẩn hóa từ request.
func (h *WaChatHandler) requireOrgAndChatKey(c fiber.Ctx) (primitive.ObjectID, string, error) {
	orgID := h.GetActiveOrganizationID(c)
	if orgID == nil {
		return primitive.NilObjectID, "", common.ErrNoActiveOrg
	}

	var params wadto.WaChatKeyParam
	if err := h.ParseRequestParams(c, &params); err != nil {
		return primitive.NilObjectID, "", err
	}
	chatKey := h.identity.Normalize(params.ChatKey)
	if chatKey == "" {
		return primitive.NilObjectID, "", common.ErrInvalidInput
	}
	return *orgID, chatKey, nil
}

// ListChats trả về danh sách hội thoại từ Conversation Store trong memory,
// sắp xếp theo hoạt động cuối — đây là danh sách console hiển thị.
func (h *WaChatHandler) ListChats(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		orgID := h.GetActiveOrganizationID(c)
		if orgID == nil {
			basehdl.HandleResponse(c, nil, common.ErrNoActiveOrg)
			return nil
		}
		basehdl.HandleResponse(c, h.syncService.Store().ListChats(*orgID), nil)
		return nil
	})
}

// SelectChat mở một hội thoại: set selection, reset unread và trả về thread đầy đủ.
func (h *WaChatHandler) SelectChat(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		orgID, chatKey, err := h.requireOrgAndChatKey(c)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		view, err := h.syncService.SelectConversation(c.Context(), orgID, chatKey)
		basehdl.HandleResponse(c, view, err)
		return nil
	})
}

// LoadSnapshot nạp lại toàn bộ trạng thái hội thoại của tổ chức từ store bền.
func (h *WaChatHandler) LoadSnapshot(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		orgID := h.GetActiveOrganizationID(c)
		if orgID == nil {
			basehdl.HandleResponse(c, nil, common.ErrNoActiveOrg)
			return nil
		}

		err := h.syncService.LoadSnapshot(c.Context(), *orgID)
		basehdl.HandleResponse(c, nil, err)
		return nil
	})
}

// RequestResync đánh dấu hội thoại cần resync ưu tiên (worker xử lý ở vòng sau).
func (h *WaChatHandler) RequestResync(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		orgID, chatKey, err := h.requireOrgAndChatKey(c)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		err = h.syncService.RequestPrioritySync(c.Context(), orgID, chatKey)
		basehdl.HandleResponse(c, nil, err)
		return nil
	})
}
