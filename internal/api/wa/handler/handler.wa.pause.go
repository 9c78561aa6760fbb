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

// WaPauseHandler xử lý cờ tạm dừng AI theo hội thoại.
type WaPauseHandler struct {
	*basehdl.BaseHandler[wamodels.WaAiPauseFlag, wamodels.WaAiPauseFlag, wamodels.WaAiPauseFlag]
	pauseService *wasvc.WaPauseService
	identity     *wasvc.WaIdentityService
}

// NewWaPauseHandler tạo mới WaPauseHandler
func NewWaPauseHandler(pauseService *wasvc.WaPauseService, identity *wasvc.WaIdentityService) *WaPauseHandler {
	return &WaPauseHandler{
		BaseHandler:  basehdl.NewBaseHandler[wamodels.WaAiPauseFlag, wamodels.WaAiPauseFlag, wamodels.WaAiPauseFlag](pauseService.Crud()),
		pauseService: pauseService,
		identity:     identity,
	}
}

func (h *WaPauseHandler) requireOrgAndChatKey(c fiber.Ctx) (primitive.ObjectID, string, error) {
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

// GetPauseState trả về trạng thái tạm dừng AI hiện tại (bản ghi bền thắng khi lệch cache).
func (h *WaPauseHandler) GetPauseState(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		orgID, chatKey, err := h.requireOrgAndChatKey(c)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		basehdl.HandleResponse(c, wadto.WaPauseStateResponse{
			ChatKey: chatKey,
			Paused:  h.pauseService.Resolve(c.Context(), orgID, chatKey),
		}, nil)
		return nil
	})
}

// TogglePause đảo trạng thái tạm dừng AI của hội thoại.
// Ghi bền thất bại: trạng thái mới vẫn có hiệu lực trong phiên, operator nhận cảnh báo.
func (h *WaPauseHandler) TogglePause(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		orgID, chatKey, err := h.requireOrgAndChatKey(c)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		operatorID, _ := c.Locals("user_id").(string)
		paused, err := h.pauseService.Toggle(c.Context(), orgID, chatKey, operatorID)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		basehdl.HandleResponse(c, wadto.WaPauseStateResponse{
			ChatKey: chatKey,
			Paused:  paused,
		}, nil)
		return nil
	})
}
