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

// WaMessageHandler xử lý lịch sử message và gửi message từ console.
type WaMessageHandler struct {
	*basehdl.BaseHandler[wamodels.WaMessageItem, wamodels.WaMessageItem, wamodels.WaMessageItem]
	messageService *wasvc.WaMessageService
	sendService    *wasvc.WaSendService
	identity       *wasvc.WaIdentityService
}

// NewWaMessageHandler tạo mới WaMessageHandler
func NewWaMessageHandler(messageService *wasvc.WaMessageService, sendService *wasvc.WaSendService, identity *wasvc.WaIdentityService) *WaMessageHandler {
	return &WaMessageHandler{
		BaseHandler:    basehdl.NewBaseHandler[wamodels.WaMessageItem, wamodels.WaMessageItem, wamodels.WaMessageItem](messageService),
		messageService: messageService,
		sendService:    sendService,
		identity:       identity,
	}
}

func (h *WaMessageHandler) requireOrgAndChatKey(c fiber.Ctx) (primitive.ObjectID, string, error) {
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

// FindByChat trả về lịch sử message bền của một hội thoại với phân trang.
func (h *WaMessageHandler) FindByChat(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		orgID, chatKey, err := h.requireOrgAndChatKey(c)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		page, limit := h.ParsePagination(c)
		data, err := h.messageService.FindByChatPaginated(c.Context(), orgID, chatKey, page, limit)
		basehdl.HandleResponse(c, data, err)
		return nil
	})
}

// SendMessage đẩy một message văn bản vào Send Pipeline của hội thoại.
// Lỗi gateway trả về cho operator, message vẫn ở trong store với trạng thái error.
func (h *WaMessageHandler) SendMessage(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		orgID, chatKey, err := h.requireOrgAndChatKey(c)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		var input wadto.WaSendMessageInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		operatorID, _ := c.Locals("user_id").(string)
		result, err := h.sendService.Send(c.Context(), orgID, chatKey, input.Body, operatorID)
		if err != nil {
			// Message lỗi vẫn nằm trong store với trạng thái error để gửi lại
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		basehdl.HandleResponse(c, wadto.WaSendMessageResponse{
			Message:       result.Message,
			WizardHandled: result.WizardHandled,
		}, nil)
		return nil
	})
}
