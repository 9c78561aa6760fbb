package handler

import (
	"github.com/gofiber/fiber/v3"

	basehdl "sistema_restaurante/internal/api/base/handler"
	wadto "sistema_restaurante/internal/api/wa/dto"
	wamodels "sistema_restaurante/internal/api/wa/models"
	wasvc "sistema_restaurante/internal/api/wa/service"
	"sistema_restaurante/internal/common"
)

// WaOrderHandler liệt kê các đơn nháp tạo từ phiên chốt đơn qua chat.
type WaOrderHandler struct {
	*basehdl.BaseHandler[wamodels.WaOrderDraft, wamodels.WaOrderDraft, wamodels.WaOrderDraft]
	orderService *wasvc.WaOrderDraftService
	identity     *wasvc.WaIdentityService
}

// NewWaOrderHandler tạo mới WaOrderHandler
func NewWaOrderHandler(orderService *wasvc.WaOrderDraftService, identity *wasvc.WaIdentityService) *WaOrderHandler {
	return &WaOrderHandler{
		BaseHandler:  basehdl.NewBaseHandler[wamodels.WaOrderDraft, wamodels.WaOrderDraft, wamodels.WaOrderDraft](orderService),
		orderService: orderService,
		identity:     identity,
	}
}

// ListOrders trả về đơn nháp của tổ chức, mới nhất trước, có phân trang.
func (h *WaOrderHandler) ListOrders(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		orgID := h.GetActiveOrganizationID(c)
		if orgID == nil {
			basehdl.HandleResponse(c, nil, common.ErrNoActiveOrg)
			return nil
		}

		page, limit := h.ParsePagination(c)
		data, err := h.orderService.FindByOrgPaginated(c.Context(), *orgID, page, limit)
		basehdl.HandleResponse(c, data, err)
		return nil
	})
}

// ListOrdersByChat trả về đơn nháp của một hội thoại.
func (h *WaOrderHandler) ListOrdersByChat(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		orgID := h.GetActiveOrganizationID(c)
		if orgID == nil {
			basehdl.HandleResponse(c, nil, common.ErrNoActiveOrg)
			return nil
		}

		var params wadto.WaChatKeyParam
		if err := h.ParseRequestParams(c, &params); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		chatKey := h.identity.Normalize(params.ChatKey)
		if chatKey == "" {
			basehdl.HandleResponse(c, nil, common.ErrInvalidInput)
			return nil
		}

		data, err := h.orderService.FindByChat(c.Context(), *orgID, chatKey)
		basehdl.HandleResponse(c, data, err)
		return nil
	})
}
