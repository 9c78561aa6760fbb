// Package router đăng ký các route thuộc domain wa: hội thoại, message, cờ AI, đơn nháp.
package router

import (
	"github.com/gofiber/fiber/v3"

	"sistema_restaurante/internal/api/middleware"
	apirouter "sistema_restaurante/internal/api/router"
	wahdl "sistema_restaurante/internal/api/wa/handler"
	wasvc "sistema_restaurante/internal/api/wa/service"
)

// Services gom các service domain wa cần cho route (khởi tạo ở cmd/server).
type Services struct {
	ChatService    *wasvc.WaChatService
	MessageService *wasvc.WaMessageService
	PauseService   *wasvc.WaPauseService
	OrderService   *wasvc.WaOrderDraftService
	SyncService    *wasvc.WaSyncService
	SendService    *wasvc.WaSendService
	Identity       *wasvc.WaIdentityService
}

// NewRegister tạo hàm đăng ký route wa với các service đã khởi tạo sẵn.
func NewRegister(svcs Services) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		chatHandler := wahdl.NewWaChatHandler(svcs.ChatService, svcs.SyncService, svcs.Identity)
		messageHandler := wahdl.NewWaMessageHandler(svcs.MessageService, svcs.SendService, svcs.Identity)
		pauseHandler := wahdl.NewWaPauseHandler(svcs.PauseService, svcs.Identity)
		orderHandler := wahdl.NewWaOrderHandler(svcs.OrderService, svcs.Identity)

		authMiddleware := middleware.AuthMiddleware()
		orgContextMiddleware := middleware.OrganizationContextMiddleware()
		middlewares := []fiber.Handler{authMiddleware, orgContextMiddleware}

		// GET /wa/chats — danh sách hội thoại từ store trong memory
		apirouter.RegisterRouteWithMiddleware(v1, "/wa", "GET", "/chats", middlewares, chatHandler.ListChats)
		// POST /wa/sync/snapshot — nạp lại snapshot từ store bền
		apirouter.RegisterRouteWithMiddleware(v1, "/wa", "POST", "/sync/snapshot", middlewares, chatHandler.LoadSnapshot)
		// POST /wa/chats/:chatKey/select — mở hội thoại, reset unread, trả thread
		apirouter.RegisterRouteWithMiddleware(v1, "/wa", "POST", "/chats/:chatKey/select", middlewares, chatHandler.SelectChat)
		// POST /wa/chats/:chatKey/resync — đánh dấu resync ưu tiên
		apirouter.RegisterRouteWithMiddleware(v1, "/wa", "POST", "/chats/:chatKey/resync", middlewares, chatHandler.RequestResync)

		// GET /wa/chats/:chatKey/messages — lịch sử bền với phân trang
		apirouter.RegisterRouteWithMiddleware(v1, "/wa", "GET", "/chats/:chatKey/messages", middlewares, messageHandler.FindByChat)
		// POST /wa/chats/:chatKey/messages — gửi message qua Send Pipeline
		apirouter.RegisterRouteWithMiddleware(v1, "/wa", "POST", "/chats/:chatKey/messages", middlewares, messageHandler.SendMessage)

		// GET /wa/chats/:chatKey/ai — trạng thái tạm dừng AI
		apirouter.RegisterRouteWithMiddleware(v1, "/wa", "GET", "/chats/:chatKey/ai", middlewares, pauseHandler.GetPauseState)
		// POST /wa/chats/:chatKey/ai/toggle — đảo trạng thái tạm dừng AI
		apirouter.RegisterRouteWithMiddleware(v1, "/wa", "POST", "/chats/:chatKey/ai/toggle", middlewares, pauseHandler.TogglePause)

		// GET /wa/orders — đơn nháp của tổ chức (phân trang)
		apirouter.RegisterRouteWithMiddleware(v1, "/wa", "GET", "/orders", middlewares, orderHandler.ListOrders)
		// GET /wa/chats/:chatKey/orders — đơn nháp của một hội thoại
		apirouter.RegisterRouteWithMiddleware(v1, "/wa", "GET", "/chats/:chatKey/orders", middlewares, orderHandler.ListOrdersByChat)

		return nil
	}
}
