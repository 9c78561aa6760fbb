package main

import (
	"fmt"
	"time"

	crmsvc "sistema_restaurante/internal/api/crm/service"
	wasvc "sistema_restaurante/internal/api/wa/service"
	"sistema_restaurante/internal/delivery/channels"
	"sistema_restaurante/internal/global"
)

// AppServices gom toàn bộ service của ứng dụng, khởi tạo một lần ở main
// và chia sẻ cho Fiber app lẫn các background worker.
type AppServices struct {
	Identity        *wasvc.WaIdentityService
	Store           *wasvc.WaStoreService
	ChatService     *wasvc.WaChatService
	MessageService  *wasvc.WaMessageService
	PauseService    *wasvc.WaPauseService
	OrderService    *wasvc.WaOrderDraftService
	SyncService     *wasvc.WaSyncService
	SendService     *wasvc.WaSendService
	CustomerService *crmsvc.CrmCustomerService
}

// InitServices khởi tạo các service theo thứ tự phụ thuộc:
// identity/store trước, sau đó các service bền, cuối cùng sync và send.
func InitServices() (*AppServices, error) {
	cfg := global.MongoDB_ServerConfig

	identity := wasvc.NewWaIdentityService(cfg.WaCountryCode)
	store := wasvc.NewWaStoreService()

	chatService, err := wasvc.NewWaChatService()
	if err != nil {
		return nil, fmt.Errorf("failed to init chat service: %v", err)
	}
	messageService, err := wasvc.NewWaMessageService()
	if err != nil {
		return nil, fmt.Errorf("failed to init message service: %v", err)
	}
	pauseService, err := wasvc.NewWaPauseService()
	if err != nil {
		return nil, fmt.Errorf("failed to init pause service: %v", err)
	}
	orderService, err := wasvc.NewWaOrderDraftService()
	if err != nil {
		return nil, fmt.Errorf("failed to init order draft service: %v", err)
	}
	customerService, err := crmsvc.NewCrmCustomerService()
	if err != nil {
		return nil, fmt.Errorf("failed to init crm customer service: %v", err)
	}

	syncService := wasvc.NewWaSyncService(chatService, messageService, store, identity, customerService)
	syncService.RegisterDataChangeHooks()

	gateway := channels.NewWhatsAppGateway(cfg.WaGatewayBaseURL, cfg.WaGatewayToken, time.Duration(cfg.WaSendTimeout)*time.Second)
	sendService := wasvc.NewWaSendService(identity, store, pauseService, chatService, messageService, gateway, orderService)

	return &AppServices{
		Identity:        identity,
		Store:           store,
		ChatService:     chatService,
		MessageService:  messageService,
		PauseService:    pauseService,
		OrderService:    orderService,
		SyncService:     syncService,
		SendService:     sendService,
		CustomerService: customerService,
	}, nil
}
