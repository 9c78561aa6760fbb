package global

import (
	"sistema_restaurante/config"
	"sistema_restaurante/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_Data_CollectionName chứa tên các collection trong MongoDB
type MongoDB_Data_CollectionName struct {
	WaChats       string // Tên collection cho cuộc hội thoại WhatsApp
	WaMessageItems string // Tên collection cho từng message riêng lẻ WhatsApp
	WaAiPauseFlags string // Tên collection cho cờ tạm dừng AI theo hội thoại
	WaOrderDrafts  string // Tên collection cho đơn hàng nháp tạo từ wizard
	CrmCustomers   string // Tên collection cho khách hàng (tra tên theo số điện thoại)
	WebhookLogs    string // Tên collection cho log webhook từ gateway
}

// Các biến toàn cục
var Validate *validator.Validate              // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client             // Phiên kết nối tới MongoDB
var MongoDB_ServerConfig *config.Configuration // Cấu hình của server
var MongoDB_ColNames = MongoDB_Data_CollectionName{
	WaChats:        "wa_chats",
	WaMessageItems: "wa_message_items",
	WaAiPauseFlags: "wa_ai_pause_flags",
	WaOrderDrafts:  "wa_order_drafts",
	CrmCustomers:   "crm_customers",
	WebhookLogs:    "webhook_logs",
}

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
var RegistryDatabase = registry.NewRegistry[*mongo.Database]()      // Registry chứa các databases
