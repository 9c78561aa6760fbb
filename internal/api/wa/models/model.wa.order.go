package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Giai đoạn của phiên chốt đơn qua chat.
const (
	OrderStageCollectingItems       = "collecting_items"       // Đang gom món
	OrderStageCollectingFulfillment = "collecting_fulfillment" // Hỏi giao hàng hay tự lấy
	OrderStageCollectingPayment     = "collecting_payment"     // Hỏi hình thức thanh toán
	OrderStageConfirming            = "confirming"             // Chờ khách xác nhận tóm tắt
	OrderStageDone                  = "done"                   // Đã xác nhận, đơn được đẩy sang hệ thống đơn hàng
)

// Hình thức nhận hàng.
const (
	FulfillmentDelivery = "delivery" // Giao hàng tận nơi
	FulfillmentPickup   = "retirada" // Khách tự đến lấy
)

// WaOrderItem một dòng món trong đơn nháp.
type WaOrderItem struct {
	Name     string `json:"name" bson:"name"`         // Tên món như khách gõ
	Quantity int64  `json:"quantity" bson:"quantity"` // Số lượng
}

// WaOrderDraft đơn hàng nháp tạo từ phiên chốt đơn qua chat, collection wa_order_drafts.
// Được persist khi khách xác nhận — phiên đang chạy sống trong memory của wizard.
type WaOrderDraft struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`          // ID của document
	ChatKey       string             `json:"chatKey" bson:"chatKey" validate:"required"` // Số điện thoại chuẩn hóa của hội thoại
	Items         []WaOrderItem      `json:"items" bson:"items"`                         // Danh sách món
	Fulfillment   string             `json:"fulfillment" bson:"fulfillment"`             // delivery | retirada
	Address       string             `json:"address,omitempty" bson:"address,omitempty"` // Địa chỉ giao (chỉ delivery)
	PaymentMethod string             `json:"paymentMethod" bson:"paymentMethod"`         // Hình thức thanh toán khách gõ
	Stage         string             `json:"stage" bson:"stage"`                         // Giai đoạn khi persist (done)
	Summary       string             `json:"summary" bson:"summary"`                     // Tóm tắt đơn đã gửi cho khách

	// ===== ORGANIZATION =====
	OwnerOrganizationID primitive.ObjectID `json:"ownerOrganizationId" bson:"ownerOrganizationId"` // Tổ chức sở hữu dữ liệu (phân quyền)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo document
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật document
}
