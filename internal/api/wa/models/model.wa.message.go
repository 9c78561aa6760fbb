package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hướng của message.
const (
	DirectionInbound  = "inbound"  // Khách gửi vào
	DirectionOutbound = "outbound" // Operator/AI gửi ra
)

// Trạng thái gửi của message outbound.
// sent -> delivered -> read đi theo receipt của gateway.
const (
	DeliveryPending   = "pending"   // Đã append lạc quan, chưa xác nhận từ gateway
	DeliverySent      = "sent"      // Gateway đã nhận
	DeliveryDelivered = "delivered" // Thiết bị của khách đã nhận (receipt)
	DeliveryRead      = "read"      // Khách đã đọc (receipt)
	DeliveryError     = "error"     // Gateway từ chối hoặc timeout
)

// Loại nội dung message.
const (
	KindText  = "text"
	KindImage = "image"
	KindAudio = "audio"
	KindOther = "other"
)

// WaMessageItem đại diện cho một message riêng lẻ trong collection wa_message_items.
// Mỗi message là 1 document riêng để tránh document quá lớn.
// MessageId unique trong một tổ chức — index là chốt chặn dedup cuối cùng.
type WaMessageItem struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`              // ID của document
	MessageId      string             `json:"messageId" bson:"messageId" validate:"required"` // ID của message từ gateway (hoặc UUID sinh cục bộ cho outbound)
	ChatKey        string             `json:"chatKey" bson:"chatKey" validate:"required"`     // Số điện thoại chuẩn hóa của hội thoại
	Body           string             `json:"body" bson:"body"`                               // Nội dung văn bản đã sanitize
	Timestamp      int64              `json:"timestamp" bson:"timestamp"`                     // Thời gian message (unix ms)
	Direction      string             `json:"direction" bson:"direction"`                     // inbound | outbound
	DeliveryStatus string             `json:"deliveryStatus,omitempty" bson:"deliveryStatus,omitempty"` // pending | sent | delivered | read | error (chỉ outbound)
	Kind           string             `json:"kind" bson:"kind"`                               // text | image | audio | other
	SenderName     string             `json:"senderName,omitempty" bson:"senderName,omitempty"` // Tên người gửi denormalize (hiển thị nhanh)

	// ===== ORGANIZATION =====
	OwnerOrganizationID primitive.ObjectID `json:"ownerOrganizationId" bson:"ownerOrganizationId"` // Tổ chức sở hữu dữ liệu (phân quyền)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo document
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật document
}
