// Package models - các model thuộc domain wa (hội thoại WhatsApp, message, cờ tạm dừng AI, đơn nháp).
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WaChat đại diện cho một cuộc hội thoại WhatsApp trong collection wa_chats.
// chatKey là số điện thoại đã chuẩn hóa — khóa hội thoại duy nhất trong một tổ chức.
type WaChat struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`                     // ID của document
	ChatKey            string             `json:"chatKey" bson:"chatKey" validate:"required"`            // Số điện thoại chuẩn hóa (khóa hội thoại)
	DisplayName        string             `json:"displayName" bson:"displayName"`                        // Tên hiển thị trên console
	AvatarRef          string             `json:"avatarRef,omitempty" bson:"avatarRef,omitempty"`        // Tham chiếu ảnh đại diện từ gateway
	LastMessagePreview string             `json:"lastMessagePreview" bson:"lastMessagePreview"`          // Nội dung message cuối (rút gọn cho danh sách)
	LastActivityAt     int64              `json:"lastActivityAt" bson:"lastActivityAt"`                  // Thời gian hoạt động cuối (unix ms)
	UnreadCount        int64              `json:"unreadCount" bson:"unreadCount"`                        // Số message chưa đọc
	NeedsPrioritySync  bool               `json:"needsPrioritySync,omitempty" bson:"needsPrioritySync,omitempty"` // Cờ cho worker resync ưu tiên

	// ===== ORGANIZATION =====
	OwnerOrganizationID primitive.ObjectID `json:"ownerOrganizationId" bson:"ownerOrganizationId"` // Tổ chức sở hữu dữ liệu (phân quyền)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo document
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật document
}
