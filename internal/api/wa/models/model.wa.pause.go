package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WaAiPauseFlag đại diện cho cờ tạm dừng AI của một hội thoại trong collection wa_ai_pause_flags.
// Một document cho mỗi (tổ chức, chatKey). Bản ghi bền là nguồn sự thật khi lệch với cache.
type WaAiPauseFlag struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`          // ID của document
	ChatKey   string             `json:"chatKey" bson:"chatKey" validate:"required"` // Số điện thoại chuẩn hóa của hội thoại
	Paused    bool               `json:"paused" bson:"paused"`                       // true = AI tạm dừng, operator đang xử lý
	UpdatedBy string             `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"` // user_id của operator đổi cờ lần cuối

	// ===== ORGANIZATION =====
	OwnerOrganizationID primitive.ObjectID `json:"ownerOrganizationId" bson:"ownerOrganizationId"` // Tổ chức sở hữu dữ liệu (phân quyền)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo document
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật document
}
