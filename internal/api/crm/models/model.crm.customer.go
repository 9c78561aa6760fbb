// Package models - các model thuộc domain crm.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CrmCustomer đại diện cho một khách hàng trong collection crm_customers.
// phoneKeys chứa các số điện thoại đã chuẩn hóa của khách (multikey index) —
// console tra tên hiển thị hội thoại qua field này.
type CrmCustomer struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`    // ID của document
	Name      string             `json:"name" bson:"name" validate:"required"` // Tên khách hàng
	PhoneKeys []string           `json:"phoneKeys" bson:"phoneKeys"`           // Các số điện thoại chuẩn hóa
	Email     string             `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"` // Email liên hệ
	Notes     string             `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,no_xss"` // Ghi chú của operator

	// ===== ORGANIZATION =====
	OwnerOrganizationID primitive.ObjectID `json:"ownerOrganizationId" bson:"ownerOrganizationId"` // Tổ chức sở hữu dữ liệu (phân quyền)

	CreatedAt int64 `json:"createdAt" bson:"createdAt"` // Thời gian tạo document
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt"` // Thời gian cập nhật document
}
