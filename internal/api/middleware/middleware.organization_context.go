package middleware

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrganizationContextMiddleware middleware để quản lý organization context.
// - Đọc X-Organization-ID từ header (tổ chức đang làm việc trên console)
// - Validate định dạng ObjectID
// - Lưu active_organization_id vào context
// Middleware permissive: route không gửi header vẫn đi tiếp, handler tự enforce
// khi thao tác bắt buộc có tổ chức (toàn bộ domain wa).
func OrganizationContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		orgIDStr := c.Get("X-Organization-ID")
		if orgIDStr == "" {
			return c.Next()
		}

		orgID, err := primitive.ObjectIDFromHex(orgIDStr)
		if err != nil || orgID.IsZero() {
			// Header không hợp lệ, bỏ qua — handler sẽ trả lỗi thiếu tổ chức
			return c.Next()
		}

		c.Locals("active_organization_id", orgID.Hex())
		return c.Next()
	}
}
