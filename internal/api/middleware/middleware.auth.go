package middleware

import (
	"fmt"
	"strings"

	"sistema_restaurante/internal/common"
	"sistema_restaurante/internal/global"
	"sistema_restaurante/internal/logger"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// JwtClaims chứa data được mã hóa trong JWT token do hệ thống xác thực bên ngoài phát hành.
type JwtClaims struct {
	UserID string `json:"userId"`
	jwt.StandardClaims
}

// AuthMiddleware middleware xác thực cho Fiber.
// Token do hệ thống đăng nhập bên ngoài phát hành, middleware chỉ verify chữ ký
// và đưa user_id vào context — không quản lý user/role trong service này.
func AuthMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Lấy token từ header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			// Chỉ log khi thiếu token (lỗi quan trọng)
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Warn("❌ [AUTH] Missing Authorization header")
			HandleErrorResponse(c, common.ErrTokenMissing)
			return nil
		}

		// Kiểm tra định dạng token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		// Verify chữ ký JWT
		claims := &JwtClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(global.MongoDB_ServerConfig.JwtSecret), nil
		})
		if err != nil {
			ve, ok := err.(*jwt.ValidationError)
			if ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
				HandleErrorResponse(c, common.ErrTokenExpired)
				return nil
			}
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":  c.Path(),
				"error": err.Error(),
			}).Warn("❌ [AUTH] Invalid token")
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		if !token.Valid || claims.UserID == "" {
			HandleErrorResponse(c, common.ErrTokenInvalid)
			return nil
		}

		// Lưu thông tin user vào context
		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}
