package wasvc

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	wamodels "sistema_restaurante/internal/api/wa/models"
)

// TextGateway trừu tượng hóa kênh gửi message ra ngoài (gateway WhatsApp).
// destination là địa chỉ đã gắn mã quốc gia (xem WaIdentityService.DialKey).
type TextGateway interface {
	SendText(ctx context.Context, destination string, body string) error
}

// CustomerDirectory tra tên khách hàng theo số điện thoại chuẩn hóa (CRM).
// Trả về map key -> tên; key không tìm thấy thì vắng mặt trong map.
type CustomerDirectory interface {
	LookupNamesByNormalizedPhones(ctx context.Context, orgID primitive.ObjectID, keys []string) (map[string]string, error)
}

// OrderIntake nhận đơn nháp đã được khách xác nhận từ wizard.
type OrderIntake interface {
	SubmitDraft(ctx context.Context, draft wamodels.WaOrderDraft) error
}

// PauseFlagStore là lớp bền của cờ tạm dừng AI, khóa theo (tổ chức, hội thoại).
// ReadFlag trả về common.ErrNotFound khi chưa từng có bản ghi cho cặp khóa đó.
type PauseFlagStore interface {
	ReadFlag(ctx context.Context, orgID primitive.ObjectID, chatKey string) (bool, error)
	WriteFlag(ctx context.Context, orgID primitive.ObjectID, chatKey string, paused bool, operatorID string) error
}
