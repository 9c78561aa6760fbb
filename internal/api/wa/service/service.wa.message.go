package wasvc

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "sistema_restaurante/internal/api/base/models"
	basesvc "sistema_restaurante/internal/api/base/service"
	wamodels "sistema_restaurante/internal/api/wa/models"
	"sistema_restaurante/internal/common"
	"sistema_restaurante/internal/global"
)

// WaMessageService là cấu trúc chứa các phương thức bền vững cho message WhatsApp (wa_message_items).
type WaMessageService struct {
	*basesvc.BaseServiceMongoImpl[wamodels.WaMessageItem]
}

// NewWaMessageService tạo mới WaMessageService
func NewWaMessageService() (*WaMessageService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.WaMessageItems)
	if !exist {
		return nil, fmt.Errorf("failed to get wa_message_items collection: %v", common.ErrNotFound)
	}
	return &WaMessageService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[wamodels.WaMessageItem](coll),
	}, nil
}

// FindAllByOrg trả về toàn bộ message của một tổ chức, tăng dần theo timestamp
// (một bulk read cho snapshot — KHÔNG query theo từng hội thoại).
func (s *WaMessageService) FindAllByOrg(ctx context.Context, orgID primitive.ObjectID) ([]wamodels.WaMessageItem, error) {
	filter := bson.M{"ownerOrganizationId": orgID}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	return s.Find(ctx, filter, opts)
}

// InsertIfAbsent ghi message vào store bền, dedup theo (tổ chức, messageId).
// Unique index là chốt chặn cuối: lỗi duplicate key được nuốt — redelivery
// là chuyện bình thường của transport at-least-once, không phải lỗi.
// Trả về true nếu message thực sự mới.
func (s *WaMessageService) InsertIfAbsent(ctx context.Context, msg wamodels.WaMessageItem) (bool, error) {
	_, err := s.InsertOne(ctx, msg)
	if err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FindByChatPaginated trả về lịch sử một hội thoại với phân trang, tăng dần theo timestamp.
func (s *WaMessageService) FindByChatPaginated(ctx context.Context, orgID primitive.ObjectID, chatKey string, page, limit int64) (*basemodels.PaginateResult[wamodels.WaMessageItem], error) {
	filter := bson.M{"ownerOrganizationId": orgID, "chatKey": chatKey}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	return s.FindWithPagination(ctx, filter, page, limit, opts)
}

// UpdateDeliveryStatus cập nhật trạng thái gửi của một message outbound trong store bền.
func (s *WaMessageService) UpdateDeliveryStatus(ctx context.Context, orgID primitive.ObjectID, messageId string, status string) error {
	filter := bson.M{"ownerOrganizationId": orgID, "messageId": messageId}
	update := bson.M{"$set": bson.M{"deliveryStatus": status}}
	_, err := s.UpdateOne(ctx, filter, update, nil)
	return err
}
