package wasvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "sistema_restaurante/internal/api/base/service"
	wamodels "sistema_restaurante/internal/api/wa/models"
	"sistema_restaurante/internal/common"
	"sistema_restaurante/internal/global"
)

// WaChatService là cấu trúc chứa các phương thức bền vững cho hội thoại WhatsApp (wa_chats).
type WaChatService struct {
	*basesvc.BaseServiceMongoImpl[wamodels.WaChat]
}

// NewWaChatService tạo mới WaChatService
func NewWaChatService() (*WaChatService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.WaChats)
	if !exist {
		return nil, fmt.Errorf("failed to get wa_chats collection: %v", common.ErrNotFound)
	}
	return &WaChatService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[wamodels.WaChat](coll),
	}, nil
}

// FindAllByOrg trả về toàn bộ hội thoại của một tổ chức (một bulk read cho snapshot).
func (s *WaChatService) FindAllByOrg(ctx context.Context, orgID primitive.ObjectID) ([]wamodels.WaChat, error) {
	filter := bson.M{"ownerOrganizationId": orgID}
	opts := options.Find().SetSort(bson.D{{Key: "lastActivityAt", Value: -1}})
	return s.Find(ctx, filter, opts)
}

// UpsertByChatKey upsert một hội thoại theo (tổ chức, chatKey) — khóa hội thoại duy nhất.
// Unique index (ownerOrganizationId, chatKey) đảm bảo race giữa snapshot và event
// không bao giờ tạo bản ghi trùng.
func (s *WaChatService) UpsertByChatKey(ctx context.Context, orgID primitive.ObjectID, chatKey string, set bson.M) (wamodels.WaChat, error) {
	filter := bson.M{"ownerOrganizationId": orgID, "chatKey": chatKey}
	update := &basesvc.UpdateData{
		Set: map[string]interface{}(set),
		SetOnInsert: map[string]interface{}{
			"ownerOrganizationId": orgID,
			"chatKey":             chatKey,
		},
	}
	return s.Upsert(ctx, filter, update)
}

// IncrementUnread tăng unreadCount của hội thoại (message inbound khi không phải selection).
func (s *WaChatService) IncrementUnread(ctx context.Context, orgID primitive.ObjectID, chatKey string) error {
	filter := bson.M{"ownerOrganizationId": orgID, "chatKey": chatKey}
	update := &basesvc.UpdateData{
		Inc: map[string]interface{}{"unreadCount": int64(1)},
	}
	_, err := s.UpdateOne(ctx, filter, update, nil)
	return err
}

// ResetUnread đưa unreadCount về 0 khi operator mở hội thoại.
func (s *WaChatService) ResetUnread(ctx context.Context, orgID primitive.ObjectID, chatKey string) error {
	filter := bson.M{"ownerOrganizationId": orgID, "chatKey": chatKey}
	update := bson.M{"$set": bson.M{"unreadCount": int64(0)}}
	_, err := s.UpdateOne(ctx, filter, update, nil)
	return err
}

// MarkPrioritySync đặt cờ needsPrioritySync — worker sẽ resync hội thoại này trước.
func (s *WaChatService) MarkPrioritySync(ctx context.Context, orgID primitive.ObjectID, chatKey string) error {
	filter := bson.M{"ownerOrganizationId": orgID, "chatKey": chatKey}
	update := bson.M{"$set": bson.M{"needsPrioritySync": true}}
	_, err := s.UpdateOne(ctx, filter, update, nil)
	return err
}

// ClearPrioritySync xóa cờ needsPrioritySync sau khi worker đã resync xong.
func (s *WaChatService) ClearPrioritySync(ctx context.Context, chatID primitive.ObjectID) error {
	update := &basesvc.UpdateData{
		Unset: map[string]interface{}{"needsPrioritySync": ""},
	}
	_, err := s.UpdateById(ctx, chatID, update)
	return err
}

// FindPrioritySync trả về các hội thoại đang chờ resync ưu tiên (mọi tổ chức).
func (s *WaChatService) FindPrioritySync(ctx context.Context, limit int64) ([]wamodels.WaChat, error) {
	filter := bson.M{"needsPrioritySync": true}
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "updatedAt", Value: 1}})
	return s.Find(ctx, filter, opts)
}
