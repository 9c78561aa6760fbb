package wasvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	basemodels "sistema_restaurante/internal/api/base/models"
	basesvc "sistema_restaurante/internal/api/base/service"
	wamodels "sistema_restaurante/internal/api/wa/models"
	"sistema_restaurante/internal/common"
	"sistema_restaurante/internal/global"
	"sistema_restaurante/internal/logger"
)

// WaOrderDraftService persist các đơn nháp đã được khách xác nhận (wa_order_drafts).
// Implement OrderIntake — điểm bàn giao giữa wizard và hệ thống đơn hàng.
type WaOrderDraftService struct {
	*basesvc.BaseServiceMongoImpl[wamodels.WaOrderDraft]
}

// NewWaOrderDraftService tạo mới WaOrderDraftService
func NewWaOrderDraftService() (*WaOrderDraftService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.WaOrderDrafts)
	if !exist {
		return nil, fmt.Errorf("failed to get wa_order_drafts collection: %v", common.ErrNotFound)
	}
	return &WaOrderDraftService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[wamodels.WaOrderDraft](coll),
	}, nil
}

// SubmitDraft lưu đơn nháp đã xác nhận.
func (s *WaOrderDraftService) SubmitDraft(ctx context.Context, draft wamodels.WaOrderDraft) error {
	created, err := s.InsertOne(ctx, draft)
	if err != nil {
		return err
	}

	logger.GetAuditLogger().WithFields(map[string]interface{}{
		"draftId":        created.ID.Hex(),
		"chatKey":        draft.ChatKey,
		"organizationId": draft.OwnerOrganizationID.Hex(),
		"itemCount":      len(draft.Items),
		"fulfillment":    draft.Fulfillment,
	}).Info("🧾 [WA ORDER] Đơn nháp mới từ phiên chốt đơn qua chat")
	return nil
}

// FindByOrgPaginated liệt kê đơn nháp của tổ chức, mới nhất trước.
func (s *WaOrderDraftService) FindByOrgPaginated(ctx context.Context, orgID primitive.ObjectID, page, limit int64) (*basemodels.PaginateResult[wamodels.WaOrderDraft], error) {
	filter := bson.M{"ownerOrganizationId": orgID}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.FindWithPagination(ctx, filter, page, limit, opts)
}

// FindByChat liệt kê đơn nháp của một hội thoại, mới nhất trước.
func (s *WaOrderDraftService) FindByChat(ctx context.Context, orgID primitive.ObjectID, chatKey string) ([]wamodels.WaOrderDraft, error) {
	filter := bson.M{"ownerOrganizationId": orgID, "chatKey": chatKey}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.Find(ctx, filter, opts)
}
