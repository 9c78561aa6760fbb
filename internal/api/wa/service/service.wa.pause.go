package wasvc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "sistema_restaurante/internal/api/base/service"
	wamodels "sistema_restaurante/internal/api/wa/models"
	"sistema_restaurante/internal/common"
	"sistema_restaurante/internal/global"
	"sistema_restaurante/internal/logger"
)

// pauseKey khóa cache theo (tổ chức, hội thoại).
type pauseKey struct {
	orgID   primitive.ObjectID
	chatKey string
}

// WaPauseService quản lý cờ tạm dừng AI theo hội thoại — hai lớp:
// cache trong memory cho đường đọc nóng, bản ghi bền qua PauseFlagStore.
// Khi hai lớp lệch nhau, bản ghi bền thắng.
type WaPauseService struct {
	flags PauseFlagStore
	crud  basesvc.BaseServiceMongo[wamodels.WaAiPauseFlag] // nil khi store bền không phải Mongo

	mu       sync.RWMutex
	cache    map[pauseKey]bool
	onPaused func(orgID primitive.ObjectID, chatKey string)
}

// NewWaPauseService tạo mới WaPauseService với store bền trên Mongo
func NewWaPauseService() (*WaPauseService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.WaAiPauseFlags)
	if !exist {
		return nil, fmt.Errorf("failed to get wa_ai_pause_flags collection: %v", common.ErrNotFound)
	}
	base := basesvc.NewBaseServiceMongo[wamodels.WaAiPauseFlag](coll)
	svc := NewWaPauseServiceWithStore(&waPauseFlagMongoStore{base: base})
	svc.crud = base
	return svc, nil
}

// NewWaPauseServiceWithStore tạo WaPauseService trên một PauseFlagStore bất kỳ.
func NewWaPauseServiceWithStore(flags PauseFlagStore) *WaPauseService {
	return &WaPauseService{
		flags: flags,
		cache: make(map[pauseKey]bool),
	}
}

// Crud trả về tầng CRUD Mongo của cờ bền cho BaseHandler.
func (s *WaPauseService) Crud() basesvc.BaseServiceMongo[wamodels.WaAiPauseFlag] {
	return s.crud
}

// OnPaused đăng ký callback chạy khi một hội thoại chuyển sang trạng thái tạm dừng.
// Send pipeline dùng hook này để hủy phiên chốt đơn đang chạy của hội thoại đó.
func (s *WaPauseService) OnPaused(fn func(orgID primitive.ObjectID, chatKey string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPaused = fn
}

// Resolve trả về trạng thái tạm dừng hiện tại của hội thoại.
// Đọc cache trước, rồi đối chiếu bản ghi bền — bản ghi bền thắng và ghi đè cache.
// Không có bản ghi bền nghĩa là chưa từng tạm dừng (false).
// Lỗi hạ tầng khi đọc bền: dùng giá trị cache, log lại — không chặn luồng đọc.
func (s *WaPauseService) Resolve(ctx context.Context, orgID primitive.ObjectID, chatKey string) bool {
	key := pauseKey{orgID: orgID, chatKey: chatKey}

	s.mu.RLock()
	cached := s.cache[key]
	s.mu.RUnlock()

	paused, err := s.flags.ReadFlag(ctx, orgID, chatKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if cached {
				// Cache nói paused nhưng bản ghi bền không tồn tại — bền thắng
				s.mu.Lock()
				delete(s.cache, key)
				s.mu.Unlock()
			}
			return false
		}
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"chatKey":        chatKey,
			"organizationId": orgID.Hex(),
			"error":          err.Error(),
		}).Warn("⚠️ [WA PAUSE] Không đọc được cờ bền, dùng giá trị cache")
		return cached
	}

	if paused != cached {
		s.mu.Lock()
		s.cache[key] = paused
		s.mu.Unlock()
	}
	return paused
}

// Toggle đảo trạng thái tạm dừng của hội thoại và trả về trạng thái mới.
// Cache được cập nhật TRƯỚC khi ghi bền để operator thấy hiệu lực ngay;
// ghi bền thất bại KHÔNG rollback cache — trạng thái mới vẫn có hiệu lực
// trong phiên hiện tại, caller nhận ErrWaPauseWrite để báo cho operator.
func (s *WaPauseService) Toggle(ctx context.Context, orgID primitive.ObjectID, chatKey string, operatorID string) (bool, error) {
	current := s.Resolve(ctx, orgID, chatKey)
	newState := !current
	key := pauseKey{orgID: orgID, chatKey: chatKey}

	s.mu.Lock()
	s.cache[key] = newState
	onPaused := s.onPaused
	s.mu.Unlock()

	// Tạm dừng AI hủy luôn phiên chốt đơn đang chạy của hội thoại
	if newState && onPaused != nil {
		onPaused(orgID, chatKey)
	}

	if err := s.flags.WriteFlag(ctx, orgID, chatKey, newState, operatorID); err != nil {
		logger.GetErrorLogger().WithFields(map[string]interface{}{
			"chatKey":        chatKey,
			"organizationId": orgID.Hex(),
			"paused":         newState,
			"error":          err.Error(),
		}).Error("❌ [WA PAUSE] Ghi cờ bền thất bại, cache vẫn giữ trạng thái mới")
		return newState, common.ErrWaPauseWrite
	}

	logger.GetAuditLogger().WithFields(map[string]interface{}{
		"chatKey":        chatKey,
		"organizationId": orgID.Hex(),
		"paused":         newState,
		"operatorId":     operatorID,
	}).Info("⏸️ [WA PAUSE] Operator đổi trạng thái AI của hội thoại")
	return newState, nil
}

// waPauseFlagMongoStore lưu cờ bền trong collection wa_ai_pause_flags.
type waPauseFlagMongoStore struct {
	base *basesvc.BaseServiceMongoImpl[wamodels.WaAiPauseFlag]
}

func (m *waPauseFlagMongoStore) ReadFlag(ctx context.Context, orgID primitive.ObjectID, chatKey string) (bool, error) {
	flag, err := m.base.FindOne(ctx, bson.M{"ownerOrganizationId": orgID, "chatKey": chatKey}, nil)
	if err != nil {
		return false, err
	}
	return flag.Paused, nil
}

func (m *waPauseFlagMongoStore) WriteFlag(ctx context.Context, orgID primitive.ObjectID, chatKey string, paused bool, operatorID string) error {
	filter := bson.M{"ownerOrganizationId": orgID, "chatKey": chatKey}
	update := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"paused":    paused,
			"updatedBy": operatorID,
		},
		SetOnInsert: map[string]interface{}{
			"ownerOrganizationId": orgID,
			"chatKey":             chatKey,
		},
	}
	_, err := m.base.Upsert(ctx, filter, update)
	return err
}
