package wasvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "sistema_restaurante/internal/api/base/service"
	crmmodels "sistema_restaurante/internal/api/crm/models"
	"sistema_restaurante/internal/api/events"
	wamodels "sistema_restaurante/internal/api/wa/models"
	"sistema_restaurante/internal/global"
)

// unreachableChatService dựng WaChatService trên client Mongo không kết nối được:
// ghi bền lỗi nhanh, đường log-only của hook vẫn chạy trọn.
func unreachableChatService(t *testing.T) *WaChatService {
	t.Helper()
	coll := unreachableCollection(t, global.MongoDB_ColNames.WaChats)
	return &WaChatService{BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[wamodels.WaChat](coll)}
}

func hookSyncService(t *testing.T) (*WaSyncService, *WaStoreService) {
	t.Helper()
	store := NewWaStoreService()
	svc := NewWaSyncService(unreachableChatService(t), nil, store, NewWaIdentityService("55"), nil)
	return svc, store
}

func TestDataChangeHook_RenamesChatsFromCrmCustomer(t *testing.T) {
	svc, store := hookSyncService(t)
	orgID := primitive.NewObjectID()

	chat := testChat("11999998888")
	chat.DisplayName = "(11) 99999-8888"
	store.UpsertChat(orgID, chat)

	svc.handleDataChanged(context.Background(), events.DataChangeEvent{
		CollectionName: global.MongoDB_ColNames.CrmCustomers,
		Operation:      events.OpUpdate,
		Document: crmmodels.CrmCustomer{
			Name:                "Maria Oliveira",
			PhoneKeys:           []string{"+5511999998888", "11777776666"},
			OwnerOrganizationID: orgID,
		},
	})

	// Hội thoại mang số của khách đổi tên ngay; số không có hội thoại bị bỏ qua
	got, ok := store.GetChat(orgID, "11999998888")
	require.True(t, ok)
	assert.Equal(t, "Maria Oliveira", got.DisplayName)
}

func TestDataChangeHook_DeliveredThroughEventHub(t *testing.T) {
	svc, store := hookSyncService(t)
	orgID := primitive.NewObjectID()
	store.UpsertChat(orgID, testChat("11888887777"))

	svc.RegisterDataChangeHooks()
	events.EmitDataChanged(context.Background(), events.DataChangeEvent{
		CollectionName: global.MongoDB_ColNames.CrmCustomers,
		Operation:      events.OpInsert,
		Document: &crmmodels.CrmCustomer{
			Name:                "João Pereira",
			PhoneKeys:           []string{"11888887777"},
			OwnerOrganizationID: orgID,
		},
	})

	require.Eventually(t, func() bool {
		got, ok := store.GetChat(orgID, "11888887777")
		return ok && got.DisplayName == "João Pereira"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDataChangeHook_IgnoresUnrelatedEvents(t *testing.T) {
	store := NewWaStoreService()
	// chatService nil: hook phải return trước khi chạm tầng bền
	svc := NewWaSyncService(nil, nil, store, NewWaIdentityService("55"), nil)
	orgID := primitive.NewObjectID()
	store.UpsertChat(orgID, testChat("11999998888"))

	customer := crmmodels.CrmCustomer{
		Name:                "Maria Oliveira",
		PhoneKeys:           []string{"11999998888"},
		OwnerOrganizationID: orgID,
	}

	// Collection khác, delete, document sai kiểu, khách không tên — đều là no-op
	svc.handleDataChanged(context.Background(), events.DataChangeEvent{
		CollectionName: global.MongoDB_ColNames.WaChats,
		Operation:      events.OpUpdate,
		Document:       customer,
	})
	svc.handleDataChanged(context.Background(), events.DataChangeEvent{
		CollectionName: global.MongoDB_ColNames.CrmCustomers,
		Operation:      events.OpDelete,
		Document:       customer,
	})
	svc.handleDataChanged(context.Background(), events.DataChangeEvent{
		CollectionName: global.MongoDB_ColNames.CrmCustomers,
		Operation:      events.OpUpdate,
		Document:       "không phải customer",
	})
	noName := customer
	noName.Name = ""
	svc.handleDataChanged(context.Background(), events.DataChangeEvent{
		CollectionName: global.MongoDB_ColNames.CrmCustomers,
		Operation:      events.OpUpdate,
		Document:       noName,
	})

	got, _ := store.GetChat(orgID, "11999998888")
	assert.Equal(t, "Maria Silva", got.DisplayName)
}

func TestDataChangeHook_SkipsKeysWithoutChat(t *testing.T) {
	store := NewWaStoreService()
	svc := NewWaSyncService(nil, nil, store, NewWaIdentityService("55"), nil)
	orgID := primitive.NewObjectID()

	// Không có hội thoại nào khớp — hook đi hết vòng mà không đụng tầng bền
	svc.handleDataChanged(context.Background(), events.DataChangeEvent{
		CollectionName: global.MongoDB_ColNames.CrmCustomers,
		Operation:      events.OpInsert,
		Document: crmmodels.CrmCustomer{
			Name:                "Maria Oliveira",
			PhoneKeys:           []string{"11999998888", "dados-ruins"},
			OwnerOrganizationID: orgID,
		},
	})

	assert.Empty(t, store.ListChats(orgID))
}
