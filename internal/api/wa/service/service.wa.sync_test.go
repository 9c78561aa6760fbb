package wasvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "sistema_restaurante/internal/api/base/service"
	wamodels "sistema_restaurante/internal/api/wa/models"
	"sistema_restaurante/internal/common"
	"sistema_restaurante/internal/global"
)

// unreachableCollection trả về collection trên client Mongo không kết nối được:
// mọi thao tác lỗi nhanh — dùng để đi trọn đường log-only của các lệnh ghi bền.
func unreachableCollection(t *testing.T, name string) *mongo.Collection {
	t.Helper()
	opts := options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(50 * time.Millisecond)
	client, err := mongo.Connect(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client.Database("test").Collection(name)
}

func unreachableMessageService(t *testing.T) *WaMessageService {
	t.Helper()
	coll := unreachableCollection(t, global.MongoDB_ColNames.WaMessageItems)
	return &WaMessageService{BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[wamodels.WaMessageItem](coll)}
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func TestChatUpdateSet_SkipsUnreadForActiveSelection(t *testing.T) {
	svc := NewWaSyncService(nil, nil, NewWaStoreService(), NewWaIdentityService("55"), nil)
	ev := ChatUpdateEvent{
		ChatKey:     "11999998888",
		DisplayName: strPtr("Maria Oliveira"),
		AvatarRef:   strPtr("avatar-2.jpg"),
		UnreadCount: int64Ptr(7),
	}

	// Hội thoại đang mở: unread do gateway báo KHÔNG được ghi bền —
	// nếu ghi, snapshot kế tiếp hồi sinh unread > 0 trên hội thoại đang mở
	set := svc.chatUpdateSet(ev, "11999998888", "11999998888")
	assert.NotContains(t, set, "unreadCount")
	assert.Equal(t, "Maria Oliveira", set["displayName"])
	assert.Equal(t, "avatar-2.jpg", set["avatarRef"])

	// Không phải selection: unread được ghi bền bình thường
	set = svc.chatUpdateSet(ev, "11999998888", "11888887777")
	assert.Equal(t, int64(7), set["unreadCount"])
}

func TestChatUpdateSet_FiltersPlaceholderAndEmptyFields(t *testing.T) {
	svc := NewWaSyncService(nil, nil, NewWaStoreService(), NewWaIdentityService("55"), nil)

	set := svc.chatUpdateSet(ChatUpdateEvent{
		ChatKey:     "11999998888",
		DisplayName: strPtr("11999998888"), // tên placeholder = chính chatKey
		AvatarRef:   strPtr(""),
	}, "11999998888", "")
	assert.Empty(t, set)

	set = svc.chatUpdateSet(ChatUpdateEvent{ChatKey: "11999998888"}, "11999998888", "")
	assert.Empty(t, set)
}

func TestApplyChatUpdateEvent_ActiveChatUnreadStaysZeroInBothLayers(t *testing.T) {
	store := NewWaStoreService()
	chatService := &WaChatService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[wamodels.WaChat](unreachableCollection(t, global.MongoDB_ColNames.WaChats)),
	}
	svc := NewWaSyncService(chatService, nil, store, NewWaIdentityService("55"), nil)
	orgID := primitive.NewObjectID()

	store.UpsertChat(orgID, testChat("11999998888"))
	_, ok := store.Select(orgID, "11999998888")
	require.True(t, ok)

	err := svc.ApplyChatUpdateEvent(context.Background(), orgID, ChatUpdateEvent{
		ChatKey:     "+5511999998888",
		UnreadCount: int64Ptr(9),
	})
	require.NoError(t, err)

	got, _ := store.GetChat(orgID, "11999998888")
	assert.Equal(t, int64(0), got.UnreadCount)
}

func TestApplyChatUpdateEvent_UnknownChatIsNoop(t *testing.T) {
	store := NewWaStoreService()
	svc := NewWaSyncService(nil, nil, store, NewWaIdentityService("55"), nil)
	orgID := primitive.NewObjectID()

	err := svc.ApplyChatUpdateEvent(context.Background(), orgID, ChatUpdateEvent{
		ChatKey:     "11999998888",
		DisplayName: strPtr("Maria Oliveira"),
	})
	require.NoError(t, err)
	assert.Empty(t, store.ListChats(orgID))
}

func TestApplyChatUpdateEvent_InvalidChatKey(t *testing.T) {
	svc := NewWaSyncService(nil, nil, NewWaStoreService(), NewWaIdentityService("55"), nil)

	err := svc.ApplyChatUpdateEvent(context.Background(), primitive.NewObjectID(), ChatUpdateEvent{ChatKey: "sem-digitos"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestApplyReceiptEvent_ProgressesStatusInMemory(t *testing.T) {
	store := NewWaStoreService()
	svc := NewWaSyncService(nil, unreachableMessageService(t), store, NewWaIdentityService("55"), nil)
	orgID := primitive.NewObjectID()

	store.UpsertChat(orgID, testChat("11999998888"))
	msg := testMsg("m1", "saindo", 100)
	msg.Direction = wamodels.DirectionOutbound
	msg.DeliveryStatus = wamodels.DeliveryPending
	store.AppendMessage(orgID, "11999998888", msg)

	for _, status := range []string{wamodels.DeliverySent, wamodels.DeliveryDelivered, wamodels.DeliveryRead} {
		err := svc.ApplyReceiptEvent(context.Background(), orgID, ReceiptEvent{
			MessageId: "m1",
			ChatKey:   "+5511999998888",
			Status:    status,
		})
		require.NoError(t, err)
		assert.Equal(t, status, store.GetMessages(orgID, "11999998888")[0].DeliveryStatus)
	}
}

func TestApplyReceiptEvent_RejectsInvalidInput(t *testing.T) {
	svc := NewWaSyncService(nil, nil, NewWaStoreService(), NewWaIdentityService("55"), nil)
	orgID := primitive.NewObjectID()
	ctx := context.Background()

	assert.ErrorIs(t, svc.ApplyReceiptEvent(ctx, orgID, ReceiptEvent{ChatKey: "11999998888", Status: wamodels.DeliveryRead}), common.ErrInvalidInput)
	assert.ErrorIs(t, svc.ApplyReceiptEvent(ctx, orgID, ReceiptEvent{MessageId: "m1", Status: wamodels.DeliveryRead}), common.ErrInvalidInput)
	assert.ErrorIs(t, svc.ApplyReceiptEvent(ctx, orgID, ReceiptEvent{MessageId: "m1", ChatKey: "11999998888", Status: "visto"}), common.ErrInvalidInput)
	// pending chỉ là trạng thái khởi tạo cục bộ — gateway không bao giờ báo pending
	assert.ErrorIs(t, svc.ApplyReceiptEvent(ctx, orgID, ReceiptEvent{MessageId: "m1", ChatKey: "11999998888", Status: wamodels.DeliveryPending}), common.ErrInvalidInput)
}
