package wasvc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	wamodels "sistema_restaurante/internal/api/wa/models"
)

func testChat(chatKey string) wamodels.WaChat {
	return wamodels.WaChat{ChatKey: chatKey, DisplayName: "Maria Silva"}
}

func testMsg(id, body string, ts int64) wamodels.WaMessageItem {
	return wamodels.WaMessageItem{
		MessageId:      id,
		Body:           body,
		Timestamp:      ts,
		Direction:      wamodels.DirectionInbound,
		DeliveryStatus: wamodels.DeliverySent,
		Kind:           wamodels.KindText,
	}
}

func TestAppendMessage_DedupByMessageId(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()
	store.UpsertChat(orgID, testChat("11999998888"))

	assert.True(t, store.AppendMessage(orgID, "11999998888", testMsg("m1", "oi", 100)))
	// Cùng messageId lần hai phải bị nuốt — kể cả khi nội dung khác
	assert.False(t, store.AppendMessage(orgID, "11999998888", testMsg("m1", "oi de novo", 200)))

	msgs := store.GetMessages(orgID, "11999998888")
	require.Len(t, msgs, 1)
	assert.Equal(t, "oi", msgs[0].Body)
}

func TestAppendMessage_UnknownChatReturnsFalse(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()

	assert.False(t, store.AppendMessage(orgID, "11999998888", testMsg("m1", "oi", 100)))
}

func TestAppendMessage_UpdatesPreviewAndActivity(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()
	store.UpsertChat(orgID, testChat("11999998888"))

	longBody := strings.Repeat("a", 100)
	store.AppendMessage(orgID, "11999998888", testMsg("m1", longBody, 500))

	chat, ok := store.GetChat(orgID, "11999998888")
	require.True(t, ok)
	assert.Equal(t, int64(500), chat.LastActivityAt)
	assert.True(t, strings.HasSuffix(chat.LastMessagePreview, "…"))
	assert.Equal(t, 81, len([]rune(chat.LastMessagePreview)))
}

func TestAppendMessage_MirrorsIntoActiveThread(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()
	store.UpsertChat(orgID, testChat("11999998888"))
	store.UpsertChat(orgID, testChat("11888887777"))

	_, ok := store.Select(orgID, "11999998888")
	require.True(t, ok)

	store.AppendMessage(orgID, "11999998888", testMsg("m1", "oi", 100))
	store.AppendMessage(orgID, "11888887777", testMsg("m2", "outra conversa", 200))

	// Message của hội thoại đang mở xuất hiện ở cả timeline lẫn thread mirror
	thread := store.ActiveThread(orgID)
	require.Len(t, thread, 1)
	assert.Equal(t, "m1", thread[0].MessageId)
	assert.Len(t, store.GetMessages(orgID, "11999998888"), 1)
}

func TestSelect_ResetsUnreadOnlyOnSelection(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()

	chat := testChat("11999998888")
	chat.UnreadCount = 3
	store.UpsertChat(orgID, chat)

	other := testChat("11888887777")
	other.UnreadCount = 5
	store.UpsertChat(orgID, other)

	view, ok := store.Select(orgID, "11999998888")
	require.True(t, ok)
	assert.Equal(t, int64(0), view.Chat.UnreadCount)

	got, _ := store.GetChat(orgID, "11999998888")
	assert.Equal(t, int64(0), got.UnreadCount)

	// Hội thoại khác không bị reset chỉ vì có selection mới
	gotOther, _ := store.GetChat(orgID, "11888887777")
	assert.Equal(t, int64(5), gotOther.UnreadCount)
}

func TestSelect_MissingChat(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()

	_, ok := store.Select(orgID, "11999998888")
	assert.False(t, ok)
}

func TestReplaceAll_PreservesSelectionAndRemirrors(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()
	store.UpsertChat(orgID, testChat("11999998888"))
	store.AppendMessage(orgID, "11999998888", testMsg("m1", "antigo", 100))
	store.Select(orgID, "11999998888")

	store.ReplaceAll(orgID, []ConversationView{
		{
			Chat:     testChat("11999998888"),
			Messages: []wamodels.WaMessageItem{testMsg("m1", "antigo", 100), testMsg("m2", "novo", 200)},
		},
	})

	assert.Equal(t, "11999998888", store.ActiveKey(orgID))
	thread := store.ActiveThread(orgID)
	require.Len(t, thread, 2)
	assert.Equal(t, "m2", thread[1].MessageId)
}

func TestReplaceAll_ClearsSelectionWhenChatGone(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()
	store.UpsertChat(orgID, testChat("11999998888"))
	store.Select(orgID, "11999998888")

	store.ReplaceAll(orgID, []ConversationView{
		{Chat: testChat("11888887777")},
	})

	assert.Equal(t, "", store.ActiveKey(orgID))
	assert.Empty(t, store.ActiveThread(orgID))
}

func TestReplaceAll_DedupWithinSnapshot(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()

	store.ReplaceAll(orgID, []ConversationView{
		{
			Chat:     testChat("11999998888"),
			Messages: []wamodels.WaMessageItem{testMsg("m1", "oi", 100), testMsg("m1", "duplicado", 100)},
		},
	})

	assert.Len(t, store.GetMessages(orgID, "11999998888"), 1)
}

func TestStore_DedupAcrossSnapshotAndLiveEvents(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()

	// Live event đến trước, snapshot chứa cùng message đến sau
	store.UpsertChat(orgID, testChat("11999998888"))
	require.True(t, store.AppendMessage(orgID, "11999998888", testMsg("m1", "oi", 100)))

	store.ReplaceAll(orgID, []ConversationView{
		{
			Chat:     testChat("11999998888"),
			Messages: []wamodels.WaMessageItem{testMsg("m1", "oi", 100), testMsg("m2", "tudo bem?", 200)},
		},
	})
	assert.Len(t, store.GetMessages(orgID, "11999998888"), 2)

	// Snapshot đến trước, redelivery của m2 đến sau — phải bị nuốt
	assert.False(t, store.AppendMessage(orgID, "11999998888", testMsg("m2", "tudo bem?", 200)))
	assert.True(t, store.AppendMessage(orgID, "11999998888", testMsg("m3", "novidade", 300)))
	assert.Len(t, store.GetMessages(orgID, "11999998888"), 3)
}

func TestMarkDeliveryStatus_UpdatesBothCopies(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()
	store.UpsertChat(orgID, testChat("11999998888"))
	store.Select(orgID, "11999998888")

	msg := testMsg("m1", "saindo", 100)
	msg.Direction = wamodels.DirectionOutbound
	msg.DeliveryStatus = wamodels.DeliveryPending
	store.AppendMessage(orgID, "11999998888", msg)

	require.True(t, store.MarkDeliveryStatus(orgID, "11999998888", "m1", wamodels.DeliverySent))

	assert.Equal(t, wamodels.DeliverySent, store.GetMessages(orgID, "11999998888")[0].DeliveryStatus)
	assert.Equal(t, wamodels.DeliverySent, store.ActiveThread(orgID)[0].DeliveryStatus)
}

func TestUpsertChat_NeverClearsResolvedAvatar(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()

	chat := testChat("11999998888")
	chat.AvatarRef = "avatar-1.jpg"
	store.UpsertChat(orgID, chat)

	update := testChat("11999998888")
	update.DisplayName = "Maria S."
	store.UpsertChat(orgID, update)

	got, _ := store.GetChat(orgID, "11999998888")
	assert.Equal(t, "Maria S.", got.DisplayName)
	assert.Equal(t, "avatar-1.jpg", got.AvatarRef)
}

func TestUpdateChatFields_MissingChat(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()

	applied := store.UpdateChatFields(orgID, "11999998888", func(chat *wamodels.WaChat) {
		chat.UnreadCount++
	})
	assert.False(t, applied)
}

func TestListChats_SortedByLastActivity(t *testing.T) {
	store := NewWaStoreService()
	orgID := primitive.NewObjectID()
	store.UpsertChat(orgID, testChat("11999998888"))
	store.UpsertChat(orgID, testChat("11888887777"))
	store.AppendMessage(orgID, "11999998888", testMsg("m1", "antigo", 100))
	store.AppendMessage(orgID, "11888887777", testMsg("m2", "recente", 200))

	chats := store.ListChats(orgID)
	require.Len(t, chats, 2)
	assert.Equal(t, "11888887777", chats[0].ChatKey)
	assert.Equal(t, "11999998888", chats[1].ChatKey)
}

func TestStore_CrossOrgIsolation(t *testing.T) {
	store := NewWaStoreService()
	org1 := primitive.NewObjectID()
	org2 := primitive.NewObjectID()

	store.UpsertChat(org1, testChat("11999998888"))
	store.AppendMessage(org1, "11999998888", testMsg("m1", "só org1", 100))

	// Cùng chatKey ở tổ chức khác là hội thoại khác
	assert.Empty(t, store.ListChats(org2))
	assert.Nil(t, store.GetMessages(org2, "11999998888"))
	assert.False(t, store.AppendMessage(org2, "11999998888", testMsg("m2", "x", 200)))
}
