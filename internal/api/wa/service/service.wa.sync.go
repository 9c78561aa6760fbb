package wasvc

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	wamodels "sistema_restaurante/internal/api/wa/models"
	"sistema_restaurante/internal/common"
	"sistema_restaurante/internal/logger"
)

// MessageEvent một message mới từ transport realtime hoặc webhook.
type MessageEvent struct {
	MessageId  string `json:"messageId"`  // ID message từ gateway
	From       string `json:"from"`       // Định danh thô của hội thoại (chưa chuẩn hóa)
	Body       string `json:"body"`       // Nội dung văn bản thô (chưa sanitize)
	Timestamp  int64  `json:"timestamp"`  // Thời gian message (unix ms)
	Direction  string `json:"direction"`  // inbound | outbound
	Kind       string `json:"kind"`       // text | image | audio | other
	SenderName string `json:"senderName"` // Tên người gửi do gateway báo (có thể là placeholder)
	AvatarRef  string `json:"avatarRef"`  // Tham chiếu ảnh đại diện (có thể rỗng)
}

// ChatUpdateEvent cập nhật metadata hội thoại từ transport realtime hoặc webhook.
// Field nil nghĩa là không thay đổi.
type ChatUpdateEvent struct {
	ChatKey     string  `json:"chatKey"`     // Định danh thô của hội thoại (chưa chuẩn hóa)
	DisplayName *string `json:"displayName"` // Tên hiển thị mới
	AvatarRef   *string `json:"avatarRef"`   // Tham chiếu ảnh đại diện mới
	UnreadCount *int64  `json:"unreadCount"` // Số chưa đọc do gateway báo
}

// ReceiptEvent receipt trạng thái gửi từ gateway cho một message outbound.
type ReceiptEvent struct {
	MessageId string `json:"messageId"` // ID message đã gửi
	ChatKey   string `json:"chatKey"`   // Định danh thô của hội thoại (chưa chuẩn hóa)
	Status    string `json:"status"`    // sent | delivered | read | error
}

// WaSyncService là Reconciliation Engine: hợp nhất snapshot bền và event realtime
// vào Conversation Store trong memory, giữ store bền đi theo sau.
// Mọi lỗi ghi bền trong đường đồng bộ đều tự phục hồi im lặng (log, không nổi lên operator).
type WaSyncService struct {
	chatService    *WaChatService
	messageService *WaMessageService
	store          *WaStoreService
	identity       *WaIdentityService
	directory      CustomerDirectory // có thể nil — không có CRM thì format số điện thoại
}

// NewWaSyncService tạo mới WaSyncService.
func NewWaSyncService(
	chatService *WaChatService,
	messageService *WaMessageService,
	store *WaStoreService,
	identity *WaIdentityService,
	directory CustomerDirectory,
) *WaSyncService {
	return &WaSyncService{
		chatService:    chatService,
		messageService: messageService,
		store:          store,
		identity:       identity,
		directory:      directory,
	}
}

// Store trả về Conversation Store mà engine đang nuôi.
func (s *WaSyncService) Store() *WaStoreService {
	return s.store
}

// LoadSnapshot dựng lại toàn bộ trạng thái hội thoại của một tổ chức từ store bền:
// đúng HAI bulk read (toàn bộ chats, toàn bộ messages), ghép trong memory rồi
// thay store bằng một thao tác nguyên tử. Message mồ côi (chatKey không có
// trong wa_chats) vẫn được dựng thành hội thoại — tự chữa lành ngay tại snapshot.
func (s *WaSyncService) LoadSnapshot(ctx context.Context, orgID primitive.ObjectID) error {
	started := time.Now()

	chats, err := s.chatService.FindAllByOrg(ctx, orgID)
	if err != nil {
		return err
	}
	messages, err := s.messageService.FindAllByOrg(ctx, orgID)
	if err != nil {
		return err
	}

	byChat := make(map[string][]wamodels.WaMessageItem)
	for _, m := range messages {
		byChat[m.ChatKey] = append(byChat[m.ChatKey], m)
	}

	views := make([]ConversationView, 0, len(chats))
	known := make(map[string]bool, len(chats))
	var placeholderKeys []string
	for _, c := range chats {
		known[c.ChatKey] = true
		if s.identity.IsPlaceholderName(c.DisplayName, c.ChatKey) {
			placeholderKeys = append(placeholderKeys, c.ChatKey)
		}
		views = append(views, ConversationView{Chat: c, Messages: byChat[c.ChatKey]})
	}

	// Hội thoại mồ côi từ message không có chat tương ứng
	for chatKey, msgs := range byChat {
		if known[chatKey] {
			continue
		}
		placeholderKeys = append(placeholderKeys, chatKey)
		chat := wamodels.WaChat{
			ChatKey:             chatKey,
			OwnerOrganizationID: orgID,
		}
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			chat.LastMessagePreview = previewOf(last.Body)
			chat.LastActivityAt = last.Timestamp
		}
		views = append(views, ConversationView{Chat: chat, Messages: msgs})
	}

	// Resolve tên placeholder một lượt qua CRM
	names := s.lookupNames(ctx, orgID, placeholderKeys)
	for i := range views {
		chat := &views[i].Chat
		if !s.identity.IsPlaceholderName(chat.DisplayName, chat.ChatKey) {
			continue
		}
		if name, ok := names[chat.ChatKey]; ok && name != "" {
			chat.DisplayName = name
		} else {
			chat.DisplayName = s.identity.FormatPhone(chat.ChatKey)
		}
	}

	s.store.ReplaceAll(orgID, views)

	logger.GetAppLogger().WithFields(map[string]interface{}{
		"organizationId": orgID.Hex(),
		"chats":          len(views),
		"messages":       len(messages),
		"durationMs":     time.Since(started).Milliseconds(),
	}).Info("🔄 [WA SYNC] Snapshot hội thoại đã nạp vào store")
	return nil
}

// ApplyMessageEvent hợp nhất một message event vào store.
// Hội thoại chưa tồn tại thì tự tạo (tự chữa lành) — message không bao giờ bị bỏ rơi.
// Message trùng messageId bị bỏ qua ở mọi tầng. Ghi bền thất bại chỉ log.
func (s *WaSyncService) ApplyMessageEvent(ctx context.Context, orgID primitive.ObjectID, ev MessageEvent) error {
	if ev.MessageId == "" || ev.From == "" {
		return common.ErrInvalidInput
	}

	chatKey := s.identity.Normalize(ev.From)
	if chatKey == "" {
		return common.ErrInvalidInput
	}
	body := s.identity.Sanitize(ev.Body)
	kind := ev.Kind
	if kind == "" {
		kind = wamodels.KindText
	}
	timestamp := ev.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	// Tự chữa lành: message cho hội thoại chưa biết tạo luôn hội thoại
	if _, ok := s.store.GetChat(orgID, chatKey); !ok {
		chat := wamodels.WaChat{
			ChatKey:             chatKey,
			DisplayName:         s.resolveDisplayName(ctx, orgID, chatKey, ev.SenderName),
			AvatarRef:           ev.AvatarRef,
			OwnerOrganizationID: orgID,
		}
		s.store.UpsertChat(orgID, chat)

		if _, err := s.chatService.UpsertByChatKey(ctx, orgID, chatKey, bson.M{
			"displayName": chat.DisplayName,
			"avatarRef":   chat.AvatarRef,
		}); err != nil {
			s.logSyncWriteFailure(orgID, chatKey, "tạo hội thoại bền", err)
		}
	}

	msg := wamodels.WaMessageItem{
		MessageId:           ev.MessageId,
		ChatKey:             chatKey,
		Body:                body,
		Timestamp:           timestamp,
		Direction:           ev.Direction,
		Kind:                kind,
		SenderName:          ev.SenderName,
		OwnerOrganizationID: orgID,
	}

	if !s.store.AppendMessage(orgID, chatKey, msg) {
		// Đã thấy messageId này — redelivery của transport at-least-once
		return nil
	}

	// Inbound vào hội thoại KHÔNG phải selection thì tăng unread;
	// selection đang mở coi như đã đọc ngay.
	inboundUnread := ev.Direction == wamodels.DirectionInbound && s.store.ActiveKey(orgID) != chatKey
	if inboundUnread {
		s.store.UpdateChatFields(orgID, chatKey, func(chat *wamodels.WaChat) {
			chat.UnreadCount++
		})
	}

	// Store bền đi theo sau — thất bại không chặn store memory
	if _, err := s.messageService.InsertIfAbsent(ctx, msg); err != nil {
		s.logSyncWriteFailure(orgID, chatKey, "ghi message bền", err)
	}
	set := bson.M{
		"lastMessagePreview": previewOf(body),
		"lastActivityAt":     timestamp,
	}
	if _, err := s.chatService.UpsertByChatKey(ctx, orgID, chatKey, set); err != nil {
		s.logSyncWriteFailure(orgID, chatKey, "cập nhật hội thoại bền", err)
	}
	if inboundUnread {
		if err := s.chatService.IncrementUnread(ctx, orgID, chatKey); err != nil {
			s.logSyncWriteFailure(orgID, chatKey, "tăng unread bền", err)
		}
	}
	return nil
}

// ApplyChatUpdateEvent áp cập nhật metadata lên một hội thoại ĐANG TỒN TẠI.
// Khác với message event, chat update KHÔNG BAO GIỜ tạo hội thoại mới —
// update cho hội thoại chưa biết là no-op (chỉ log debug).
func (s *WaSyncService) ApplyChatUpdateEvent(ctx context.Context, orgID primitive.ObjectID, ev ChatUpdateEvent) error {
	chatKey := s.identity.Normalize(ev.ChatKey)
	if chatKey == "" {
		return common.ErrInvalidInput
	}

	// Hội thoại đang mở coi như đã đọc — unread do gateway báo không áp lên selection
	activeKey := s.store.ActiveKey(orgID)
	applied := s.store.UpdateChatFields(orgID, chatKey, func(chat *wamodels.WaChat) {
		if ev.DisplayName != nil && !s.identity.IsPlaceholderName(*ev.DisplayName, chatKey) {
			chat.DisplayName = *ev.DisplayName
		}
		if ev.AvatarRef != nil && *ev.AvatarRef != "" && chat.AvatarRef == "" {
			// Avatar đã resolve thì không ghi đè
			chat.AvatarRef = *ev.AvatarRef
		}
		if ev.UnreadCount != nil && activeKey != chatKey {
			chat.UnreadCount = *ev.UnreadCount
		}
	})
	if !applied {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"chatKey":        chatKey,
			"organizationId": orgID.Hex(),
		}).Debug("🔄 [WA SYNC] Chat update cho hội thoại chưa biết, bỏ qua")
		return nil
	}

	set := s.chatUpdateSet(ev, chatKey, activeKey)
	if len(set) == 0 {
		return nil
	}
	filter := bson.M{"ownerOrganizationId": orgID, "chatKey": chatKey}
	if _, err := s.chatService.UpdateOne(ctx, filter, bson.M{"$set": set}, nil); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logSyncWriteFailure(orgID, chatKey, "cập nhật metadata bền", err)
		}
	}
	return nil
}

// chatUpdateSet dựng $set bền cho một chat update với CÙNG guard của memory:
// displayName placeholder bị lọc, unreadCount không áp lên selection đang mở.
// Nếu hai lớp lệch nhau, snapshot kế tiếp sẽ hồi sinh unread > 0 trên chính
// hội thoại operator đang mở.
func (s *WaSyncService) chatUpdateSet(ev ChatUpdateEvent, chatKey string, activeKey string) bson.M {
	set := bson.M{}
	if ev.DisplayName != nil && !s.identity.IsPlaceholderName(*ev.DisplayName, chatKey) {
		set["displayName"] = *ev.DisplayName
	}
	if ev.AvatarRef != nil && *ev.AvatarRef != "" {
		set["avatarRef"] = *ev.AvatarRef
	}
	if ev.UnreadCount != nil && activeKey != chatKey {
		set["unreadCount"] = *ev.UnreadCount
	}
	return set
}

// ApplyReceiptEvent áp receipt trạng thái gửi của gateway lên một message outbound:
// memory trước, store bền theo sau. Receipt cho message chưa biết là no-op —
// snapshot kế tiếp sẽ mang message về cùng trạng thái mới nhất.
func (s *WaSyncService) ApplyReceiptEvent(ctx context.Context, orgID primitive.ObjectID, ev ReceiptEvent) error {
	if ev.MessageId == "" || ev.ChatKey == "" {
		return common.ErrInvalidInput
	}
	switch ev.Status {
	case wamodels.DeliverySent, wamodels.DeliveryDelivered, wamodels.DeliveryRead, wamodels.DeliveryError:
	default:
		return common.ErrInvalidInput
	}

	chatKey := s.identity.Normalize(ev.ChatKey)
	if chatKey == "" {
		return common.ErrInvalidInput
	}

	if !s.store.MarkDeliveryStatus(orgID, chatKey, ev.MessageId, ev.Status) {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"chatKey":        chatKey,
			"messageId":      ev.MessageId,
			"organizationId": orgID.Hex(),
		}).Debug("🔄 [WA SYNC] Receipt cho message chưa biết, bỏ qua")
	}

	if err := s.messageService.UpdateDeliveryStatus(ctx, orgID, ev.MessageId, ev.Status); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logSyncWriteFailure(orgID, chatKey, "cập nhật deliveryStatus bền", err)
		}
	}
	return nil
}

// SelectConversation mở một hội thoại trên console: set selection,
// reset unread về 0 (memory + bền) và trả về bản sao đầy đủ của thread.
func (s *WaSyncService) SelectConversation(ctx context.Context, orgID primitive.ObjectID, chatKey string) (ConversationView, error) {
	view, ok := s.store.Select(orgID, chatKey)
	if !ok {
		return ConversationView{}, common.ErrNotFound
	}

	if err := s.chatService.ResetUnread(ctx, orgID, chatKey); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logSyncWriteFailure(orgID, chatKey, "reset unread bền", err)
		}
	}
	return view, nil
}

// RequestPrioritySync đánh dấu hội thoại cần resync ưu tiên (worker xử lý).
func (s *WaSyncService) RequestPrioritySync(ctx context.Context, orgID primitive.ObjectID, chatKey string) error {
	return s.chatService.MarkPrioritySync(ctx, orgID, chatKey)
}

// resolveDisplayName chọn tên hiển thị cho hội thoại mới:
// tên gateway báo (nếu không phải placeholder) -> tra CRM -> format số điện thoại.
func (s *WaSyncService) resolveDisplayName(ctx context.Context, orgID primitive.ObjectID, chatKey string, rawName string) string {
	if !s.identity.IsPlaceholderName(rawName, chatKey) {
		return rawName
	}
	names := s.lookupNames(ctx, orgID, []string{chatKey})
	if name, ok := names[chatKey]; ok && name != "" {
		return name
	}
	return s.identity.FormatPhone(chatKey)
}

// lookupNames tra tên khách theo lô qua CRM. Lỗi tra cứu không chặn đồng bộ.
func (s *WaSyncService) lookupNames(ctx context.Context, orgID primitive.ObjectID, keys []string) map[string]string {
	if s.directory == nil || len(keys) == 0 {
		return map[string]string{}
	}
	names, err := s.directory.LookupNamesByNormalizedPhones(ctx, orgID, keys)
	if err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"organizationId": orgID.Hex(),
			"keys":           len(keys),
			"error":          err.Error(),
		}).Warn("⚠️ [WA SYNC] Tra tên CRM thất bại, dùng số điện thoại format")
		return map[string]string{}
	}
	return names
}

func (s *WaSyncService) logSyncWriteFailure(orgID primitive.ObjectID, chatKey string, op string, err error) {
	logger.GetErrorLogger().WithFields(map[string]interface{}{
		"chatKey":        chatKey,
		"organizationId": orgID.Hex(),
		"operation":      op,
		"error":          err.Error(),
	}).Error("❌ [WA SYNC] Ghi bền thất bại, store memory vẫn đúng — resync sẽ hòa giải")
}
