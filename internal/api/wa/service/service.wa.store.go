package wasvc

import (
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	wamodels "sistema_restaurante/internal/api/wa/models"
)

// ConversationView một hội thoại đầy đủ trong memory: chat + timeline message.
type ConversationView struct {
	Chat     wamodels.WaChat
	Messages []wamodels.WaMessageItem
}

// conversationState trạng thái nội bộ của một hội thoại trong store.
type conversationState struct {
	chat     wamodels.WaChat
	messages []wamodels.WaMessageItem
	seen     map[string]int // messageId -> index trong messages (dedup + cập nhật status)
}

// orgStore toàn bộ hội thoại của một tổ chức.
type orgStore struct {
	chats        map[string]*conversationState // theo chatKey
	activeKey    string                        // hội thoại đang mở trên console
	activeThread []wamodels.WaMessageItem      // bản sao timeline của hội thoại đang mở
}

// WaStoreService là Conversation Store trong memory — nguồn sự thật duy nhất cho console.
// Chỉ Reconciliation Engine (WaSyncService) và Send Pipeline (WaSendService) được mutate,
// luôn qua các thao tác nguyên tử dưới một lock — list và thread đang mở không bao giờ lệch nhau.
type WaStoreService struct {
	mu   sync.RWMutex
	orgs map[primitive.ObjectID]*orgStore
}

// NewWaStoreService tạo mới WaStoreService.
func NewWaStoreService() *WaStoreService {
	return &WaStoreService{
		orgs: make(map[primitive.ObjectID]*orgStore),
	}
}

func (s *WaStoreService) orgLocked(orgID primitive.ObjectID) *orgStore {
	o, ok := s.orgs[orgID]
	if !ok {
		o = &orgStore{chats: make(map[string]*conversationState)}
		s.orgs[orgID] = o
	}
	return o
}

func newConversationState(chat wamodels.WaChat, messages []wamodels.WaMessageItem) *conversationState {
	st := &conversationState{
		chat: chat,
		seen: make(map[string]int, len(messages)),
	}
	for _, m := range messages {
		if _, dup := st.seen[m.MessageId]; dup {
			continue
		}
		st.seen[m.MessageId] = len(st.messages)
		st.messages = append(st.messages, m)
	}
	return st
}

// ReplaceAll thay toàn bộ hội thoại của tổ chức bằng snapshot mới — một thao tác nguyên tử,
// reader không bao giờ thấy trạng thái nửa vời giữa chừng.
// Hội thoại đang mở được giữ nguyên selection và mirror lại thread từ snapshot.
func (s *WaStoreService) ReplaceAll(orgID primitive.ObjectID, conversations []ConversationView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.orgLocked(orgID)
	fresh := make(map[string]*conversationState, len(conversations))
	for _, cv := range conversations {
		fresh[cv.Chat.ChatKey] = newConversationState(cv.Chat, cv.Messages)
	}
	o.chats = fresh

	// Mirror lại thread đang mở từ snapshot mới
	if o.activeKey != "" {
		if st, ok := o.chats[o.activeKey]; ok {
			o.activeThread = append([]wamodels.WaMessageItem{}, st.messages...)
		} else {
			o.activeKey = ""
			o.activeThread = nil
		}
	}
}

// GetChat trả về bản sao chat theo chatKey.
func (s *WaStoreService) GetChat(orgID primitive.ObjectID, chatKey string) (wamodels.WaChat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orgs[orgID]
	if !ok {
		return wamodels.WaChat{}, false
	}
	st, ok := o.chats[chatKey]
	if !ok {
		return wamodels.WaChat{}, false
	}
	return st.chat, true
}

// UpsertChat thêm hoặc cập nhật metadata một hội thoại (không đụng tới timeline).
func (s *WaStoreService) UpsertChat(orgID primitive.ObjectID, chat wamodels.WaChat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.orgLocked(orgID)
	if st, ok := o.chats[chat.ChatKey]; ok {
		// AvatarRef đã resolve thì không ghi đè
		if chat.AvatarRef == "" {
			chat.AvatarRef = st.chat.AvatarRef
		}
		st.chat = chat
		return
	}
	o.chats[chat.ChatKey] = newConversationState(chat, nil)
}

// UpdateChatFields áp mutation lên một hội thoại ĐANG TỒN TẠI.
// Trả về false nếu hội thoại chưa có — caller quyết định tự tạo hay bỏ qua
// (chat-update event không bao giờ được tạo hội thoại mới).
func (s *WaStoreService) UpdateChatFields(orgID primitive.ObjectID, chatKey string, fn func(chat *wamodels.WaChat)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orgs[orgID]
	if !ok {
		return false
	}
	st, ok := o.chats[chatKey]
	if !ok {
		return false
	}
	fn(&st.chat)
	return true
}

// AppendMessage append một message vào timeline của hội thoại.
// Trả về false nếu messageId đã có (dedup invariant) hoặc hội thoại chưa tồn tại.
// Nếu hội thoại đang mở trên console, message cũng được append vào thread mirror
// trong CÙNG một lần giữ lock — hai bản sao không bao giờ lệch nhau.
func (s *WaStoreService) AppendMessage(orgID primitive.ObjectID, chatKey string, msg wamodels.WaMessageItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orgs[orgID]
	if !ok {
		return false
	}
	st, ok := o.chats[chatKey]
	if !ok {
		return false
	}

	if _, dup := st.seen[msg.MessageId]; dup {
		return false
	}
	st.seen[msg.MessageId] = len(st.messages)
	st.messages = append(st.messages, msg)

	// Denormalize cho danh sách hội thoại
	st.chat.LastMessagePreview = previewOf(msg.Body)
	if msg.Timestamp > st.chat.LastActivityAt {
		st.chat.LastActivityAt = msg.Timestamp
	}

	// Mirror vào thread đang mở — cùng một store update
	if o.activeKey == chatKey {
		o.activeThread = append(o.activeThread, msg)
	}
	return true
}

// MarkDeliveryStatus cập nhật trạng thái gửi của một message outbound (cả list lẫn thread mirror).
func (s *WaStoreService) MarkDeliveryStatus(orgID primitive.ObjectID, chatKey string, messageId string, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orgs[orgID]
	if !ok {
		return false
	}
	st, ok := o.chats[chatKey]
	if !ok {
		return false
	}
	idx, ok := st.seen[messageId]
	if !ok {
		return false
	}
	st.messages[idx].DeliveryStatus = status

	if o.activeKey == chatKey {
		for i := range o.activeThread {
			if o.activeThread[i].MessageId == messageId {
				o.activeThread[i].DeliveryStatus = status
				break
			}
		}
	}
	return true
}

// Select đặt hội thoại đang mở trên console.
// Reset unreadCount về 0 đúng tại thời điểm hội thoại trở thành selection —
// event sau đó cho hội thoại KHÁC không reset lại nữa.
func (s *WaStoreService) Select(orgID primitive.ObjectID, chatKey string) (ConversationView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.orgLocked(orgID)
	st, ok := o.chats[chatKey]
	if !ok {
		return ConversationView{}, false
	}

	o.activeKey = chatKey
	st.chat.UnreadCount = 0
	o.activeThread = append([]wamodels.WaMessageItem{}, st.messages...)

	return ConversationView{
		Chat:     st.chat,
		Messages: append([]wamodels.WaMessageItem{}, st.messages...),
	}, true
}

// ActiveKey trả về chatKey của hội thoại đang mở (rỗng nếu chưa chọn).
func (s *WaStoreService) ActiveKey(orgID primitive.ObjectID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orgs[orgID]
	if !ok {
		return ""
	}
	return o.activeKey
}

// ActiveThread trả về bản sao timeline của hội thoại đang mở.
func (s *WaStoreService) ActiveThread(orgID primitive.ObjectID) []wamodels.WaMessageItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orgs[orgID]
	if !ok {
		return nil
	}
	return append([]wamodels.WaMessageItem{}, o.activeThread...)
}

// ListChats trả về danh sách hội thoại sắp xếp theo lastActivityAt giảm dần.
func (s *WaStoreService) ListChats(orgID primitive.ObjectID) []wamodels.WaChat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orgs[orgID]
	if !ok {
		return []wamodels.WaChat{}
	}

	chats := make([]wamodels.WaChat, 0, len(o.chats))
	for _, st := range o.chats {
		chats = append(chats, st.chat)
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].LastActivityAt > chats[j].LastActivityAt
	})
	return chats
}

// GetMessages trả về bản sao timeline của một hội thoại bất kỳ.
func (s *WaStoreService) GetMessages(orgID primitive.ObjectID, chatKey string) []wamodels.WaMessageItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orgs[orgID]
	if !ok {
		return nil
	}
	st, ok := o.chats[chatKey]
	if !ok {
		return nil
	}
	return append([]wamodels.WaMessageItem{}, st.messages...)
}

// previewOf rút gọn nội dung message cho danh sách hội thoại.
func previewOf(body string) string {
	const maxPreview = 80
	runes := []rune(body)
	if len(runes) <= maxPreview {
		return body
	}
	return string(runes[:maxPreview]) + "…"
}
