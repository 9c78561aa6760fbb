package wasvc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	wamodels "sistema_restaurante/internal/api/wa/models"
	"sistema_restaurante/internal/common"
	"sistema_restaurante/internal/logger"
)

// sessionKey khóa phiên chốt đơn theo (tổ chức, hội thoại).
type sessionKey struct {
	orgID   primitive.ObjectID
	chatKey string
}

// SendResult kết quả của một lần gửi qua pipeline.
type SendResult struct {
	Message       wamodels.WaMessageItem // Message đã append (input verbatim, hoặc reply của wizard)
	WizardHandled bool                   // Input bị wizard tiêu thụ, không gửi verbatim
}

// WaSendService là Send Pipeline: wizard intercept -> sanitize -> append lạc quan ->
// gửi gateway -> persist bền. Giữ registry phiên chốt đơn (tối đa một phiên
// cho mỗi hội thoại) và hủy phiên khi AI của hội thoại bị tạm dừng.
type WaSendService struct {
	identity       *WaIdentityService
	store          *WaStoreService
	pause          *WaPauseService
	chatService    *WaChatService
	messageService *WaMessageService
	gateway        TextGateway
	intake         OrderIntake

	mu       sync.Mutex
	sessions map[sessionKey]*OrderSession
}

// NewWaSendService tạo mới WaSendService và đăng ký hook hủy phiên khi tạm dừng AI.
func NewWaSendService(
	identity *WaIdentityService,
	store *WaStoreService,
	pause *WaPauseService,
	chatService *WaChatService,
	messageService *WaMessageService,
	gateway TextGateway,
	intake OrderIntake,
) *WaSendService {
	s := &WaSendService{
		identity:       identity,
		store:          store,
		pause:          pause,
		chatService:    chatService,
		messageService: messageService,
		gateway:        gateway,
		intake:         intake,
		sessions:       make(map[sessionKey]*OrderSession),
	}
	if pause != nil {
		pause.OnPaused(s.CancelSession)
	}
	return s
}

// Send đẩy một message văn bản vào pipeline của hội thoại.
// Nếu AI không tạm dừng và input khớp wizard (có phiên đang chạy hoặc trigger
// ý định đặt hàng), wizard tiêu thụ input và reply của wizard được gửi thay;
// ngược lại input được sanitize và gửi verbatim.
// Lỗi duy nhất nổi lên là ErrWaGatewaySend — message vẫn nằm trong store với
// trạng thái error để operator gửi lại.
func (s *WaSendService) Send(ctx context.Context, orgID primitive.ObjectID, chatKey string, body string, senderName string) (SendResult, error) {
	if chatKey == "" || body == "" {
		return SendResult{}, common.ErrInvalidInput
	}

	if !s.pause.Resolve(ctx, orgID, chatKey) {
		if result, handled := s.advanceWizard(ctx, orgID, chatKey, body); handled {
			return result, nil
		}
	}

	msg, err := s.deliver(ctx, orgID, chatKey, s.identity.Sanitize(body), senderName)
	return SendResult{Message: msg}, err
}

// advanceWizard chạy một bước wizard cho input. Trả về handled=false khi
// input không thuộc về wizard (chưa có phiên và không khớp trigger).
func (s *WaSendService) advanceWizard(ctx context.Context, orgID primitive.ObjectID, chatKey string, input string) (SendResult, bool) {
	key := sessionKey{orgID: orgID, chatKey: chatKey}

	s.mu.Lock()
	result := Transition(s.sessions[key], input)
	if !result.Handled {
		s.mu.Unlock()
		return SendResult{}, false
	}
	if result.Session != nil {
		s.sessions[key] = result.Session
	} else {
		delete(s.sessions, key)
	}
	s.mu.Unlock()

	if result.Completed != nil {
		draft := *result.Completed
		draft.ChatKey = chatKey
		draft.OwnerOrganizationID = orgID
		if err := s.intake.SubmitDraft(ctx, draft); err != nil {
			// Đơn mất là sự cố nghiêm trọng nhưng reply cho khách vẫn phải đi —
			// tóm tắt đơn đã nằm trong timeline để dựng lại thủ công
			logger.GetErrorLogger().WithFields(map[string]interface{}{
				"chatKey":        chatKey,
				"organizationId": orgID.Hex(),
				"error":          err.Error(),
			}).Error("❌ [WA ORDER] Bàn giao đơn nháp thất bại")
		}
	}

	out := SendResult{WizardHandled: true}
	if result.Reply != "" {
		msg, err := s.deliver(ctx, orgID, chatKey, result.Reply, "")
		if err != nil {
			logger.GetErrorLogger().WithFields(map[string]interface{}{
				"chatKey":        chatKey,
				"organizationId": orgID.Hex(),
				"error":          err.Error(),
			}).Error("❌ [WA WIZARD] Gửi reply của wizard thất bại")
		}
		out.Message = msg
	}
	return out, true
}

// deliver thực hiện phần chung của pipeline: append lạc quan với UUID cục bộ,
// gửi qua gateway, cập nhật trạng thái rồi persist bền.
// Gateway thất bại -> trạng thái error + ErrWaGatewaySend.
// Persist bền thất bại SAU khi gateway nhận -> chỉ log, message đã đi rồi.
func (s *WaSendService) deliver(ctx context.Context, orgID primitive.ObjectID, chatKey string, body string, senderName string) (wamodels.WaMessageItem, error) {
	now := time.Now().UnixMilli()
	msg := wamodels.WaMessageItem{
		MessageId:           uuid.NewString(),
		ChatKey:             chatKey,
		Body:                body,
		Timestamp:           now,
		Direction:           wamodels.DirectionOutbound,
		DeliveryStatus:      wamodels.DeliveryPending,
		Kind:                wamodels.KindText,
		SenderName:          senderName,
		OwnerOrganizationID: orgID,
	}

	// Gửi cho hội thoại chưa có trong store (hiếm — console luôn select trước)
	if _, ok := s.store.GetChat(orgID, chatKey); !ok {
		s.store.UpsertChat(orgID, wamodels.WaChat{
			ChatKey:             chatKey,
			DisplayName:         s.identity.FormatPhone(chatKey),
			OwnerOrganizationID: orgID,
		})
	}
	s.store.AppendMessage(orgID, chatKey, msg)

	if err := s.gateway.SendText(ctx, s.identity.DialKey(chatKey), body); err != nil {
		msg.DeliveryStatus = wamodels.DeliveryError
		s.store.MarkDeliveryStatus(orgID, chatKey, msg.MessageId, wamodels.DeliveryError)
		s.persistOutbound(ctx, orgID, chatKey, msg)
		logger.GetErrorLogger().WithFields(map[string]interface{}{
			"chatKey":        chatKey,
			"organizationId": orgID.Hex(),
			"messageId":      msg.MessageId,
			"error":          err.Error(),
		}).Error("❌ [WA SEND] Gateway từ chối message")
		return msg, common.ErrWaGatewaySend
	}

	msg.DeliveryStatus = wamodels.DeliverySent
	s.store.MarkDeliveryStatus(orgID, chatKey, msg.MessageId, wamodels.DeliverySent)
	s.persistOutbound(ctx, orgID, chatKey, msg)

	logger.GetAuditLogger().WithFields(map[string]interface{}{
		"chatKey":        chatKey,
		"organizationId": orgID.Hex(),
		"messageId":      msg.MessageId,
	}).Info("📤 [WA SEND] Message đã gửi qua gateway")
	return msg, nil
}

// persistOutbound ghi message outbound và preview hội thoại vào store bền.
// Thất bại chỉ log — store memory đã đúng, resync sẽ hòa giải.
func (s *WaSendService) persistOutbound(ctx context.Context, orgID primitive.ObjectID, chatKey string, msg wamodels.WaMessageItem) {
	if _, err := s.messageService.InsertIfAbsent(ctx, msg); err != nil {
		logger.GetErrorLogger().WithFields(map[string]interface{}{
			"chatKey":        chatKey,
			"organizationId": orgID.Hex(),
			"messageId":      msg.MessageId,
			"error":          err.Error(),
		}).Error("❌ [WA SEND] Persist message outbound thất bại")
	}
	set := bson.M{
		"lastMessagePreview": previewOf(msg.Body),
		"lastActivityAt":     msg.Timestamp,
	}
	if _, err := s.chatService.UpsertByChatKey(ctx, orgID, chatKey, set); err != nil {
		logger.GetErrorLogger().WithFields(map[string]interface{}{
			"chatKey":        chatKey,
			"organizationId": orgID.Hex(),
			"error":          err.Error(),
		}).Error("❌ [WA SEND] Cập nhật preview hội thoại thất bại")
	}
}

// CancelSession hủy phiên chốt đơn đang chạy của hội thoại (nếu có).
func (s *WaSendService) CancelSession(orgID primitive.ObjectID, chatKey string) {
	key := sessionKey{orgID: orgID, chatKey: chatKey}

	s.mu.Lock()
	_, existed := s.sessions[key]
	delete(s.sessions, key)
	s.mu.Unlock()

	if existed {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"chatKey":        chatKey,
			"organizationId": orgID.Hex(),
		}).Info("🛑 [WA WIZARD] Phiên chốt đơn bị hủy")
	}
}

// HasSession kiểm tra hội thoại có phiên chốt đơn đang chạy không.
func (s *WaSendService) HasSession(orgID primitive.ObjectID, chatKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionKey{orgID: orgID, chatKey: chatKey}]
	return ok
}
