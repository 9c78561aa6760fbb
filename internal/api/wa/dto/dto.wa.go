// Package dto - input/output cho các endpoint domain wa.
package dto

// WaChatKeyParam param URI xác định hội thoại.
type WaChatKeyParam struct {
	ChatKey string `uri:"chatKey" validate:"required"` // Số điện thoại (thô hoặc đã chuẩn hóa)
}

// WaSendMessageInput input gửi message từ console.
type WaSendMessageInput struct {
	Body string `json:"body" validate:"required"` // Nội dung văn bản
}

// WaSendMessageResponse kết quả gửi message.
type WaSendMessageResponse struct {
	Message       interface{} `json:"message"`       // Message đã append (verbatim hoặc reply của wizard)
	WizardHandled bool        `json:"wizardHandled"` // Input bị wizard tiêu thụ
}

// WaPauseStateResponse trạng thái tạm dừng AI của hội thoại.
type WaPauseStateResponse struct {
	ChatKey string `json:"chatKey"`
	Paused  bool   `json:"paused"`
}
