// Package wasvc chứa logic đồng bộ hội thoại WhatsApp, chốt đơn qua chat và gửi tin nhắn.
package wasvc

import (
	"strings"
)

// Các suffix định danh của gateway WhatsApp cần loại bỏ trước khi chuẩn hóa.
var channelSuffixes = []string{
	"@c.us",
	"@s.whatsapp.net",
	"@g.us",
	"@lid",
	"@broadcast",
}

// Các prefix rác bị bot cũ chèn vào đầu message — loại bỏ khi ingest.
// Danh sách cố định, so khớp prefix từng dòng đầu.
var injectedPrefixes = []string{
	"🤖 *Assistente Virtual:*",
	"🤖 Assistente:",
	"*Assistente Virtual:*",
	"[Assistente]",
	"Assistente Virtual:",
}

// WaIdentityService chuẩn hóa định danh liên lạc và làm sạch nội dung message.
// Toàn bộ method là hàm thuần — không I/O, không panic, input rỗng trả về rỗng.
type WaIdentityService struct {
	countryCode string
}

// NewWaIdentityService tạo mới WaIdentityService.
// countryCode rỗng sẽ dùng mặc định "55" (Brazil).
func NewWaIdentityService(countryCode string) *WaIdentityService {
	if countryCode == "" {
		countryCode = "55"
	}
	return &WaIdentityService{countryCode: countryCode}
}

// Normalize chuẩn hóa định danh thô từ gateway thành khóa so sánh.
// Quy tắc: bỏ suffix kênh, giữ lại chữ số, bỏ mã quốc gia ở đầu nếu phần còn lại
// có độ dài hợp lệ của số nội địa (10 hoặc 11 chữ số với Brazil).
// Hai định danh chuẩn hóa bằng nhau khi và chỉ khi cùng trỏ về một liên hệ.
func (s *WaIdentityService) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	for _, suffix := range channelSuffixes {
		raw = strings.TrimSuffix(raw, suffix)
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	// Bỏ mã quốc gia ở đầu nếu phần còn lại là số nội địa hợp lệ
	if strings.HasPrefix(digits, s.countryCode) {
		rest := digits[len(s.countryCode):]
		if len(rest) == 10 || len(rest) == 11 {
			return rest
		}
	}

	return digits
}

// DialKey tạo địa chỉ gửi đi từ khóa chuẩn hóa — gắn lại mã quốc gia một cách xác định.
func (s *WaIdentityService) DialKey(key string) string {
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, s.countryCode) && len(key) > 11 {
		// Đã có mã quốc gia
		return key
	}
	return s.countryCode + key
}

// FormatPhone định dạng khóa chuẩn hóa thành số điện thoại hiển thị.
// 11 chữ số: (DD) NNNNN-NNNN. 10 chữ số: (DD) NNNN-NNNN. Còn lại giữ nguyên.
func (s *WaIdentityService) FormatPhone(key string) string {
	switch len(key) {
	case 11:
		return "(" + key[0:2] + ") " + key[2:7] + "-" + key[7:]
	case 10:
		return "(" + key[0:2] + ") " + key[2:6] + "-" + key[6:]
	default:
		return key
	}
}

// IsPlaceholderName kiểm tra tên liên hệ có phải placeholder không (rỗng,
// trùng khóa, hoặc chỉ là số điện thoại được format lại).
// Tên placeholder không được dùng làm displayName — phải tra CRM hoặc format số.
func (s *WaIdentityService) IsPlaceholderName(name string, key string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == "Contato" {
		return true
	}
	if name == key {
		return true
	}

	// Tên chỉ chứa chữ số và ký tự định dạng số điện thoại → placeholder
	digits := 0
	for _, r := range name {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' || r == '.':
			// Ký tự định dạng, bỏ qua
		default:
			return false
		}
	}
	return digits > 0
}

// Sanitize loại bỏ các prefix rác đã biết ở đầu message.
// Idempotent: sanitize(sanitize(x)) == sanitize(x).
// Không đụng tới phần còn lại của nội dung (URL, preview giữ nguyên từng byte).
func (s *WaIdentityService) Sanitize(body string) string {
	if body == "" {
		return ""
	}

	for {
		stripped := false
		for _, prefix := range injectedPrefixes {
			if strings.HasPrefix(body, prefix) {
				body = strings.TrimLeft(body[len(prefix):], " \n")
				stripped = true
				break
			}
		}
		if !stripped {
			return body
		}
	}
}
