package wasvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_EquivalentIdentities(t *testing.T) {
	s := NewWaIdentityService("55")

	// Ba dạng định danh của cùng một liên hệ phải chuẩn hóa về cùng một khóa
	assert.Equal(t, "11999998888", s.Normalize("+5511999998888"))
	assert.Equal(t, "11999998888", s.Normalize("11999998888@c.us"))
	assert.Equal(t, "11999998888", s.Normalize("5511999998888@s.whatsapp.net"))
}

func TestNormalize_Landline10Digits(t *testing.T) {
	s := NewWaIdentityService("55")
	assert.Equal(t, "1133334444", s.Normalize("551133334444"))
	assert.Equal(t, "1133334444", s.Normalize("1133334444@c.us"))
}

func TestNormalize_KeepsCountryCodeWhenRestInvalid(t *testing.T) {
	s := NewWaIdentityService("55")
	// Phần còn lại sau mã quốc gia không phải số nội địa hợp lệ → giữ nguyên chữ số
	assert.Equal(t, "5555", s.Normalize("5555"))
}

func TestNormalize_Empty(t *testing.T) {
	s := NewWaIdentityService("55")
	assert.Equal(t, "", s.Normalize(""))
}

func TestDialKey(t *testing.T) {
	s := NewWaIdentityService("55")

	assert.Equal(t, "5511999998888", s.DialKey("11999998888"))
	// Khóa đã mang mã quốc gia không được gắn thêm lần nữa
	assert.Equal(t, "5511999998888", s.DialKey("5511999998888"))
	assert.Equal(t, "", s.DialKey(""))
}

func TestFormatPhone(t *testing.T) {
	s := NewWaIdentityService("55")

	assert.Equal(t, "(11) 99999-8888", s.FormatPhone("11999998888"))
	assert.Equal(t, "(11) 3333-4444", s.FormatPhone("1133334444"))
	assert.Equal(t, "123", s.FormatPhone("123"))
}

func TestIsPlaceholderName(t *testing.T) {
	s := NewWaIdentityService("55")

	assert.True(t, s.IsPlaceholderName("", "11999998888"))
	assert.True(t, s.IsPlaceholderName("Contato", "11999998888"))
	assert.True(t, s.IsPlaceholderName("11999998888", "11999998888"))
	assert.True(t, s.IsPlaceholderName("(11) 99999-8888", "11999998888"))
	assert.True(t, s.IsPlaceholderName("+55 11 99999-8888", "11999998888"))

	assert.False(t, s.IsPlaceholderName("Maria Silva", "11999998888"))
	assert.False(t, s.IsPlaceholderName("Pizzaria 2 Irmãos", "11999998888"))
}

func TestSanitize_StripsInjectedPrefixes(t *testing.T) {
	s := NewWaIdentityService("55")

	assert.Equal(t, "Olá, seu pedido saiu para entrega", s.Sanitize("🤖 *Assistente Virtual:* Olá, seu pedido saiu para entrega"))
	assert.Equal(t, "oi", s.Sanitize("🤖 Assistente: [Assistente] oi"))
}

func TestSanitize_Idempotent(t *testing.T) {
	s := NewWaIdentityService("55")

	once := s.Sanitize("🤖 Assistente: bom dia")
	assert.Equal(t, once, s.Sanitize(once))
}

func TestSanitize_LeavesCleanBodyUntouched(t *testing.T) {
	s := NewWaIdentityService("55")

	// Nội dung không có prefix rác phải được giữ nguyên từng byte
	body := "Cardápio completo em https://exemplo.com/menu?x=1&y=2\n\nAssistente Virtual: citado no meio não conta"
	assert.Equal(t, body, s.Sanitize(body))
	assert.Equal(t, "", s.Sanitize(""))
}
