package wasvc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	wamodels "sistema_restaurante/internal/api/wa/models"
)

// OrderSession phiên chốt đơn đang chạy của một hội thoại.
// Ephemeral — sống trong memory, tối đa một phiên cho mỗi (tổ chức, chatKey).
type OrderSession struct {
	Stage            string               // Giai đoạn hiện tại (xem models.OrderStage*)
	Items            []wamodels.WaOrderItem // Món theo thứ tự nhập — trùng tên vẫn append, không gộp
	Fulfillment      string               // delivery | retirada
	Address          string               // Địa chỉ giao (chỉ delivery)
	PaymentMethod    string               // Hình thức thanh toán khách gõ
	AwaitingAddress  bool                 // Sub-step: đã chọn delivery, đang chờ địa chỉ
}

// WizardResult kết quả của một bước transition.
type WizardResult struct {
	Session   *OrderSession          // Phiên sau transition — nil nghĩa là phiên kết thúc/không tồn tại
	Reply     string                 // Nội dung trả lời gửi cho khách (rỗng nếu không có)
	Completed *wamodels.WaOrderDraft // Khác nil khi khách xác nhận — đơn sẵn sàng bàn giao
	Handled   bool                   // Input đã được wizard tiêu thụ (không gửi verbatim)
}

// itemPattern bắt cú pháp "<tên món> x <số lượng>".
var itemPattern = regexp.MustCompile(`^(.+?)\s*[xX]\s*(\d+)\s*$`)

// Các trigger so khớp substring, không phân biệt hoa thường.
func matchesOrderIntent(input string) bool {
	return strings.Contains(input, "fazer pedido") ||
		strings.Contains(input, "novo pedido") ||
		strings.Contains(input, "quero pedir")
}

func matchesFinalize(input string) bool {
	return strings.Contains(input, "finalizar")
}

func matchesDelivery(input string) bool {
	return strings.Contains(input, "delivery") || strings.Contains(input, "entrega")
}

func matchesPickup(input string) bool {
	return strings.Contains(input, "retirada") || strings.Contains(input, "retirar")
}

func matchesConfirm(input string) bool {
	return strings.Contains(input, "confirmar")
}

func matchesCancel(input string) bool {
	return strings.Contains(input, "cancelar")
}

// Transition là hàm chuyển trạng thái thuần của wizard: (phiên, input) -> (phiên mới, effects).
// Không I/O — caller chịu trách nhiệm gửi Reply và bàn giao Completed.
// Input không khớp trigger khi chưa có phiên trả về Handled=false (gửi verbatim như thường).
func Transition(session *OrderSession, input string) WizardResult {
	lowered := strings.ToLower(strings.TrimSpace(input))
	trimmed := strings.TrimSpace(input)

	// Chưa có phiên: chỉ trigger ý định đặt hàng mới tạo phiên
	if session == nil {
		if !matchesOrderIntent(lowered) {
			return WizardResult{Handled: false}
		}
		return WizardResult{
			Session: &OrderSession{Stage: wamodels.OrderStageCollectingItems},
			Reply:   "Pedido iniciado! Informe os itens no formato \"nome x quantidade\" (ex: Pizza Margherita x 2). Digite \"finalizar\" quando terminar.",
			Handled: true,
		}
	}

	// Hủy được chấp nhận ở mọi giai đoạn
	if matchesCancel(lowered) {
		return WizardResult{
			Session: nil,
			Reply:   "Pedido cancelado.",
			Handled: true,
		}
	}

	switch session.Stage {
	case wamodels.OrderStageCollectingItems:
		if matchesFinalize(lowered) {
			if len(session.Items) == 0 {
				// Guard: không cho finalizar với giỏ rỗng, giữ nguyên giai đoạn
				return WizardResult{
					Session: session,
					Reply:   "Adicione pelo menos um item antes de finalizar (ex: Pizza Margherita x 2).",
					Handled: true,
				}
			}
			next := *session
			next.Stage = wamodels.OrderStageCollectingFulfillment
			return WizardResult{
				Session: &next,
				Reply:   "Como deseja receber o pedido? Digite \"delivery\" ou \"retirada\".",
				Handled: true,
			}
		}

		if m := itemPattern.FindStringSubmatch(trimmed); m != nil {
			qty, err := strconv.ParseInt(m[2], 10, 64)
			if err == nil && qty > 0 {
				next := *session
				next.Items = append(append([]wamodels.WaOrderItem{}, session.Items...), wamodels.WaOrderItem{
					Name:     strings.TrimSpace(m[1]),
					Quantity: qty,
				})
				return WizardResult{
					Session: &next,
					Reply:   fmt.Sprintf("Item adicionado: %s x%d. Informe o próximo item ou digite \"finalizar\".", strings.TrimSpace(m[1]), qty),
					Handled: true,
				}
			}
		}

		// Input không parse được: nhắc lại, không đổi trạng thái
		return WizardResult{
			Session: session,
			Reply:   "Não entendi. Informe o item no formato \"nome x quantidade\" (ex: Pizza Margherita x 2) ou digite \"finalizar\".",
			Handled: true,
		}

	case wamodels.OrderStageCollectingFulfillment:
		if session.AwaitingAddress {
			// Đã chọn delivery — input là địa chỉ
			if trimmed == "" {
				return WizardResult{
					Session: session,
					Reply:   "Qual o endereço de entrega?",
					Handled: true,
				}
			}
			next := *session
			next.Address = trimmed
			next.AwaitingAddress = false
			next.Stage = wamodels.OrderStageCollectingPayment
			return WizardResult{
				Session: &next,
				Reply:   "Qual a forma de pagamento? (pix, cartão, dinheiro)",
				Handled: true,
			}
		}

		if matchesDelivery(lowered) {
			next := *session
			next.Fulfillment = wamodels.FulfillmentDelivery
			next.AwaitingAddress = true
			return WizardResult{
				Session: &next,
				Reply:   "Qual o endereço de entrega?",
				Handled: true,
			}
		}

		if matchesPickup(lowered) {
			next := *session
			next.Fulfillment = wamodels.FulfillmentPickup
			next.Stage = wamodels.OrderStageCollectingPayment
			return WizardResult{
				Session: &next,
				Reply:   "Qual a forma de pagamento? (pix, cartão, dinheiro)",
				Handled: true,
			}
		}

		return WizardResult{
			Session: session,
			Reply:   "Como deseja receber o pedido? Digite \"delivery\" ou \"retirada\".",
			Handled: true,
		}

	case wamodels.OrderStageCollectingPayment:
		if trimmed == "" {
			return WizardResult{
				Session: session,
				Reply:   "Qual a forma de pagamento? (pix, cartão, dinheiro)",
				Handled: true,
			}
		}
		next := *session
		next.PaymentMethod = trimmed
		next.Stage = wamodels.OrderStageConfirming
		return WizardResult{
			Session: &next,
			Reply:   buildOrderSummary(&next) + "\n\nDigite \"confirmar\" para concluir ou \"cancelar\" para desistir.",
			Handled: true,
		}

	case wamodels.OrderStageConfirming:
		if matchesConfirm(lowered) {
			draft := &wamodels.WaOrderDraft{
				Items:         append([]wamodels.WaOrderItem{}, session.Items...),
				Fulfillment:   session.Fulfillment,
				Address:       session.Address,
				PaymentMethod: session.PaymentMethod,
				Stage:         wamodels.OrderStageDone,
				Summary:       buildOrderSummary(session),
			}
			return WizardResult{
				Session:   nil,
				Reply:     "Pedido confirmado! 🎉 Em breve você receberá atualizações.",
				Completed: draft,
				Handled:   true,
			}
		}

		return WizardResult{
			Session: session,
			Reply:   "Digite \"confirmar\" para concluir ou \"cancelar\" para desistir.",
			Handled: true,
		}
	}

	// Giai đoạn không xác định — kết thúc phiên để không nuốt input vô hạn
	return WizardResult{Session: nil, Handled: false}
}

// buildOrderSummary tạo tóm tắt đơn gửi cho khách trước khi xác nhận.
func buildOrderSummary(session *OrderSession) string {
	var b strings.Builder
	b.WriteString("Resumo do pedido:")
	for _, item := range session.Items {
		b.WriteString(fmt.Sprintf("\n- %s x%d", item.Name, item.Quantity))
	}
	if session.Fulfillment == wamodels.FulfillmentDelivery {
		b.WriteString("\nEntrega: delivery — " + session.Address)
	} else {
		b.WriteString("\nRetirada no balcão: retirada")
	}
	b.WriteString("\nPagamento: " + session.PaymentMethod)
	return b.String()
}
