package wasvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wamodels "sistema_restaurante/internal/api/wa/models"
)

func TestTransition_NoSessionIgnoresNonTrigger(t *testing.T) {
	res := Transition(nil, "qual o horário de funcionamento?")
	assert.False(t, res.Handled)
	assert.Nil(t, res.Session)
	assert.Nil(t, res.Completed)
}

func TestTransition_OrderIntentStartsSession(t *testing.T) {
	res := Transition(nil, "Quero FAZER PEDIDO agora")
	require.True(t, res.Handled)
	require.NotNil(t, res.Session)
	assert.Equal(t, wamodels.OrderStageCollectingItems, res.Session.Stage)
	assert.NotEmpty(t, res.Reply)
}

func TestTransition_FullDeliveryFlow(t *testing.T) {
	res := Transition(nil, "fazer pedido")
	require.NotNil(t, res.Session)

	res = Transition(res.Session, "Pizza Margherita x 2")
	require.NotNil(t, res.Session)
	require.Len(t, res.Session.Items, 1)
	assert.Equal(t, "Pizza Margherita", res.Session.Items[0].Name)
	assert.Equal(t, int64(2), res.Session.Items[0].Quantity)
	assert.Contains(t, res.Reply, "Pizza Margherita x2")

	res = Transition(res.Session, "Coca-Cola X 1")
	require.NotNil(t, res.Session)
	require.Len(t, res.Session.Items, 2)

	res = Transition(res.Session, "finalizar")
	require.NotNil(t, res.Session)
	assert.Equal(t, wamodels.OrderStageCollectingFulfillment, res.Session.Stage)

	res = Transition(res.Session, "delivery")
	require.NotNil(t, res.Session)
	assert.Equal(t, wamodels.FulfillmentDelivery, res.Session.Fulfillment)
	assert.True(t, res.Session.AwaitingAddress)
	assert.Contains(t, res.Reply, "endereço")

	res = Transition(res.Session, "Rua A, 123")
	require.NotNil(t, res.Session)
	assert.Equal(t, "Rua A, 123", res.Session.Address)
	assert.Equal(t, wamodels.OrderStageCollectingPayment, res.Session.Stage)

	res = Transition(res.Session, "pix")
	require.NotNil(t, res.Session)
	assert.Equal(t, wamodels.OrderStageConfirming, res.Session.Stage)
	assert.Contains(t, res.Reply, "Pizza Margherita x2")
	assert.Contains(t, res.Reply, "Rua A, 123")
	assert.Contains(t, res.Reply, "pix")

	res = Transition(res.Session, "confirmar")
	assert.Nil(t, res.Session)
	require.NotNil(t, res.Completed)
	assert.Len(t, res.Completed.Items, 2)
	assert.Equal(t, wamodels.FulfillmentDelivery, res.Completed.Fulfillment)
	assert.Equal(t, "Rua A, 123", res.Completed.Address)
	assert.Equal(t, "pix", res.Completed.PaymentMethod)
	assert.Equal(t, wamodels.OrderStageDone, res.Completed.Stage)
	assert.Contains(t, res.Completed.Summary, "Pizza Margherita x2")
	assert.Contains(t, res.Completed.Summary, "delivery")
}

func TestTransition_PickupSkipsAddress(t *testing.T) {
	session := &OrderSession{
		Stage: wamodels.OrderStageCollectingFulfillment,
		Items: []wamodels.WaOrderItem{{Name: "Esfiha", Quantity: 3}},
	}

	res := Transition(session, "retirada")
	require.NotNil(t, res.Session)
	assert.Equal(t, wamodels.FulfillmentPickup, res.Session.Fulfillment)
	assert.Equal(t, wamodels.OrderStageCollectingPayment, res.Session.Stage)
	assert.False(t, res.Session.AwaitingAddress)
	assert.Empty(t, res.Session.Address)
}

func TestTransition_FinalizeWithEmptyCartKeepsStage(t *testing.T) {
	session := &OrderSession{Stage: wamodels.OrderStageCollectingItems}

	res := Transition(session, "finalizar")
	require.True(t, res.Handled)
	require.NotNil(t, res.Session)
	assert.Equal(t, wamodels.OrderStageCollectingItems, res.Session.Stage)
	assert.Empty(t, res.Session.Items)
	assert.Contains(t, res.Reply, "pelo menos um item")
}

func TestTransition_UnparsableInputReprompts(t *testing.T) {
	session := &OrderSession{Stage: wamodels.OrderStageCollectingItems}

	res := Transition(session, "hmm não sei")
	require.True(t, res.Handled)
	require.NotNil(t, res.Session)
	assert.Equal(t, wamodels.OrderStageCollectingItems, res.Session.Stage)
	assert.Contains(t, res.Reply, "Não entendi")
}

func TestTransition_CancelAtAnyStage(t *testing.T) {
	stages := []*OrderSession{
		{Stage: wamodels.OrderStageCollectingItems},
		{Stage: wamodels.OrderStageCollectingFulfillment},
		{Stage: wamodels.OrderStageCollectingPayment},
		{Stage: wamodels.OrderStageConfirming, Items: []wamodels.WaOrderItem{{Name: "Pizza", Quantity: 1}}},
	}

	for _, session := range stages {
		res := Transition(session, "quero cancelar")
		assert.True(t, res.Handled)
		assert.Nil(t, res.Session, "phiên ở stage %s phải kết thúc khi cancelar", session.Stage)
		assert.Nil(t, res.Completed)
		assert.Equal(t, "Pedido cancelado.", res.Reply)
	}
}

func TestTransition_ConfirmingRequiresConfirm(t *testing.T) {
	session := &OrderSession{
		Stage:         wamodels.OrderStageConfirming,
		Items:         []wamodels.WaOrderItem{{Name: "Pizza", Quantity: 1}},
		Fulfillment:   wamodels.FulfillmentPickup,
		PaymentMethod: "dinheiro",
	}

	res := Transition(session, "talvez")
	require.True(t, res.Handled)
	require.NotNil(t, res.Session)
	assert.Equal(t, wamodels.OrderStageConfirming, res.Session.Stage)
	assert.Nil(t, res.Completed)
}

func TestTransition_DoesNotMutateInputSession(t *testing.T) {
	session := &OrderSession{Stage: wamodels.OrderStageCollectingItems}

	res := Transition(session, "Pizza x 1")
	require.NotNil(t, res.Session)
	assert.Len(t, res.Session.Items, 1)
	// Phiên đầu vào không bị mutate — transition trả về bản mới
	assert.Empty(t, session.Items)
}
