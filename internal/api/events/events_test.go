package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type orgDoc struct {
	OwnerOrganizationID primitive.ObjectID
}

type plainDoc struct {
	Name string
}

func TestEmitDataChanged_DeliversToAllHandlers(t *testing.T) {
	got := make(chan DataChangeEvent, 2)
	OnDataChanged(func(_ context.Context, e DataChangeEvent) { got <- e })
	OnDataChanged(func(_ context.Context, e DataChangeEvent) { got <- e })

	EmitDataChanged(context.Background(), DataChangeEvent{
		CollectionName: "crm_customers",
		Operation:      OpInsert,
	})

	for i := 0; i < 2; i++ {
		select {
		case e := <-got:
			assert.Equal(t, "crm_customers", e.CollectionName)
			assert.Equal(t, OpInsert, e.Operation)
		case <-time.After(2 * time.Second):
			t.Fatal("handler không nhận được event")
		}
	}
}

func TestEmitDataChanged_PanicInOneHandlerDoesNotBlockOthers(t *testing.T) {
	got := make(chan struct{}, 1)
	OnDataChanged(func(_ context.Context, _ DataChangeEvent) { panic("boom") })
	OnDataChanged(func(_ context.Context, _ DataChangeEvent) { got <- struct{}{} })

	EmitDataChanged(context.Background(), DataChangeEvent{Operation: OpUpdate})

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("handler sau handler panic không được gọi")
	}
}

func TestGetOwnerOrganizationIDFromDocument(t *testing.T) {
	orgID := primitive.NewObjectID()

	require.Equal(t, orgID, GetOwnerOrganizationIDFromDocument(orgDoc{OwnerOrganizationID: orgID}))
	require.Equal(t, orgID, GetOwnerOrganizationIDFromDocument(&orgDoc{OwnerOrganizationID: orgID}))

	assert.Equal(t, primitive.NilObjectID, GetOwnerOrganizationIDFromDocument(nil))
	assert.Equal(t, primitive.NilObjectID, GetOwnerOrganizationIDFromDocument((*orgDoc)(nil)))
	assert.Equal(t, primitive.NilObjectID, GetOwnerOrganizationIDFromDocument(plainDoc{Name: "x"}))
	assert.Equal(t, primitive.NilObjectID, GetOwnerOrganizationIDFromDocument("chuỗi"))
}
