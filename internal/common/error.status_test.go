package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestErrorIs_MatchesByCodeAndMessage(t *testing.T) {
	assert.True(t, errors.Is(ErrWaGatewaySend, ErrWaGatewaySend))
	assert.False(t, errors.Is(ErrWaGatewaySend, ErrWaPauseWrite))

	// Wrap qua fmt.Errorf vẫn nhận diện được
	wrapped := fmt.Errorf("send pipeline: %w", ErrWaGatewaySend)
	assert.True(t, errors.Is(wrapped, ErrWaGatewaySend))
}

func TestConvertMongoError_NoDocuments(t *testing.T) {
	assert.True(t, errors.Is(ConvertMongoError(mongo.ErrNoDocuments), ErrNotFound))
}

func TestConvertMongoError_NilAndPassthrough(t *testing.T) {
	assert.Nil(t, ConvertMongoError(nil))
	// ErrNotFound đã là lỗi hệ thống — không convert thêm lần nữa
	assert.Equal(t, ErrNotFound, ConvertMongoError(ErrNotFound))
}

func TestConvertMongoError_UnknownBecomesDatabaseError(t *testing.T) {
	converted := ConvertMongoError(errors.New("boom"))
	var appErr *Error
	assert.True(t, errors.As(converted, &appErr))
	assert.Equal(t, ErrCodeDatabase.Code, appErr.Code.Code)
	assert.Equal(t, StatusInternalServerError, appErr.StatusCode)
}

func TestOperatorFacingErrorStatus(t *testing.T) {
	var gw *Error
	assert.True(t, errors.As(ErrWaGatewaySend, &gw))
	assert.Equal(t, StatusBadGateway, gw.StatusCode)

	var pause *Error
	assert.True(t, errors.As(ErrWaPauseWrite, &pause))
	assert.Equal(t, StatusInternalServerError, pause.StatusCode)
}
