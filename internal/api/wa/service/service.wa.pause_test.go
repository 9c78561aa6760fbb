package wasvc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sistema_restaurante/internal/common"
)

// fakePauseFlagStore giả lập lớp bền của cờ tạm dừng trong memory.
type fakePauseFlagStore struct {
	flags    map[pauseKey]bool
	readErr  error
	writeErr error
	writes   int
}

func newFakePauseFlagStore() *fakePauseFlagStore {
	return &fakePauseFlagStore{flags: make(map[pauseKey]bool)}
}

func (f *fakePauseFlagStore) ReadFlag(_ context.Context, orgID primitive.ObjectID, chatKey string) (bool, error) {
	if f.readErr != nil {
		return false, f.readErr
	}
	paused, ok := f.flags[pauseKey{orgID: orgID, chatKey: chatKey}]
	if !ok {
		return false, common.ErrNotFound
	}
	return paused, nil
}

func (f *fakePauseFlagStore) WriteFlag(_ context.Context, orgID primitive.ObjectID, chatKey string, paused bool, _ string) error {
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.flags[pauseKey{orgID: orgID, chatKey: chatKey}] = paused
	return nil
}

func TestPause_ScopedPerOrgAndChat(t *testing.T) {
	flags := newFakePauseFlagStore()
	svc := NewWaPauseServiceWithStore(flags)
	ctx := context.Background()
	orgA := primitive.NewObjectID()
	orgB := primitive.NewObjectID()

	paused, err := svc.Toggle(ctx, orgA, "11999998888", "op-1")
	require.NoError(t, err)
	assert.True(t, paused)

	// Chỉ đúng (orgA, conv1) bị tạm dừng — hội thoại khác và tổ chức khác không bị lây
	assert.True(t, svc.Resolve(ctx, orgA, "11999998888"))
	assert.False(t, svc.Resolve(ctx, orgA, "11888887777"))
	assert.False(t, svc.Resolve(ctx, orgB, "11999998888"))
}

func TestPause_ToggleRoundTrip(t *testing.T) {
	flags := newFakePauseFlagStore()
	svc := NewWaPauseServiceWithStore(flags)
	ctx := context.Background()
	orgID := primitive.NewObjectID()

	paused, err := svc.Toggle(ctx, orgID, "11999998888", "op-1")
	require.NoError(t, err)
	assert.True(t, paused)

	paused, err = svc.Toggle(ctx, orgID, "11999998888", "op-1")
	require.NoError(t, err)
	assert.False(t, paused)
	assert.False(t, svc.Resolve(ctx, orgID, "11999998888"))
}

func TestPause_DurableWinsOverCache(t *testing.T) {
	flags := newFakePauseFlagStore()
	svc := NewWaPauseServiceWithStore(flags)
	ctx := context.Background()
	orgID := primitive.NewObjectID()

	// Bản ghi bền đổi sau lưng cache (vd: instance khác ghi)
	_, err := svc.Toggle(ctx, orgID, "11999998888", "op-1")
	require.NoError(t, err)
	flags.flags[pauseKey{orgID: orgID, chatKey: "11999998888"}] = false

	assert.False(t, svc.Resolve(ctx, orgID, "11999998888"))
}

func TestPause_StaleCacheClearedWhenDurableMissing(t *testing.T) {
	flags := newFakePauseFlagStore()
	svc := NewWaPauseServiceWithStore(flags)
	ctx := context.Background()
	orgID := primitive.NewObjectID()

	_, err := svc.Toggle(ctx, orgID, "11999998888", "op-1")
	require.NoError(t, err)
	delete(flags.flags, pauseKey{orgID: orgID, chatKey: "11999998888"})

	assert.False(t, svc.Resolve(ctx, orgID, "11999998888"))
}

func TestPause_ReadFailureFallsBackToCache(t *testing.T) {
	flags := newFakePauseFlagStore()
	svc := NewWaPauseServiceWithStore(flags)
	ctx := context.Background()
	orgID := primitive.NewObjectID()

	_, err := svc.Toggle(ctx, orgID, "11999998888", "op-1")
	require.NoError(t, err)

	// Lỗi hạ tầng khi đọc bền: giá trị cache vẫn dùng được
	flags.readErr = errors.New("mongo timeout")
	assert.True(t, svc.Resolve(ctx, orgID, "11999998888"))
	assert.False(t, svc.Resolve(ctx, orgID, "11888887777"))
}

func TestPause_WriteFailureKeepsNewStateNoRollback(t *testing.T) {
	flags := newFakePauseFlagStore()
	svc := NewWaPauseServiceWithStore(flags)
	ctx := context.Background()
	orgID := primitive.NewObjectID()

	flags.writeErr = errors.New("mongo down")
	paused, err := svc.Toggle(ctx, orgID, "11999998888", "op-1")

	// Trạng thái mới vẫn trả về, lỗi là ErrWaPauseWrite — không rollback cache
	assert.True(t, paused)
	assert.True(t, errors.Is(err, common.ErrWaPauseWrite))
	assert.Equal(t, 1, flags.writes)

	// Đọc bền cũng đang lỗi: cache giữ trạng thái mới trong phiên hiện tại
	flags.readErr = errors.New("mongo down")
	assert.True(t, svc.Resolve(ctx, orgID, "11999998888"))
}

func TestPause_OnPausedFiresOnlyWhenPausing(t *testing.T) {
	flags := newFakePauseFlagStore()
	svc := NewWaPauseServiceWithStore(flags)
	ctx := context.Background()
	orgID := primitive.NewObjectID()

	var calls []string
	svc.OnPaused(func(_ primitive.ObjectID, chatKey string) {
		calls = append(calls, chatKey)
	})

	_, err := svc.Toggle(ctx, orgID, "11999998888", "op-1") // pause
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, orgID, "11999998888", "op-1") // resume
	require.NoError(t, err)

	// Hook hủy wizard chỉ chạy khi CHUYỂN SANG tạm dừng
	assert.Equal(t, []string{"11999998888"}, calls)
}
