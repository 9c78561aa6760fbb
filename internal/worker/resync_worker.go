// Package worker chứa các background worker chạy định kỳ.
package worker

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	wasvc "sistema_restaurante/internal/api/wa/service"
	"sistema_restaurante/internal/logger"
)

// ResyncWorker xử lý các hội thoại có cờ needsPrioritySync: nạp lại snapshot
// của tổ chức sở hữu rồi xóa cờ. Nhiều hội thoại cùng tổ chức chỉ tốn một snapshot.
// Chạy định kỳ (mặc định 30 giây), mỗi lần xử lý tối đa batchSize hội thoại.
type ResyncWorker struct {
	chatService *wasvc.WaChatService
	syncService *wasvc.WaSyncService
	interval    time.Duration // Khoảng thời gian giữa các lần chạy
	batchSize   int64         // Số hội thoại tối đa mỗi lần
}

// NewResyncWorker tạo mới ResyncWorker.
func NewResyncWorker(chatService *wasvc.WaChatService, syncService *wasvc.WaSyncService, interval time.Duration, batchSize int64) *ResyncWorker {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ResyncWorker{
		chatService: chatService,
		syncService: syncService,
		interval:    interval,
		batchSize:   batchSize,
	}
}

// Start chạy worker trong vòng lặp: mỗi interval đọc batch hội thoại chờ resync,
// snapshot lại từng tổ chức một lần, sau đó xóa cờ.
func (w *ResyncWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval":  w.interval.String(),
		"batchSize": w.batchSize,
	}).Info("🔁 [WA RESYNC] Starting Resync Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🔁 [WA RESYNC] Resync Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🔁 [WA RESYNC] Panic khi resync, sẽ tiếp tục ở lần chạy tiếp theo")
					}
				}()
				w.runOnce(ctx)
			}()
		}
	}
}

// runOnce xử lý một batch hội thoại chờ resync ưu tiên.
func (w *ResyncWorker) runOnce(ctx context.Context) {
	log := logger.GetAppLogger()

	chats, err := w.chatService.FindPrioritySync(ctx, w.batchSize)
	if err != nil {
		log.WithError(err).Error("🔁 [WA RESYNC] Lỗi lấy danh sách hội thoại chờ resync")
		return
	}
	if len(chats) == 0 {
		return
	}

	synced := make(map[primitive.ObjectID]bool)
	cleared := 0
	for _, chat := range chats {
		if !synced[chat.OwnerOrganizationID] {
			if err := w.syncService.LoadSnapshot(ctx, chat.OwnerOrganizationID); err != nil {
				log.WithError(err).WithField("orgId", chat.OwnerOrganizationID.Hex()).Warn("🔁 [WA RESYNC] Snapshot thất bại, giữ cờ để thử lại lần sau")
				continue
			}
			synced[chat.OwnerOrganizationID] = true
		}
		if err := w.chatService.ClearPrioritySync(ctx, chat.ID); err != nil {
			log.WithError(err).WithField("chatKey", chat.ChatKey).Warn("🔁 [WA RESYNC] Không xóa được cờ needsPrioritySync")
			continue
		}
		cleared++
	}

	log.WithFields(map[string]interface{}{
		"requested": len(chats),
		"cleared":   cleared,
		"orgs":      len(synced),
	}).Info("🔁 [WA RESYNC] Đã xử lý batch resync ưu tiên")
}
