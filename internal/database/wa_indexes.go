// Package database - Index cho các collection WhatsApp (dedup messageId, tra cứu theo tổ chức).
package database

import (
	"context"
	"strings"

	"sistema_restaurante/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateWaIndexes tạo các index cho collection WhatsApp.
// Gọi một lần khi khởi động server, sau khi đã đăng ký collections.
func CreateWaIndexes(ctx context.Context, db *mongo.Database) error {
	// wa_chats: (ownerOrganizationId, chatKey) unique — mỗi hội thoại duy nhất trong một tổ chức
	waChats := db.Collection(global.MongoDB_ColNames.WaChats)
	if _, err := waChats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "ownerOrganizationId", Value: 1},
			{Key: "chatKey", Value: 1},
		},
		Options: options.Index().SetName("wa_chat_org_key_unique").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// wa_chats: (ownerOrganizationId, lastActivityAt desc) — sort danh sách hội thoại
	if _, err := waChats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "ownerOrganizationId", Value: 1},
			{Key: "lastActivityAt", Value: -1},
		},
		Options: options.Index().SetName("wa_chat_org_activity"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// wa_message_items: (ownerOrganizationId, messageId) unique — dedup theo messageId
	waMessageItems := db.Collection(global.MongoDB_ColNames.WaMessageItems)
	if _, err := waMessageItems.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "ownerOrganizationId", Value: 1},
			{Key: "messageId", Value: 1},
		},
		Options: options.Index().SetName("wa_message_org_id_unique").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// wa_message_items: (ownerOrganizationId, chatKey, timestamp) — load lịch sử hội thoại
	if _, err := waMessageItems.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "ownerOrganizationId", Value: 1},
			{Key: "chatKey", Value: 1},
			{Key: "timestamp", Value: 1},
		},
		Options: options.Index().SetName("wa_message_org_chat_ts"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// wa_ai_pause_flags: (ownerOrganizationId, chatKey) unique — một cờ cho mỗi (tổ chức, hội thoại)
	waPauseFlags := db.Collection(global.MongoDB_ColNames.WaAiPauseFlags)
	if _, err := waPauseFlags.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "ownerOrganizationId", Value: 1},
			{Key: "chatKey", Value: 1},
		},
		Options: options.Index().SetName("wa_pause_org_key_unique").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// crm_customers: (ownerOrganizationId, phoneKeys) multikey — tra tên theo số điện thoại chuẩn hóa
	crmCustomers := db.Collection(global.MongoDB_ColNames.CrmCustomers)
	if _, err := crmCustomers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "ownerOrganizationId", Value: 1},
			{Key: "phoneKeys", Value: 1},
		},
		Options: options.Index().SetName("crm_customer_org_phonekeys"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// wa_chats: needsPrioritySync — resync worker quét cờ
	if _, err := waChats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "needsPrioritySync", Value: 1},
		},
		Options: options.Index().SetName("wa_chat_priority_sync").SetSparse(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	return nil
}

// isIndexExistsError kiểm tra lỗi index đã tồn tại (IndexOptionsConflict / IndexKeySpecsConflict)
func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "IndexOptionsConflict") ||
		strings.Contains(msg, "IndexKeySpecsConflict")
}
