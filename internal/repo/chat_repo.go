// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Chat model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a chat is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Write discipline: a chat row is mutated at most once after creation —
// either SetChatResult (completed) or MarkChatFailed (failed). Both guard on
// the pending status so a finalized row can never be overwritten.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/insightcoach/go-insights-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateChat inserts a new pending Chat row owned by userID. The chat ID is
// a randomly generated UUID (string), and CreatedAt is set to UTC.
//
// On success, it returns the persisted Chat. On failure, it returns a DB error.
func CreateChat(ctx context.Context, db *gorm.DB, userID, userType, additionalInfo string) (*domain.Chat, error) {
	c := &domain.Chat{
		ID:             uuid.NewString(),
		UserID:         userID,
		UserType:       userType,
		AdditionalInfo: additionalInfo,
		Status:         domain.StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetChatByID fetches a chat by primary key regardless of owner. Callers use
// this to distinguish "no such chat" from "not yours" before releasing any
// detail to the requester. Returns ErrNotFound if the row does not exist.
func GetChatByID(ctx context.Context, db *gorm.DB, id string) (*domain.Chat, error) {
	var c domain.Chat
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetChat fetches a single chat by its ID and owner (userID). If the record
// does not exist, it returns ErrNotFound. On other DB errors, the raw error
// is returned.
func GetChat(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error) {
	var c domain.Chat
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountChats returns the total number of chats owned by userID.
// On DB error, it returns the error.
func CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListChatsPage returns a paginated slice of chats for userID, ordered by
// creation time descending. Use CountChats to obtain the total for pagination
// metadata. On DB error, it returns the error.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SetChatResult attaches the encoded feedback to a pending chat and marks it
// completed. This is the single terminal write of a successful pipeline run.
// If the chat is missing or already finalized, it returns ErrNotFound.
func SetChatResult(ctx context.Context, db *gorm.DB, id, result string) error {
	res := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"result": result,
			"status": domain.StatusCompleted,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkChatFailed records a failure reason on a pending chat and marks it
// failed. The result column stays NULL so readers never observe a partial
// verdict. If the chat is missing or already finalized, it returns ErrNotFound.
func MarkChatFailed(ctx context.Context, db *gorm.DB, id, reason string) error {
	res := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"failure_reason": reason,
			"status":         domain.StatusFailed,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
