// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Attachment
// model, the storage-side record of one uploaded media object.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/insightcoach/go-insights-backend/internal/domain"
)

// AttachmentInput carries the storage metadata for a media object a client
// placed in the object store under a signed grant.
type AttachmentInput struct {
	PublicID     string
	ResourceType string
	DeliveryType string
	Format       string
	Name         string
	Bytes        int64
	SecureURL    string
}

// CreateAttachment inserts the attachment row linking the uploaded object to
// chatID. Called inside the same transaction as CreateChat so the pair is a
// single logical write.
func CreateAttachment(ctx context.Context, db *gorm.DB, chatID, userID string, in AttachmentInput) (*domain.Attachment, error) {
	a := &domain.Attachment{
		ID:           uuid.NewString(),
		ChatID:       chatID,
		UserID:       userID,
		PublicID:     in.PublicID,
		ResourceType: in.ResourceType,
		DeliveryType: in.DeliveryType,
		Format:       in.Format,
		Name:         in.Name,
		Bytes:        in.Bytes,
		SecureURL:    in.SecureURL,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// FirstAttachmentForChat returns the first attachment linked to chatID by
// creation order. The current model writes exactly one attachment per chat;
// taking the first tolerates historical rows with more. Returns ErrNotFound
// when the chat has no attachment.
func FirstAttachmentForChat(ctx context.Context, db *gorm.DB, chatID string) (*domain.Attachment, error) {
	var a domain.Attachment
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at asc").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}
