// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/insightcoach/go-insights-backend/internal/domain"
)

// ErrEmailTaken indicates that a user row already exists for the given email.
var ErrEmailTaken = errors.New("email already registered")

// CreateUser inserts a new active user. Emails are stored lowercased and
// trimmed; a unique-index violation maps to ErrEmailTaken.
func CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// GetUserByEmail fetches a user by normalized email, or ErrNotFound.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID fetches a user by primary key, or ErrNotFound.
func GetUserByID(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
