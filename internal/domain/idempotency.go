// Package domain – Idempotency record.
//
// One row per accepted Idempotency-Key, pointing at the chat the original
// submission produced. Rows expire rather than being deleted eagerly.
package domain

import "time"

// Idempotency represents a recorded outcome of a previously processed
// submission, keyed by (user_id, scope, key). It enables safe retries of the
// insight pipeline: a replayed POST returns the originally produced chat
// instead of re-running transcription and feedback generation.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:3"`
	ChatID    string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
