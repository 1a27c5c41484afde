// Package domain defines the persistence models for users, analysis chats,
// and media attachments. These types are mapped with GORM and form the core
// data layer of the interview insights application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Perspective values accepted for a chat. Feedback is framed from the point
// of view of the interviewed candidate or the hiring recruiter.
const (
	PerspectiveCandidate = "candidate"
	PerspectiveRecruiter = "recruiter"
)

// Chat lifecycle states. A chat is created pending and is finalized exactly
// once afterwards: either its result is attached (completed) or a failure
// reason is recorded (failed).
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Chat represents one submitted interview recording and the analysis outcome
// attached to it. The owner is stamped at creation and never changes.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owning user; indexed for efficient retrieval.
//   - UserType: perspective the feedback is framed from ("candidate" or
//     "recruiter"; enforced by DB constraint).
//   - AdditionalInfo: optional free-text context supplied at submission.
//   - Status: pipeline state ("pending", "completed", "failed").
//   - Result: JSON-encoded Feedback, written once on completion; NULL while
//     processing or after a failure.
//   - FailureReason: short description recorded when the pipeline fails.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Chat struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID         string         `json:"user_id"         gorm:"type:varchar(64);not null;index:idx_user_chats"`
	UserType       string         `json:"user_type"       gorm:"type:varchar(16);not null;check:user_type IN ('candidate','recruiter')"`
	AdditionalInfo string         `json:"additional_info" gorm:"type:text"`
	Status         string         `json:"status"          gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','completed','failed')"`
	Result         *string        `json:"-"               gorm:"type:text"`
	FailureReason  *string        `json:"failure_reason,omitempty" gorm:"type:varchar(255)"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// Attachment describes one binary object placed in object storage by a
// client-side upload under a previously issued signed grant. Attachments are
// written once, immediately after their chat, and never mutated.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ChatID: foreign key to the owning chat (indexed, cascade delete).
//   - UserID: identifier of the uploading user.
//   - PublicID: opaque storage reference assigned by the upload grant.
//   - ResourceType: media classification ("audio" or "video").
//   - DeliveryType: storage delivery mode; "authenticated" for signed uploads.
//   - Format: container format as declared by the client (mp3, mp4, ...).
//   - Name: original filename.
//   - Bytes: declared object size; must be positive.
//   - SecureURL: retrieval URL handed back by the object store.
type Attachment struct {
	ID           string         `json:"id"            gorm:"type:char(36);primaryKey"`
	ChatID       string         `json:"chat_id"       gorm:"type:char(36);not null;index:idx_chat_attachments"`
	UserID       string         `json:"user_id"       gorm:"type:varchar(64);not null;index"`
	PublicID     string         `json:"public_id"     gorm:"type:varchar(255);not null"`
	ResourceType string         `json:"resource_type" gorm:"type:varchar(16);not null"`
	DeliveryType string         `json:"delivery_type" gorm:"type:varchar(32);not null"`
	Format       string         `json:"format"        gorm:"type:varchar(16);not null"`
	Name         string         `json:"name"          gorm:"type:varchar(255);not null"`
	Bytes        int64          `json:"bytes"         gorm:"not null"`
	SecureURL    string         `json:"secure_url"    gorm:"type:text;not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`

	// Chat is the parent analysis request. Attachments are cascade-deleted
	// if their chat is removed.
	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Attachment.
func (Attachment) TableName() string { return "attachments" }

// User represents a registered account. Passwords are stored as bcrypt
// hashes; plaintext never touches the database.
type User struct {
	ID           string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Name         string         `json:"name"       gorm:"type:varchar(255);not null"`
	Email        string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string         `json:"-"          gorm:"type:varchar(255);not null"`
	Active       bool           `json:"active"     gorm:"not null;default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// ValidPerspective reports whether s is one of the accepted perspectives.
func ValidPerspective(s string) bool {
	return s == PerspectiveCandidate || s == PerspectiveRecruiter
}
