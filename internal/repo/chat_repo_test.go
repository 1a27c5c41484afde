package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/insightcoach/go-insights-backend/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.User{}, &domain.Chat{}, &domain.Attachment{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestCreateChat_Pending(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := CreateChat(ctx, db, "u1", domain.PerspectiveCandidate, "notes")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if c.ID == "" || c.UserID != "u1" || c.UserType != domain.PerspectiveCandidate {
		t.Fatalf("unexpected chat: %+v", c)
	}
	if c.Status != domain.StatusPending {
		t.Fatalf("status = %q, want pending", c.Status)
	}
	if c.Result != nil {
		t.Fatalf("new chat must have no result")
	}
}

func TestGetChat_OwnerScoping(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := CreateChat(ctx, db, "owner", domain.PerspectiveRecruiter, "")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	if _, err := GetChat(ctx, db, c.ID, "owner"); err != nil {
		t.Fatalf("GetChat as owner: %v", err)
	}
	if _, err := GetChat(ctx, db, c.ID, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetChat as intruder: got %v, want ErrNotFound", err)
	}

	// Unscoped lookup still sees the row (used to distinguish 403 from 404).
	got, err := GetChatByID(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("GetChatByID: %v", err)
	}
	if got.UserID != "owner" {
		t.Fatalf("owner = %q, want owner", got.UserID)
	}

	if _, err := GetChatByID(ctx, db, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetChatByID(missing): got %v, want ErrNotFound", err)
	}
}

func TestSetChatResult_SingleWrite(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := CreateChat(ctx, db, "u1", domain.PerspectiveCandidate, "")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	if err := SetChatResult(ctx, db, c.ID, `{"overallRating":8}`); err != nil {
		t.Fatalf("SetChatResult: %v", err)
	}

	got, err := GetChatByID(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("GetChatByID: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.Result == nil || *got.Result != `{"overallRating":8}` {
		t.Fatalf("result = %v", got.Result)
	}

	// A finalized row must reject further writes.
	if err := SetChatResult(ctx, db, c.ID, `{}`); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second SetChatResult: got %v, want ErrNotFound", err)
	}
	if err := MarkChatFailed(ctx, db, c.ID, "late failure"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MarkChatFailed after completion: got %v, want ErrNotFound", err)
	}
}

func TestMarkChatFailed_RecordsReason(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := CreateChat(ctx, db, "u1", domain.PerspectiveCandidate, "")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if err := MarkChatFailed(ctx, db, c.ID, "transcription failed"); err != nil {
		t.Fatalf("MarkChatFailed: %v", err)
	}

	got, err := GetChatByID(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("GetChatByID: %v", err)
	}
	if got.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if got.FailureReason == nil || *got.FailureReason != "transcription failed" {
		t.Fatalf("failure reason = %v", got.FailureReason)
	}
	if got.Result != nil {
		t.Fatalf("failed chat must not carry a result")
	}
}

func TestListChatsPage_OrderAndScope(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := CreateChat(ctx, db, "u1", domain.PerspectiveCandidate, fmt.Sprintf("n%d", i)); err != nil {
			t.Fatalf("seed chat: %v", err)
		}
	}
	if _, err := CreateChat(ctx, db, "u2", domain.PerspectiveRecruiter, ""); err != nil {
		t.Fatalf("seed other user: %v", err)
	}

	total, err := CountChats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("CountChats: %v", err)
	}
	if total != 3 {
		t.Fatalf("count = %d, want 3", total)
	}

	page, err := ListChatsPage(ctx, db, "u1", 0, 2)
	if err != nil {
		t.Fatalf("ListChatsPage: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	for _, c := range page {
		if c.UserID != "u1" {
			t.Fatalf("leaked chat for %q", c.UserID)
		}
	}
}
