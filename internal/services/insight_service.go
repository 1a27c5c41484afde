// Package services – InsightService
//
// This file implements the InsightService, the orchestrator of the analysis
// pipeline. A submission records the chat and its uploaded attachment in one
// transaction, then runs the two model-backed stages strictly in sequence:
// transcription of the stored media, then structured feedback generation.
// Each stage runs under its own deadline; a stage failure finalizes the chat
// as failed with a recorded reason, and the chat is never reprocessed.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// carry the chat id and pipeline stage outcomes.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/insightcoach/go-insights-backend/internal/domain"
	"github.com/insightcoach/go-insights-backend/internal/repo"
)

// maxAdditionalInfoRunes caps the free-text context accepted at submission.
const maxAdditionalInfoRunes = 4000

// Transcriber converts stored media into an English transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, fileURL, format string) (string, error)
}

// FeedbackGenerator produces structured feedback for a transcript.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, transcript, perspective, notes string) (*domain.Feedback, error)
}

// SubmitInput is one analysis submission: the perspective to frame feedback
// from, optional context, and the storage metadata of the uploaded recording.
type SubmitInput struct {
	UserType       string
	AdditionalInfo string
	Attachment     repo.AttachmentInput
}

// Insight pairs a chat with its attachment and, when completed, the parsed
// feedback. It is the read model returned to handlers.
type Insight struct {
	Chat       *domain.Chat
	Attachment *domain.Attachment
	Feedback   *domain.Feedback
}

// InsightService runs the analysis pipeline and serves stored results.
type InsightService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// STT transcribes uploaded media.
	STT Transcriber
	// Generator turns transcripts into feedback.
	Generator FeedbackGenerator

	// TranscribeTimeout bounds the transcription stage.
	TranscribeTimeout time.Duration
	// GenerateTimeout bounds the feedback stage.
	GenerateTimeout time.Duration
}

// NewInsightService constructs an InsightService with default stage deadlines.
func NewInsightService(db *gorm.DB, stt Transcriber, gen FeedbackGenerator) *InsightService {
	return &InsightService{
		DB:                db,
		STT:               stt,
		Generator:         gen,
		TranscribeTimeout: 60 * time.Second,
		GenerateTimeout:   30 * time.Second,
	}
}

// Submit validates the submission, persists the chat and attachment, runs the
// pipeline, and returns the completed insight. The chat row always survives a
// pipeline failure: it is finalized as failed with the reason recorded, and
// the returned error tells the caller which stage broke.
func (s *InsightService) Submit(ctx context.Context, userID string, in SubmitInput) (*Insight, error) {
	tr := otel.Tracer("services/InsightService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("chat.user_type", in.UserType)),
	)
	defer span.End()

	if err := validateSubmit(in); err != nil {
		return nil, err
	}

	// The chat and its attachment are one logical write. A client observing
	// the chat may rely on the attachment existing.
	var (
		chat       *domain.Chat
		attachment *domain.Attachment
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		chat, txErr = repo.CreateChat(ctx, tx, userID, in.UserType, strings.TrimSpace(in.AdditionalInfo))
		if txErr != nil {
			return txErr
		}
		attachment, txErr = repo.CreateAttachment(ctx, tx, chat.ID, userID, in.Attachment)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("chat.id", chat.ID))

	transcript, err := s.transcribe(ctx, attachment)
	if err != nil {
		s.fail(ctx, chat, err)
		return nil, err
	}

	feedback, err := s.generate(ctx, transcript, chat)
	if err != nil {
		s.fail(ctx, chat, err)
		return nil, err
	}

	encoded, err := feedback.Encode()
	if err != nil {
		s.fail(ctx, chat, err)
		return nil, err
	}
	if err := repo.SetChatResult(ctx, s.DB, chat.ID, encoded); err != nil {
		return nil, err
	}
	chat.Status = domain.StatusCompleted
	chat.Result = &encoded

	return &Insight{Chat: chat, Attachment: attachment, Feedback: feedback}, nil
}

// transcribe runs the speech-to-text stage under its deadline.
func (s *InsightService) transcribe(ctx context.Context, a *domain.Attachment) (string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.TranscribeTimeout)
	defer cancel()

	transcript, err := s.STT.Transcribe(stageCtx, a.SecureURL, a.Format)
	if err != nil {
		if deadlineHit(stageCtx, err) {
			return "", fmt.Errorf("%w: transcription after %s", ErrDeadlineExceeded, s.TranscribeTimeout)
		}
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("%w: empty transcript", ErrTranscriptionFailed)
	}
	return transcript, nil
}

// generate runs the feedback stage under its deadline.
func (s *InsightService) generate(ctx context.Context, transcript string, chat *domain.Chat) (*domain.Feedback, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.GenerateTimeout)
	defer cancel()

	fb, err := s.Generator.GenerateFeedback(stageCtx, transcript, chat.UserType, chat.AdditionalInfo)
	if err != nil {
		if deadlineHit(stageCtx, err) {
			return nil, fmt.Errorf("%w: feedback generation after %s", ErrDeadlineExceeded, s.GenerateTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrFeedbackFailed, err)
	}
	return fb, nil
}

// fail finalizes the chat as failed, best effort. The pipeline error is the
// one worth returning; a failure to record it only loses the reason string.
func (s *InsightService) fail(ctx context.Context, chat *domain.Chat, cause error) {
	reason := cause.Error()
	if utf8.RuneCountInString(reason) > 255 {
		reason = string([]rune(reason)[:255])
	}
	if err := repo.MarkChatFailed(context.WithoutCancel(ctx), s.DB, chat.ID, reason); err == nil {
		chat.Status = domain.StatusFailed
		chat.FailureReason = &reason
	}
}

// deadlineHit reports whether err is the stage deadline expiring rather than
// an upstream failure that happened to wrap a context error.
func deadlineHit(stageCtx context.Context, err error) bool {
	return stageCtx.Err() == context.DeadlineExceeded &&
		(errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled))
}

// Get returns one insight by id, owner-checked. A missing chat yields
// ErrChatNotFound; an existing chat owned by someone else yields ErrForbidden
// so the two cases stay distinguishable at the API.
func (s *InsightService) Get(ctx context.Context, id, userID string) (*Insight, error) {
	tr := otel.Tracer("services/InsightService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("chat.id", id)),
	)
	defer span.End()

	chat, err := repo.GetChatByID(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	if chat.UserID != userID {
		return nil, ErrForbidden
	}

	ins := &Insight{Chat: chat}

	attachment, err := repo.FirstAttachmentForChat(ctx, s.DB, chat.ID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	ins.Attachment = attachment

	if chat.Status == domain.StatusCompleted && chat.Result != nil {
		fb, err := domain.ParseFeedback([]byte(*chat.Result))
		if err != nil {
			// A stored result that no longer parses is data corruption,
			// not a client error.
			return nil, fmt.Errorf("stored result for chat %s: %w", chat.ID, err)
		}
		ins.Feedback = fb
	}

	return ins, nil
}

// ListPage returns a page of the user's chats, newest first, plus the total
// count for pagination.
func (s *InsightService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error) {
	tr := otel.Tracer("services/InsightService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountChats(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Chat{}, 0, nil
	}

	items, err := repo.ListChatsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// validateSubmit checks the submission fields, collecting the first violation
// per field.
func validateSubmit(in SubmitInput) error {
	fields := map[string]string{}
	if !domain.ValidPerspective(in.UserType) {
		fields["user_type"] = "user_type must be candidate or recruiter"
	}
	if utf8.RuneCountInString(in.AdditionalInfo) > maxAdditionalInfoRunes {
		fields["additional_info"] = "additional_info is too long"
	}
	a := in.Attachment
	if strings.TrimSpace(a.PublicID) == "" {
		fields["attachment.public_id"] = "public_id is required"
	}
	if strings.TrimSpace(a.SecureURL) == "" {
		fields["attachment.secure_url"] = "secure_url is required"
	}
	if strings.TrimSpace(a.Format) == "" {
		fields["attachment.format"] = "format is required"
	}
	if strings.TrimSpace(a.Name) == "" {
		fields["attachment.name"] = "name is required"
	}
	if a.Bytes <= 0 {
		fields["attachment.bytes"] = "bytes must be positive"
	}
	switch a.ResourceType {
	case MediaAudio, MediaVideo:
	default:
		fields["attachment.resource_type"] = "resource_type must be audio or video"
	}
	return newValidationError(fields)
}
