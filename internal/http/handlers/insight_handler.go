// Insight HTTP handlers.
//
// This file exposes REST endpoints for insight resources:
//   - POST   /insights        (submit a recording for analysis)
//   - GET    /insights        (list, paginated, ETag support)
//   - GET    /insights/{id}   (fetch one insight with its feedback)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including idempotent replays).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/insightcoach/go-insights-backend/internal/domain"
	"github.com/insightcoach/go-insights-backend/internal/http/middleware"
	"github.com/insightcoach/go-insights-backend/internal/repo"
	"github.com/insightcoach/go-insights-backend/internal/services"
	"github.com/insightcoach/go-insights-backend/internal/signing"
	"github.com/insightcoach/go-insights-backend/internal/utils"
)

// IdempotencyScope is the deduplication namespace for insight submissions.
const IdempotencyScope = "insights"

// defaultIdemTTL bounds how long a submission key can be replayed.
const defaultIdemTTL = 24 * time.Hour

//
// Service contracts (context-aware)
//

// AuthService defines account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Register creates an account and returns it.
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	// Login verifies credentials and returns a bearer token plus the account.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

// UploadService issues signed upload grants for declared media types.
type UploadService interface {
	// IssueGrant validates fileType and mints a single-use grant.
	IssueGrant(ctx context.Context, fileType string) (*signing.Grant, error)
}

// InsightService defines the analysis pipeline operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type InsightService interface {
	// Submit runs the full pipeline for one uploaded recording.
	Submit(ctx context.Context, userID string, in services.SubmitInput) (*services.Insight, error)
	// Get returns one insight by id, owner-checked.
	Get(ctx context.Context, id, userID string) (*services.Insight, error)
	// ListPage returns a page of the user's chats and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for accounts, upload grants, and insights.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	authSvc    AuthService
	uploadSvc  UploadService
	insightSvc InsightService

	// db backs the idempotency record lookups done at the transport edge.
	db *gorm.DB
	// idemTTL is the replay window for submission keys.
	idemTTL time.Duration
	// tokenTTL drives the accessToken cookie lifetime.
	tokenTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(authSvc AuthService, uploadSvc UploadService, insightSvc InsightService, db *gorm.DB, tokenTTL time.Duration) *Handlers {
	return &Handlers{
		authSvc:    authSvc,
		uploadSvc:  uploadSvc,
		insightSvc: insightSvc,
		db:         db,
		idemTTL:    defaultIdemTTL,
		tokenTTL:   tokenTTL,
	}
}

// SetIdempotencyTTL sets how long submission keys can be replayed. Values
// <= 0 keep the default window.
func (h *Handlers) SetIdempotencyTTL(ttl time.Duration) {
	if ttl > 0 {
		h.idemTTL = ttl
	}
}

// userID extracts the authenticated user id from Gin context. Only the auth
// middleware sets it; request headers are never trusted for identity.
func userID(c *gin.Context) string {
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

//
// DTOs
//

// AttachmentRequest is the storage metadata block of a submission.
type AttachmentRequest struct {
	// PublicID is the storage reference from the upload grant. Validated by
	// the service so a missing value reports a field error, not a bind error.
	PublicID string `json:"public_id" example:"1735600000-abc123"`
	// ResourceType is the media class reported by the store ("audio"/"video").
	ResourceType string `json:"resource_type" example:"audio"`
	// DeliveryType is the storage delivery mode.
	DeliveryType string `json:"delivery_type" example:"authenticated"`
	// Format is the container format (mp3, wav, mp4, webm, ...).
	Format string `json:"format" example:"mp3"`
	// Name is the original filename.
	Name string `json:"name" example:"interview.mp3"`
	// Bytes is the object size as reported by the store.
	Bytes int64 `json:"bytes" example:"1048576"`
	// SecureURL is the retrieval URL for the uploaded object.
	SecureURL string `json:"secure_url" example:"https://res.cloudinary.com/demo/video/authenticated/interview.mp3"`
}

// SubmitInsightRequest is the JSON payload for submitting a recording.
type SubmitInsightRequest struct {
	// UserType selects the feedback perspective ("candidate" or "recruiter").
	UserType string `json:"user_type" example:"candidate"`
	// AdditionalInfo is optional free-text context for the analysis.
	AdditionalInfo string `json:"additional_info" example:"Second-round system design interview"`
	// Attachment carries the uploaded object's storage metadata.
	Attachment AttachmentRequest `json:"attachment"`
}

// InsightResponse is the full representation of one analyzed recording.
type InsightResponse struct {
	Success    bool               `json:"success"`
	Chat       *domain.Chat       `json:"chat"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
	Feedback   *domain.Feedback   `json:"feedback,omitempty"`
	// Replayed is true when an Idempotency-Key matched a prior submission.
	Replayed bool `json:"replayed,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListInsightsResponse wraps a page of chats and pagination information.
type ListInsightsResponse struct {
	Success    bool          `json:"success"`
	Insights   []domain.Chat `json:"insights"`
	Pagination Pagination    `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// failPipeline maps service-layer errors to HTTP responses.
func failPipeline(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "request validation failed", ve.Fields)
	case errors.Is(err, services.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "insight not found")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "insight belongs to another user")
	case errors.Is(err, services.ErrDeadlineExceeded):
		fail(c, http.StatusGatewayTimeout, ErrCodeDeadline, "analysis timed out")
	case errors.Is(err, services.ErrTranscriptionFailed):
		fail(c, http.StatusBadGateway, ErrCodeTranscription, "transcription failed")
	case errors.Is(err, services.ErrFeedbackFailed):
		fail(c, http.StatusBadGateway, ErrCodeFeedback, "feedback generation failed")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

//
// Handlers
//

// SubmitInsight godoc
// @ID          submitInsight
// @Summary     Submit a recording for analysis
// @Description Records the submission, transcribes the uploaded media, and returns structured feedback. Honors Idempotency-Key for safe retries.
// @Tags        Insights
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Deduplication key for retried submissions"  example(retry-41f8)
// @Param       body             body    handlers.SubmitInsightRequest  true  "Submission payload"
//
// @Success     201  {object}  handlers.InsightResponse
// @Success     200  {object}  handlers.InsightResponse  "Idempotent replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     502  {object}  handlers.ErrorResponse  "Pipeline stage failed"
// @Failure     504  {object}  handlers.ErrorResponse  "Pipeline stage timed out"
// @Router      /insights [post]
func (h *Handlers) SubmitInsight(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	var req SubmitInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "invalid JSON body")
		return
	}

	key, hasKey := middleware.GetIdempotencyKey(c)
	if hasKey {
		if resp, found := h.replay(ctx, c, uid, key); found {
			ok(c, http.StatusOK, resp)
			return
		}
	}

	ins, err := h.insightSvc.Submit(ctx, uid, services.SubmitInput{
		UserType:       req.UserType,
		AdditionalInfo: req.AdditionalInfo,
		Attachment: repo.AttachmentInput{
			PublicID:     req.Attachment.PublicID,
			ResourceType: req.Attachment.ResourceType,
			DeliveryType: req.Attachment.DeliveryType,
			Format:       req.Attachment.Format,
			Name:         req.Attachment.Name,
			Bytes:        req.Attachment.Bytes,
			SecureURL:    req.Attachment.SecureURL,
		},
	})
	if err != nil {
		failPipeline(c, err)
		return
	}

	if hasKey && h.db != nil {
		// Best effort: losing the record only disables replay for this key.
		if _, err := repo.CreateIdempotency(ctx, h.db, uid, IdempotencyScope, key, ins.Chat.ID, http.StatusCreated, h.idemTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("record idempotency key")
		}
	}

	ok(c, http.StatusCreated, InsightResponse{
		Success:    true,
		Chat:       ins.Chat,
		Attachment: ins.Attachment,
		Feedback:   ins.Feedback,
	})
}

// replay serves a prior submission recorded under key, if one exists.
func (h *Handlers) replay(ctx context.Context, c *gin.Context, uid, key string) (*InsightResponse, bool) {
	if h.db == nil {
		return nil, false
	}
	rec, err := repo.GetIdempotency(ctx, h.db, uid, IdempotencyScope, key, time.Now().UTC())
	if err != nil || rec == nil {
		return nil, false
	}
	ins, err := h.insightSvc.Get(ctx, rec.ChatID, uid)
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("chat_id", rec.ChatID).Msg("replay lookup failed")
		return nil, false
	}
	return &InsightResponse{
		Success:    true,
		Chat:       ins.Chat,
		Attachment: ins.Attachment,
		Feedback:   ins.Feedback,
		Replayed:   true,
	}, true
}

// GetInsight godoc
// @ID          getInsight
// @Summary     Fetch one insight
// @Description Returns the chat, its attachment, and the parsed feedback when analysis completed.
// @Tags        Insights
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Insight ID"  example(7b8c9f2a-45d1-4a5e-9f0b-2f9d53c7e111)
//
// @Success     200  {object}  handlers.InsightResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Owned by another user"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /insights/{id} [get]
func (h *Handlers) GetInsight(c *gin.Context) {
	ins, err := h.insightSvc.Get(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		failPipeline(c, err)
		return
	}
	ok(c, http.StatusOK, InsightResponse{
		Success:    true,
		Chat:       ins.Chat,
		Attachment: ins.Attachment,
		Feedback:   ins.Feedback,
	})
}

// ListInsights godoc
// @ID          listInsights
// @Summary     List insights (paginated)
// @Description Returns a page of the user's submissions. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Insights
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListInsightsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /insights [get]
func (h *Handlers) ListInsights(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if h.db != nil {
		count, maxTS, err := repo.ChatsStats(ctx, h.db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"insights:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.insightSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListInsightsResponse{
		Success:  true,
		Insights: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
