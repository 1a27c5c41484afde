// Upload grant HTTP handler.
//
// Exposes GET /uploads/grant, which authorizes a direct-to-storage upload for
// a declared media type. The media bytes never pass through this server; the
// client uploads straight to the object store with the returned credential.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/insightcoach/go-insights-backend/internal/services"
	"github.com/insightcoach/go-insights-backend/internal/signing"
)

// GrantResponse wraps a freshly issued upload grant.
type GrantResponse struct {
	Success bool           `json:"success"`
	Grant   *signing.Grant `json:"grant"`
}

// UploadGrant godoc
// @ID          uploadGrant
// @Summary     Authorize a media upload
// @Description Validates the declared MIME type and returns a signed single-use upload credential scoped to the media class folder.
// @Tags        Uploads
// @Produce     json
// @Security    BearerAuth
//
// @Param       file_type  query  string  true  "Declared MIME type of the recording"  example(audio/mpeg)
//
// @Success     200  {object}  handlers.GrantResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unsupported media type"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /uploads/grant [get]
func (h *Handlers) UploadGrant(c *gin.Context) {
	fileType := strings.TrimSpace(c.Query("file_type"))
	if fileType == "" {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "request validation failed",
			map[string]string{"file_type": "file_type is required"})
		return
	}

	grant, err := h.uploadSvc.IssueGrant(c.Request.Context(), fileType)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMediaType) {
			failFields(c, http.StatusBadRequest, ErrCodeValidation, "request validation failed",
				map[string]string{"file_type": "unsupported media type"})
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}

	ok(c, http.StatusOK, GrantResponse{Success: true, Grant: grant})
}
