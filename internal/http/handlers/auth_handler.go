// Account HTTP handlers.
//
// This file exposes the public authentication endpoints:
//   - POST /auth/register  (create an account)
//   - POST /auth/login     (verify credentials, mint a bearer token)
//
// A successful login returns the token in the body and also sets it as the
// accessToken cookie so browser clients are gated without storing the token
// in script-accessible state.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/insightcoach/go-insights-backend/internal/domain"
	"github.com/insightcoach/go-insights-backend/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	// Name is the display name for the account.
	Name string `json:"name" example:"Ada Lovelace"`
	// Email is the login identifier; normalized before storage.
	Email string `json:"email" example:"ada@example.com"`
	// Password must be at least 8 characters.
	Password string `json:"password" example:"correct horse battery"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"correct horse battery"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse wraps a successful register or login.
type AuthResponse struct {
	Success     bool         `json:"success"`
	AccessToken string       `json:"access_token,omitempty"`
	User        UserResponse `json:"user"`
}

func userView(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a new account. Emails are normalized and must be unique.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "invalid JSON body")
		return
	}

	u, err := h.authSvc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var ve *services.ValidationError
		switch {
		case errors.As(err, &ve):
			failFields(c, http.StatusBadRequest, ErrCodeValidation, "request validation failed", ve.Fields)
		case errors.Is(err, services.ErrEmailTaken):
			fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		}
		return
	}

	ok(c, http.StatusCreated, AuthResponse{Success: true, User: userView(u)})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a bearer token. The token is also set as the accessToken cookie.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     403  {object}  handlers.ErrorResponse  "Account inactive"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "invalid JSON body")
		return
	}

	token, u, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
		case errors.Is(err, services.ErrAccountInactive):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "account is inactive")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		}
		return
	}

	maxAge := int(h.tokenTTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("accessToken", token, maxAge, "/", "", false, true)

	ok(c, http.StatusOK, AuthResponse{Success: true, AccessToken: token, User: userView(u)})
}
