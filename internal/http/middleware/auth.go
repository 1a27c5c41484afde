// Package middleware – bearer-token authentication.
//
// This file guards authenticated routes. Credentials are read from the
// Authorization header ("Bearer <token>") with a fallback to the accessToken
// cookie, which browser clients rely on. A verified token stashes the user id
// and email in the Gin context for downstream handlers; anything else aborts
// with a 401 envelope.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/insightcoach/go-insights-backend/internal/auth"
)

// ContextUserID is the Gin context key holding the authenticated user id.
const ContextUserID = "userID"

// ContextUserEmail is the Gin context key holding the authenticated email.
const ContextUserEmail = "userEmail"

// accessTokenCookie is the cookie browser clients carry the token in.
const accessTokenCookie = "accessToken"

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Auth returns middleware that authenticates every request through v.
func Auth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "missing credentials")
			return
		}

		claims, err := v.Verify(token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.Sub)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header, falling back
// to the accessToken cookie.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie(accessTokenCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success":    false,
		"request_id": c.GetString(requestIDKey),
		"code":       "unauthorized",
		"message":    msg,
	})
}
