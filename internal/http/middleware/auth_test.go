package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/insightcoach/go-insights-backend/internal/auth"
)

func authRouter(t *testing.T, issuer *auth.Issuer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(issuer))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(ContextUserID),
			"email":   c.GetString(ContextUserEmail),
		})
	})
	return r
}

func TestAuth_BearerHeader(t *testing.T) {
	issuer := auth.NewIssuer("s3cret", time.Hour)
	token, err := issuer.Sign("u-42", "ada@example.com")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	r := authRouter(t, issuer)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["user_id"] != "u-42" || body["email"] != "ada@example.com" {
		t.Fatalf("unexpected identity: %v", body)
	}
}

func TestAuth_CookieFallback(t *testing.T) {
	issuer := auth.NewIssuer("s3cret", time.Hour)
	token, _ := issuer.Sign("u-42", "ada@example.com")

	r := authRouter(t, issuer)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("cookie auth failed: %d %s", w.Code, w.Body.String())
	}
}

func TestAuth_Rejections(t *testing.T) {
	issuer := auth.NewIssuer("s3cret", time.Hour)
	other := auth.NewIssuer("different", time.Hour)
	foreign, _ := other.Sign("u-42", "ada@example.com")

	r := authRouter(t, issuer)

	cases := []struct {
		name  string
		setup func(req *http.Request)
	}{
		{"no credentials", func(*http.Request) {}},
		{"malformed header", func(req *http.Request) { req.Header.Set("Authorization", "Token abc") }},
		{"wrong secret", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+foreign) }},
		{"garbage token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer a.b.c") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body["code"] != "unauthorized" || body["success"] != false {
				t.Fatalf("unexpected body: %v", body)
			}
		})
	}
}

