package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/insightcoach/go-insights-backend/internal/domain"
	"github.com/insightcoach/go-insights-backend/internal/services"
)

func postJSON(t *testing.T, h *Handlers, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	r := newRouter(h, false)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister_Created(t *testing.T) {
	auth := &stubAuthSvc{user: &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}}
	h := New(auth, &stubUploadSvc{}, &stubInsightSvc{}, nil, time.Hour)

	w := postJSON(t, h, "/auth/register", RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "longenough"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !resp.Success || resp.User.Email != "ada@example.com" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatal("password material leaked into response")
	}
}

func TestRegister_Conflict(t *testing.T) {
	auth := &stubAuthSvc{regErr: services.ErrEmailTaken}
	h := New(auth, &stubUploadSvc{}, &stubInsightSvc{}, nil, time.Hour)

	w := postJSON(t, h, "/auth/register", RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "longenough"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var body ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Code != ErrCodeConflict {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestRegister_ValidationFields(t *testing.T) {
	auth := &stubAuthSvc{regErr: &services.ValidationError{Fields: map[string]string{"email": "a valid email is required"}}}
	h := New(auth, &stubUploadSvc{}, &stubInsightSvc{}, nil, time.Hour)

	w := postJSON(t, h, "/auth/register", RegisterRequest{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.FieldErrors["email"] == "" {
		t.Fatalf("field_errors missing: %+v", body)
	}
}

func TestLogin_SetsCookieAndToken(t *testing.T) {
	auth := &stubAuthSvc{
		token:     "tok-abc",
		loginUser: &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com"},
	}
	h := New(auth, &stubUploadSvc{}, &stubInsightSvc{}, nil, time.Hour)

	w := postJSON(t, h, "/auth/login", LoginRequest{Email: "ada@example.com", Password: "longenough"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.AccessToken != "tok-abc" {
		t.Fatalf("access_token = %q", resp.AccessToken)
	}

	cookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, "accessToken=tok-abc") || !strings.Contains(cookie, "HttpOnly") {
		t.Fatalf("cookie not set correctly: %q", cookie)
	}
}

func TestLogin_Failures(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"inactive", services.ErrAccountInactive, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &stubAuthSvc{loginErr: tc.err}
			h := New(auth, &stubUploadSvc{}, &stubInsightSvc{}, nil, time.Hour)

			w := postJSON(t, h, "/auth/login", LoginRequest{Email: "x@example.com", Password: "p"})
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}
