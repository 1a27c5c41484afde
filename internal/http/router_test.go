package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/insightcoach/go-insights-backend/internal/config"
	"github.com/insightcoach/go-insights-backend/internal/repo"
)

func testConfig() config.Config {
	cfg := config.Config{
		RateRPS:     100,
		RateBurst:   100,
		APIBasePath: "/api/v1",
	}
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.TTL = time.Hour
	cfg.Upload.CloudName = "demo"
	cfg.Upload.APIKey = "key123"
	cfg.Upload.APISecret = "sec456"
	cfg.Upload.BaseFolder = "ai-insights"
	cfg.OTEL.ServiceName = "insights-test"
	return cfg
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, db, nil, testConfig())
	return r
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/health status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", w.Code)
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["code"] != "not_found" || body["success"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/api/v1/uploads/grant", "/api/v1/insights"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", path, w.Code)
		}
	}
}

func TestRegisterLoginGrantFlow(t *testing.T) {
	r := newTestRouter(t)

	regBody, _ := json.Marshal(map[string]string{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "correct horse",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewBuffer(regBody))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	loginBody, _ := json.Marshal(map[string]string{
		"email":    "ada@example.com",
		"password": "correct horse",
	})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBuffer(loginBody))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil || login.AccessToken == "" {
		t.Fatalf("no access token: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/uploads/grant?file_type=audio/mpeg", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("grant status = %d, body = %s", w.Code, w.Body.String())
	}
	var grant struct {
		Success bool `json:"success"`
		Grant   struct {
			Folder    string `json:"folder"`
			Signature string `json:"signature"`
		} `json:"grant"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &grant); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !grant.Success || grant.Grant.Folder != "ai-insights/audio" || grant.Grant.Signature == "" {
		t.Fatalf("unexpected grant: %+v", grant)
	}

	// Empty list for a fresh account.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/insights", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", w.Code, w.Body.String())
	}
}
