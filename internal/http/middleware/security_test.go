package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRouter(opt SecurityOptions, pre gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := securityRouter(SecurityOptions{}, func(c *gin.Context) {
		c.Header(requestIDHeader, "rid-123")
		c.Next()
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	// Optional headers stay off by default.
	for _, hdr := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security"} {
		if h.Get(hdr) != "" {
			t.Errorf("unexpected %s: %q", hdr, h.Get(hdr))
		}
	}
	if got := h.Get("Access-Control-Expose-Headers"); got != requestIDHeader {
		t.Errorf("expose header = %q, want %q", got, requestIDHeader)
	}
}

func TestSecurityHeaders_ExposeHeaderMerging(t *testing.T) {
	cases := []struct {
		name     string
		existing string
		want     string
	}{
		{"appends", "Foo", "Foo, X-Request-ID"},
		{"no duplicate", "X-Request-ID, Foo", "X-Request-ID, Foo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := securityRouter(SecurityOptions{}, func(c *gin.Context) {
				c.Header(requestIDHeader, "rid")
				c.Header("Access-Control-Expose-Headers", tc.existing)
				c.Next()
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
			if got := w.Header().Get("Access-Control-Expose-Headers"); got != tc.want {
				t.Fatalf("expose header = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSecurityHeaders_AllOptions(t *testing.T) {
	r := securityRouter(SecurityOptions{
		EnableHSTS:   true,
		HSTSMaxAge:   24 * time.Hour,
		NoStore:      true,
		EnablePolicy: true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.TLS = &tls.ConnectionState{}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	h := w.Header()
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Errorf("policy headers missing: %#v", h)
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Errorf("cache headers missing: %#v", h)
	}
	if got := h.Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestSecurityHeaders_HSTSOnlyOverTLS(t *testing.T) {
	r := securityRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour}, nil)

	// Plain HTTP never gets HSTS, even when enabled.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS on plain HTTP: %q", got)
	}

	// A proxy vouching via X-Forwarded-Proto counts as HTTPS.
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); !strings.HasPrefix(got, "max-age=") {
		t.Fatalf("HSTS missing behind proxy: %q", got)
	}
}

func TestIsHTTPS(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(plain) {
		t.Error("plain request reported as HTTPS")
	}

	tlsReq := httptest.NewRequest(http.MethodGet, "/", nil)
	tlsReq.TLS = &tls.ConnectionState{}
	if !isHTTPS(tlsReq) {
		t.Error("TLS request not reported as HTTPS")
	}

	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")
	if !isHTTPS(proxied) {
		t.Error("proxied HTTPS not detected")
	}
}
