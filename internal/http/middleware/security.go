package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the headers emitted by SecurityHeaders.
//
// EnableHSTS must only be set when traffic is HTTPS end-to-end, proxy hop
// included; the header is suppressed on plain-HTTP requests regardless.
// NoStore disables caching of responses, which is what an API serving
// per-user feedback wants. EnablePolicy adds the browser feature policies;
// they are inert for non-browser clients.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	NoStore      bool
	EnablePolicy bool
}

// SecurityHeaders adds conservative hardening headers for a JSON API.
// X-Content-Type-Options, X-Frame-Options and Referrer-Policy are always
// set; the rest follow SecurityOptions. When a correlation ID is on the
// response it is also listed in Access-Control-Expose-Headers so browser
// clients can read it.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hstsValue := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		if rid := h.Get(requestIDHeader); rid != "" {
			exposeHeader(h, requestIDHeader)
		}

		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers without
// clobbering values set by the CORS layer.
func exposeHeader(h http.Header, name string) {
	const hdr = "Access-Control-Expose-Headers"
	cur := h.Get(hdr)
	switch {
	case cur == "":
		h.Set(hdr, name)
	case !strings.Contains(cur, name):
		h.Set(hdr, cur+", "+name)
	}
}

// isHTTPS reports whether the request arrived over TLS, either directly or
// as vouched for by a reverse proxy via X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
