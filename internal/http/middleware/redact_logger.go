package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Patterns scrubbed from query strings and header values before logging.
// UUIDs go first so the loose phone pattern cannot eat their digit runs.
var (
	redactUUIDRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	redactEmailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	redactPhoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// Header names whose values are always replaced wholesale, never logged.
var alwaysMasked = []string{"authorization", "cookie", "set-cookie"}

// RedactOptions configures RedactingLogger. MaskHeaders lists extra header
// names (case-insensitive) to mask wholesale, on top of Authorization,
// Cookie and Set-Cookie.
type RedactOptions struct {
	MaskHeaders []string
}

// RedactingLogger is the access logger mounted in production. It never logs
// bodies, masks sensitive headers, and scrubs emails, phone numbers and
// UUID-shaped identifiers from query strings and remaining header values.
// Like Logger, it attaches a request-scoped zerolog.Logger for LoggerFrom.
//
// Scrubbing narrows the blast radius of a leaked log, it does not make logs
// safe for PII. Clients should keep identifiers out of query strings.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := make(map[string]struct{}, len(alwaysMasked)+len(opts.MaskHeaders))
	for _, h := range alwaysMasked {
		masked[h] = struct{}{}
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := routePath(c)
		safeQuery := scrub(c.Request.URL.RawQuery)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = scrub(strings.Join(vv, ", "))
		}

		l := log.With().
			Str("request_id", requestIDFor(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		ev.
			Str("query", safeQuery).
			Str("user_id", c.GetString(ContextUserID)).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}

// scrub blanks identifier-shaped substrings: UUIDs, then emails, then the
// loosest pattern, phone numbers.
func scrub(s string) string {
	if s == "" {
		return s
	}
	s = redactUUIDRE.ReplaceAllString(s, "[REDACTED:id]")
	s = redactEmailRE.ReplaceAllString(s, "[REDACTED:email]")
	s = redactPhoneRE.ReplaceAllString(s, "[REDACTED:phone]")
	return s
}

// requestIDFor resolves the correlation ID: the context value set by
// RequestID wins, then the response header, then the request header.
func requestIDFor(c *gin.Context) string {
	if rid := c.GetString(requestIDKey); rid != "" {
		return rid
	}
	if rid := c.Writer.Header().Get(requestIDHeader); rid != "" {
		return rid
	}
	return c.GetHeader(requestIDHeader)
}
