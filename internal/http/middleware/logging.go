// Package middleware holds the Gin middleware shared by the HTTP layer:
// request correlation, structured logging with PII scrubbing, panic recovery,
// bearer-token authentication, Idempotency-Key validation, per-client rate
// limiting, Prometheus metrics, and security headers.
//
// Ordering matters for a few of them: RequestID must run before any logger so
// log lines carry the correlation ID, and Auth must run before
// IdempotencyValidator so replay lookups are scoped to the caller.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key holding the correlation ID.
	requestIDKey = "requestID"
	// requestIDHeader carries the correlation ID on requests and responses.
	requestIDHeader = "X-Request-ID"
	// loggerKey is the Gin context key holding the request-scoped logger.
	loggerKey = "logger"
	// maxQueryLogBytes caps how much of the raw query string is logged.
	maxQueryLogBytes = 2048
)

// RequestID reuses the caller's X-Request-ID when present, otherwise mints a
// UUIDv4. The ID is stored in the Gin context and echoed on the response so
// clients can quote it in bug reports.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger emits one structured access log per request and attaches a
// request-scoped zerolog.Logger to the Gin context for handlers to enrich.
//
// Level selection: error for 5xx or when the context collected errors,
// warn for 4xx, info otherwise. Most routers mount RedactingLogger instead;
// Logger is the unscrubbed variant for internal tooling.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		l := log.With().
			Str("request_id", c.GetString(requestIDKey)).
			Str("user_id", c.GetString(ContextUserID)).
			Str("method", c.Request.Method).
			Str("path", routePath(c)).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("referer", c.Request.Referer()).
			Str("query", clip(c.Request.URL.RawQuery, maxQueryLogBytes)).
			Int64("bytes_in", c.Request.ContentLength).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		status := c.Writer.Status()
		ev := l.With().
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Logger()

		switch {
		case len(c.Errors) > 0:
			ev.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= 500:
			ev.Error().Msg("request")
		case status >= 400:
			ev.Warn().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}

// Recovery turns panics into the standard JSON 500 envelope and logs the
// stack trace with the correlation ID. When the handler already wrote part
// of a response, only the status is aborted; no body is appended.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := c.GetString(requestIDKey)
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header("Content-Type", "application/json")
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success":    false,
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger attached by Logger or
// RedactingLogger, or the global logger when none is attached. Never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// routePath prefers the matched route pattern over the raw URL path so
// log cardinality stays bounded. Unmatched requests fall back to the raw path.
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// clip truncates s to max bytes, marking the cut with an ellipsis.
// max <= 0 disables clipping. Byte truncation is fine for log output.
func clip(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
