// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/insightcoach/go-insights-backend/internal/auth"
	"github.com/insightcoach/go-insights-backend/internal/config"
	"github.com/insightcoach/go-insights-backend/internal/http/handlers"
	"github.com/insightcoach/go-insights-backend/internal/http/middleware"
	"github.com/insightcoach/go-insights-backend/internal/llm"
	"github.com/insightcoach/go-insights-backend/internal/repo"
	"github.com/insightcoach/go-insights-backend/internal/services"
	"github.com/insightcoach/go-insights-backend/internal/signing"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter + gzip
//  6. Metrics
//  7. Rate limiter (per user/IP, bypass on replay)
//  8. CORS and Security headers
//
// Authentication and idempotency validation are mounted per route group, so
// public endpoints stay token-free and the idempotency lookup sees the
// authenticated identity.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, model *llm.Client, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			middleware.HeaderIdempotencyKey,
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB; media goes straight to storage, so
	// request bodies stay small) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/model
	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	authSvc := services.NewAuthService(db, issuer)
	uploadSvc := services.NewUploadService(
		signing.NewSigner(cfg.Upload.UploadURL(), cfg.Upload.APIKey, cfg.Upload.APISecret),
		cfg.Upload.BaseFolder,
	)
	insightSvc := services.NewInsightService(db, model, model)
	insightSvc.TranscribeTimeout = cfg.Pipeline.TranscribeTimeout
	insightSvc.GenerateTimeout = cfg.Pipeline.GenerateTimeout

	h := handlers.New(authSvc, uploadSvc, insightSvc, db, cfg.JWT.TTL)
	h.SetIdempotencyTTL(cfg.IdempotencyTTL)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)

	// Accounts (public)
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	// Everything else requires a bearer token. Idempotency validation mounts
	// after Auth so the lookup sees the authenticated user.
	authed := api.Group("")
	authed.Use(middleware.Auth(issuer))
	authed.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
			Scope:  handlers.IdempotencyScope,
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))
	{
		// Upload grants
		authed.GET("/uploads/grant", h.UploadGrant)

		// Insights
		authed.POST("/insights", h.SubmitInsight)
		authed.GET("/insights", h.ListInsights)
		authed.GET("/insights/:id", h.GetInsight)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
