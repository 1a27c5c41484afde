// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, authentication secrets,
// upload signing credentials, OpenAI access, and observability.
//
// All secrets are carried on the Config value and injected into components at
// startup; no package reads ambient process state after Load returns.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-insights-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// JWTConfig defines bearer token issuance and verification settings.
type JWTConfig struct {
	Secret string        // JWT_SECRET (required)
	TTL    time.Duration // JWT_TTL, default 12h to match token lifetime of the web client
}

// UploadConfig defines the signed direct-upload grant settings. Clients place
// media into object storage themselves; the server only signs grants.
type UploadConfig struct {
	CloudName  string // UPLOAD_CLOUD_NAME
	APIKey     string // UPLOAD_API_KEY (returned to clients inside grants)
	APISecret  string // UPLOAD_API_SECRET (never leaves the server)
	BaseFolder string // UPLOAD_BASE_FOLDER, default "ai-insights"
}

// UploadURL returns the vendor endpoint clients upload to with a signed grant.
func (u UploadConfig) UploadURL() string {
	return "https://api.cloudinary.com/v1_1/" + u.CloudName + "/auto/upload"
}

// OpenAIConfig defines language-model and speech-to-text access settings.
type OpenAIConfig struct {
	APIKey    string // OPENAI_API_KEY (required)
	BaseURL   string // OPENAI_BASE_URL, empty for the public API (tests override)
	ChatModel string // OPENAI_CHAT_MODEL, default "gpt-4o-mini"
	STTModel  string // OPENAI_STT_MODEL, default "whisper-1"
}

// PipelineConfig bounds the long-running stages of the insight pipeline.
// Each stage gets its own deadline; exceeding it surfaces as a distinct
// deadline error rather than a generic upstream failure.
type PipelineConfig struct {
	TranscribeTimeout time.Duration // TRANSCRIBE_TIMEOUT, default 60s
	GenerateTimeout   time.Duration // GENERATE_TIMEOUT, default 30s
	MaxMediaBytes     int64         // MAX_MEDIA_BYTES cap on downloaded media, default 100MiB
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // must exceed the pipeline deadlines
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath   string // SQLite path
	JWT      JWTConfig
	Upload   UploadConfig
	OpenAI   OpenAIConfig
	Pipeline PipelineConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "app.db"),
		JWT: JWTConfig{
			Secret: getenv("JWT_SECRET", ""),
			TTL:    getdur("JWT_TTL", 12*time.Hour),
		},
		Upload: UploadConfig{
			CloudName:  getenv("UPLOAD_CLOUD_NAME", ""),
			APIKey:     getenv("UPLOAD_API_KEY", ""),
			APISecret:  getenv("UPLOAD_API_SECRET", ""),
			BaseFolder: getenv("UPLOAD_BASE_FOLDER", "ai-insights"),
		},
		OpenAI: OpenAIConfig{
			APIKey:    getenv("OPENAI_API_KEY", ""),
			BaseURL:   getenv("OPENAI_BASE_URL", ""),
			ChatModel: getenv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			STTModel:  getenv("OPENAI_STT_MODEL", "whisper-1"),
		},
		Pipeline: PipelineConfig{
			TranscribeTimeout: getdur("TRANSCRIBE_TIMEOUT", 60*time.Second),
			GenerateTimeout:   getdur("GENERATE_TIMEOUT", 30*time.Second),
			MaxMediaBytes:     getint64("MAX_MEDIA_BYTES", 100<<20),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-insights-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return cfg, errors.New("JWT_SECRET must not be empty")
	}
	if cfg.JWT.TTL <= 0 {
		return cfg, errors.New("JWT_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Upload.CloudName) == "" ||
		strings.TrimSpace(cfg.Upload.APIKey) == "" ||
		strings.TrimSpace(cfg.Upload.APISecret) == "" {
		return cfg, errors.New("UPLOAD_CLOUD_NAME, UPLOAD_API_KEY and UPLOAD_API_SECRET must not be empty")
	}
	if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		return cfg, errors.New("OPENAI_API_KEY must not be empty")
	}
	if cfg.Pipeline.TranscribeTimeout <= 0 || cfg.Pipeline.GenerateTimeout <= 0 {
		return cfg, errors.New("pipeline timeouts must be positive durations")
	}
	if cfg.Pipeline.MaxMediaBytes <= 0 {
		return cfg, errors.New("MAX_MEDIA_BYTES must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
