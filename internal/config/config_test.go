package config

import (
	"strings"
	"testing"
	"time"
)

// setRequired sets the env vars without which Load refuses to start.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("UPLOAD_CLOUD_NAME", "demo")
	t.Setenv("UPLOAD_API_KEY", "key123")
	t.Setenv("UPLOAD_API_SECRET", "sec456")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("APIBasePath = %q, want /api/v1", cfg.APIBasePath)
	}
	if cfg.JWT.TTL != 12*time.Hour {
		t.Errorf("JWT.TTL = %v, want 12h", cfg.JWT.TTL)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %q, want gpt-4o-mini", cfg.OpenAI.ChatModel)
	}
	if cfg.OpenAI.STTModel != "whisper-1" {
		t.Errorf("STTModel = %q, want whisper-1", cfg.OpenAI.STTModel)
	}
	if cfg.Pipeline.TranscribeTimeout != 60*time.Second {
		t.Errorf("TranscribeTimeout = %v, want 60s", cfg.Pipeline.TranscribeTimeout)
	}
	if cfg.Pipeline.GenerateTimeout != 30*time.Second {
		t.Errorf("GenerateTimeout = %v, want 30s", cfg.Pipeline.GenerateTimeout)
	}
	if cfg.Upload.BaseFolder != "ai-insights" {
		t.Errorf("BaseFolder = %q, want ai-insights", cfg.Upload.BaseFolder)
	}
}

func TestLoad_MissingSecretsFail(t *testing.T) {
	cases := []string{"JWT_SECRET", "UPLOAD_CLOUD_NAME", "UPLOAD_API_KEY", "UPLOAD_API_SECRET", "OPENAI_API_KEY"}
	for _, missing := range cases {
		t.Run(missing, func(t *testing.T) {
			setRequired(t)
			t.Setenv(missing, "")
			if _, err := Load(); err == nil {
				t.Fatalf("Load succeeded without %s", missing)
			}
		})
	}
}

func TestLoad_UploadURL(t *testing.T) {
	setRequired(t)
	t.Setenv("UPLOAD_CLOUD_NAME", "acme")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	url := cfg.Upload.UploadURL()
	if !strings.Contains(url, "/acme/") || !strings.HasSuffix(url, "/auto/upload") {
		t.Fatalf("UploadURL = %q", url)
	}
}

func TestLoad_NormalizesValues(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("GIN_MODE", "bogus")
	t.Setenv("API_BASE_PATH", "api/v2/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q, want release", cfg.GinMode)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Errorf("APIBasePath = %q, want /api/v2", cfg.APIBasePath)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := []struct {
		key, val string
	}{
		{"LOG_LEVEL", "verbose"},
		{"PORT", " "},
		{"READ_TIMEOUT", "-1s"},
		{"MAX_HEADER_BYTES", "-5"},
		{"DB_PATH", " "},
		{"JWT_TTL", "-1h"},
		{"TRANSCRIBE_TIMEOUT", "-10s"},
		{"MAX_MEDIA_BYTES", "-1"},
		{"RATE_RPS", "-2"},
		{"RATE_BURST", "0"},
		{"IDEMPOTENCY_TTL", "-1m"},
		{"OTEL_TRACES_SAMPLER_ARG", "3.5"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("Load accepted %s=%q", tc.key, tc.val)
			}
		})
	}
}

func TestMustLoad_PanicsOnInvalid(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	defer func() {
		if recover() == nil {
			t.Fatalf("MustLoad did not panic")
		}
	}()
	_ = MustLoad()
}
