// Package llm adapts the OpenAI API for the two model-backed stages of the
// insight pipeline: speech-to-text transcription and structured feedback
// generation. The package exposes a single Client; services depend on the
// narrow Transcriber/FeedbackGenerator interfaces it satisfies, keeping the
// pipeline testable without network access.
package llm

import (
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/insightcoach/go-insights-backend/internal/config"
)

// Client calls the OpenAI API for transcription and chat completion.
type Client struct {
	api       *openai.Client
	httpc     *http.Client
	chatModel string
	sttModel  string
	maxMedia  int64
}

// New constructs a Client from configuration. cfg.BaseURL, when set, points
// the client at an alternate endpoint (tests use an httptest server).
func New(cfg config.OpenAIConfig, pipeline config.PipelineConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	sttModel := cfg.STTModel
	if sttModel == "" {
		sttModel = "whisper-1"
	}

	return &Client{
		api:       openai.NewClientWithConfig(apiCfg),
		httpc:     http.DefaultClient,
		chatModel: chatModel,
		sttModel:  sttModel,
		maxMedia:  pipeline.MaxMediaBytes,
	}
}

// WithHTTPClient replaces the client used to download media (test seam).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpc = h
	return c
}
