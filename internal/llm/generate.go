package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/insightcoach/go-insights-backend/internal/domain"
)

// GenerateFeedback asks the chat model for structured feedback on a
// transcript and parses the reply into a domain.Feedback. JSON mode is
// requested so the model may not wrap its answer in prose, but the reply is
// still validated in full; a malformed reply surfaces as
// domain.ErrMalformedFeedback.
func (c *Client) GenerateFeedback(ctx context.Context, transcript, perspective, notes string) (*domain.Feedback, error) {
	tr := otel.Tracer("llm/Client")
	ctx, span := tr.Start(ctx, "GenerateFeedback",
		trace.WithAttributes(attribute.String("chat.perspective", perspective)),
	)
	defer span.End()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(transcript, perspective, notes)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("create chat completion: empty response")
	}

	fb, err := domain.ParseFeedback([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, err
	}
	return fb, nil
}
