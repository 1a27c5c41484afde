package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrMediaTooLarge marks a recording over the configured size cap. The whole
// transcription fails; a truncated recording must never be transcribed.
var ErrMediaTooLarge = errors.New("media exceeds size limit")

// ContentTypeFor maps a declared container format to the MIME type the media
// is submitted under. Unknown formats fall through to a generic binary type
// and are passed along; the speech service may still reject them.
func ContentTypeFor(format string) string {
	switch format {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}

// Transcribe downloads the media at fileURL and obtains an English-normalized
// transcript via the translation endpoint. The call can take tens of seconds
// for large media; callers bound it with a context deadline.
//
// No partial transcript is ever returned: any download or upstream error
// yields ("", err).
func (c *Client) Transcribe(ctx context.Context, fileURL, format string) (string, error) {
	tr := otel.Tracer("llm/Client")
	ctx, span := tr.Start(ctx, "Transcribe",
		trace.WithAttributes(
			attribute.String("media.format", format),
			attribute.String("media.content_type", ContentTypeFor(format)),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("build media request: %w", err)
	}
	req.Header.Set("Accept", ContentTypeFor(format))

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download media: unexpected status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if c.maxMedia > 0 {
		if resp.ContentLength > c.maxMedia {
			return "", fmt.Errorf("%w: %d bytes, limit %d", ErrMediaTooLarge, resp.ContentLength, c.maxMedia)
		}
		body = &capReader{r: resp.Body, max: c.maxMedia}
	}

	translation, err := c.api.CreateTranslation(ctx, openai.AudioRequest{
		Model:    c.sttModel,
		Reader:   body,
		FilePath: "file." + format,
	})
	if err != nil {
		return "", fmt.Errorf("create translation: %w", err)
	}
	return translation.Text, nil
}

// capReader fails the read once more than max bytes have been consumed.
// Unlike io.LimitReader it surfaces an error instead of a silent EOF, so an
// oversized download aborts the stage rather than submitting a prefix.
type capReader struct {
	r    io.Reader
	max  int64
	read int64
}

func (cr *capReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.read += int64(n)
	if cr.read > cr.max {
		return n, fmt.Errorf("%w: limit %d", ErrMediaTooLarge, cr.max)
	}
	return n, err
}
