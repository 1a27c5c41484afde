// Package services – UploadService
//
// This file implements the UploadService, which gates direct-to-storage
// uploads. A client declares the MIME type of the recording it wants to
// upload; the service checks it against the audio and video allowlists,
// derives the destination folder from the media class, and returns a signed
// single-use grant. The server never touches the media bytes itself.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/insightcoach/go-insights-backend/internal/signing"
)

// Media classes derived from a declared MIME type.
const (
	MediaAudio = "audio"
	MediaVideo = "video"
	MediaOther = "other"
)

// audioTypes and videoTypes are the accepted recording formats. Anything
// else is refused before a grant is issued.
var (
	audioTypes = map[string]bool{
		"audio/mpeg": true,
		"audio/wav":  true,
		"audio/aac":  true,
		"audio/ogg":  true,
		"audio/mp4":  true,
		"audio/flac": true,
		"audio/webm": true,
	}
	videoTypes = map[string]bool{
		"video/mp4":        true,
		"video/quicktime":  true,
		"video/x-msvideo":  true,
		"video/x-matroska": true,
		"video/webm":       true,
	}
)

// GrantSigner issues signed upload credentials for a destination folder.
type GrantSigner interface {
	Issue(folder string) (*signing.Grant, error)
}

// UploadService validates declared media types and issues upload grants.
type UploadService struct {
	// Signer produces the credential itself.
	Signer GrantSigner
	// BaseFolder is the storage prefix all uploads land under.
	BaseFolder string
}

// NewUploadService constructs an UploadService.
func NewUploadService(signer GrantSigner, baseFolder string) *UploadService {
	return &UploadService{Signer: signer, BaseFolder: baseFolder}
}

// Classify buckets a MIME type into audio, video, or other. Classification
// is driven by the allowlists, not the type prefix, so an unlisted
// "audio/x-exotic" still classifies as other.
func Classify(mimeType string) string {
	switch {
	case audioTypes[mimeType]:
		return MediaAudio
	case videoTypes[mimeType]:
		return MediaVideo
	default:
		return MediaOther
	}
}

// IssueGrant validates fileType and returns a signed grant scoped to the
// folder for its media class. Unsupported types get ErrInvalidMediaType and
// no grant is minted.
func (s *UploadService) IssueGrant(ctx context.Context, fileType string) (*signing.Grant, error) {
	tr := otel.Tracer("services/UploadService")
	_, span := tr.Start(ctx, "IssueGrant",
		trace.WithAttributes(attribute.String("upload.file_type", fileType)),
	)
	defer span.End()

	class := Classify(fileType)
	if class == MediaOther {
		return nil, ErrInvalidMediaType
	}
	span.SetAttributes(attribute.String("upload.class", class))

	return s.Signer.Issue(s.BaseFolder + "/" + class)
}
