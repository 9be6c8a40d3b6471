package detect

import (
	"context"
	"errors"

	"github.com/CodeBotMzee/FYP/internal/catalog"
	"github.com/CodeBotMzee/FYP/internal/classifier"
	"github.com/CodeBotMzee/FYP/internal/media"
	"github.com/CodeBotMzee/FYP/internal/registry"
)

// Stable error codes surfaced to callers of the detection API. The
// transport layer maps these to responses; they never change meaning.
const (
	CodeUnknownModel     = "unknown_model"
	CodeModelLoad        = "model_load_error"
	CodeUnsupportedMedia = "unsupported_media"
	CodeEmptyMedia       = "empty_media"
	CodeInference        = "inference_error"
	CodeCanceled         = "canceled"
	CodeInternal         = "internal_error"
)

// Code maps a pipeline error to its stable code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, catalog.ErrUnknownModel):
		return CodeUnknownModel
	case errors.Is(err, registry.ErrModelLoad):
		return CodeModelLoad
	case errors.Is(err, media.ErrUnsupportedMedia):
		return CodeUnsupportedMedia
	case errors.Is(err, media.ErrEmptyMedia):
		return CodeEmptyMedia
	case errors.Is(err, classifier.ErrInference):
		return CodeInference
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	default:
		return CodeInternal
	}
}

// ClientError reports whether the failure was caused by the caller's
// input rather than the pipeline. Model load and inference faults are
// server-side; a model load error is retryable.
func ClientError(err error) bool {
	switch Code(err) {
	case CodeUnknownModel, CodeUnsupportedMedia, CodeEmptyMedia:
		return true
	}
	return false
}
