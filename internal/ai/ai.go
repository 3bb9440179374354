// Package ai wraps the external language-model collaborators: a text
// completer used for understanding and phrasing, and an image analyzer.
package ai

import (
	"context"
	"fmt"

	apperrors "sofia/internal/errors"
)

// Request is a single prompt to a completer.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
	// SearchContext is forwarded to providers that support web search
	// ("low", "medium", "high").
	SearchContext string
}

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ImageRequest asks the analyzer to describe an image.
type ImageRequest struct {
	Prompt   string
	Data     []byte
	MIMEType string
}

// ImageAnalyzer describes images such as receipts or bank statements.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, req ImageRequest) (string, error)
}

// RequestError is a failed call to a provider. Retryable marks transient
// failures (rate limits, 5xx, network errors).
type RequestError struct {
	Provider  string
	Status    int
	Retryable bool
	Err       error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Disabled is the local-mode collaborator used when no provider is
// configured. Every call fails with AI_UNAVAILABLE.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (string, error) {
	return "", apperrors.ErrAIUnavailable
}

func (Disabled) AnalyzeImage(context.Context, ImageRequest) (string, error) {
	return "", apperrors.ErrAIUnavailable
}

// IsUnavailable reports whether err means no collaborator is configured.
func IsUnavailable(err error) bool {
	return apperrors.CodeOf(err) == apperrors.ErrAIUnavailable.Code
}
