// Package summarize turns memo content into a short AI-generated summary through an
// OpenAI-compatible chat completion endpoint.
package summarize

import (
	"context"
	"errors"
	"fmt"
)

// Gateway produces a summary of free text.
type Gateway interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, content string) (string, error)

func (f GatewayFunc) Summarize(ctx context.Context, content string) (string, error) {
	return f(ctx, content)
}

var (
	ErrMissingCredential = errors.New("summary API credential is not configured")
	ErrEmptyContent      = errors.New("no content to summarize")
	ErrEmptyResponse     = errors.New("summary service returned no text")
	ErrGeneration        = errors.New("summary generation failed")
)

var messages = map[error]string{
	ErrMissingCredential: "GEMINI_API_KEY가 설정되지 않았습니다.",
	ErrEmptyContent:      "요약할 내용이 제공되지 않았습니다.",
	ErrEmptyResponse:     "요약 생성에 실패했습니다.",
	ErrGeneration:        "요약 중 오류가 발생했습니다.",
}

// GatewayError is returned by every failed summarization. Kind is one of the
// Err* sentinels; Err carries the transport or service failure, if any.
type GatewayError struct {
	Kind    error
	Message string
	Err     error
}

// Message is the user-facing text for a Err* sentinel, or "" for any other error.
func Message(kind error) string { return messages[kind] }

// CredentialChecker is implemented by gateways that can tell up front whether
// they are configured to call the summary service.
type CredentialChecker interface {
	CheckCredential() error
}

func newGatewayError(kind, err error) *GatewayError {
	return &GatewayError{Kind: kind, Message: messages[kind], Err: err}
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Details describes the underlying failure, or "" when there is none.
func (e *GatewayError) Details() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// AsGatewayError extracts a *GatewayError from err's chain.
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
