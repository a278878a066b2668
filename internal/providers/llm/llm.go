// Package llm wraps chat-completion providers behind one Client contract.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"

	"carekorea/internal/domain"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderStatic    = "static"
)

// Request is one completion call.
type Request struct {
	SystemPrompt    string
	UserPrompt      string
	MaxOutputTokens int
	Temperature     float64
}

// Response carries the raw model text and its accounting.
type Response struct {
	Text         string
	Model        string
	Provider     string
	InputTokens  int64
	OutputTokens int64
	// Cost is in USD; zero when the model is not priced.
	Cost float64
}

// Client is the contract implemented by all LLM providers.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// Reason classifies a provider failure.
type Reason string

const (
	ReasonRateLimit          Reason = "rate_limit"
	ReasonInsufficientCredit Reason = "insufficient_credit"
	ReasonTimeout            Reason = "timeout"
	ReasonMalformedOutput    Reason = "malformed_output"
	ReasonUpstream           Reason = "upstream"
)

// Error is a provider failure. It always unwraps to domain.ErrGeneration.
type Error struct {
	Provider string
	Reason   Reason
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *Error) Unwrap() []error { return []error{domain.ErrGeneration, e.Err} }

// classify turns an SDK error into an *Error.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Provider: provider, Reason: reasonOf(err), Err: err}
}

func reasonOf(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	status, message := 0, strings.ToLower(err.Error())

	var openaiErr *openai.Error
	var anthropicErr *anthropic.Error
	var genaiErr genai.APIError
	switch {
	case errors.As(err, &openaiErr):
		status = openaiErr.StatusCode
	case errors.As(err, &anthropicErr):
		status = anthropicErr.StatusCode
	case errors.As(err, &genaiErr):
		status = genaiErr.Code
	}

	switch {
	case status == http.StatusPaymentRequired,
		strings.Contains(message, "insufficient_quota"),
		strings.Contains(message, "credit balance"),
		strings.Contains(message, "billing"):
		return ReasonInsufficientCredit
	case status == http.StatusTooManyRequests, strings.Contains(message, "resource_exhausted"):
		return ReasonRateLimit
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return ReasonTimeout
	default:
		return ReasonUpstream
	}
}

func emptyOutput(provider string) error {
	return &Error{Provider: provider, Reason: ReasonMalformedOutput, Err: errors.New("empty completion")}
}

// ReasonOf returns the classified reason of err, or "" when err is not a provider error.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
