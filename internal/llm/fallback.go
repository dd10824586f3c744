package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/campuscompanion/campusai/internal/reliability"
)

var (
	retryBackoffBase = 200 * time.Millisecond
	retryBackoffCap  = 2 * time.Second
)

// FallbackProvider runs a primary provider with a per-attempt timeout and
// bounded retries, then degrades to a fallback provider. A primary that
// exceeds the attempt timeout is treated as unavailable for the turn, not
// merely slow, so the caller still gets an answer inside its budget.
type FallbackProvider struct {
	primary        Provider
	fallback       Provider
	attemptTimeout time.Duration
	retries        int
	onFallback     func(err error)
}

func NewFallbackProvider(primary, fallback Provider, attemptTimeout time.Duration, retries int) *FallbackProvider {
	return &FallbackProvider{
		primary:        primary,
		fallback:       fallback,
		attemptTimeout: attemptTimeout,
		retries:        retries,
	}
}

// SetFallbackHook registers a callback invoked with the primary error each
// time a completion degrades to the fallback provider.
func (p *FallbackProvider) SetFallbackHook(fn func(err error)) {
	p.onFallback = fn
}

// Primary returns the preferred provider used before fallback.
func (p *FallbackProvider) Primary() Provider {
	if p == nil {
		return nil
	}
	return p.primary
}

// Secondary returns the degradation provider.
func (p *FallbackProvider) Secondary() Provider {
	if p == nil {
		return nil
	}
	return p.fallback
}

// Name reports the primary identity; degradation is an internal concern.
func (p *FallbackProvider) Name() string {
	if p == nil || p.primary == nil {
		return "fallback"
	}
	return p.primary.Name()
}

func (p *FallbackProvider) Complete(ctx context.Context, req Request) (string, error) {
	if p == nil || p.primary == nil {
		if p != nil && p.fallback != nil {
			return p.fallback.Complete(ctx, req)
		}
		return "", fmt.Errorf("fallback provider misconfigured")
	}

	text, err := p.completeWithRetries(ctx, req)
	if err == nil {
		return text, nil
	}
	// Caller cancellation is not a provider failure.
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return "", err
	}
	if p.fallback == nil {
		return "", err
	}

	if p.onFallback != nil {
		p.onFallback(err)
	}
	fallbackText, fallbackErr := p.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		return "", fmt.Errorf("primary provider error: %w; fallback provider error: %v", err, fallbackErr)
	}
	return fallbackText, nil
}

func (p *FallbackProvider) completeWithRetries(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			wait := reliability.ExponentialBackoff(attempt-1, retryBackoffBase, retryBackoffCap)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		text, err := p.completeOnce(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", err
		}
		if !isRetryablePrimaryError(err) {
			break
		}
	}
	return "", lastErr
}

func (p *FallbackProvider) completeOnce(ctx context.Context, req Request) (string, error) {
	if p.attemptTimeout <= 0 {
		return p.primary.Complete(ctx, req)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
	defer cancel()
	return p.primary.Complete(attemptCtx, req)
}

// isRetryablePrimaryError reports whether another primary attempt could
// plausibly succeed. Attempt timeouts are excluded: a provider that blew
// the completion budget once already cost the caller that budget.
func isRetryablePrimaryError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return reliability.IsRetryableHTTPStatus(openaiErr.HTTPStatusCode) ||
			reliability.IsRetryableCompletionCode(openaiErr.Type)
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return reliability.IsRetryableHTTPStatus(anthropicErr.StatusCode)
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return reliability.IsRetryableHTTPStatus(geminiErr.Code) ||
			reliability.IsRetryableCompletionCode(strings.ToLower(geminiErr.Status))
	}

	return false
}
