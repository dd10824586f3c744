package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func TestFallbackProviderUsesPrimaryWhenHealthy(t *testing.T) {
	p := NewFallbackProvider(okProvider{text: "primary"}, okProvider{text: "backup"}, 0, 0)
	got, err := p.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "primary" {
		t.Fatalf("Complete() = %q, want primary", got)
	}
}

func TestFallbackProviderDegradesOnPrimaryError(t *testing.T) {
	var hookErr error
	p := NewFallbackProvider(errProvider{}, okProvider{text: "fallback"}, 0, 0)
	p.SetFallbackHook(func(err error) { hookErr = err })

	got, err := p.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "fallback" {
		t.Fatalf("Complete() = %q, want fallback", got)
	}
	if hookErr == nil {
		t.Fatal("fallback hook did not receive the primary error")
	}
}

func TestFallbackProviderSkipsFallbackOnCanceledContext(t *testing.T) {
	fb := &countingProvider{text: "fallback"}
	p := NewFallbackProvider(cancelProvider{}, fb, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Complete(ctx, Request{Prompt: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if fb.calls != 0 {
		t.Fatalf("fallback should not be called, calls = %d", fb.calls)
	}
}

func TestFallbackProviderRetriesRetryableStatus(t *testing.T) {
	oldBase := retryBackoffBase
	retryBackoffBase = time.Millisecond
	defer func() { retryBackoffBase = oldBase }()

	primary := &flakyProvider{
		failures: 1,
		err:      &openai.APIError{HTTPStatusCode: 503, Message: "upstream overloaded"},
		text:     "recovered",
	}
	fb := &countingProvider{text: "fallback"}
	p := NewFallbackProvider(primary, fb, 0, 1)

	got, err := p.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "recovered" {
		t.Fatalf("Complete() = %q, want recovered", got)
	}
	if primary.calls != 2 {
		t.Fatalf("primary calls = %d, want 2", primary.calls)
	}
	if fb.calls != 0 {
		t.Fatalf("fallback calls = %d, want 0", fb.calls)
	}
}

func TestFallbackProviderDoesNotRetryNonRetryableError(t *testing.T) {
	primary := &flakyProvider{failures: 10, err: errors.New("bad request")}
	p := NewFallbackProvider(primary, okProvider{text: "fallback"}, 0, 3)

	got, err := p.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "fallback" {
		t.Fatalf("Complete() = %q, want fallback", got)
	}
	if primary.calls != 1 {
		t.Fatalf("primary calls = %d, want 1", primary.calls)
	}
}

func TestFallbackProviderReportsBothErrors(t *testing.T) {
	p := NewFallbackProvider(errProvider{}, errProvider{}, 0, 0)
	_, err := p.Complete(context.Background(), Request{Prompt: "x"})
	if err == nil {
		t.Fatal("Complete() error = nil, want combined error")
	}
	if !strings.Contains(err.Error(), "primary provider error") ||
		!strings.Contains(err.Error(), "fallback provider error") {
		t.Fatalf("error = %v, want both provider errors reported", err)
	}
}

func TestFallbackProviderAttemptTimeoutDegrades(t *testing.T) {
	p := NewFallbackProvider(slowProvider{}, okProvider{text: "rules reply"}, 20*time.Millisecond, 0)

	got, err := p.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "rules reply" {
		t.Fatalf("Complete() = %q, want rules reply", got)
	}
}

func TestFallbackProviderNameReportsPrimary(t *testing.T) {
	p := NewFallbackProvider(okProvider{text: "x"}, NewRuleBasedProvider(), 0, 0)
	if p.Name() != "ok" {
		t.Fatalf("Name() = %q, want ok", p.Name())
	}
}

type errProvider struct{}

func (errProvider) Complete(context.Context, Request) (string, error) {
	return "", errors.New("boom")
}

func (errProvider) Name() string { return "err" }

type okProvider struct {
	text string
}

func (p okProvider) Complete(context.Context, Request) (string, error) {
	return p.text, nil
}

func (okProvider) Name() string { return "ok" }

type cancelProvider struct{}

func (cancelProvider) Complete(ctx context.Context, _ Request) (string, error) {
	return "", ctx.Err()
}

func (cancelProvider) Name() string { return "cancel" }

type countingProvider struct {
	text  string
	calls int
}

func (p *countingProvider) Complete(context.Context, Request) (string, error) {
	p.calls++
	return p.text, nil
}

func (*countingProvider) Name() string { return "counting" }

type flakyProvider struct {
	failures int
	err      error
	text     string
	calls    int
}

func (p *flakyProvider) Complete(context.Context, Request) (string, error) {
	p.calls++
	if p.calls <= p.failures {
		return "", p.err
	}
	return p.text, nil
}

func (*flakyProvider) Name() string { return "flaky" }

type slowProvider struct{}

func (slowProvider) Complete(ctx context.Context, _ Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (slowProvider) Name() string { return "slow" }
