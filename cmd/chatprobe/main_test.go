package main

import (
	"testing"
	"time"
)

func TestWSURLForSession(t *testing.T) {
	got, err := wsURLForSession("http://127.0.0.1:8001", "abc-123")
	if err != nil {
		t.Fatalf("wsURLForSession() error = %v", err)
	}
	want := "ws://127.0.0.1:8001/api/chat/ws?session_id=abc-123"
	if got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}

	got, err = wsURLForSession("https://campus.example/ai/", "s1")
	if err != nil {
		t.Fatalf("wsURLForSession() error = %v", err)
	}
	want = "wss://campus.example/ai/api/chat/ws?session_id=s1"
	if got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}

	if _, err := wsURLForSession("ftp://campus.example", "s1"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func TestSplitPrompts(t *testing.T) {
	got := splitPrompts(" one | two||  three ")
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("prompt[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if out := splitPrompts("   "); out != nil {
		t.Errorf("blank input should produce nil, got %v", out)
	}
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
		40 * time.Millisecond,
		50 * time.Millisecond,
	}
	if got := percentile(sorted, 0.50); got != 30*time.Millisecond {
		t.Errorf("p50 = %s, want 30ms", got)
	}
	if got := percentile(sorted, 0.95); got != 50*time.Millisecond {
		t.Errorf("p95 = %s, want 50ms", got)
	}
	if got := percentile(sorted, 0); got != 10*time.Millisecond {
		t.Errorf("p0 = %s, want 10ms", got)
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("empty slice = %s, want 0", got)
	}
}
