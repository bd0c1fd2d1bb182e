package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		replies   []scriptedReply
		wantKind  Kind
		wantCalls int
	}{
		{"first attempt", []scriptedReply{okReply()}, "", 1},
		{"unavailable then ok", []scriptedReply{failReply(KindUnavailable), okReply()}, "", 2},
		{"rate limited then ok", []scriptedReply{failReply(KindRateLimit), okReply()}, "", 2},
		{"gives up after max attempts", []scriptedReply{
			failReply(KindUnavailable), failReply(KindUnavailable), failReply(KindUnavailable), okReply(),
		}, KindUnavailable, 3},
		{"rejected key is final", []scriptedReply{failReply(KindAuth), okReply()}, KindAuth, 1},
		{"unknown model is final", []scriptedReply{failReply(KindBadRequest), okReply()}, KindBadRequest, 1},
		{"invalid reply is final", []scriptedReply{failReply(KindInvalidReply), okReply()}, KindInvalidReply, 1},
		{"truncated reply is final", []scriptedReply{failReply(KindTruncated), okReply()}, KindTruncated, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &scripted{replies: tt.replies}
			p := WithRetry(base, fastRetry())

			resp, err := p.Generate(context.Background(), probeRequest())
			if got := KindOf(err); got != tt.wantKind {
				t.Fatalf("error kind = %q (%v), want %q", got, err, tt.wantKind)
			}
			if err == nil && string(resp.Content) != `{"status":"ok"}` {
				t.Fatalf("unexpected content: %s", resp.Content)
			}
			if len(base.calls) != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, len(base.calls))
			}
			for i, n := range base.attempts {
				if n != i+1 {
					t.Fatalf("call %d saw attempt %d", i, n)
				}
			}
		})
	}
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	base := &scripted{replies: []scriptedReply{failReply(KindUnavailable), okReply()}}
	p := WithRetry(base, RetryConfig{MaxAttempts: 3, InitialWait: time.Hour, MaxWait: time.Hour, Multiplier: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(base.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(base.calls))
	}
}

func TestRetry_ReportsProviderErrorBeforeDeadline(t *testing.T) {
	base := &scripted{replies: []scriptedReply{failReply(KindUnavailable), okReply()}}
	p := WithRetry(base, RetryConfig{MaxAttempts: 3, InitialWait: time.Minute, MaxWait: time.Minute, Multiplier: 1})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	_, err := p.Generate(ctx, Request{})
	if KindOf(err) != KindUnavailable {
		t.Fatalf("expected the provider error, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("should not wait out the deadline")
	}
}

func TestRetry_LongRetryAfterFailsFast(t *testing.T) {
	limited := &Error{Provider: "scripted", Kind: KindRateLimit, RetryAfter: time.Hour, Err: errors.New("429")}
	base := &scripted{replies: []scriptedReply{{err: limited}, okReply()}}
	p := WithRetry(base, fastRetry())

	_, err := p.Generate(context.Background(), Request{})
	if !errors.Is(err, limited) {
		t.Fatalf("expected the rate limit error, got %v", err)
	}
	if len(base.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(base.calls))
	}
}

func TestRetry_ZeroAttemptsStillCalls(t *testing.T) {
	base := &scripted{replies: []scriptedReply{okReply()}}
	p := WithRetry(base, RetryConfig{})
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "scripted" || p.ModelID() != "scripted-1" {
		t.Fatalf("wrapper should delegate identity, got %s/%s", p.Name(), p.ModelID())
	}
}

func TestRetryWait(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: time.Second, MaxWait: 2 * time.Second, Multiplier: 10}}
	down := &Error{Kind: KindUnavailable}
	for attempt := 1; attempt <= 4; attempt++ {
		wait, ok := r.wait(attempt, down)
		// ±20% jitter around the capped value.
		if !ok || wait > 2400*time.Millisecond {
			t.Fatalf("attempt %d: wait %s ok=%v", attempt, wait, ok)
		}
	}
	if got, ok := r.wait(1, &Error{Kind: KindRateLimit, RetryAfter: 1500 * time.Millisecond}); !ok || got != 1500*time.Millisecond {
		t.Fatalf("expected RetryAfter to be honoured, got %s %v", got, ok)
	}
	if _, ok := r.wait(1, errors.New("plain")); ok {
		t.Fatal("unclassified errors must not be retried")
	}
}
