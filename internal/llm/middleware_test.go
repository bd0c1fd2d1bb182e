package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/abhisek/nutrify/internal/store"
)

func openEvents(t *testing.T) store.EventRepo {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestLoggingRecordsEachAttempt(t *testing.T) {
	events := openEvents(t)
	base := &scripted{replies: []scriptedReply{
		failReply(KindUnavailable),
		{content: `{"status":"ok"}`, usage: Usage{InputTokens: 12, OutputTokens: 3}},
	}}
	p := WithRetry(WithLogging(base, events, zap.NewNop()), fastRetry())
	ctx := WithPurpose(context.Background(), "provider-save")

	if _, err := p.Generate(ctx, probeRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recs, err := events.QueryLLMEvents(context.Background(), store.QueryOpts{Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(recs))
	}

	ok, failed := recs[0], recs[1]
	if failed.Success || failed.Attempt != 1 || !strings.Contains(failed.ErrorMessage, "unavailable") {
		t.Fatalf("oldest event should be the failed first attempt, got %+v", failed.LLMRequestEventData)
	}
	if !ok.Success || ok.Attempt != 2 || ok.InputTokens != 12 || ok.OutputTokens != 3 {
		t.Fatalf("unexpected success event: %+v", ok.LLMRequestEventData)
	}
	if ok.Provider != "scripted" || ok.Model != "scripted-1" || ok.Purpose != "provider-save" {
		t.Fatalf("unexpected identity: %+v", ok.LLMRequestEventData)
	}
	if !strings.Contains(ok.RequestBody, "[schema: test-status]") || ok.ResponseBody != `{"status":"ok"}` {
		t.Fatalf("bodies not recorded: %q / %q", ok.RequestBody, ok.ResponseBody)
	}
}

func TestLoggingKeepsRejectedReply(t *testing.T) {
	events := openEvents(t)
	base := &scripted{replies: []scriptedReply{{err: &Error{
		Provider: "scripted",
		Kind:     KindInvalidReply,
		Content:  json.RawMessage(`{"status":"maybe"}`),
		Err:      errors.New("enum mismatch"),
	}}}}

	if _, err := WithLogging(base, events, nil).Generate(context.Background(), probeRequest()); err == nil {
		t.Fatal("expected error")
	}
	recs, err := events.QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 1 || recs[0].ResponseBody != `{"status":"maybe"}` || recs[0].Purpose != string(Unlabelled) {
		t.Fatalf("unexpected events: %+v", recs)
	}
}

func TestNewProvider(t *testing.T) {
	events := openEvents(t)

	p, err := NewProvider(context.Background(), NewConfig(ProviderAnthropic, "", "sk-ant"), events, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*RetryProvider); !ok {
		t.Fatalf("expected retry wrapper outermost, got %T", p)
	}
	if p.Name() != ProviderAnthropic || p.ModelID() != "claude-haiku-4-5-20251001" {
		t.Fatalf("unexpected identity %s/%s", p.Name(), p.ModelID())
	}

	_, err = NewProvider(context.Background(), NewConfig(ProviderOpenAI, "", ""), events, nil)
	var se *SettingsError
	if !errors.As(err, &se) || se.Provider != ProviderOpenAI || !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected missing key settings error, got %v", err)
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("missing key error should name the variable: %v", err)
	}
	if _, err := NewProvider(context.Background(), NewConfig("cohere", "", "k"), events, nil); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}

	p, err = NewProvider(context.Background(), NewConfig(ProviderOpenRouter, "", "sk-or"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != DefaultModel(ProviderOpenRouter) {
		t.Fatalf("unexpected model %q", p.ModelID())
	}
}

func TestConfig(t *testing.T) {
	cfg := NewConfig(" Anthropic ", "", "sk")
	if cfg.Provider != ProviderAnthropic || cfg.Model != "claude-haiku" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("expected default retry, got %+v", cfg.Retry)
	}

	tests := []struct {
		cfg  Config
		want error
	}{
		{Config{Provider: ProviderAnthropic}, ErrMissingKey},
		{Config{Provider: ProviderGemini, APIKey: "k"}, nil},
		{Config{Provider: "mock"}, ErrUnknownProvider},
		{Config{Provider: "unknown", APIKey: "k"}, ErrUnknownProvider},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if tt.want == nil && err != nil || tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("%s: Validate() error = %v, want %v", tt.cfg.Provider, err, tt.want)
		}
	}
}

func TestKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-generic")
	if got := KeyFromEnv(ProviderOpenAI); got != "sk-generic" {
		t.Fatalf("expected conventional variable, got %q", got)
	}
	t.Setenv("NUTRIFY_OPENAI_API_KEY", "sk-nutrify")
	if got := KeyFromEnv(ProviderOpenAI); got != "sk-nutrify" {
		t.Fatalf("expected NUTRIFY_ variable to win, got %q", got)
	}

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("NUTRIFY_GEMINI_API_KEY", "")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != ProviderOpenAI || cfg.APIKey != "sk-nutrify" {
		t.Fatalf("unexpected discovery: %+v %v", cfg, ok)
	}
}

func TestRequestContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != Unlabelled {
		t.Fatalf("expected %q, got %q", Unlabelled, p)
	}
	if n := AttemptFrom(ctx); n != 1 {
		t.Fatalf("expected attempt 1 by default, got %d", n)
	}
	ctx = withAttempt(WithPurpose(ctx, "provider-probe"), 2)
	if p := PurposeFrom(ctx); p != "provider-probe" {
		t.Fatalf("expected provider-probe, got %q", p)
	}
	if n := AttemptFrom(ctx); n != 2 {
		t.Fatalf("expected attempt 2, got %d", n)
	}
}

func TestEstimateCost(t *testing.T) {
	usd, ok := EstimateCost("gpt-4o-mini", 1_000_000, 1_000_000)
	if !ok || usd < 0.7499 || usd > 0.7501 {
		t.Fatalf("unexpected cost %v %v", usd, ok)
	}
	if _, ok := EstimateCost("meta-llama/llama-3.1-8b-instruct", 10, 10); ok {
		t.Fatal("expected unknown model")
	}
}
