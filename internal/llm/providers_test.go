package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func serve(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server.URL
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func anthropicReply(text string) map[string]any {
	return map[string]any{
		"id":          "msg_probe",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 40, "output_tokens": 6},
	}
}

func TestAnthropicProvider_Probe(t *testing.T) {
	var gotPath, gotKey string
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		writeJSON(w, http.StatusOK, anthropicReply(`{"status":"ok"}`))
	})

	p, err := NewAnthropicProvider(Config{APIKey: "sk-ant-test", Model: "claude-haiku", BaseURL: url})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "claude-haiku-4-5-20251001" {
		t.Fatalf("friendly model not resolved: %q", p.ModelID())
	}

	resp, err := p.Generate(context.Background(), probeRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(gotPath, "/messages") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "sk-ant-test" {
		t.Fatalf("api key not sent, got %q", gotKey)
	}
	if string(resp.Content) != `{"status":"ok"}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 6 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
}

func TestAnthropicProvider_Truncated(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		reply := anthropicReply(`{"status":`)
		reply["stop_reason"] = "max_tokens"
		writeJSON(w, http.StatusOK, reply)
	})
	p, _ := NewAnthropicProvider(Config{APIKey: "k", Model: "claude-haiku", BaseURL: url})

	_, err := p.Generate(context.Background(), probeRequest())
	if KindOf(err) != KindTruncated {
		t.Fatalf("expected truncated, got %v", err)
	}
}

func TestAnthropicProvider_SchemaMismatch(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, anthropicReply(`{"status":"degraded"}`))
	})
	p, _ := NewAnthropicProvider(Config{APIKey: "k", Model: "claude-haiku", BaseURL: url})

	_, err := p.Generate(context.Background(), probeRequest())
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindInvalidReply {
		t.Fatalf("expected invalid reply, got %T: %v", err, err)
	}
	if string(pe.Content) != `{"status":"degraded"}` {
		t.Fatalf("rejected reply not kept: %s", pe.Content)
	}
}

func TestAnthropicProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusNotFound, KindBadRequest},
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusServiceUnavailable, KindUnavailable},
	}
	for _, tt := range tests {
		url := serve(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "3")
			writeJSON(w, tt.status, map[string]any{
				"type":  "error",
				"error": map[string]any{"type": "api_error", "message": "nope"},
			})
		})
		p, _ := NewAnthropicProvider(Config{APIKey: "k", Model: "claude-haiku", BaseURL: url})
		_, err := p.Generate(context.Background(), probeRequest())
		var pe *Error
		if !errors.As(err, &pe) || pe.Kind != tt.want || pe.Status != tt.status {
			t.Fatalf("status %d: unexpected error %T: %v", tt.status, err, err)
		}
		if tt.want == KindRateLimit && pe.RetryAfter != 3*time.Second {
			t.Fatalf("Retry-After not read: %s", pe.RetryAfter)
		}
	}
}

func openAIReply(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-probe",
		"object":  "chat.completion",
		"created": 1760000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 5, "total_tokens": 35},
	}
}

func TestOpenAIProvider_Probe(t *testing.T) {
	var body map[string]any
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, openAIReply(`{"status":"ok"}`))
	})

	p, err := NewOpenAIProvider(Config{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: url + "/v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := p.Generate(context.Background(), probeRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"status":"ok"}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if resp.Usage.InputTokens != 30 || resp.Usage.OutputTokens != 5 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}

	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("expected json_schema response format, got %v", body["response_format"])
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(msgs))
	}
}

func TestOpenAIProvider_RateLimited(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"message": "slow down", "type": "rate_limit_error"},
		})
	})
	p, _ := NewOpenAIProvider(Config{APIKey: "k", Model: "gpt-4o-mini", BaseURL: url + "/v1"})

	_, err := p.Generate(context.Background(), probeRequest())
	if KindOf(err) != KindRateLimit {
		t.Fatalf("expected rate limit, got %T: %v", err, err)
	}
}

func TestOpenAIProvider_RejectedKey(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]any{"message": "Incorrect API key provided", "type": "invalid_request_error"},
		})
	})
	p, _ := NewOpenAIProvider(Config{APIKey: "sk-wrong", Model: "gpt-4o-mini", BaseURL: url + "/v1"})

	_, err := p.Generate(context.Background(), probeRequest())
	if KindOf(err) != KindAuth || HintFor(err) == "" {
		t.Fatalf("expected auth failure with a hint, got %v", err)
	}
}

func TestOpenRouterProvider(t *testing.T) {
	if _, err := NewOpenRouterProvider(Config{Model: "anthropic/claude-3.5-haiku"}); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}

	p, err := NewOpenRouterProvider(Config{APIKey: "sk-or-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != DefaultModel(ProviderOpenRouter) {
		t.Fatalf("expected default model, got %q", p.ModelID())
	}
	if p.Name() != ProviderOpenRouter {
		t.Fatalf("expected name openrouter, got %q", p.Name())
	}

	var gotModel string
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)
		writeJSON(w, http.StatusOK, openAIReply(`{"status":"ok"}`))
	})
	p, _ = NewOpenRouterProvider(Config{APIKey: "sk-or-test", Model: "meta-llama/llama-3.1-8b-instruct", BaseURL: url})
	if _, err := p.Generate(context.Background(), probeRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotModel != "meta-llama/llama-3.1-8b-instruct" {
		t.Fatalf("vendor model should pass through, got %q", gotModel)
	}
}
