package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// statusSchema is the shape of a provider health reply.
func statusSchema() *Schema {
	return &Schema{
		Name:        "test-status",
		Description: "Provider health reply",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status": map[string]any{"type": "string", "enum": []any{"ok"}},
				"model":  map[string]any{"type": "string"},
			},
			"required":             []any{"status"},
			"additionalProperties": false,
		},
	}
}

func probeRequest() Request {
	return Request{
		System:    "You check that an AI provider is reachable for a nutrition coaching platform.",
		Prompt:    `Reply with {"status":"ok"}.`,
		Schema:    statusSchema(),
		MaxTokens: 32,
	}
}

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

// scripted replays canned replies in order and records what it was sent.
type scripted struct {
	replies  []scriptedReply
	calls    []Request
	attempts []int
}

type scriptedReply struct {
	content string
	usage   Usage
	err     error
}

func okReply() scriptedReply { return scriptedReply{content: `{"status":"ok"}`} }

func failReply(kind Kind) scriptedReply {
	return scriptedReply{err: &Error{Provider: "scripted", Kind: kind, Err: errors.New(string(kind))}}
}

func (s *scripted) Generate(ctx context.Context, req Request) (*Response, error) {
	s.calls = append(s.calls, req)
	s.attempts = append(s.attempts, AttemptFrom(ctx))
	if len(s.replies) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &Response{Content: json.RawMessage(r.content), Usage: r.usage, Model: "scripted-1"}, nil
}

func (s *scripted) ModelID() string { return "scripted-1" }

func (s *scripted) Name() string { return "scripted" }
