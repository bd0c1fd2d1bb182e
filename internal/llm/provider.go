// Package llm talks to the AI providers a Nutrify account can be configured
// with. It is used to probe provider settings before they are saved on the
// platform.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Provider sends one prompt to a model and returns its reply.
type Provider interface {
	// Generate sends req. When req.Schema is set the provider asks for
	// structured output and the reply is checked against the schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model the provider was configured with.
	ModelID() string

	// Name is the provider name, e.g. "anthropic".
	Name() string
}

// Request is a single-turn prompt.
type Request struct {
	System    string
	Prompt    string
	Schema    *Schema
	MaxTokens int
}

// Response is a model reply.
type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the model that served the request as reported by the
	// provider; it may differ from ModelID.
	Model string
}

// Usage is the token count of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// finish applies the checks every provider makes on a reply.
func finish(provider string, req Request, content json.RawMessage, truncated bool) error {
	if truncated {
		return &Error{
			Provider: provider,
			Kind:     KindTruncated,
			Content:  content,
			Err:      errors.New("reply hit the token limit"),
		}
	}
	if req.Schema != nil {
		return req.Schema.Check(provider, content)
	}
	return nil
}
