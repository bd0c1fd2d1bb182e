package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, call{
		op:     "Log in",
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
		public: true,
	}, &out)
	if err != nil {
		return "", err
	}
	token := out.Token
	if token == "" {
		token = out.AccessToken
	}
	if token == "" {
		return "", fmt.Errorf("log in: response has no token")
	}
	return token, nil
}

// AIProvider is the platform's configuration for one AI provider. The API
// key is write-only; HasAPIKey reports whether one is stored.
type AIProvider struct {
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	Enabled   bool      `json:"enabled"`
	Default   bool      `json:"is_default"`
	HasAPIKey bool      `json:"has_api_key"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// AIProviderUpdate changes selected fields of a provider. Nil fields are
// left unchanged.
type AIProviderUpdate struct {
	Model   *string `json:"model,omitempty"`
	APIKey  *string `json:"api_key,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
	Default *bool   `json:"is_default,omitempty"`
}

// ListAIProviders returns every configured provider.
func (c *Client) ListAIProviders(ctx context.Context) ([]AIProvider, error) {
	var out []AIProvider
	err := c.do(ctx, call{
		op:     "List AI providers",
		method: http.MethodGet,
		path:   "/ai-providers",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateAIProvider changes one provider's settings.
func (c *Client) UpdateAIProvider(ctx context.Context, name string, u AIProviderUpdate) (*AIProvider, error) {
	var out AIProvider
	err := c.do(ctx, call{
		op:     "Update AI provider",
		method: http.MethodPut,
		path:   "/ai-providers/" + url.PathEscape(name),
		body:   u,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
