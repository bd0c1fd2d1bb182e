package aiprovider

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/llm"
	"github.com/abhisek/nutrify/internal/store"
)

type fakeBackend struct {
	providers []api.AIProvider
	updates   map[string]api.AIProviderUpdate
	err       error
}

func (f *fakeBackend) ListAIProviders(context.Context) ([]api.AIProvider, error) {
	return f.providers, f.err
}

func (f *fakeBackend) UpdateAIProvider(_ context.Context, name string, u api.AIProviderUpdate) (*api.AIProvider, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.updates == nil {
		f.updates = make(map[string]api.AIProviderUpdate)
	}
	f.updates[name] = u
	out := api.AIProvider{Name: name, HasAPIKey: u.APIKey != nil}
	if u.Model != nil {
		out.Model = *u.Model
	}
	if u.Enabled != nil {
		out.Enabled = *u.Enabled
	}
	return &out, nil
}

func openEvents(t *testing.T) store.EventRepo {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

// fakeProvider answers every request with reply, or fails with err.
type fakeProvider struct {
	reply string
	usage llm.Usage
	err   error
	calls []llm.Request
}

func (f *fakeProvider) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: json.RawMessage(f.reply), Usage: f.usage}, nil
}

func (f *fakeProvider) ModelID() string { return "fake-1" }

func (f *fakeProvider) Name() string { return "fake" }

// fakeFactory hands out p, logged like the real factory does.
func fakeFactory(p *fakeProvider, events store.EventRepo, seen *llm.Config) Factory {
	return func(_ context.Context, cfg llm.Config) (llm.Provider, error) {
		if seen != nil {
			*seen = cfg
		}
		var inner llm.Provider = p
		if events != nil {
			inner = llm.WithLogging(p, events, nil)
		}
		return llm.WithRetry(inner, llm.RetryConfig{MaxAttempts: 1}), nil
	}
}

func TestListFillsUnconfiguredProviders(t *testing.T) {
	b := &fakeBackend{providers: []api.AIProvider{
		{Name: "openai", Model: "gpt-4.1-mini", Enabled: true, Default: true, HasAPIKey: true},
		{Name: "mistral", Model: "mistral-small"},
	}}
	svc := New(b, nil)

	list, err := svc.List(context.Background())
	require.NoError(t, err)

	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"anthropic", "openai", "gemini", "openrouter", "mistral"}, names)
	assert.True(t, list[1].Default)
	assert.Equal(t, "gpt-4.1-mini", list[1].Model)
	assert.False(t, list[0].Enabled)
	assert.Equal(t, llm.DefaultModel("anthropic"), list[0].Model)
}

func TestListPropagatesErrors(t *testing.T) {
	svc := New(&fakeBackend{err: api.ErrUnauthorized}, nil)
	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestProbeRecordsEvent(t *testing.T) {
	events := openEvents(t)
	fake := &fakeProvider{reply: `{"status":"ok"}`, usage: llm.Usage{InputTokens: 20, OutputTokens: 4}}
	var seen llm.Config
	svc := New(&fakeBackend{}, events, WithFactory(fakeFactory(fake, events, &seen)))

	res, err := svc.Probe(context.Background(), Settings{Name: "OpenAI", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, "fake-1", res.Model, "the configured model stands in when the reply names none")
	assert.Equal(t, 20, res.InputTokens)
	assert.False(t, res.HasCost)

	assert.Equal(t, "gpt-4o-mini", seen.Model, "empty model uses the provider default")
	assert.Equal(t, "sk-test", seen.APIKey)

	require.Len(t, fake.calls, 1)
	assert.Same(t, ProbeSchema, fake.calls[0].Schema)
	assert.NotEmpty(t, fake.calls[0].Prompt)

	hist, err := svc.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, string(PurposeProbe), hist[0].Purpose)
	assert.Equal(t, 1, hist[0].Attempt)
	assert.True(t, hist[0].Success)
}

func TestProbeRejectsBadReply(t *testing.T) {
	fake := &fakeProvider{reply: `{"status":"maybe"}`}
	svc := New(&fakeBackend{}, nil, WithFactory(fakeFactory(fake, openEvents(t), nil)))

	_, err := svc.Probe(context.Background(), Settings{Name: "gemini", APIKey: "k"})
	var pe *llm.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, llm.KindInvalidReply, pe.Kind)
	assert.JSONEq(t, `{"status":"maybe"}`, string(pe.Content))
	assert.NotEmpty(t, llm.HintFor(err))
}

func TestProbeNeedsKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("NUTRIFY_ANTHROPIC_API_KEY", "")
	svc := New(&fakeBackend{}, nil, WithFactory(func(context.Context, llm.Config) (llm.Provider, error) {
		t.Fatal("no provider is built without a key")
		return nil, nil
	}))

	_, err := svc.Probe(context.Background(), Settings{Name: "anthropic"})
	var se *llm.SettingsError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "anthropic", se.Provider)
	assert.ErrorIs(t, err, llm.ErrMissingKey)
}

func TestProbeUsesKeyFromEnv(t *testing.T) {
	t.Setenv("NUTRIFY_GEMINI_API_KEY", "env-key")
	var seen llm.Config
	svc := New(&fakeBackend{}, nil, WithFactory(fakeFactory(&fakeProvider{reply: `{"status":"ok"}`}, nil, &seen)))

	_, err := svc.Probe(context.Background(), Settings{Name: "gemini"})
	require.NoError(t, err)
	assert.Equal(t, "env-key", seen.APIKey)
}

func TestProbeUnknownProvider(t *testing.T) {
	svc := New(&fakeBackend{}, nil)
	_, err := svc.Probe(context.Background(), Settings{Name: "cohere", APIKey: "k"})
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)

	_, _, err = svc.Update(context.Background(), Settings{Name: "cohere"}, false)
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)
}

func TestUpdateProbesFirst(t *testing.T) {
	events := openEvents(t)
	b := &fakeBackend{}
	enabled := true

	rejected := &fakeProvider{err: &llm.Error{Provider: "openai", Kind: llm.KindAuth, Status: 401, Err: errors.New("bad key")}}
	svc := New(b, events, WithFactory(fakeFactory(rejected, events, nil)))
	_, _, err := svc.Update(context.Background(), Settings{Name: "openai", APIKey: "sk-bad", Enabled: &enabled}, true)
	assert.Equal(t, llm.KindAuth, llm.KindOf(err))
	assert.Empty(t, b.updates, "nothing is saved when the probe fails")

	ok := &fakeProvider{reply: `{"status":"ok"}`}
	svc = New(b, events, WithFactory(fakeFactory(ok, events, nil)))
	saved, res, err := svc.Update(context.Background(), Settings{Name: "openai", APIKey: "sk-good", Model: "gpt-4o", Enabled: &enabled}, true)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, saved.HasAPIKey)
	assert.Equal(t, "gpt-4o", saved.Model)
	assert.True(t, saved.Enabled)

	u := b.updates["openai"]
	require.NotNil(t, u.APIKey)
	assert.Equal(t, "sk-good", *u.APIKey)
	assert.Nil(t, u.Default)

	hist, err := svc.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	for _, e := range hist {
		assert.Equal(t, string(PurposeSave), e.Purpose)
	}
	assert.False(t, hist[1].Success)
}

func TestUpdateWithoutProbe(t *testing.T) {
	b := &fakeBackend{}
	def := true
	svc := New(b, nil, WithFactory(func(context.Context, llm.Config) (llm.Provider, error) {
		t.Fatal("probe must not run")
		return nil, nil
	}))

	_, res, err := svc.Update(context.Background(), Settings{Name: "gemini", Default: &def}, true)
	require.NoError(t, err)
	assert.Nil(t, res)
	u := b.updates["gemini"]
	assert.Nil(t, u.Model)
	assert.Nil(t, u.APIKey)
	require.NotNil(t, u.Default)
	assert.True(t, *u.Default)
}
