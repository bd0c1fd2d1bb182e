// Package aiprovider manages the AI providers a Nutrify account uses for
// plan generation. Settings live on the platform; before a new key or model
// is saved it can be probed locally with one schema-constrained request.
package aiprovider

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/llm"
	"github.com/abhisek/nutrify/internal/store"
)

// Purposes recorded with probe requests in the event log.
const (
	// PurposeProbe is an explicit `ai-provider test`.
	PurposeProbe llm.Purpose = "provider-probe"

	// PurposeSave is the probe run before new settings are saved.
	PurposeSave llm.Purpose = "provider-save"
)

// ProbeSchema is the only reply a probe accepts.
var ProbeSchema = &llm.Schema{
	Name:        "provider-probe",
	Description: "Confirms the provider answered.",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{"type": "string", "enum": []any{"ok"}},
		},
		"required":             []any{"status"},
		"additionalProperties": false,
	},
}

const probePrompt = `Reply with the JSON object {"status":"ok"} and nothing else.`

// Backend is the slice of the API client the service needs.
type Backend interface {
	ListAIProviders(ctx context.Context) ([]api.AIProvider, error)
	UpdateAIProvider(ctx context.Context, name string, u api.AIProviderUpdate) (*api.AIProvider, error)
}

// Factory builds the provider used for a probe.
type Factory func(ctx context.Context, cfg llm.Config) (llm.Provider, error)

// Settings is a requested provider change. Empty strings and nil pointers
// leave the platform value unchanged.
type Settings struct {
	Name    string
	Model   string
	APIKey  string
	BaseURL string // probe only; the platform uses the provider default
	Enabled *bool
	Default *bool
}

// ProbeResult describes one successful probe.
type ProbeResult struct {
	Provider     string
	Model        string
	Latency      time.Duration
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	HasCost      bool
}

// Service lists, probes and updates providers.
type Service struct {
	api     Backend
	events  store.EventRepo
	logger  *zap.Logger
	factory Factory
	timeout time.Duration
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

// WithFactory replaces the provider factory, mainly for tests.
func WithFactory(f Factory) Option { return func(s *Service) { s.factory = f } }

// WithTimeout bounds a probe including retries. Default 30s.
func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

// New creates a Service. events may be nil to skip recording probes.
func New(b Backend, events store.EventRepo, opts ...Option) *Service {
	s := &Service{api: b, events: events, logger: zap.NewNop(), timeout: 30 * time.Second}
	for _, o := range opts {
		o(s)
	}
	if s.factory == nil {
		s.factory = func(ctx context.Context, cfg llm.Config) (llm.Provider, error) {
			return llm.NewProvider(ctx, cfg, s.events, s.logger)
		}
	}
	return s
}

// List returns every provider the platform accepts, in display order.
// Providers the account never configured are included as disabled entries.
func (s *Service) List(ctx context.Context) ([]api.AIProvider, error) {
	remote, err := s.api.ListAIProviders(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]api.AIProvider, len(remote))
	for _, p := range remote {
		byName[strings.ToLower(p.Name)] = p
	}

	out := make([]api.AIProvider, 0, len(llm.Providers))
	for _, name := range llm.Providers {
		p, ok := byName[name]
		if !ok {
			p = api.AIProvider{Name: name, Model: llm.DefaultModel(name)}
		}
		delete(byName, name)
		out = append(out, p)
	}
	// Anything the platform knows that this client does not.
	rest := make([]string, 0, len(byName))
	for name := range byName {
		rest = append(rest, name)
	}
	slices.Sort(rest)
	for _, name := range rest {
		out = append(out, byName[name])
	}
	return out, nil
}

// Probe sends one request to the provider described by settings and checks
// the reply against ProbeSchema. Unusable settings are an
// *llm.SettingsError; a failed call is an *llm.Error whose Hint can be
// shown to the user.
func (s *Service) Probe(ctx context.Context, in Settings) (*ProbeResult, error) {
	return s.probe(ctx, in, PurposeProbe)
}

func (s *Service) probe(ctx context.Context, in Settings, purpose llm.Purpose) (*ProbeResult, error) {
	name, err := providerName(in.Name)
	if err != nil {
		return nil, err
	}
	key := in.APIKey
	if key == "" {
		key = llm.KeyFromEnv(name)
	}
	cfg := llm.NewConfig(name, in.Model, key)
	cfg.BaseURL = in.BaseURL
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := s.factory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := provider.Generate(llm.WithPurpose(ctx, purpose), llm.Request{
		System:    "You are a connectivity check for a nutrition coaching platform.",
		Prompt:    probePrompt,
		Schema:    ProbeSchema,
		MaxTokens: 64,
	})
	latency := time.Since(start)
	if err == nil {
		// The reply decides the probe, whatever the provider checked.
		err = ProbeSchema.Check(name, resp.Content)
	}
	if err != nil {
		s.logger.Warn("provider probe failed",
			zap.String("provider", name),
			zap.String("purpose", string(purpose)),
			zap.String("kind", string(llm.KindOf(err))),
			zap.Error(err),
		)
		return nil, fmt.Errorf("probe %s: %w", name, err)
	}

	model := resp.Model
	if model == "" {
		model = provider.ModelID()
	}
	res := &ProbeResult{
		Provider:     name,
		Model:        model,
		Latency:      latency,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}
	res.CostUSD, res.HasCost = llm.EstimateCost(model, res.InputTokens, res.OutputTokens)

	s.logger.Info("provider probe ok",
		zap.String("provider", name),
		zap.String("model", model),
		zap.Duration("latency", latency),
	)
	return res, nil
}

// Update saves settings on the platform. With probe set and a new API key
// or model given, the settings are probed first and nothing is saved if the
// probe fails.
func (s *Service) Update(ctx context.Context, in Settings, probe bool) (*api.AIProvider, *ProbeResult, error) {
	name, err := providerName(in.Name)
	if err != nil {
		return nil, nil, err
	}

	var res *ProbeResult
	if probe && (in.APIKey != "" || in.Model != "") {
		r, err := s.probe(ctx, in, PurposeSave)
		if err != nil {
			return nil, nil, err
		}
		res = r
	}

	var u api.AIProviderUpdate
	if in.Model != "" {
		u.Model = &in.Model
	}
	if in.APIKey != "" {
		u.APIKey = &in.APIKey
	}
	u.Enabled = in.Enabled
	u.Default = in.Default

	saved, err := s.api.UpdateAIProvider(ctx, name, u)
	if err != nil {
		return nil, res, err
	}
	return saved, res, nil
}

func providerName(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if !llm.IsKnown(name) {
		return "", &llm.SettingsError{Provider: raw, Err: llm.ErrUnknownProvider}
	}
	return name, nil
}

// History returns recorded LLM requests, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]store.LLMRequestEventRecord, error) {
	if s.events == nil {
		return nil, nil
	}
	return s.events.QueryLLMEvents(ctx, store.QueryOpts{Limit: limit})
}
