package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/nutrify/internal/assessment"
)

// ErrNoCredentials is returned by CredentialRepo.Load when nothing is stored.
var ErrNoCredentials = errors.New("no stored credentials")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// CredentialRepo persists the API bearer token.
type CredentialRepo interface {
	// Save replaces the stored token.
	Save(ctx context.Context, token string) error

	// Load returns the stored token, or ErrNoCredentials.
	Load(ctx context.Context) (string, error)

	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// SessionRepo caches the last seen copy of each session.
type SessionRepo interface {
	// Put upserts a session by id.
	Put(ctx context.Context, s *assessment.Session) error

	// Get returns a cached session, or nil if none is cached.
	Get(ctx context.Context, id string) (*assessment.Session, error)

	// Delete removes a session and its cached answers and result.
	Delete(ctx context.Context, id string) error

	// List returns cached sessions, most recently cached first.
	List(ctx context.Context, limit int) ([]*assessment.Session, error)
}

// CachedAnswer is one answered server-driven question, kept so the wizard
// can step back to it.
type CachedAnswer struct {
	SessionID  string
	Position   int
	Total      int // question count reported with the question; 0 if unknown
	Question   assessment.Question
	Value      any
	AnsweredAt time.Time
}

// AnswerRepo caches server-driven questions and answers per session.
type AnswerRepo interface {
	// Put upserts an answer by (session, question).
	Put(ctx context.Context, a CachedAnswer) error

	// List returns the cached answers of a session in position order.
	List(ctx context.Context, sessionID string) ([]CachedAnswer, error)

	// Clear removes every cached answer of a session.
	Clear(ctx context.Context, sessionID string) error
}

// ResultRepo caches assessment results by session id.
type ResultRepo interface {
	Put(ctx context.Context, sessionID string, r *assessment.Result) error

	// Get returns a cached result, or nil if none is cached.
	Get(ctx context.Context, sessionID string) (*assessment.Result, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	Attempt      int // 1 for the first try of a request
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo provides append and query access to local events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM request events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)
}
