package wizard

import (
	"context"
	"fmt"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/assessment"
)

// Step is what the user is asked to fill in next.
type Step struct {
	Phase      assessment.Phase
	Number     int    // 1-based phase or question position
	Total      int    // 0 when unknown
	Last       bool   // submitting this step finishes the assessment
	QuestionID string // set in server mode only
}

// Key identifies the step for draft bookkeeping.
func (s Step) Key() string {
	if s.QuestionID != "" {
		return "q:" + s.QuestionID
	}
	return fmt.Sprintf("p:%d", s.Number)
}

// Backend is the session persistence API used by every mode.
type Backend interface {
	StartAssessment(ctx context.Context, t assessment.Type) (*assessment.Session, error)
	GetAssessment(ctx context.Context, id string) (*assessment.Session, error)
	UpdateAssessment(ctx context.Context, id string, u api.Update) (*assessment.Session, error)
	CompleteAssessment(ctx context.Context, id string, final assessment.Responses) (*assessment.Session, error)
	GetResult(ctx context.Context, id string) (*assessment.Result, error)
	DeleteAssessment(ctx context.Context, id string) error
}

// DrivenBackend adds the server-driven question feed.
type DrivenBackend interface {
	Backend
	NextQuestion(ctx context.Context, sessionID string) (*api.QuestionFeed, error)
	RespondAssessment(ctx context.Context, a api.Answer) (*api.Respond, error)
	ResumeAssessment(ctx context.Context, sessionID string) (*assessment.Session, error)
	AbandonAssessment(ctx context.Context, sessionID string) error
}

// Source delivers steps and persists answers. The controller depends only
// on this interface, never on which mode is active. Sessions passed in are
// never mutated; every method returns fresh copies.
type Source interface {
	Mode() Mode

	Start(ctx context.Context, t assessment.Type) (*assessment.Session, error)
	Load(ctx context.Context, id string) (*assessment.Session, error)
	Resume(ctx context.Context, id string) (*assessment.Session, error)
	Discard(ctx context.Context, id string) error

	// Current returns the step at the session's pointer, or ErrFinished.
	Current(ctx context.Context, s *assessment.Session) (Step, error)

	// Advance persists the validated values of step. done reports that no
	// steps remain and the session should be completed.
	Advance(ctx context.Context, s *assessment.Session, step Step, values assessment.Responses) (next *assessment.Session, done bool, err error)

	// Previous returns the step before step without contacting the server,
	// or ErrPreviousUnavailable.
	Previous(s *assessment.Session, step Step) (Step, error)

	Save(ctx context.Context, s *assessment.Session) (*assessment.Session, error)
	Complete(ctx context.Context, s *assessment.Session) (*assessment.Session, error)
	Result(ctx context.Context, id string) (*assessment.Result, error)
}

// adopt overlays the server-owned fields of remote onto local. Responses
// and the pointer are what the client just wrote, so local wins for those.
func adopt(local, remote *assessment.Session) *assessment.Session {
	out := local.Clone()
	if remote == nil {
		return out
	}
	if remote.ID != "" {
		out.ID = remote.ID
	}
	if remote.UserID != "" {
		out.UserID = remote.UserID
	}
	if remote.Status != "" {
		out.Status = remote.Status
	}
	if remote.ResultID != "" {
		out.ResultID = remote.ResultID
	}
	if !remote.CreatedAt.IsZero() {
		out.CreatedAt = remote.CreatedAt
	}
	if !remote.UpdatedAt.IsZero() {
		out.UpdatedAt = remote.UpdatedAt
	}
	if remote.CompletedAt != nil {
		t := *remote.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// normalized fills defaults the server may leave out of a session.
func normalized(s *assessment.Session) *assessment.Session {
	out := s.Clone()
	if out.Responses == nil {
		out.Responses = assessment.Responses{}
	}
	if out.Status == "" {
		out.Status = assessment.StatusInProgress
	}
	return out
}
