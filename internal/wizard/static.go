package wizard

import (
	"context"
	"errors"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/catalog"
)

// CatalogFunc looks up the phase catalog for an assessment type.
type CatalogFunc func(t assessment.Type) (assessment.Catalog, error)

// StaticSource walks a fixed catalog, saving the whole session on every
// phase transition.
type StaticSource struct {
	api     Backend
	catalog CatalogFunc
}

// NewStatic creates a static-mode source. A nil lookup uses the built-in
// catalogs.
func NewStatic(b Backend, lookup CatalogFunc) *StaticSource {
	if lookup == nil {
		lookup = catalog.Get
	}
	return &StaticSource{api: b, catalog: lookup}
}

func (s *StaticSource) Mode() Mode { return ModeStatic }

func (s *StaticSource) Start(ctx context.Context, t assessment.Type) (*assessment.Session, error) {
	if _, err := s.catalog(t); err != nil {
		return nil, err
	}
	sess, err := s.api.StartAssessment(ctx, t)
	if err != nil {
		return nil, err
	}
	out := normalized(sess)
	if out.Type == "" {
		out.Type = t
	}
	if out.CurrentPhase < 1 {
		out.CurrentPhase = 1
	}
	return out, nil
}

func (s *StaticSource) Load(ctx context.Context, id string) (*assessment.Session, error) {
	sess, err := s.api.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	return normalized(sess), nil
}

// Resume re-reads the session; static mode has no resume endpoint.
func (s *StaticSource) Resume(ctx context.Context, id string) (*assessment.Session, error) {
	return s.Load(ctx, id)
}

func (s *StaticSource) Discard(ctx context.Context, id string) error {
	return s.api.DeleteAssessment(ctx, id)
}

func (s *StaticSource) Current(_ context.Context, sess *assessment.Session) (Step, error) {
	if sess.IsCompleted() {
		return Step{}, ErrFinished
	}
	cat, err := s.catalog(sess.Type)
	if err != nil {
		return Step{}, err
	}
	idx := sess.CurrentPhase
	if idx < 1 {
		idx = 1
	}
	if idx > cat.Len() {
		idx = cat.Len()
	}
	return s.step(cat, idx)
}

func (s *StaticSource) step(cat assessment.Catalog, idx int) (Step, error) {
	phase, err := cat.Phase(idx)
	if err != nil {
		return Step{}, err
	}
	return Step{
		Phase:  phase,
		Number: idx,
		Total:  cat.Len(),
		Last:   cat.IsLast(idx),
	}, nil
}

// Advance merges values and, unless this is the last phase, saves the
// session with the pointer moved forward. The last phase is persisted by
// Complete alone.
func (s *StaticSource) Advance(ctx context.Context, sess *assessment.Session, step Step, values assessment.Responses) (*assessment.Session, bool, error) {
	next := sess.Clone()
	next.Responses = sess.Responses.Merge(values)
	next.CurrentPhase = step.Number

	if step.Last {
		return next, true, nil
	}

	next.CurrentPhase = step.Number + 1
	remote, err := s.api.UpdateAssessment(ctx, sess.ID, api.Update{
		CurrentPhase: next.CurrentPhase,
		Responses:    next.Responses,
	})
	if err != nil {
		return nil, false, err
	}
	return adopt(next, remote), false, nil
}

func (s *StaticSource) Previous(sess *assessment.Session, step Step) (Step, error) {
	if step.Number <= 1 {
		return Step{}, ErrPreviousUnavailable
	}
	cat, err := s.catalog(sess.Type)
	if err != nil {
		return Step{}, err
	}
	prev, err := s.step(cat, step.Number-1)
	var oor *assessment.OutOfRangeError
	if errors.As(err, &oor) {
		return Step{}, ErrPreviousUnavailable
	}
	return prev, err
}

func (s *StaticSource) Save(ctx context.Context, sess *assessment.Session) (*assessment.Session, error) {
	return save(ctx, s.api, sess)
}

func (s *StaticSource) Complete(ctx context.Context, sess *assessment.Session) (*assessment.Session, error) {
	return complete(ctx, s.api, sess)
}

func (s *StaticSource) Result(ctx context.Context, id string) (*assessment.Result, error) {
	return s.api.GetResult(ctx, id)
}

func save(ctx context.Context, b Backend, sess *assessment.Session) (*assessment.Session, error) {
	remote, err := b.UpdateAssessment(ctx, sess.ID, api.Update{
		CurrentPhase:    sess.CurrentPhase,
		CurrentQuestion: sess.CurrentQuestion,
		Responses:       sess.Responses,
	})
	if err != nil {
		return nil, err
	}
	return adopt(sess, remote), nil
}

func complete(ctx context.Context, b Backend, sess *assessment.Session) (*assessment.Session, error) {
	remote, err := b.CompleteAssessment(ctx, sess.ID, sess.Responses)
	if err != nil {
		return nil, err
	}
	out := adopt(sess, remote)
	// A 2xx from complete is the server's acknowledgment even when the
	// body omits the status.
	out.Status = assessment.StatusCompleted
	return out, nil
}
