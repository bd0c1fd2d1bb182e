package wizard

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/store"
)

// DrivenSource asks the server for one question at a time. Answered
// questions are cached so the user can step back to them; without a cached
// question, Previous is unavailable.
type DrivenSource struct {
	api     DrivenBackend
	answers store.AnswerRepo
	logger  *zap.Logger

	mu        sync.Mutex
	sessionID string
	history   []store.CachedAnswer
	cursor    int // index into history; len(history) means the live question
}

// NewDriven creates a server-mode source. answers may be nil, in which case
// the history lives only as long as the source.
func NewDriven(b DrivenBackend, answers store.AnswerRepo, logger *zap.Logger) *DrivenSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DrivenSource{api: b, answers: answers, logger: logger}
}

func (d *DrivenSource) Mode() Mode { return ModeServer }

func (d *DrivenSource) Start(ctx context.Context, t assessment.Type) (*assessment.Session, error) {
	sess, err := d.api.StartAssessment(ctx, t)
	if err != nil {
		return nil, err
	}
	out := normalized(sess)
	if out.Type == "" {
		out.Type = t
	}
	d.reset(ctx, out.ID)
	return out, nil
}

func (d *DrivenSource) Load(ctx context.Context, id string) (*assessment.Session, error) {
	sess, err := d.api.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	d.reset(ctx, id)
	return normalized(sess), nil
}

func (d *DrivenSource) Resume(ctx context.Context, id string) (*assessment.Session, error) {
	sess, err := d.api.ResumeAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	out := normalized(sess)
	if out.ID == "" {
		out.ID = id
	}
	d.reset(ctx, out.ID)
	return out, nil
}

func (d *DrivenSource) Discard(ctx context.Context, id string) error {
	if err := d.api.AbandonAssessment(ctx, id); err != nil {
		return err
	}
	if d.answers != nil {
		if err := d.answers.Clear(ctx, id); err != nil {
			d.logger.Warn("clear cached answers", zap.String("session_id", id), zap.Error(err))
		}
	}
	d.mu.Lock()
	if d.sessionID == id {
		d.sessionID, d.history, d.cursor = "", nil, 0
	}
	d.mu.Unlock()
	return nil
}

// reset points the history at a session, reloading cached answers.
func (d *DrivenSource) reset(ctx context.Context, id string) {
	var history []store.CachedAnswer
	if d.answers != nil {
		cached, err := d.answers.List(ctx, id)
		if err != nil {
			d.logger.Warn("load cached answers", zap.String("session_id", id), zap.Error(err))
		}
		history = cached
	}
	d.mu.Lock()
	d.sessionID = id
	d.history = history
	d.cursor = len(history)
	d.mu.Unlock()
}

func (d *DrivenSource) Current(ctx context.Context, sess *assessment.Session) (Step, error) {
	if sess.IsCompleted() {
		return Step{}, ErrFinished
	}

	d.mu.Lock()
	if d.sessionID != sess.ID {
		d.mu.Unlock()
		d.reset(ctx, sess.ID)
		d.mu.Lock()
	}
	if d.cursor < len(d.history) {
		step := d.cachedStep(d.cursor)
		d.mu.Unlock()
		return step, nil
	}
	answered := len(d.history)
	d.mu.Unlock()

	feed, err := d.api.NextQuestion(ctx, sess.ID)
	if err != nil {
		return Step{}, err
	}
	if feed.Complete || feed.Question == nil {
		return Step{}, ErrFinished
	}

	pos := feed.Position
	if pos < 1 {
		pos = answered + 1
	}
	return Step{
		Phase:      assessment.SingleQuestionPhase(*feed.Question),
		Number:     pos,
		Total:      feed.Total,
		Last:       feed.Total > 0 && pos >= feed.Total,
		QuestionID: feed.Question.ID,
	}, nil
}

// cachedStep builds the step for history[i]. Callers hold d.mu.
func (d *DrivenSource) cachedStep(i int) Step {
	a := d.history[i]
	return Step{
		Phase:      assessment.SingleQuestionPhase(a.Question),
		Number:     a.Position,
		Total:      a.Total,
		Last:       a.Total > 0 && a.Position >= a.Total,
		QuestionID: a.Question.ID,
	}
}

// Advance sends the answer; values are merged into the session only after
// the server acknowledges it.
func (d *DrivenSource) Advance(ctx context.Context, sess *assessment.Session, step Step, values assessment.Responses) (*assessment.Session, bool, error) {
	q := step.Phase.Questions[0]
	answer := values[q.ID]

	resp, err := d.api.RespondAssessment(ctx, api.Answer{
		SessionID:  sess.ID,
		QuestionID: q.ID,
		Answer:     answer,
	})
	if err != nil {
		return nil, false, err
	}

	next := sess.Clone()
	next.Responses = sess.Responses.Merge(values)
	next.CurrentQuestion = q.ID
	next = adopt(next, resp.Session)

	d.record(ctx, sess.ID, step, q, answer)

	return next, resp.Complete || next.IsCompleted(), nil
}

// record upserts an answered question into the history and moves the cursor
// past it.
func (d *DrivenSource) record(ctx context.Context, sessionID string, step Step, q assessment.Question, value any) {
	entry := store.CachedAnswer{
		SessionID: sessionID,
		Position:  step.Number,
		Total:     step.Total,
		Question:  q,
		Value:     value,
	}

	d.mu.Lock()
	if d.sessionID != sessionID {
		d.sessionID, d.history = sessionID, nil
	}
	idx := -1
	for i, a := range d.history {
		if a.Question.ID == q.ID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		entry.Position = d.history[idx].Position
		if entry.Total == 0 {
			entry.Total = d.history[idx].Total
		}
		d.history[idx] = entry
		d.cursor = idx + 1
	} else {
		d.history = append(d.history, entry)
		d.cursor = len(d.history)
	}
	d.mu.Unlock()

	if d.answers != nil {
		if err := d.answers.Put(ctx, entry); err != nil {
			d.logger.Warn("cache answer", zap.String("session_id", sessionID), zap.String("question_id", q.ID), zap.Error(err))
		}
	}
}

func (d *DrivenSource) Previous(sess *assessment.Session, step Step) (Step, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sessionID != sess.ID {
		return Step{}, ErrPreviousUnavailable
	}

	target := len(d.history) - 1
	for i, a := range d.history {
		if a.Question.ID == step.QuestionID {
			target = i - 1
			break
		}
	}
	if target < 0 {
		return Step{}, ErrPreviousUnavailable
	}
	d.cursor = target
	return d.cachedStep(target), nil
}

func (d *DrivenSource) Save(ctx context.Context, sess *assessment.Session) (*assessment.Session, error) {
	return save(ctx, d.api, sess)
}

func (d *DrivenSource) Complete(ctx context.Context, sess *assessment.Session) (*assessment.Session, error) {
	return complete(ctx, d.api, sess)
}

func (d *DrivenSource) Result(ctx context.Context, id string) (*assessment.Result, error) {
	return d.api.GetResult(ctx, id)
}

// History returns a copy of the cached answers for the current session.
func (d *DrivenSource) History() []store.CachedAnswer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]store.CachedAnswer(nil), d.history...)
}
