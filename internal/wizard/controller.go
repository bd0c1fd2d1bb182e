package wizard

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/store"
	"github.com/abhisek/nutrify/internal/validate"
)

// Controller is the wizard state machine. It is safe for concurrent use:
// at most one request is in flight at a time and a second trigger fails
// fast with ErrBusy. Every action works on a copy of the session and
// commits it only after the server acknowledges, so a failed call leaves
// the controller exactly as it was.
type Controller struct {
	src      Source
	sessions store.SessionRepo
	results  store.ResultRepo
	logger   *zap.Logger

	op sync.Mutex // held for the duration of a request

	mu       sync.RWMutex
	state    State
	session  *assessment.Session
	step     Step
	hasStep  bool
	drafts   map[string]map[string]any
	conflict *api.ConflictError
	pending  assessment.Type
	result   *assessment.Result
	err      error
}

// Option configures a Controller.
type Option func(*Controller)

// WithCache mirrors sessions and results into the local store. Cache
// failures are logged and never fail an action.
func WithCache(sessions store.SessionRepo, results store.ResultRepo) Option {
	return func(c *Controller) {
		c.sessions = sessions
		c.results = results
	}
}

// WithLogger sets the controller logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a controller in the awaiting-input state with no session.
func New(src Source, opts ...Option) *Controller {
	c := &Controller{
		src:    src,
		logger: zap.NewNop(),
		state:  StateAwaitingInput,
		drafts: make(map[string]map[string]any),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Snapshot is a consistent, copied view of the controller for rendering.
type Snapshot struct {
	Mode     Mode
	State    State
	Session  *assessment.Session
	Step     Step
	HasStep  bool
	Values   map[string]any
	Conflict string // existing session id in active-conflict
	Result   *assessment.Result
	Err      error
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{
		Mode:    c.src.Mode(),
		State:   c.state,
		Session: c.session.Clone(),
		Step:    c.step,
		HasStep: c.hasStep,
		Values:  c.valuesLocked(),
		Result:  c.result,
		Err:     c.err,
	}
	if c.conflict != nil {
		snap.Conflict = c.conflict.SessionID
	}
	return snap
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Session returns a copy of the current session, or nil.
func (c *Controller) Session() *assessment.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.Clone()
}

// Step returns the step awaiting input.
func (c *Controller) Step() (Step, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.step, c.hasStep
}

// Conflict returns the active-session conflict, if in that state.
func (c *Controller) Conflict() *api.ConflictError {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conflict
}

// ResultRef returns the result id of a completed session.
func (c *Controller) ResultRef() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil || !c.session.IsCompleted() {
		return ""
	}
	if c.session.ResultID != "" {
		return c.session.ResultID
	}
	return c.session.ID
}

// Values returns the form values for the current step: saved responses
// overlaid with anything entered before navigating away.
func (c *Controller) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valuesLocked()
}

func (c *Controller) valuesLocked() map[string]any {
	out := make(map[string]any)
	if !c.hasStep {
		return out
	}
	if c.session != nil {
		for k, v := range c.session.Responses.Pick(c.step.Phase.QuestionIDs()) {
			out[k] = v
		}
	}
	for k, v := range c.drafts[c.step.Key()] {
		out[k] = v
	}
	return out
}

func (c *Controller) begin() (func(), error) {
	if !c.op.TryLock() {
		return nil, ErrBusy
	}
	return c.op.Unlock, nil
}

// setState moves to s and returns the state to restore on failure.
func (c *Controller) setState(s State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.state
	c.state = s
	return prev
}

func (c *Controller) restore(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Init loads an existing session, or does nothing for an empty id. A load
// failure moves to the error state; ErrNotFound is kept as Err so the view
// can render an empty state.
func (c *Controller) Init(ctx context.Context, sessionID string) error {
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	if sessionID == "" {
		c.mu.Lock()
		c.state = StateAwaitingInput
		c.mu.Unlock()
		return nil
	}

	c.setState(StateLoading)
	sess, err := c.src.Load(ctx, sessionID)
	if err != nil {
		c.fail(err)
		return err
	}
	return c.enter(ctx, sess)
}

// enter commits a freshly obtained session and fetches its current step.
func (c *Controller) enter(ctx context.Context, sess *assessment.Session) error {
	if sess.IsCompleted() {
		c.commit(sess, Step{}, false, StateCompleted)
		return nil
	}
	step, err := c.src.Current(ctx, sess)
	switch {
	case errors.Is(err, ErrFinished):
		// Every question is answered but the session is still open.
		c.commit(sess, Step{Last: true}, false, StateAwaitingInput)
		return nil
	case err != nil:
		c.mu.Lock()
		c.session = sess.Clone()
		c.hasStep = false
		c.mu.Unlock()
		c.fail(err)
		return err
	}
	c.commit(sess, step, true, StateAwaitingInput)
	return nil
}

func (c *Controller) commit(sess *assessment.Session, step Step, hasStep bool, state State) {
	c.mu.Lock()
	c.session = sess.Clone()
	c.step = step
	c.hasStep = hasStep
	c.state = state
	c.err = nil
	c.conflict = nil
	c.mu.Unlock()
	c.cacheSession(sess)
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.state = StateError
	c.err = err
	c.mu.Unlock()
}

// Reload re-fetches the current step after an error.
func (c *Controller) Reload(ctx context.Context) error {
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	sess := c.Session()
	if sess == nil {
		return ErrNoSession
	}
	c.setState(StateLoading)
	return c.enter(ctx, sess)
}

// Start requests a new session. If the user already has one in progress the
// controller moves to active-conflict and nothing is overwritten.
func (c *Controller) Start(ctx context.Context, t assessment.Type) error {
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()
	return c.start(ctx, t)
}

func (c *Controller) start(ctx context.Context, t assessment.Type) error {
	prev := c.setState(StateSaving)
	sess, err := c.src.Start(ctx, t)
	if ce, ok := api.IsConflict(err); ok {
		c.mu.Lock()
		c.state = StateActiveConflict
		c.conflict = ce
		c.pending = t
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.restore(prev)
		return err
	}

	c.mu.Lock()
	c.drafts = make(map[string]map[string]any)
	c.result = nil
	c.mu.Unlock()
	return c.enter(ctx, sess)
}

// ResumeConflict continues the session reported by an active-conflict.
func (c *Controller) ResumeConflict(ctx context.Context) error {
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	ce := c.Conflict()
	if ce == nil || c.State() != StateActiveConflict {
		return ErrNoConflict
	}
	c.setState(StateLoading)
	sess, err := c.src.Resume(ctx, ce.SessionID)
	if err != nil {
		c.restore(StateActiveConflict)
		return err
	}
	c.mu.Lock()
	c.drafts = make(map[string]map[string]any)
	c.result = nil
	c.mu.Unlock()
	return c.enter(ctx, sess)
}

// DiscardAndStart deletes the conflicting session and starts again with the
// same assessment type. A failed delete leaves the conflict in place.
func (c *Controller) DiscardAndStart(ctx context.Context) error {
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	c.mu.RLock()
	ce, t, state := c.conflict, c.pending, c.state
	c.mu.RUnlock()
	if ce == nil || state != StateActiveConflict {
		return ErrNoConflict
	}

	c.setState(StateSaving)
	if err := c.src.Discard(ctx, ce.SessionID); err != nil {
		c.restore(StateActiveConflict)
		return err
	}
	c.forget(ce.SessionID)

	c.mu.Lock()
	c.conflict = nil
	c.session = nil
	c.hasStep = false
	c.state = StateAwaitingInput
	c.mu.Unlock()

	return c.start(ctx, t)
}

// CancelConflict leaves the active-conflict state without acting on it.
func (c *Controller) CancelConflict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateActiveConflict {
		c.state = StateAwaitingInput
		c.conflict = nil
	}
}

// Next validates input for the current step, persists it and moves on. On
// the last step the session is completed. A *validate.Error means nothing
// was sent.
func (c *Controller) Next(ctx context.Context, input map[string]any) error {
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	c.mu.RLock()
	sess, step, hasStep, state := c.session.Clone(), c.step, c.hasStep, c.state
	c.mu.RUnlock()

	if sess == nil {
		return ErrNoSession
	}
	if sess.IsCompleted() || state == StateCompleted {
		return ErrAlreadyCompleted
	}
	if state != StateAwaitingInput {
		return ErrNotReady
	}

	// Every question already answered: only completion remains.
	if !hasStep {
		prev := c.setState(StateCompleting)
		return c.complete(ctx, sess, prev)
	}

	values, err := validate.Phase(step.Phase, input)
	if err != nil {
		c.saveDraft(step, input)
		return err
	}

	prev := c.setState(StateSaving)
	next, finished, err := c.src.Advance(ctx, sess, step, values)
	if err != nil {
		c.restore(prev)
		return err
	}

	if !finished {
		nextStep, err := c.src.Current(ctx, next)
		switch {
		case errors.Is(err, ErrFinished):
			finished = true
		case err != nil:
			c.restore(prev)
			return err
		default:
			c.dropDraft(step)
			c.commit(next, nextStep, true, StateAwaitingInput)
			return nil
		}
	}

	c.setState(StateCompleting)
	if err := c.complete(ctx, next, prev); err != nil {
		return err
	}
	c.dropDraft(step)
	return nil
}

// complete finalizes sess unless the server already did.
func (c *Controller) complete(ctx context.Context, sess *assessment.Session, prev State) error {
	final := sess
	if !sess.IsCompleted() {
		var err error
		final, err = c.src.Complete(ctx, sess)
		if err != nil {
			c.restore(prev)
			return err
		}
	}
	c.commit(final, Step{}, false, StateCompleted)
	c.logger.Info("assessment completed",
		zap.String("session_id", final.ID),
		zap.String("result_id", final.ResultID),
	)
	return nil
}

// Previous steps back without contacting the server. input holds the values
// currently in the form; they are kept for when the user returns.
func (c *Controller) Previous(input map[string]any) error {
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ErrNoSession
	}
	if c.session.IsCompleted() || c.state == StateCompleted {
		return ErrAlreadyCompleted
	}
	if !c.hasStep || c.state != StateAwaitingInput {
		return ErrPreviousUnavailable
	}

	prev, err := c.src.Previous(c.session, c.step)
	if err != nil {
		return err
	}

	c.saveDraftLocked(c.step, input)
	if prev.QuestionID != "" {
		c.session.CurrentQuestion = prev.QuestionID
	} else {
		c.session.CurrentPhase = prev.Number
	}
	c.step = prev
	return nil
}

// Save persists the current responses and pointer without moving. Partial
// and out-of-range values are accepted; values that cannot be coerced to
// their question's type are dropped.
func (c *Controller) Save(ctx context.Context, input map[string]any) error {
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	c.mu.RLock()
	sess, step, hasStep, state := c.session.Clone(), c.step, c.hasStep, c.state
	c.mu.RUnlock()

	if sess == nil {
		return ErrNoSession
	}
	if sess.IsCompleted() {
		return ErrAlreadyCompleted
	}
	if state != StateAwaitingInput {
		return ErrNotReady
	}

	next := sess.Clone()
	if hasStep {
		next.Responses = sess.Responses.Merge(validate.Partial(step.Phase, input))
		if step.QuestionID != "" {
			next.CurrentQuestion = step.QuestionID
		} else {
			next.CurrentPhase = step.Number
		}
	}

	prev := c.setState(StateSaving)
	saved, err := c.src.Save(ctx, next)
	if err != nil {
		c.restore(prev)
		return err
	}
	c.dropDraft(step)
	c.commit(saved, step, hasStep, StateAwaitingInput)
	return nil
}

// Delete abandons the current session and clears local state so Start
// creates a fresh one.
func (c *Controller) Delete(ctx context.Context) error {
	done, err := c.begin()
	if err != nil {
		return err
	}
	defer done()

	sess := c.Session()
	if sess == nil {
		return ErrNoSession
	}

	prev := c.setState(StateSaving)
	if err := c.src.Discard(ctx, sess.ID); err != nil {
		c.restore(prev)
		return err
	}
	c.forget(sess.ID)

	c.mu.Lock()
	c.session = nil
	c.step = Step{}
	c.hasStep = false
	c.drafts = make(map[string]map[string]any)
	c.result = nil
	c.err = nil
	c.state = StateAwaitingInput
	c.mu.Unlock()
	return nil
}

// Result fetches the result of the completed session. api.ErrNotFound means
// no result is available yet.
func (c *Controller) Result(ctx context.Context) (*assessment.Result, error) {
	c.mu.RLock()
	sess, cached := c.session, c.result
	c.mu.RUnlock()

	if sess == nil {
		return nil, ErrNoSession
	}
	if !sess.IsCompleted() {
		return nil, api.ErrNotFound
	}
	if cached != nil {
		return cached, nil
	}

	res, err := c.src.Result(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if res.SessionID == "" {
		res.SessionID = sess.ID
	}

	c.mu.Lock()
	if c.session != nil && c.session.ID == sess.ID {
		c.result = res
	}
	c.mu.Unlock()

	if c.results != nil {
		if err := c.results.Put(ctx, sess.ID, res); err != nil {
			c.logger.Warn("cache result", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}
	return res, nil
}

func (c *Controller) saveDraft(step Step, input map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveDraftLocked(step, input)
}

func (c *Controller) saveDraftLocked(step Step, input map[string]any) {
	if len(input) == 0 {
		return
	}
	d := make(map[string]any, len(input))
	for _, id := range step.Phase.QuestionIDs() {
		if v, ok := input[id]; ok {
			d[id] = v
		}
	}
	c.drafts[step.Key()] = d
}

func (c *Controller) dropDraft(step Step) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drafts, step.Key())
}

func (c *Controller) cacheSession(sess *assessment.Session) {
	if c.sessions == nil || sess == nil || sess.ID == "" {
		return
	}
	if err := c.sessions.Put(context.Background(), sess); err != nil {
		c.logger.Warn("cache session", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func (c *Controller) forget(id string) {
	if c.sessions == nil {
		return
	}
	if err := c.sessions.Delete(context.Background(), id); err != nil {
		c.logger.Warn("forget session", zap.String("session_id", id), zap.Error(err))
	}
}
