package wizard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/nutrify/internal/api"
	"github.com/abhisek/nutrify/internal/assessment"
	"github.com/abhisek/nutrify/internal/notify"
)

// fakeAPI is an in-memory stand-in for the assessment endpoints.
type fakeAPI struct {
	mu       sync.Mutex
	sessions map[string]*assessment.Session
	seq      int
	calls    map[string]int
	fail     map[string]int // route -> status returned once
	final    assessment.Responses
	updates  []api.Update
	answers  []api.Answer

	// conflictID makes start return 409 while that session is in progress.
	conflictID string

	// questions is the server-driven feed; serverCompletes makes respond
	// complete the session itself after the last answer.
	questions       []assessment.Question
	serverCompletes bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		sessions: make(map[string]*assessment.Session),
		calls:    make(map[string]int),
		fail:     make(map[string]int),
	}
}

func (f *fakeAPI) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) failOnce(route string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[route] = status
}

// seed stores a session as if created earlier.
func (f *fakeAPI) seed(s *assessment.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.Responses == nil {
		s.Responses = assessment.Responses{}
	}
	f.sessions[s.ID] = s
}

func (f *fakeAPI) session(id string) *assessment.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[id].Clone()
}

func (f *fakeAPI) server(t *testing.T) (*api.Client, *notify.Queue) {
	t.Helper()
	mux := http.NewServeMux()
	handle := func(pattern, route string, h func(w http.ResponseWriter, r *http.Request)) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls[route]++
			if status, ok := f.fail[route]; ok {
				delete(f.fail, route)
				reply(w, status, map[string]any{"error": map[string]any{"code": "injected", "message": "injected failure"}})
				return
			}
			h(w, r)
		})
	}

	handle("POST /api/assessments", "start", f.start)
	handle("GET /api/assessments/{id}", "get", f.get)
	handle("PUT /api/assessments/{id}", "update", f.update)
	handle("DELETE /api/assessments/{id}", "delete", f.delete)
	handle("POST /api/assessments/{id}/complete", "complete", f.complete)
	handle("GET /api/assessments/{id}/result", "result", f.result)
	handle("GET /api/assessment-question", "question", f.question)
	handle("POST /api/assessment-respond", "respond", f.respond)
	handle("POST /api/assessment-resume", "resume", f.resume)
	handle("POST /api/assessment-delete", "abandon", f.abandon)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	q := notify.NewQueue(16)
	return api.New(srv.URL+"/api", api.WithHTTPClient(srv.Client()), api.WithNotifier(q)), q
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func data(w http.ResponseWriter, v any) {
	reply(w, http.StatusOK, map[string]any{"data": v})
}

func decode(r *http.Request, v any) {
	_ = json.NewDecoder(r.Body).Decode(v)
}

func (f *fakeAPI) lookup(w http.ResponseWriter, id string) (*assessment.Session, bool) {
	s, ok := f.sessions[id]
	if !ok {
		reply(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": "not_found"}})
	}
	return s, ok
}

func (f *fakeAPI) start(w http.ResponseWriter, r *http.Request) {
	if f.conflictID != "" {
		if s, ok := f.sessions[f.conflictID]; ok && s.Status == assessment.StatusInProgress {
			reply(w, http.StatusConflict, map[string]any{"error": map[string]any{
				"code": api.CodeActiveAssessment, "message": "active assessment exists", "session_id": f.conflictID,
			}})
			return
		}
	}
	var body struct {
		Type assessment.Type `json:"assessment_type"`
	}
	decode(r, &body)
	f.seq++
	s := &assessment.Session{
		ID:           fmt.Sprintf("s-%d", f.seq),
		Type:         body.Type,
		Status:       assessment.StatusInProgress,
		CurrentPhase: 1,
		Responses:    assessment.Responses{},
		CreatedAt:    time.Now().UTC(),
	}
	f.sessions[s.ID] = s
	f.conflictID = s.ID
	reply(w, http.StatusCreated, map[string]any{"data": s})
}

func (f *fakeAPI) get(w http.ResponseWriter, r *http.Request) {
	if s, ok := f.lookup(w, r.PathValue("id")); ok {
		data(w, s)
	}
}

func (f *fakeAPI) update(w http.ResponseWriter, r *http.Request) {
	s, ok := f.lookup(w, r.PathValue("id"))
	if !ok {
		return
	}
	var u api.Update
	decode(r, &u)
	f.updates = append(f.updates, u)
	s.CurrentPhase = u.CurrentPhase
	s.CurrentQuestion = u.CurrentQuestion
	s.Responses = u.Responses
	s.UpdatedAt = time.Now().UTC()
	data(w, s)
}

func (f *fakeAPI) delete(w http.ResponseWriter, r *http.Request) {
	s, ok := f.lookup(w, r.PathValue("id"))
	if !ok {
		return
	}
	s.Status = assessment.StatusAbandoned
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) complete(w http.ResponseWriter, r *http.Request) {
	s, ok := f.lookup(w, r.PathValue("id"))
	if !ok {
		return
	}
	if s.Status == assessment.StatusCompleted {
		reply(w, http.StatusConflict, map[string]any{"error": map[string]any{"code": "already_completed"}})
		return
	}
	var body struct {
		Final assessment.Responses `json:"final_responses"`
	}
	decode(r, &body)
	f.final = body.Final
	f.finish(s, body.Final)
	data(w, s)
}

func (f *fakeAPI) finish(s *assessment.Session, final assessment.Responses) {
	now := time.Now().UTC()
	s.Status = assessment.StatusCompleted
	s.Responses = final
	s.ResultID = "r-" + s.ID
	s.CompletedAt = &now
}

func (f *fakeAPI) result(w http.ResponseWriter, r *http.Request) {
	s, ok := f.lookup(w, r.PathValue("id"))
	if !ok {
		return
	}
	if s.Status != assessment.StatusCompleted {
		reply(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": "not_found"}})
		return
	}
	data(w, assessment.Result{
		ID:              s.ResultID,
		Summary:         "Balanced plan",
		Recommendations: []string{"Eat more fibre", "Walk daily"},
		DietPlanID:      "dp-1",
	})
}

// nextQuestion returns the first unanswered feed question.
func (f *fakeAPI) nextQuestion(s *assessment.Session) (assessment.Question, int, bool) {
	for i, q := range f.questions {
		if _, done := s.Responses[q.ID]; !done {
			return q, i + 1, true
		}
	}
	return assessment.Question{}, 0, false
}

func (f *fakeAPI) question(w http.ResponseWriter, r *http.Request) {
	s, ok := f.lookup(w, r.URL.Query().Get("session_id"))
	if !ok {
		return
	}
	q, pos, ok := f.nextQuestion(s)
	if !ok || s.Status == assessment.StatusCompleted {
		data(w, map[string]any{"complete": true})
		return
	}
	data(w, map[string]any{"question": q, "position": pos, "total": len(f.questions)})
}

func (f *fakeAPI) respond(w http.ResponseWriter, r *http.Request) {
	var a api.Answer
	decode(r, &a)
	s, ok := f.lookup(w, a.SessionID)
	if !ok {
		return
	}
	f.answers = append(f.answers, a)
	if v, ok := assessment.NormalizeValue(a.Answer); ok {
		s.Responses[a.QuestionID] = v
	}
	s.CurrentQuestion = a.QuestionID
	_, _, remaining := f.nextQuestion(s)
	if !remaining && f.serverCompletes {
		f.finish(s, s.Responses.Clone())
	}
	data(w, map[string]any{"session": s, "complete": !remaining})
}

func (f *fakeAPI) resume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	decode(r, &body)
	if s, ok := f.lookup(w, body.SessionID); ok {
		data(w, s)
	}
}

func (f *fakeAPI) abandon(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	decode(r, &body)
	s, ok := f.lookup(w, body.SessionID)
	if !ok {
		return
	}
	s.Status = assessment.StatusAbandoned
	w.WriteHeader(http.StatusNoContent)
}
