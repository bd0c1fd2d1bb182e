package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/abhisek/nutrify/internal/assessment"
)

// Status describes the user's active server-driven session, if any.
type Status struct {
	Active  bool                `json:"active"`
	Session *assessment.Session `json:"session,omitempty"`
}

// QuestionFeed is the server's answer to "what should be asked next".
// When Complete is true, Question is nil.
type QuestionFeed struct {
	Complete bool                 `json:"complete"`
	Question *assessment.Question `json:"question,omitempty"`
	Position int                  `json:"position,omitempty"`
	Total    int                  `json:"total,omitempty"`
}

// Answer is one server-driven response.
type Answer struct {
	SessionID  string `json:"session_id"`
	QuestionID string `json:"question_id"`
	Answer     any    `json:"answer"`
}

// Respond is the server's reply to an Answer.
type Respond struct {
	Session  *assessment.Session `json:"session"`
	Complete bool                `json:"complete"`
}

// AssessmentStatus reports the user's active session.
func (c *Client) AssessmentStatus(ctx context.Context) (*Status, error) {
	var st Status
	err := c.do(ctx, call{
		op:     "Check assessment status",
		method: http.MethodGet,
		path:   "/assessment-status",
	}, &st)
	if err != nil {
		return nil, err
	}
	if st.Session != nil && !st.Active {
		st.Active = st.Session.Status == assessment.StatusInProgress
	}
	return &st, nil
}

// NextQuestion fetches the question the server wants answered next.
func (c *Client) NextQuestion(ctx context.Context, sessionID string) (*QuestionFeed, error) {
	var q QuestionFeed
	err := c.do(ctx, call{
		op:     "Load question",
		method: http.MethodGet,
		path:   "/assessment-question",
		query:  url.Values{"session_id": {sessionID}},
	}, &q)
	if err != nil {
		return nil, err
	}
	if q.Question == nil {
		q.Complete = true
	}
	return &q, nil
}

// RespondAssessment submits one answer.
func (c *Client) RespondAssessment(ctx context.Context, a Answer) (*Respond, error) {
	var r Respond
	err := c.do(ctx, call{
		op:     "Submit answer",
		method: http.MethodPost,
		path:   "/assessment-respond",
		body:   a,
	}, &r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ResumeAssessment reactivates an existing session.
func (c *Client) ResumeAssessment(ctx context.Context, sessionID string) (*assessment.Session, error) {
	var s assessment.Session
	err := c.do(ctx, call{
		op:     "Resume assessment",
		method: http.MethodPost,
		path:   "/assessment-resume",
		body:   map[string]string{"session_id": sessionID},
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AbandonAssessment discards a server-driven session.
func (c *Client) AbandonAssessment(ctx context.Context, sessionID string) error {
	return c.do(ctx, call{
		op:     "Discard assessment",
		method: http.MethodPost,
		path:   "/assessment-delete",
		body:   map[string]string{"session_id": sessionID},
	}, nil)
}
