package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/abhisek/nutrify/internal/assessment"
)

// Update is the body of a session save. The pointer and responses replace
// the server copy; there is no concurrency token.
type Update struct {
	CurrentPhase    int                  `json:"current_phase"`
	CurrentQuestion string               `json:"current_question,omitempty"`
	Responses       assessment.Responses `json:"responses"`
}

func assessmentPath(id string, rest ...string) string {
	p := "/assessments/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// StartAssessment creates a session. A *ConflictError is returned when the
// user already has one in progress.
func (c *Client) StartAssessment(ctx context.Context, t assessment.Type) (*assessment.Session, error) {
	var s assessment.Session
	err := c.do(ctx, call{
		op:     "Start assessment",
		method: http.MethodPost,
		path:   "/assessments",
		body:   map[string]any{"assessment_type": t},
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetAssessment fetches a session by id.
func (c *Client) GetAssessment(ctx context.Context, id string) (*assessment.Session, error) {
	var s assessment.Session
	err := c.do(ctx, call{
		op:     "Load assessment",
		method: http.MethodGet,
		path:   assessmentPath(id),
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateAssessment saves the pointer and responses of a session.
func (c *Client) UpdateAssessment(ctx context.Context, id string, u Update) (*assessment.Session, error) {
	if u.Responses == nil {
		u.Responses = assessment.Responses{}
	}
	var s assessment.Session
	err := c.do(ctx, call{
		op:     "Save progress",
		method: http.MethodPut,
		path:   assessmentPath(id),
		body:   u,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CompleteAssessment finalizes a session with its full responses. The
// returned session carries status completed and a result id.
func (c *Client) CompleteAssessment(ctx context.Context, id string, final assessment.Responses) (*assessment.Session, error) {
	var s assessment.Session
	err := c.do(ctx, call{
		op:     "Complete assessment",
		method: http.MethodPost,
		path:   assessmentPath(id, "complete"),
		body:   map[string]any{"final_responses": final},
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetResult fetches the result of a completed session.
func (c *Client) GetResult(ctx context.Context, id string) (*assessment.Result, error) {
	var r assessment.Result
	err := c.do(ctx, call{
		op:     "Load result",
		method: http.MethodGet,
		path:   assessmentPath(id, "result"),
	}, &r)
	if err != nil {
		return nil, err
	}
	if r.SessionID == "" {
		r.SessionID = id
	}
	return &r, nil
}

// DeleteAssessment abandons a session.
func (c *Client) DeleteAssessment(ctx context.Context, id string) error {
	return c.do(ctx, call{
		op:     "Delete assessment",
		method: http.MethodDelete,
		path:   assessmentPath(id),
	}, nil)
}
