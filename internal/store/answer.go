package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/nutrify/internal/assessment"
)

type answerRepo struct {
	drv *entsql.Driver
}

func (r *answerRepo) Put(ctx context.Context, a CachedAnswer) error {
	question, err := json.Marshal(a.Question)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	value, err := json.Marshal(a.Value)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	at := a.AnsweredAt
	if at.IsZero() {
		at = time.Now()
	}

	q := sqlite.Insert("answers").
		Columns("session_id", "question_id", "position", "total", "question", "value", "answered_at").
		Values(a.SessionID, a.Question.ID, a.Position, a.Total, string(question), string(value), at.UnixMilli()).
		OnConflict(entsql.ConflictColumns("session_id", "question_id"), entsql.ResolveWithNewValues())
	if err := exec(ctx, r.drv, q); err != nil {
		return fmt.Errorf("cache answer: %w", err)
	}
	return nil
}

func (r *answerRepo) List(ctx context.Context, sessionID string) ([]CachedAnswer, error) {
	q := sqlite.Select("position", "total", "question", "value", "answered_at").
		From(entsql.Table("answers")).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Asc("position"))

	var out []CachedAnswer
	err := each(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var (
			a        CachedAnswer
			question string
			value    string
			at       int64
		)
		if err := rows.Scan(&a.Position, &a.Total, &question, &value, &at); err != nil {
			return fmt.Errorf("scan answer: %w", err)
		}
		if err := json.Unmarshal([]byte(question), &a.Question); err != nil {
			return fmt.Errorf("unmarshal question: %w", err)
		}
		var raw any
		if err := json.Unmarshal([]byte(value), &raw); err != nil {
			return fmt.Errorf("unmarshal answer: %w", err)
		}
		if v, ok := assessment.NormalizeValue(raw); ok {
			a.Value = v
		}
		a.SessionID = sessionID
		a.AnsweredAt = time.UnixMilli(at)
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list cached answers: %w", err)
	}
	return out, nil
}

func (r *answerRepo) Clear(ctx context.Context, sessionID string) error {
	q := sqlite.Delete("answers").Where(entsql.EQ("session_id", sessionID))
	if err := exec(ctx, r.drv, q); err != nil {
		return fmt.Errorf("clear cached answers: %w", err)
	}
	return nil
}
