package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/nutrify/internal/assessment"
)

type sessionRepo struct {
	drv *entsql.Driver
}

func (r *sessionRepo) Put(ctx context.Context, s *assessment.Session) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("cache session: missing id")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	q := sqlite.Insert("sessions").
		Columns("id", "assessment_type", "status", "current_phase", "data", "cached_at").
		Values(s.ID, string(s.Type), string(s.Status), s.CurrentPhase, string(data), time.Now().UnixNano()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	if err := exec(ctx, r.drv, q); err != nil {
		return fmt.Errorf("cache session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*assessment.Session, error) {
	q := sqlite.Select("data").
		From(entsql.Table("sessions")).
		Where(entsql.EQ("id", id))
	list, err := r.scan(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get cached session: %w", err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// Delete drops the session row together with the answers and result cached
// under its id.
func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	err := inTx(ctx, r.drv, func(tx dialect.Tx) error {
		for _, del := range []entsql.Querier{
			sqlite.Delete("sessions").Where(entsql.EQ("id", id)),
			sqlite.Delete("answers").Where(entsql.EQ("session_id", id)),
			sqlite.Delete("results").Where(entsql.EQ("session_id", id)),
		} {
			if err := exec(ctx, tx, del); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete cached session: %w", err)
	}
	return nil
}

func (r *sessionRepo) List(ctx context.Context, limit int) ([]*assessment.Session, error) {
	q := sqlite.Select("data").
		From(entsql.Table("sessions")).
		OrderBy(entsql.Desc("cached_at"))
	if limit > 0 {
		q.Limit(limit)
	}
	list, err := r.scan(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list cached sessions: %w", err)
	}
	return list, nil
}

func (r *sessionRepo) scan(ctx context.Context, q *entsql.Selector) ([]*assessment.Session, error) {
	var out []*assessment.Session
	err := each(ctx, r.drv, q, func(rows *entsql.Rows) error {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("scan session: %w", err)
		}
		s, err := decodeSession(data)
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func decodeSession(data string) (*assessment.Session, error) {
	var s assessment.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}
