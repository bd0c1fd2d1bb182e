package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/nutrify/internal/assessment"
)

type resultRepo struct {
	drv *entsql.Driver
}

func (r *resultRepo) Put(ctx context.Context, sessionID string, res *assessment.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	q := sqlite.Insert("results").
		Columns("session_id", "data", "fetched_at").
		Values(sessionID, string(data), time.Now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("session_id"), entsql.ResolveWithNewValues())
	if err := exec(ctx, r.drv, q); err != nil {
		return fmt.Errorf("cache result: %w", err)
	}
	return nil
}

func (r *resultRepo) Get(ctx context.Context, sessionID string) (*assessment.Result, error) {
	var data string
	q := sqlite.Select("data").
		From(entsql.Table("results")).
		Where(entsql.EQ("session_id", sessionID))
	if err := each(ctx, r.drv, q, func(rows *entsql.Rows) error {
		return rows.Scan(&data)
	}); err != nil {
		return nil, fmt.Errorf("get cached result: %w", err)
	}
	if data == "" {
		return nil, nil
	}
	var res assessment.Result
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &res, nil
}
