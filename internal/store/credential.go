package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// credentialID is the key of the single stored token row.
const credentialID = 1

type credentialRepo struct {
	drv *entsql.Driver
}

func (r *credentialRepo) Save(ctx context.Context, token string) error {
	q := sqlite.Insert("credentials").
		Columns("id", "token", "saved_at").
		Values(credentialID, token, time.Now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	if err := exec(ctx, r.drv, q); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (r *credentialRepo) Load(ctx context.Context) (string, error) {
	var token string
	q := sqlite.Select("token").
		From(entsql.Table("credentials")).
		Where(entsql.EQ("id", credentialID))
	err := each(ctx, r.drv, q, func(rows *entsql.Rows) error {
		return rows.Scan(&token)
	})
	if err != nil {
		return "", fmt.Errorf("load credentials: %w", err)
	}
	if token == "" {
		return "", ErrNoCredentials
	}
	return token, nil
}

func (r *credentialRepo) Clear(ctx context.Context) error {
	if err := exec(ctx, r.drv, sqlite.Delete("credentials")); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
