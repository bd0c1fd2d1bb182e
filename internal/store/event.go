package store

import (
	"context"
	"fmt"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter hands out the monotonic sequence number assigned to every
// appended event. Sequences give a stable order that survives clock skew and
// are what QueryOpts.After/Before page over.
type sequenceCounter struct {
	mu  sync.Mutex
	drv *entsql.Driver
}

// newSequenceCounter seeds the counter row if it is missing.
func newSequenceCounter(ctx context.Context, drv *entsql.Driver) (*sequenceCounter, error) {
	seed := sqlite.Insert("global_sequence").
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing())
	if err := exec(ctx, drv, seed); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequenceCounter{drv: drv}, nil
}

// Next returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := inTx(ctx, sc.drv, func(tx dialect.Tx) error {
		read := sqlite.Select("next_val").
			From(entsql.Table("global_sequence")).
			Where(entsql.EQ("id", 1))
		if err := each(ctx, tx, read, func(rows *entsql.Rows) error {
			return rows.Scan(&seq)
		}); err != nil {
			return err
		}
		if seq == 0 {
			return fmt.Errorf("sequence row missing")
		}
		return exec(ctx, tx, sqlite.Update("global_sequence").
			Add("next_val", 1).
			Where(entsql.EQ("id", 1)))
	})
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
