package llm

import "context"

// Purpose labels why a request was sent. It is stored with the request event.
type Purpose string

// Unlabelled is recorded for requests sent without a purpose.
const Unlabelled Purpose = "unlabelled"

type ctxKey int

const (
	purposeKey ctxKey = iota
	attemptKey
)

// WithPurpose labels every request sent with ctx.
func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeKey, p)
}

// PurposeFrom returns the label set by WithPurpose, or Unlabelled.
func PurposeFrom(ctx context.Context) Purpose {
	if p, ok := ctx.Value(purposeKey).(Purpose); ok && p != "" {
		return p
	}
	return Unlabelled
}

func withAttempt(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, attemptKey, n)
}

// AttemptFrom returns which try of a retried request ctx belongs to,
// starting at 1.
func AttemptFrom(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey).(int); ok && n > 0 {
		return n
	}
	return 1
}
