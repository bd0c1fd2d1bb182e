package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueueDropsOldest(t *testing.T) {
	q := NewQueue(2)
	q.Notify(Info("a", ""))
	q.Notify(Info("b", ""))
	q.Notify(Info("c", ""))

	assert.Equal(t, 2, q.Len())
	got := q.Drain()
	assert.Equal(t, "b", got[0].Title)
	assert.Equal(t, "c", got[1].Title)
	assert.Equal(t, 0, q.Len())
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewQueue(4), NewQueue(4)
	Multi(a, nil, b).Notify(Error("save failed", errors.New("boom")))

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, "boom", b.Drain()[0].Message)
}

func TestWriterPrintsOneLine(t *testing.T) {
	var buf bytes.Buffer
	Writer(&buf).Notify(Warn("active assessment", "resume or discard"))

	out := buf.String()
	assert.Contains(t, out, "[warn] active assessment")
	assert.Contains(t, out, "resume or discard")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestLogUsesLevel(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Log(zap.New(core)).Notify(Error("delete failed", errors.New("503")))

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	assert.Equal(t, "delete failed", entries[0].ContextMap()["title"])
}
