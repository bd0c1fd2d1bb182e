package validate

import (
	"fmt"
	"sort"
	"strings"
)

// Error carries per-field validation failures keyed by question id. It only
// blocks submission of the current phase; nothing is sent to the server.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := e.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Keys returns the failing question ids, sorted.
func (e *Error) Keys() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Field returns the message for one question id, or "".
func (e *Error) Field(id string) string {
	if e == nil {
		return ""
	}
	return e.Fields[id]
}

func (e *Error) add(id, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[id]; !exists {
		e.Fields[id] = msg
	}
}
