package assessment

import (
	"strconv"
	"strings"
)

// Constraint is the parsed form of a question's validation string, for
// example "min:18,max:99" or "minlen:2, maxlen=200".
type Constraint struct {
	Min    *float64
	Max    *float64
	MinLen *int
	MaxLen *int
}

// ParseConstraint parses a validation string. Unknown keys and malformed
// numbers are ignored so a bad server-side rule never blocks the wizard.
func ParseConstraint(s string) Constraint {
	var c Constraint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, ":")
		if !ok {
			key, val, ok = strings.Cut(part, "=")
		}
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		switch key {
		case "min", "max":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				continue
			}
			if key == "min" {
				c.Min = &f
			} else {
				c.Max = &f
			}
		case "minlen", "maxlen":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				continue
			}
			if key == "minlen" {
				c.MinLen = &n
			} else {
				c.MaxLen = &n
			}
		}
	}
	return c
}

// HasRange reports whether an explicit numeric bound was given.
func (c Constraint) HasRange() bool {
	return c.Min != nil || c.Max != nil
}
