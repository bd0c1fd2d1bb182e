package catalog

import (
	"fmt"
	"strings"

	"github.com/abhisek/nutrify/internal/assessment"
)

// ValidateCatalog performs structural checks on a catalog.
// Returns a combined error describing all problems found, or nil if valid.
func ValidateCatalog(c assessment.Catalog) error {
	var errs []string

	if len(c.Phases) == 0 {
		errs = append(errs, "catalog has no phases")
	}

	seen := make(map[string]int)
	for pi, p := range c.Phases {
		if p.Title == "" {
			errs = append(errs, fmt.Sprintf("phase %d has no title", pi+1))
		}
		if len(p.Questions) == 0 {
			errs = append(errs, fmt.Sprintf("phase %d (%s) has no questions", pi+1, p.Title))
		}
		for _, q := range p.Questions {
			if q.ID == "" {
				errs = append(errs, fmt.Sprintf("phase %d has a question without an id", pi+1))
				continue
			}
			if prev, dup := seen[q.ID]; dup {
				errs = append(errs, fmt.Sprintf("duplicate question id %q (phases %d and %d)", q.ID, prev, pi+1))
			}
			seen[q.ID] = pi + 1

			switch {
			case q.Type.IsSelect() && len(q.Options) == 0:
				errs = append(errs, fmt.Sprintf("question %q is %s but has no options", q.ID, q.Type))
			case !q.Type.IsSelect() && len(q.Options) > 0:
				errs = append(errs, fmt.Sprintf("question %q is %s but has options", q.ID, q.Type))
			}

			values := make(map[string]bool, len(q.Options))
			for _, o := range q.Options {
				if values[o.Value] {
					errs = append(errs, fmt.Sprintf("question %q repeats option %q", q.ID, o.Value))
				}
				values[o.Value] = true
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog %q validation failed:\n  %s", c.Type, strings.Join(errs, "\n  "))
	}
	return nil
}
