// Package catalog holds the built-in phase catalogs used by the static
// (in-app) wizard mode.
package catalog

import (
	"fmt"

	"github.com/abhisek/nutrify/internal/assessment"
)

// byType is the package-level registry, built once from the seed data.
var byType = func() map[assessment.Type]assessment.Catalog {
	m := make(map[assessment.Type]assessment.Catalog, len(seedCatalogs))
	for _, c := range seedCatalogs {
		m[c.Type] = c
	}
	return m
}()

// Get returns the built-in catalog for an assessment type.
func Get(t assessment.Type) (assessment.Catalog, error) {
	c, ok := byType[t]
	if !ok {
		return assessment.Catalog{}, fmt.Errorf("no catalog for assessment type %q", t)
	}
	return c, nil
}

// All returns every built-in catalog in assessment type display order.
func All() []assessment.Catalog {
	out := make([]assessment.Catalog, 0, len(byType))
	for _, t := range assessment.AllTypes() {
		if c, ok := byType[t]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks every built-in catalog for structural problems.
func Validate() error {
	for _, c := range All() {
		if err := ValidateCatalog(c); err != nil {
			return err
		}
	}
	return nil
}
