package assessment

import "fmt"

// OutOfRangeError is returned when a phase index falls outside the catalog.
type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("phase %d out of range (catalog has %d phases)", e.Index, e.Len)
}

// Catalog is the full ordered definition of phases for one assessment type.
type Catalog struct {
	Type   Type
	Phases []Phase
}

// Len returns the number of phases.
func (c Catalog) Len() int {
	return len(c.Phases)
}

// Phase returns the phase at the 1-based index.
func (c Catalog) Phase(index int) (Phase, error) {
	if index < 1 || index > len(c.Phases) {
		return Phase{}, &OutOfRangeError{Index: index, Len: len(c.Phases)}
	}
	return c.Phases[index-1], nil
}

// IsLast reports whether index is the final phase.
func (c Catalog) IsLast(index int) bool {
	return index == len(c.Phases)
}

// Question looks up a question by id across all phases.
func (c Catalog) Question(id string) (Question, bool) {
	for _, p := range c.Phases {
		for _, q := range p.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}

// QuestionCount returns the total number of questions in the catalog.
func (c Catalog) QuestionCount() int {
	n := 0
	for _, p := range c.Phases {
		n += len(p.Questions)
	}
	return n
}
