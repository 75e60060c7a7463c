package engine

import "strings"

// Priority is the funding tier of an envelope.
type Priority string

const (
	Essential     Priority = "essential"
	Important     Priority = "important"
	Discretionary Priority = "discretionary"
)

// Tiers lists the priorities in the order the waterfall funds them.
var Tiers = []Priority{Essential, Important, Discretionary}

// ParsePriority parses a priority name. "flexible" is accepted as an alias for
// Discretionary.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "flexible" {
		p = Discretionary
	}

	if err := p.Validate(); err != nil {
		return "", err
	}

	return p, nil
}

// Validate returns a ValidationError for unknown priorities.
func (p Priority) Validate() error {
	switch p {
	case Essential, Important, Discretionary:
		return nil
	}

	return invalid("priority", "%q is not a known priority", string(p))
}
