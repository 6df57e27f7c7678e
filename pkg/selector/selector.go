// Package selector parses and evaluates user-supplied case filters.
//
// A selector token has the form "category[,group[,test]]". Fields absent
// from a selector are wildcards; multiple selectors are OR-combined.
package selector

import (
	"strconv"
	"strings"

	"github.com/evalcheck/evalcheck/pkg/fixture"
	"github.com/evalcheck/evalcheck/pkg/types"
)

// Selector narrows which flattened cases run. Nil Group/Test match any
// group/test number. By construction Test is never set without Group: the
// token grammar is positional.
type Selector struct {
	Category string
	Group    *int
	Test     *int
}

// Parse parses one selector token. Malformed tokens are fatal at startup,
// before any case executes.
func Parse(token string) (Selector, error) {
	parts := strings.Split(token, ",")
	if len(parts) > 3 {
		return Selector{}, types.Errorf(types.ErrSelectorParse,
			"selector %q has %d comma-separated parts, want at most 3", token, len(parts))
	}
	if strings.TrimSpace(parts[0]) == "" {
		return Selector{}, types.Errorf(types.ErrSelectorParse, "selector %q has an empty category", token)
	}

	sel := Selector{Category: strings.TrimSpace(parts[0])}
	for i, name := range []string{"group number", "test number"} {
		if len(parts) <= i+1 {
			break
		}
		n, err := strconv.Atoi(strings.TrimSpace(parts[i+1]))
		if err != nil || n < 0 {
			return Selector{}, types.Errorf(types.ErrSelectorParse,
				"selector %q: %s %q is not a non-negative integer", token, name, parts[i+1])
		}
		if i == 0 {
			sel.Group = &n
		} else {
			sel.Test = &n
		}
	}
	return sel, nil
}

// Matches reports whether the selector is a subset match of the case: every
// present field must equal the case's field, absent fields are wildcards.
func (s Selector) Matches(c fixture.FlatCase) bool {
	if s.Category != c.Category {
		return false
	}
	if s.Group != nil && *s.Group != c.Group {
		return false
	}
	if s.Test != nil && *s.Test != c.Test {
		return false
	}
	return true
}

// String renders the selector back into its token form.
func (s Selector) String() string {
	var b strings.Builder
	b.WriteString(s.Category)
	if s.Group != nil {
		b.WriteString("," + strconv.Itoa(*s.Group))
	}
	if s.Test != nil {
		b.WriteString("," + strconv.Itoa(*s.Test))
	}
	return b.String()
}

// Set is an OR-combined selector collection. The zero value (empty set)
// selects everything.
type Set []Selector

// ParseAll parses a list of selector tokens into a Set.
func ParseAll(tokens []string) (Set, error) {
	set := make(Set, 0, len(tokens))
	for _, token := range tokens {
		sel, err := Parse(token)
		if err != nil {
			return nil, err
		}
		set = append(set, sel)
	}
	return set, nil
}

// ShouldRun reports whether the case should execute: true when the set is
// empty, otherwise true iff at least one selector matches. Pure predicate,
// O(len(set)) per case.
func (s Set) ShouldRun(c fixture.FlatCase) bool {
	if len(s) == 0 {
		return true
	}
	for _, sel := range s {
		if sel.Matches(c) {
			return true
		}
	}
	return false
}
