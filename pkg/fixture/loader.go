package fixture

import (
	"encoding/json"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/evalcheck/evalcheck/pkg/types"
)

// Ext is the filename extension fixture files must carry.
const Ext = ".json"

// Category derives the category name from a fixture file path: the base
// name with the fixture extension stripped.
func Category(path string) string {
	return strings.TrimSuffix(filepath.Base(path), Ext)
}

// Load parses one fixture file into its ordered group sequence.
//
// A malformed file is fatal for the whole run (the error satisfies
// IsFatal): a broken fixture indicates a corpus bug, not a bug in the
// evaluator under test, so it is never downgraded to a per-case failure.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError(types.ErrFixtureLoad, "cannot read fixture").WithPath(path).WithCause(err)
	}

	var groups []Group
	if err := json.Unmarshal(data, &groups); err != nil {
		var terr *types.Error
		if errors.As(err, &terr) && terr.Code == types.ErrCaseShape {
			return nil, terr.WithPath(path)
		}
		return nil, types.NewError(types.ErrFixtureLoad, "invalid fixture JSON").WithPath(path).WithCause(err)
	}

	return &File{
		Category: Category(path),
		Path:     path,
		Groups:   groups,
	}, nil
}

// Cases flattens the file into its lazily produced case sequence, in file
// order: group by group, case by case. Re-iterating reproduces the same
// sequence; nothing is materialized beyond the already loaded groups.
func (f *File) Cases() iter.Seq[FlatCase] {
	return func(yield func(FlatCase) bool) {
		for g, group := range f.Groups {
			for t, c := range group.Cases {
				flat := FlatCase{
					Category:   f.Category,
					Group:      g,
					Test:       t,
					Given:      group.Given,
					Expression: c.Expression,
					Expect:     c.Expect,
				}
				if !yield(flat) {
					return
				}
			}
		}
	}
}

// Len returns the total number of flattened cases in the file.
func (f *File) Len() int {
	n := 0
	for _, g := range f.Groups {
		n += len(g.Cases)
	}
	return n
}
