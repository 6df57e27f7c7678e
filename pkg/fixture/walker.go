package fixture

import (
	"io/fs"
	"iter"
	"path/filepath"

	"github.com/evalcheck/evalcheck/pkg/types"
)

// Walk lazily enumerates every fixture file under root, in the order the
// filesystem returns directory entries. No cross-platform ordering is
// guaranteed beyond "stable within one run on one filesystem"; test writers
// must not depend on more.
//
// A traversal error is yielded as the second value and terminates the
// sequence; it is fatal for the run.
func Walk(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(path) != Ext {
				return nil
			}
			if !yield(path, nil) {
				return fs.SkipAll
			}
			return nil
		})
		if walkErr != nil {
			yield("", types.NewError(types.ErrWalk, "corpus walk failed").WithPath(root).WithCause(walkErr))
		}
	}
}

// Categories returns the category names of every fixture file under root,
// in walk order. This backs the --list CLI mode and loads nothing.
func Categories(root string) ([]string, error) {
	var names []string
	for path, err := range Walk(root) {
		if err != nil {
			return nil, err
		}
		names = append(names, Category(path))
	}
	return names, nil
}
