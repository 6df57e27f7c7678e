// Package evalcheck is a conformance test runner for expression evaluators.
//
// It drives an external expression-evaluation executable (or a
// wasip1-compiled module) against a corpus of declarative JSON fixtures and
// judges each case by the evaluator's observable behavior: the JSON value it
// prints on stdout, or the error-kind token it writes to stderr. The
// expression language itself is never interpreted here; the evaluator under
// test is an opaque child speaking a small stdin/stdout/stderr contract.
//
// # Quick start
//
//	// Run a whole corpus against an executable
//	summary, err := evalcheck.Run(ctx, "testdata/corpus",
//	    evalcheck.WithExec("myeval --strict"),
//	)
//
//	// Re-run one failing case with a timeout
//	summary, err := evalcheck.Run(ctx, "testdata/corpus",
//	    evalcheck.WithExec("myeval"),
//	    evalcheck.WithSelectors("basic,0,2"),
//	    evalcheck.WithTimeout(5*time.Second),
//	)
//
// # Subprocess contract
//
// Per case the evaluator is invoked as the configured command line plus one
// trailing argument, the expression. The group's shared document arrives on
// stdin as compact JSON (stream closed after the write). Success cases must
// print exactly one JSON value on stdout; error cases must mention the
// expected token anywhere on stderr. Exit codes are ignored.
//
// For detailed documentation, see:
//   - Fixtures:  github.com/evalcheck/evalcheck/pkg/fixture
//   - Selection: github.com/evalcheck/evalcheck/pkg/selector
//   - Execution: github.com/evalcheck/evalcheck/pkg/runner
package evalcheck

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/evalcheck/evalcheck/pkg/fixture"
	"github.com/evalcheck/evalcheck/pkg/runner"
	"github.com/evalcheck/evalcheck/pkg/selector"
	"github.com/evalcheck/evalcheck/pkg/types"
	"github.com/evalcheck/evalcheck/pkg/wire"
)

// Version returns the current version of evalcheck.
func Version() string {
	return "v0.1.0-dev"
}

type options struct {
	exec        string
	wasm        string
	selectors   []string
	timeout     time.Duration
	parallelism int
	canonical   bool
	out         io.Writer
	log         *zap.Logger
}

// Option configures a Run.
type Option func(*options)

// WithExec sets the shell-style base command invoked per case.
func WithExec(command string) Option {
	return func(o *options) { o.exec = command }
}

// WithWasm runs a wasip1-compiled evaluator in-process instead of spawning
// a subprocess.
func WithWasm(path string) Option {
	return func(o *options) { o.wasm = path }
}

// WithSelectors narrows the run to cases matching at least one
// "category[,group[,test]]" token.
func WithSelectors(tokens ...string) Option {
	return func(o *options) { o.selectors = append(o.selectors, tokens...) }
}

// WithTimeout bounds each case; on expiry the evaluator is killed and the
// case reports a timeout outcome.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithParallelism sets the worker pool size; 1 (the default) is the
// sequential baseline.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

// WithCanonicalStdin renders the given document in RFC 8785 canonical form
// instead of source-order compact JSON.
func WithCanonicalStdin() Option {
	return func(o *options) { o.canonical = true }
}

// WithOutput directs progress markers and failure blocks to w instead of
// stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithLogger attaches a structured logger for debug-level run tracing.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// Run executes every selected case in the corpus under root and streams
// progress and failures to the configured output.
//
// The returned error is reserved for fatal conditions (broken fixture,
// malformed selector, unlaunchable evaluator); case failures are counted in
// the Summary instead.
func Run(ctx context.Context, root string, opts ...Option) (runner.Summary, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	sels, err := selector.ParseAll(o.selectors)
	if err != nil {
		return runner.Summary{}, err
	}

	backend, err := newBackend(ctx, o)
	if err != nil {
		return runner.Summary{}, err
	}

	out := o.out
	if out == nil {
		out = os.Stdout
	}
	enc := wire.Compact
	if o.canonical {
		enc = wire.Canonical
	}

	r := &runner.Runner{
		Backend:     backend,
		Reporter:    runner.NewStreamReporter(out),
		Selectors:   sels,
		Timeout:     o.timeout,
		Parallelism: o.parallelism,
		Encoding:    enc,
		Log:         o.log,
	}
	return r.Run(ctx, root)
}

// List returns the category names of every fixture file under root, in walk
// order, without executing anything.
func List(root string) ([]string, error) {
	return fixture.Categories(root)
}

func newBackend(ctx context.Context, o options) (runner.Backend, error) {
	switch {
	case o.exec != "" && o.wasm != "":
		return nil, types.NewError(types.ErrConfig, "WithExec and WithWasm are mutually exclusive")
	case o.wasm != "":
		return runner.NewWasmBackend(ctx, o.wasm, o.log)
	case o.exec != "":
		return runner.NewExecBackend(o.exec, o.log)
	}
	return nil, types.NewError(types.ErrConfig, "no evaluator configured: use WithExec or WithWasm")
}
