// Package runner executes flattened test cases against an evaluator backend
// and judges each invocation's observable behavior.
//
// The baseline run is strictly sequential: one case spawns, feeds, waits,
// classifies and reports before the next begins, so progress markers line up
// deterministically with failures. An optional worker pool executes cases
// concurrently while delivering outcomes to the single reporter in case
// order, which keeps the reported stream byte-identical to a sequential run.
package runner

import (
	"context"
	"iter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/evalcheck/evalcheck/pkg/fixture"
	"github.com/evalcheck/evalcheck/pkg/selector"
	"github.com/evalcheck/evalcheck/pkg/types"
	"github.com/evalcheck/evalcheck/pkg/wire"
)

// Summary tallies one run.
type Summary struct {
	Executed int
	Passed   int
	Failed   int
}

// Runner wires a backend, a reporter and the selection filter into a run
// over a fixture corpus.
type Runner struct {
	Backend   Backend
	Reporter  Reporter
	Selectors selector.Set

	// Timeout bounds each case; zero means no per-case deadline.
	Timeout time.Duration

	// Parallelism is the worker pool size; values <= 1 select the
	// sequential baseline.
	Parallelism int

	// Encoding selects the stdin rendering of the `given` document.
	Encoding wire.Encoding

	Log *zap.Logger
}

// Run walks the corpus under root and executes every selected case.
//
// Per-case mismatches and timeouts are reported and counted, never
// returned: the returned error is reserved for fatal conditions (malformed
// fixture, walk failure, unlaunchable evaluator, cancellation), which abort
// the run immediately.
func (r *Runner) Run(ctx context.Context, root string) (Summary, error) {
	if r.Log == nil {
		r.Log = zap.NewNop()
	}
	r.Log.Debug("run starting",
		zap.String("root", root),
		zap.String("backend", r.Backend.Describe()),
		zap.Int("selectors", len(r.Selectors)))

	var summary Summary
	var err error
	if r.Parallelism > 1 {
		err = r.runParallel(ctx, root, &summary)
	} else {
		err = r.runSequential(ctx, root, &summary)
	}
	r.Reporter.Finish(summary)
	if err != nil {
		return summary, err
	}

	r.Log.Debug("run finished",
		zap.Int("executed", summary.Executed),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// cases yields every selected case in corpus order: files in walk order,
// groups in file order, cases in group order. Load failures surface as the
// second value and are fatal.
func (r *Runner) cases(root string) iter.Seq2[fixture.FlatCase, error] {
	return func(yield func(fixture.FlatCase, error) bool) {
		for path, err := range fixture.Walk(root) {
			if err != nil {
				yield(fixture.FlatCase{}, err)
				return
			}
			file, err := fixture.Load(path)
			if err != nil {
				yield(fixture.FlatCase{}, err)
				return
			}
			r.Log.Debug("fixture loaded",
				zap.String("category", file.Category),
				zap.Int("cases", file.Len()))
			for c := range file.Cases() {
				if !r.Selectors.ShouldRun(c) {
					continue
				}
				if !yield(c, nil) {
					return
				}
			}
		}
	}
}

func (r *Runner) runSequential(ctx context.Context, root string, summary *Summary) error {
	for c, err := range r.cases(root) {
		if err != nil {
			return err
		}
		out, err := r.runCase(ctx, c)
		if err != nil {
			return err
		}
		r.record(out, summary)
	}
	return nil
}

type indexedCase struct {
	i int
	c fixture.FlatCase
}

type indexedOutcome struct {
	i   int
	out Outcome
}

// runParallel executes cases on a worker pool but re-sequences outcomes
// before they reach the reporter, so the failure set and its order are
// identical to the sequential run.
func (r *Runner) runParallel(ctx context.Context, root string, summary *Summary) error {
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan indexedCase)
	results := make(chan indexedOutcome)

	g.Go(func() error {
		defer close(jobs)
		i := 0
		for c, err := range r.cases(root) {
			if err != nil {
				return err
			}
			select {
			case jobs <- indexedCase{i: i, c: c}:
			case <-gctx.Done():
				return gctx.Err()
			}
			i++
		}
		return nil
	})

	for range r.Parallelism {
		g.Go(func() error {
			for job := range jobs {
				out, err := r.runCase(gctx, job.c)
				if err != nil {
					return err
				}
				select {
				case results <- indexedOutcome{i: job.i, out: out}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	// Single collector goroutine: the reporter never sees interleaved or
	// out-of-order writes.
	done := make(chan struct{})
	go func() {
		defer close(done)
		pending := make(map[int]Outcome)
		next := 0
		for res := range results {
			pending[res.i] = res.out
			for {
				out, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				r.record(out, summary)
			}
		}
	}()

	err := g.Wait()
	close(results)
	<-done
	return err
}

// runCase executes one case end to end: render stdin, invoke, classify.
func (r *Runner) runCase(ctx context.Context, c fixture.FlatCase) (Outcome, error) {
	stdin, err := wire.Render(c.Given, r.Encoding)
	if err != nil {
		return Outcome{}, types.NewError(types.ErrFixtureLoad, "cannot render given document").
			WithPath(c.ID()).WithCause(err)
	}

	cctx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	inv, err := r.Backend.Invoke(cctx, c.Expression, stdin)
	if err != nil {
		return Outcome{}, err
	}
	return Classify(c, inv), nil
}

func (r *Runner) record(out Outcome, summary *Summary) {
	summary.Executed++
	if out.Status == Pass {
		summary.Passed++
	} else {
		summary.Failed++
		r.Log.Debug("case failed",
			zap.String("case", out.Case.ID()),
			zap.String("status", out.Status.String()))
	}
	r.Reporter.Report(out)
}
