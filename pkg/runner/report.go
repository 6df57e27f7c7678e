package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/evalcheck/evalcheck/pkg/fixture"
	"github.com/evalcheck/evalcheck/pkg/wire"
)

// Reporter consumes outcomes in case order. Implementations are driven by
// exactly one goroutine; the run loop serializes delivery.
type Reporter interface {
	// Report is called once per executed case, immediately after it is
	// classified.
	Report(Outcome)
	// Finish is called once, after the last case.
	Finish(Summary)
}

// StreamReporter streams one progress marker per executed case and a
// structured block per failure, with no cross-case buffering. The failing
// triple is printed in selector form so the case can be re-run directly
// with --tests.
type StreamReporter struct {
	w io.Writer
}

// NewStreamReporter creates a reporter writing to w.
func NewStreamReporter(w io.Writer) *StreamReporter {
	return &StreamReporter{w: w}
}

// Report implements Reporter.
func (r *StreamReporter) Report(o Outcome) {
	fmt.Fprintf(r.w, "%c", o.Status.Marker())
	if o.Status == Pass {
		return
	}

	fmt.Fprintf(r.w, "\nFAIL %s (%s)\n", o.Case.ID(), o.Status)
	fmt.Fprintf(r.w, "  expression: %s\n", o.Case.Expression)

	switch expect := o.Case.Expect.(type) {
	case fixture.ValueExpectation:
		fmt.Fprintf(r.w, "  expected:   %s\n", wire.MustRender(expect.Result))
		if o.Status == TimedOut {
			break
		}
		if o.ParsedOK {
			fmt.Fprintf(r.w, "  actual:     %s\n", strings.TrimSpace(string(o.RawStdout)))
			expected, _ := wire.Decode(expect.Result)
			if diff := cmp.Diff(expected, o.Actual); diff != "" {
				fmt.Fprintf(r.w, "  diff (-expected +actual):\n%s", indent(diff, "    "))
			}
		} else {
			fmt.Fprintf(r.w, "  actual:     (stdout is not a single JSON value)\n")
			fmt.Fprintf(r.w, "  stdout:\n%s", indent(string(o.RawStdout), "    "))
		}
	case fixture.ErrorExpectation:
		fmt.Fprintf(r.w, "  expected error: %s\n", expect.Token)
		fmt.Fprintf(r.w, "  stderr:\n%s", indent(string(o.Stderr), "    "))
	}

	if o.Status == TimedOut {
		fmt.Fprintf(r.w, "  evaluator killed: per-case timeout expired\n")
	}
}

// Finish implements Reporter: a final tally plus the trailing newline the
// run always ends with.
func (r *StreamReporter) Finish(s Summary) {
	fmt.Fprintf(r.w, "\n%d executed, %d passed, %d failed\n", s.Executed, s.Passed, s.Failed)
}

func indent(s, prefix string) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return prefix + "(empty)\n"
	}
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
