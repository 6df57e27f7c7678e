package runner_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalcheck/evalcheck/pkg/runner"
	"github.com/evalcheck/evalcheck/pkg/selector"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return root
}

func newRun(t *testing.T, command string, out *bytes.Buffer) *runner.Runner {
	t.Helper()
	backend, err := runner.NewExecBackend(command, nil)
	require.NoError(t, err)
	return &runner.Runner{
		Backend:  backend,
		Reporter: runner.NewStreamReporter(out),
	}
}

// echoExpr is a stand-in evaluator that discards the document and prints
// its expression argument, so a case passes iff expression == result.
const echoExpr = `sh -c 'cat >/dev/null; printf "%s\n" "$0"'`

func TestRunScenarioIdentityPass(t *testing.T) {
	requireShell(t)
	root := writeCorpus(t, map[string]string{
		"basic.json": `[{"given": {"a": 1}, "cases": [{"expression": "a", "result": 1}]}]`,
	})

	var out bytes.Buffer
	r := newRun(t, `sh -c 'cat >/dev/null; echo 1'`, &out)
	summary, err := r.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, runner.Summary{Executed: 1, Passed: 1}, summary)
	assert.NotContains(t, out.String(), "FAIL")
	assert.Contains(t, out.String(), ".")
}

func TestRunScenarioValueMismatch(t *testing.T) {
	requireShell(t)
	root := writeCorpus(t, map[string]string{
		"basic.json": `[{"given": {"a": 1}, "cases": [{"expression": "a", "result": 1}]}]`,
	})

	var out bytes.Buffer
	r := newRun(t, `sh -c 'cat >/dev/null; echo 2'`, &out)
	summary, err := r.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, runner.Summary{Executed: 1, Failed: 1}, summary)
	assert.Contains(t, out.String(), "FAIL basic,0,0")
	assert.Contains(t, out.String(), "expected:   1")
	assert.Contains(t, out.String(), "actual:     2")
}

func TestRunScenarioErrorSignature(t *testing.T) {
	requireShell(t)
	root := writeCorpus(t, map[string]string{
		"errors.json": `[{"given": {"a": 1}, "cases": [{"expression": "a.b", "error": "invalid-type"}]}]`,
	})

	var out bytes.Buffer
	r := newRun(t, `sh -c 'cat >/dev/null; echo "Error: invalid-type: cannot index number" >&2'`, &out)
	summary, err := r.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, runner.Summary{Executed: 1, Passed: 1}, summary)
}

func TestRunScenarioErrorSignatureMismatch(t *testing.T) {
	requireShell(t)
	root := writeCorpus(t, map[string]string{
		"errors.json": `[{"given": {"a": 1}, "cases": [{"expression": "a.b", "error": "invalid-type"}]}]`,
	})

	var out bytes.Buffer
	r := newRun(t, `sh -c 'cat >/dev/null; echo "Error: syntax-error" >&2'`, &out)
	summary, err := r.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, runner.Summary{Executed: 1, Failed: 1}, summary)
	assert.Contains(t, out.String(), "expected error: invalid-type")
	assert.Contains(t, out.String(), "Error: syntax-error")
}

func TestRunAppliesSelectors(t *testing.T) {
	requireShell(t)
	root := writeCorpus(t, map[string]string{
		"basic.json": `[
			{"given": 0, "cases": [
				{"expression": "x", "result": "x"},
				{"expression": "y", "result": "y"}
			]},
			{"given": 0, "cases": [{"expression": "z", "result": "z"}]}
		]`,
		"filters.json": `[{"given": 0, "cases": [{"expression": "q", "result": "q"}]}]`,
	})

	var out bytes.Buffer
	r := newRun(t, echoExpr, &out)
	sels, err := selector.ParseAll([]string{"basic,0"})
	require.NoError(t, err)
	r.Selectors = sels

	summary, err := r.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Executed, "only group 0 of basic is selected")
	assert.Equal(t, 2, summary.Passed)
}

func TestRunContinuesPastFailures(t *testing.T) {
	requireShell(t)
	root := writeCorpus(t, map[string]string{
		"mixed.json": `[{"given": 0, "cases": [
			{"expression": "a", "result": "a"},
			{"expression": "b", "result": "WRONG"},
			{"expression": "c", "result": "c"}
		]}]`,
	})

	var out bytes.Buffer
	r := newRun(t, echoExpr, &out)
	summary, err := r.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, runner.Summary{Executed: 3, Passed: 2, Failed: 1}, summary)
	assert.Contains(t, out.String(), "FAIL mixed,0,1")
}

func TestRunBrokenFixtureIsFatal(t *testing.T) {
	requireShell(t)
	root := writeCorpus(t, map[string]string{
		"broken.json": `[{"given":`,
	})

	var out bytes.Buffer
	r := newRun(t, echoExpr, &out)
	_, err := r.Run(context.Background(), root)
	require.Error(t, err, "a malformed fixture aborts the whole run")
}

func TestRunTimeoutOutcome(t *testing.T) {
	requireShell(t)
	root := writeCorpus(t, map[string]string{
		"slow.json": `[{"given": 0, "cases": [
			{"expression": "slow", "result": 1},
			{"expression": "slow2", "result": 1}
		]}]`,
	})

	var out bytes.Buffer
	r := newRun(t, `sh -c 'sleep 10'`, &out)
	r.Timeout = 100 * time.Millisecond

	summary, err := r.Run(context.Background(), root)
	require.NoError(t, err, "timeouts are per-case outcomes, not fatal")
	assert.Equal(t, 2, summary.Executed, "the run proceeds past a timed-out case")
	assert.Equal(t, 2, summary.Failed)
	assert.Contains(t, out.String(), "T")
}

func TestRunParallelMatchesSequentialOutput(t *testing.T) {
	requireShell(t)
	root := writeCorpus(t, map[string]string{
		"a.json": `[{"given": 0, "cases": [
			{"expression": "1", "result": "1"},
			{"expression": "2", "result": "WRONG"},
			{"expression": "3", "result": "3"},
			{"expression": "4", "result": "4"}
		]}]`,
		"b.json": `[{"given": 0, "cases": [
			{"expression": "5", "result": "WRONG"},
			{"expression": "6", "result": "6"}
		]}]`,
	})

	var sequential bytes.Buffer
	rs := newRun(t, echoExpr, &sequential)
	sumSeq, err := rs.Run(context.Background(), root)
	require.NoError(t, err)

	var parallel bytes.Buffer
	rp := newRun(t, echoExpr, &parallel)
	rp.Parallelism = 4
	sumPar, err := rp.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, sumSeq, sumPar)
	assert.Equal(t, sequential.String(), parallel.String(),
		"outcomes are re-sequenced, so the streams are byte-identical")
}
