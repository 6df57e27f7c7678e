package runner

import (
	"bytes"

	"github.com/evalcheck/evalcheck/pkg/fixture"
	"github.com/evalcheck/evalcheck/pkg/wire"
)

// Status is the judged result of one executed case.
type Status int

const (
	// Pass: the evaluator's observable behavior matched the expectation.
	Pass Status = iota
	// ValueMismatch: stdout did not deep-equal the expected result, or was
	// not parseable as a single JSON value.
	ValueMismatch
	// ErrorMismatch: the expected error token did not appear in stderr.
	ErrorMismatch
	// TimedOut: the per-case timeout expired and the evaluator was killed.
	TimedOut
)

// Marker returns the single progress character streamed for this status.
func (s Status) Marker() byte {
	switch s {
	case Pass:
		return '.'
	case ValueMismatch:
		return 'F'
	case ErrorMismatch:
		return 'E'
	case TimedOut:
		return 'T'
	}
	return '?'
}

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case ValueMismatch:
		return "value mismatch"
	case ErrorMismatch:
		return "error signature mismatch"
	case TimedOut:
		return "timeout"
	}
	return "unknown"
}

// Outcome carries one executed case plus the observed data needed for
// reporting. It exists only for the duration of that case's reporting.
type Outcome struct {
	Case   fixture.FlatCase
	Status Status

	// Actual is the decoded stdout value when ParsedOK is true.
	Actual   any
	ParsedOK bool

	// RawStdout and Stderr are the captured byte buffers.
	RawStdout []byte
	Stderr    []byte
}

// Classify judges one invocation against the case's expectation.
//
// Result cases: stdout must hold exactly one JSON value deep-equal to the
// expectation (object keys order-insensitive, arrays ordered, numbers by
// value). Error cases: the expected token must appear as a byte substring
// anywhere in stderr, case-sensitively. The child's exit code is never
// inspected.
func Classify(c fixture.FlatCase, inv Invocation) Outcome {
	out := Outcome{
		Case:      c,
		RawStdout: inv.Stdout,
		Stderr:    inv.Stderr,
	}

	if inv.TimedOut {
		out.Status = TimedOut
		return out
	}

	switch expect := c.Expect.(type) {
	case fixture.ValueExpectation:
		actual, ok := wire.Decode(inv.Stdout)
		out.Actual = actual
		out.ParsedOK = ok
		if !ok {
			out.Status = ValueMismatch
			return out
		}
		// The expectation parsed once already, at fixture load time.
		expected, _ := wire.Decode(expect.Result)
		if Equal(actual, expected) {
			out.Status = Pass
		} else {
			out.Status = ValueMismatch
		}
	case fixture.ErrorExpectation:
		if bytes.Contains(inv.Stderr, []byte(expect.Token)) {
			out.Status = Pass
		} else {
			out.Status = ErrorMismatch
		}
	}
	return out
}
