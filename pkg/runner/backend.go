package runner

import "context"

// Invocation captures the observable behavior of one evaluator invocation:
// everything the classifier is allowed to judge.
type Invocation struct {
	Stdout []byte
	Stderr []byte

	// TimedOut is set when the invocation was killed by the per-case
	// deadline; the captured buffers hold whatever was written before.
	TimedOut bool
}

// Backend invokes the evaluator under test for one case. Implementations
// must be safe for concurrent use: the parallel run loop calls Invoke from
// multiple goroutines.
//
// The expression travels as one trailing argument; the rendered document
// arrives on stdin, written once and closed. An error return is fatal for
// the whole run (the evaluator could not be driven at all); per-case
// misbehavior is expressed through the Invocation instead.
type Backend interface {
	Invoke(ctx context.Context, expression string, stdin []byte) (Invocation, error)

	// Describe identifies the backend for logs and error messages.
	Describe() string
}
