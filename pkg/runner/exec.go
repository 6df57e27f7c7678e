package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"slices"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/evalcheck/evalcheck/pkg/types"
)

// ExecBackend drives the evaluator as an OS subprocess. The configured
// command line is tokenized once and reused verbatim for every case, with
// the case expression appended as one additional argument.
type ExecBackend struct {
	argv []string
	log  *zap.Logger
}

// NewExecBackend tokenizes a shell-style command string ("evaluator --flag")
// into the fixed per-case argv.
func NewExecBackend(command string, log *zap.Logger) (*ExecBackend, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, types.NewError(types.ErrSubprocessLaunch, "cannot tokenize command").
			WithPath(command).WithCause(err)
	}
	if len(argv) == 0 {
		return nil, types.NewError(types.ErrSubprocessLaunch, "empty command")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ExecBackend{argv: argv, log: log}, nil
}

// Invoke spawns one child with all three streams piped. Stdin receives the
// rendered document and is closed at EOF, so the child never blocks waiting
// for more input. When ctx carries a deadline and it expires, the child is
// killed and the invocation reports TimedOut. Exit codes are ignored.
func (b *ExecBackend) Invoke(ctx context.Context, expression string, stdin []byte) (Invocation, error) {
	args := append(slices.Clone(b.argv[1:]), expression)
	cmd := exec.CommandContext(ctx, b.argv[0], args...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	inv := Invocation{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		b.log.Debug("evaluator killed on deadline",
			zap.String("expression", expression))
		inv.TimedOut = true
		return inv, nil
	}
	if ctx.Err() != nil {
		return Invocation{}, ctx.Err()
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			// Exit status is not part of the contract; stderr content is
			// judged by the classifier.
			return inv, nil
		}
		return Invocation{}, types.NewError(types.ErrSubprocessLaunch, "cannot start evaluator").
			WithPath(b.argv[0]).WithCause(runErr)
	}
	return inv, nil
}

// Describe implements Backend.
func (b *ExecBackend) Describe() string {
	return "exec: " + strings.Join(b.argv, " ")
}
