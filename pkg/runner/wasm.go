package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/evalcheck/evalcheck/pkg/cache"
	"github.com/evalcheck/evalcheck/pkg/types"
)

// Compiled modules are memoized per path so repeated runs against the same
// evaluator skip recompilation. All modules share one process-lifetime
// runtime.
var (
	wasmOnce    sync.Once
	wasmRuntime wazero.Runtime
	wasmModules = cache.New[wazero.CompiledModule](8)
)

func sharedWasmRuntime(ctx context.Context) wazero.Runtime {
	wasmOnce.Do(func() {
		cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
		wasmRuntime = wazero.NewRuntimeWithConfig(ctx, cfg)
		wasi_snapshot_preview1.MustInstantiate(ctx, wasmRuntime)
	})
	return wasmRuntime
}

// WasmBackend runs a wasip1-compiled evaluator in-process. The protocol is
// identical to ExecBackend's: the expression is argv[1], the document
// arrives on stdin, stdout/stderr are captured and judged the same way.
// Useful for hermetic runs where the evaluator ships as a single .wasm
// artifact.
type WasmBackend struct {
	compiled wazero.CompiledModule
	name     string
	log      *zap.Logger
}

// NewWasmBackend compiles (or fetches the cached compilation of) the module
// at path.
func NewWasmBackend(ctx context.Context, path string, log *zap.Logger) (*WasmBackend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rt := sharedWasmRuntime(ctx)
	compiled, err := wasmModules.GetOrLoad(path, func() (wazero.CompiledModule, error) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return rt.CompileModule(ctx, raw)
	})
	if err != nil {
		return nil, types.NewError(types.ErrWasmCompile, "cannot compile evaluator module").
			WithPath(path).WithCause(err)
	}
	return &WasmBackend{
		compiled: compiled,
		name:     filepath.Base(path),
		log:      log,
	}, nil
}

// Invoke instantiates the module once per case with piped streams and runs
// its command entrypoint. Exit codes are ignored, matching the subprocess
// contract; a context deadline closes the module and reports TimedOut.
func (b *WasmBackend) Invoke(ctx context.Context, expression string, stdin []byte) (Invocation, error) {
	var stdout, stderr bytes.Buffer
	modCfg := wazero.NewModuleConfig().
		WithName(""). // anonymous: concurrent instantiations must not collide
		WithStdin(bytes.NewReader(stdin)).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithArgs(b.name, expression)

	mod, err := sharedWasmRuntime(ctx).InstantiateModule(ctx, b.compiled, modCfg)
	if mod != nil {
		_ = mod.Close(ctx)
	}

	inv := Invocation{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *sys.ExitError
		switch {
		case errors.As(err, &exitErr):
			if exitErr.ExitCode() == sys.ExitCodeDeadlineExceeded {
				inv.TimedOut = true
			}
			// Any other exit code: not part of the contract.
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			inv.TimedOut = true
		default:
			// A trap inside the evaluator is judged by what it managed to
			// write, the same as a crashing subprocess.
			b.log.Debug("evaluator module trapped",
				zap.String("expression", expression), zap.Error(err))
		}
	}
	return inv, nil
}

// Describe implements Backend.
func (b *WasmBackend) Describe() string {
	return "wasm: " + b.name
}
