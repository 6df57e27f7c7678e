// Command evalcheck runs a conformance corpus against an expression
// evaluator and reports per-case pass/fail.
//
// Exit status: 0 when every executed case passed, 1 when at least one case
// failed, 2 on a fatal error (broken fixture, malformed selector,
// unlaunchable evaluator).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/evalcheck/evalcheck"
	"github.com/evalcheck/evalcheck/pkg/config"
)

var (
	exeCommand string
	wasmPath   string
	selectors  []string
	listOnly   bool
	corpusDir  string
	timeout    time.Duration
	parallel   int
	canonical  bool
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "evalcheck",
	Short: "Conformance test runner for expression evaluators",
	Long: `evalcheck drives an expression-evaluation executable against a corpus
of declarative JSON fixtures and judges each case by the evaluator's
observable behavior: the JSON value printed on stdout, or the error-kind
token written to stderr.

Fixture files are JSON arrays of groups; each group shares one input
document across its cases. A case expects either a result value or an
error token, never both. Cases are addressed as category,group,test and
can be re-run directly with --tests.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&exeCommand, "exe", "e", "", "base command line invoked per case (the expression is appended)")
	flags.StringVar(&wasmPath, "wasm", "", "wasip1 evaluator module run in-process instead of a subprocess")
	flags.StringArrayVarP(&selectors, "tests", "t", nil, "selector category[,group[,test]]; repeatable, OR-combined")
	flags.BoolVarP(&listOnly, "list", "l", false, "print available category names and exit")
	flags.StringVarP(&corpusDir, "dir", "d", ".", "corpus root directory")
	flags.DurationVar(&timeout, "timeout", 0, "per-case timeout (0 disables)")
	flags.IntVar(&parallel, "parallel", 1, "worker pool size (1 = sequential)")
	flags.BoolVar(&canonical, "canonical", false, "render stdin documents in RFC 8785 canonical form")
	flags.StringVar(&configPath, "config", "", "YAML run configuration (flags override file values)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.MarkFlagsMutuallyExclusive("exe", "wasm")
}

func run(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyConfig(cmd, cfg)
	}

	if listOnly {
		names, err := evalcheck.List(corpusDir)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	opts := []evalcheck.Option{
		evalcheck.WithSelectors(selectors...),
		evalcheck.WithTimeout(timeout),
		evalcheck.WithParallelism(parallel),
		evalcheck.WithOutput(cmd.OutOrStdout()),
		evalcheck.WithLogger(logger),
	}
	if exeCommand != "" {
		opts = append(opts, evalcheck.WithExec(exeCommand))
	}
	if wasmPath != "" {
		opts = append(opts, evalcheck.WithWasm(wasmPath))
	}
	if canonical {
		opts = append(opts, evalcheck.WithCanonicalStdin())
	}

	summary, err := evalcheck.Run(cmd.Context(), corpusDir, opts...)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		// Reported failures already streamed; only the exit status is left.
		exitCode = 1
	}
	return nil
}

// applyConfig fills in file-backed values for flags the user did not set
// explicitly.
func applyConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("exe") && cfg.Exe != "" {
		exeCommand = cfg.Exe
	}
	if !flags.Changed("wasm") && cfg.Wasm != "" {
		wasmPath = cfg.Wasm
	}
	if !flags.Changed("dir") && cfg.Dir != "" {
		corpusDir = cfg.Dir
	}
	if !flags.Changed("timeout") && cfg.Timeout != 0 {
		timeout = time.Duration(cfg.Timeout)
	}
	if !flags.Changed("parallel") && cfg.Parallel != 0 {
		parallel = cfg.Parallel
	}
	if !flags.Changed("canonical") && cfg.Canonical {
		canonical = true
	}
	if !flags.Changed("tests") && len(cfg.Tests) > 0 {
		selectors = cfg.Tests
	}
}

var exitCode int

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "evalcheck: %v\n", err)
		os.Exit(2)
	}
	os.Exit(exitCode)
}
