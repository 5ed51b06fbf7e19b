package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gitrdm/gostrips/pkg/fstrips"
)

var (
	solveConfigPath string
	solveOutDir     string
	solveDriver     string
	solveOptions    []string
	solveTimeoutMS  int
	solveMemoryMB   int
)

var solveCmd = &cobra.Command{
	Use:   "solve <problem.json>",
	Short: "Run a search driver over one problem and write the plan",
	Long: `Solve loads a problem document, runs the configured search driver and
writes first.plan and results.json to the output directory. Options
layer in override order: built-in defaults, then the --config YAML
file, then individual flags and --set pairs.

The process exit status encodes the outcome: 0 PLAN_FOUND,
1 UNSOLVABLE, 2 OUT_OF_MEMORY, 3 OUT_OF_TIME, 4 VALIDATION_FAILED.`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&solveConfigPath, "config", "c", "", "YAML file of option overrides")
	solveCmd.Flags().StringVarP(&solveOutDir, "out", "o", "", "output directory (default runs/<run-id>)")
	solveCmd.Flags().StringVar(&solveDriver, "driver", "", "search driver: "+strings.Join(fstrips.Engines(), ", "))
	solveCmd.Flags().StringArrayVar(&solveOptions, "set", nil, "option override as key=value (repeatable)")
	solveCmd.Flags().IntVar(&solveTimeoutMS, "timeout-ms", 0, "search wall-clock budget in milliseconds (0 = none)")
	solveCmd.Flags().IntVar(&solveMemoryMB, "memory-mb", 0, "search memory cap in megabytes (0 = none)")
	rootCmd.AddCommand(solveCmd)
}

// solveConfig layers the option sources for one run: defaults, then
// the YAML file, then only the flags the user actually set.
func solveConfig(cmd *cobra.Command) (*fstrips.Config, error) {
	cfg := fstrips.DefaultConfig()
	if solveConfigPath != "" {
		if err := cfg.LoadYAML(solveConfigPath); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("driver") {
		if err := cfg.Set("driver", solveDriver); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("timeout-ms") {
		cfg.TimeoutMS = solveTimeoutMS
	}
	if cmd.Flags().Changed("memory-mb") {
		cfg.MemoryMB = solveMemoryMB
	}
	for _, kv := range solveOptions {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want key=value", kv)
		}
		if err := cfg.Set(key, value); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := solveConfig(cmd)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	outDir := solveOutDir
	if outDir == "" {
		outDir = filepath.Join("runs", runID)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.With("run_id", runID)

	prob, err := loadProblem(args[0])
	if err != nil {
		return err
	}
	log.Info("problem loaded",
		"path", args[0],
		"variables", prob.Index.Count(),
		"schemas", len(prob.Schemas))

	runner := &fstrips.Runner{Config: cfg, Log: log, OutDir: outDir}
	outcome, err := runner.Solve(cmd.Context(), prob, start)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), outcome.ExitCode)
	if outcome.ExitCode == fstrips.ExitPlanFound {
		fmt.Fprintf(cmd.OutOrStdout(), "plan of length %d written to %s\n",
			outcome.Stats.PlanLength, filepath.Join(outDir, "first.plan"))
		return nil
	}
	return &exitError{code: outcome.ExitCode}
}
