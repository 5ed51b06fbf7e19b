package main

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gitrdm/gostrips/pkg/fstrips"
)

var (
	benchJobs       int
	benchConfigPath string
	benchOutDir     string
	benchDriver     string
	benchOptions    []string
	benchTimeoutMS  int
	benchMemoryMB   int
)

var benchCmd = &cobra.Command{
	Use:   "bench <dir>",
	Short: "Solve every problem file in a directory and print a summary table",
	Long: `Bench collects every *.json file under the given directory and solves
them concurrently, each with its own output subdirectory. A problem
that fails is reported in the table and does not stop the sweep.`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchJobs, "jobs", "j", runtime.NumCPU(), "number of problems to solve concurrently")
	benchCmd.Flags().StringVarP(&benchConfigPath, "config", "c", "", "YAML file of option overrides")
	benchCmd.Flags().StringVarP(&benchOutDir, "out", "o", "", "output root (default runs/bench-<run-id>)")
	benchCmd.Flags().StringVar(&benchDriver, "driver", "", "search driver: "+strings.Join(fstrips.Engines(), ", "))
	benchCmd.Flags().StringArrayVar(&benchOptions, "set", nil, "option override as key=value (repeatable)")
	benchCmd.Flags().IntVar(&benchTimeoutMS, "timeout-ms", 0, "per-problem search budget in milliseconds (0 = none)")
	benchCmd.Flags().IntVar(&benchMemoryMB, "memory-mb", 0, "per-problem memory cap in megabytes (0 = none)")
	rootCmd.AddCommand(benchCmd)
}

// benchRow is one finished problem in the sweep.
type benchRow struct {
	name  string
	code  fstrips.ExitCode
	stats *fstrips.RunStats
	err   error
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg := fstrips.DefaultConfig()
	if benchConfigPath != "" {
		if err := cfg.LoadYAML(benchConfigPath); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("driver") {
		if err := cfg.Set("driver", benchDriver); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("timeout-ms") {
		cfg.TimeoutMS = benchTimeoutMS
	}
	if cmd.Flags().Changed("memory-mb") {
		cfg.MemoryMB = benchMemoryMB
	}
	for _, kv := range benchOptions {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set %q: want key=value", kv)
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	files, err := filepath.Glob(filepath.Join(args[0], "*.json"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no *.json problem files under %s", args[0])
	}
	sort.Strings(files)

	runID := uuid.NewString()
	outRoot := benchOutDir
	if outRoot == "" {
		outRoot = filepath.Join("runs", "bench-"+runID)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.With("run_id", runID)
	log.Info("bench started", "dir", args[0], "problems", len(files), "jobs", benchJobs, "driver", cfg.Driver)

	// Each problem writes into its own slot, so the sweep needs no
	// mutex. Failures are recorded, not returned, to keep one bad
	// problem from cancelling the rest.
	rows := make([]benchRow, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(benchJobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			name := strings.TrimSuffix(filepath.Base(path), ".json")
			row := benchRow{name: name}
			start := time.Now()

			prob, perr := loadProblem(path)
			if perr != nil {
				row.err = perr
				rows[i] = row
				return nil
			}
			runner := &fstrips.Runner{
				Config: cfg,
				Log:    log.With("problem", name),
				OutDir: filepath.Join(outRoot, name),
			}
			outcome, perr := runner.Solve(ctx, prob, start)
			if perr != nil {
				row.err = perr
				rows[i] = row
				return nil
			}
			row.code = outcome.ExitCode
			row.stats = outcome.Stats
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	solved := 0
	failed := 0
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROBLEM\tRESULT\tPLAN\tEXPANDED\tGENERATED\tSEARCH")
	for _, row := range rows {
		if row.err != nil {
			failed++
			fmt.Fprintf(tw, "%s\tERROR\t-\t-\t-\t%v\n", row.name, row.err)
			continue
		}
		if row.code == fstrips.ExitPlanFound {
			solved++
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.3fs\n",
			row.name, row.code, row.stats.PlanLength,
			row.stats.Expanded, row.stats.Generated, row.stats.SearchTime)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nsolved %d/%d (%d errors), artifacts under %s\n",
		solved, len(files), failed, outRoot)
	log.Info("bench finished", "solved", solved, "problems", len(files), "errors", failed)
	return nil
}
