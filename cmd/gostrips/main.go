// Command gostrips is the planning front end: it loads a problem
// document, runs the configured search driver, validates the plan,
// and writes the run artifacts.
//
// The process exit status encodes the run outcome: 0 for a validated
// plan, and the remaining codes for unsolvable, out-of-memory,
// out-of-time and failed-validation runs. Operational failures (bad
// flags, unreadable files) exit 1 with the error on stderr.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gostrips/pkg/fstrips"
	"github.com/gitrdm/gostrips/pkg/logging"
)

var (
	flagVerbose bool
	flagQuiet   bool
	flagLogJSON bool
	flagLogDir  string
)

var rootCmd = &cobra.Command{
	Use:           "gostrips",
	Short:         "A width-based planner for functional STRIPS problems",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a run outcome through cobra so main can translate
// it to a process status without losing deferred cleanup.
type exitError struct {
	code fstrips.ExitCode
}

func (e *exitError) Error() string { return e.code.String() }

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(int(ee.code))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress log output on stderr")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "also write JSON logs to this directory")
}

// newLogger builds the process logger from the persistent flags.
func newLogger() (*logging.Logger, error) {
	level := logging.LevelInfo
	if flagVerbose {
		level = logging.LevelDebug
	}
	return logging.New(logging.Config{
		Level:   level,
		JSON:    flagLogJSON,
		Quiet:   flagQuiet,
		LogDir:  flagLogDir,
		Service: "gostrips",
	})
}

// loadProblem opens and parses a problem document.
func loadProblem(path string) (*fstrips.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open problem: %w", err)
	}
	defer f.Close()
	prob, err := fstrips.LoadProblem(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return prob, nil
}
