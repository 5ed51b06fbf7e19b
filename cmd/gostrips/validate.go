package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitrdm/gostrips/pkg/fstrips"
)

var validateCmd = &cobra.Command{
	Use:   "validate <problem.json> <plan>",
	Short: "Replay a plan against a problem and report whether it reaches the goal",
	Long: `Validate replays a plan file, one ground-action name per line, from the
problem's initial state. Every step must be applicable, every successor
must satisfy the state constraint, and the final state must satisfy the
goal. Blank lines and lines starting with ';' are ignored.`,
	Args: cobra.ExactArgs(2),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// readPlan loads a plan file in the first.plan format.
func readPlan(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()

	var plan []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		plan = append(plan, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	return plan, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Close()

	prob, err := loadProblem(args[0])
	if err != nil {
		return err
	}
	plan, err := readPlan(args[1])
	if err != nil {
		return err
	}
	logger.Info("replaying plan", "problem", args[0], "plan", args[1], "steps", len(plan))

	verr := fstrips.CheckPlan(cmd.Context(), prob, plan)
	if verr == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "VALID (%d steps)\n", len(plan))
		return nil
	}
	var pie *fstrips.PlanInvariantError
	if errors.As(verr, &pie) {
		fmt.Fprintf(cmd.OutOrStdout(), "INVALID: %v\n", verr)
		return &exitError{code: fstrips.ExitValidationFailed}
	}
	return verr
}
