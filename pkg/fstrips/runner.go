// The run orchestrator: builds the configured driver, runs it under
// the resource caps, validates any plan it returns, and writes the
// first.plan and results.json artifacts. Hosts translate the returned
// ExitCode to a process status; errors that fit no outcome unwind as
// plain errors.
package fstrips

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gitrdm/gostrips/pkg/logging"
)

// Runner executes one configured solve over one problem.
type Runner struct {
	Config *Config
	Log    *logging.Logger
	// OutDir receives first.plan and results.json. Empty disables
	// artifact writing.
	OutDir string
}

// RunOutcome pairs the classification with the emitted document.
type RunOutcome struct {
	ExitCode ExitCode
	Stats    *RunStats
	Result   *Result
}

// Solve runs the configured driver on prob. start anchors total_time;
// callers pass the instant problem loading began. The deadline applies
// to the search only; validation and artifact writing run on the
// parent context.
func (r *Runner) Solve(ctx context.Context, prob *Problem, start time.Time) (*RunOutcome, error) {
	cfg := r.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := r.Log
	if log == nil {
		log = logging.Discard()
	}

	engine, err := NewEngine(cfg, log)
	if err != nil {
		return nil, err
	}

	searchCtx := ctx
	cancel := func() {}
	if cfg.TimeoutMS > 0 {
		searchCtx, cancel = context.WithTimeout(ctx, cfg.Timeout())
	}
	log.Info("search started", "driver", engine.Name(), "timeout_ms", cfg.TimeoutMS, "memory_mb", cfg.MemoryMB)

	t0 := time.Now()
	res, serr := engine.Search(searchCtx, prob)
	cancel()
	searchTime := time.Since(t0)
	totalTime := time.Since(start)

	outcome := &RunOutcome{Result: res}
	valid := false
	oom := false
	// A novelty table refused at construction is a memory outcome, not
	// an engine failure.
	var nbe *NoveltyBudgetError
	switch {
	case serr == nil && res.Solved:
		verr := CheckPlan(ctx, prob, res.Plan)
		var pie *PlanInvariantError
		switch {
		case verr == nil:
			valid = true
			outcome.ExitCode = ExitPlanFound
		case errors.As(verr, &pie):
			log.Error("plan failed validation", "error", verr)
			outcome.ExitCode = ExitValidationFailed
		default:
			return nil, fmt.Errorf("validating plan: %w", verr)
		}
	case errors.Is(serr, ErrUnsolvable):
		outcome.ExitCode = ExitUnsolvable
	case errors.Is(serr, ErrOutOfMemory), errors.As(serr, &nbe):
		oom = true
		outcome.ExitCode = ExitOutOfMemory
	case errors.Is(serr, ErrOutOfTime):
		outcome.ExitCode = ExitOutOfTime
	default:
		return nil, serr
	}

	outcome.Stats = NewRunStats(res, totalTime, searchTime, valid, oom)
	if err := r.writeArtifacts(outcome.Stats); err != nil {
		return nil, err
	}

	log.Info("run complete",
		"result", outcome.ExitCode.String(),
		"plan_length", outcome.Stats.PlanLength,
		"expanded", outcome.Stats.Expanded,
		"generated", outcome.Stats.Generated,
		"search_time", outcome.Stats.SearchTime,
		"total_time", outcome.Stats.TotalTime,
		"memory_kb", outcome.Stats.Memory)
	return outcome, nil
}

// writeArtifacts writes first.plan and results.json under OutDir.
func (r *Runner) writeArtifacts(rs *RunStats) error {
	if r.OutDir == "" {
		return nil
	}
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	planPath := filepath.Join(r.OutDir, "first.plan")
	plan, err := os.Create(planPath)
	if err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	for _, step := range rs.Plan {
		if _, err := fmt.Fprintln(plan, step); err != nil {
			plan.Close()
			return fmt.Errorf("write plan: %w", err)
		}
	}
	if err := plan.Close(); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}

	jsonPath := filepath.Join(r.OutDir, "results.json")
	out, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := rs.WriteJSON(out); err != nil {
		out.Close()
		return fmt.Errorf("write results: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
