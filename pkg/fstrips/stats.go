// The results document and exit-code classification every run ends
// with, regardless of driver.
package fstrips

import (
	"encoding/json"
	"io"
	"runtime"
	"time"
)

// ExitCode classifies the outcome of one run. The integer values are
// the conventional process exit statuses, with PLAN_FOUND mapping to
// success.
type ExitCode int

const (
	ExitPlanFound ExitCode = iota
	ExitUnsolvable
	ExitOutOfMemory
	ExitOutOfTime
	ExitValidationFailed
)

// String returns the canonical outcome name.
func (c ExitCode) String() string {
	switch c {
	case ExitPlanFound:
		return "PLAN_FOUND"
	case ExitUnsolvable:
		return "UNSOLVABLE"
	case ExitOutOfMemory:
		return "OUT_OF_MEMORY"
	case ExitOutOfTime:
		return "OUT_OF_TIME"
	case ExitValidationFailed:
		return "VALIDATION_FAILED"
	default:
		return "UNKNOWN"
	}
}

// RunStats is the results.json document. Field order is the emission
// order; the keys are fixed by the output contract. Times are seconds,
// memory is kilobytes.
type RunStats struct {
	TotalTime     float64  `json:"total_time"`
	SearchTime    float64  `json:"search_time"`
	Memory        int64    `json:"memory"`
	Generated     int      `json:"generated"`
	Expanded      int      `json:"expanded"`
	Evaluated     int      `json:"evaluated"`
	GenPerSecond  float64  `json:"gen_per_second"`
	EvalPerSecond float64  `json:"eval_per_second"`
	Solved        bool     `json:"solved"`
	Valid         bool     `json:"valid"`
	OutOfMemory   bool     `json:"out_of_memory"`
	PlanLength    int      `json:"plan_length"`
	Plan          []string `json:"plan"`
}

// NewRunStats folds a search result into the results document.
func NewRunStats(res *Result, totalTime, searchTime time.Duration, valid, oom bool) *RunStats {
	rs := &RunStats{
		TotalTime:   totalTime.Seconds(),
		SearchTime:  searchTime.Seconds(),
		Memory:      peakMemoryKB(),
		Generated:   res.Stats.Generated,
		Expanded:    res.Stats.Expanded,
		Evaluated:   res.Stats.Evaluated,
		Solved:      res.Solved,
		Valid:       valid,
		OutOfMemory: oom,
		PlanLength:  len(res.Plan),
		Plan:        res.Plan,
	}
	if rs.Plan == nil {
		rs.Plan = []string{}
	}
	if s := searchTime.Seconds(); s > 0 {
		rs.GenPerSecond = float64(res.Stats.Generated) / s
		rs.EvalPerSecond = float64(res.Stats.Evaluated) / s
	}
	return rs
}

// WriteJSON emits the document, tab-indented, keys in declaration
// order.
func (rs *RunStats) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(rs)
}

// peakMemoryKB approximates peak memory as the bytes the runtime has
// obtained from the operating system.
func peakMemoryKB() int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.Sys / 1024)
}
