// Engine configuration. Config carries a typed field for every
// recognised option and keeps the raw string form of everything it was
// handed, so string-keyed callers and unrecognised keys survive the
// trip. Sources layer in override order: built-in defaults, then a
// YAML file, then explicit Set calls from command-line flags.
package fstrips

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is one run's worth of engine options.
type Config struct {
	// Driver selects the search variant by registry name.
	Driver string
	// MaxWidth is the ceiling on admitted novelty width (1 or 2). It
	// bounds the iterated-width driver directly and caps the BFWS
	// evaluator widths.
	MaxWidth int
	// BFWSType picks the classic ordering: F0, F1, F2 or F5.
	BFWSType string
	// SearchWidth and SimulationWidth cap the main evaluator and the
	// IW-probe evaluator.
	SearchWidth     int
	SimulationWidth int
	// MarkNegative records falsifying atoms into relevant sets.
	MarkNegative bool
	// IgnoreNegative makes zero-valued features contribute nothing to
	// novelty.
	IgnoreNegative bool
	// EvaluatorT is the table flavour, generic or adaptive.
	EvaluatorT string
	// TimeoutMS and MemoryMB are the resource caps; zero disables.
	TimeoutMS int
	MemoryMB  int
	// NoveltyBudgetMB bounds one dense novelty table.
	NoveltyBudgetMB int
	// Workers sizes the grounding pool; zero means one per CPU.
	Workers int
	// SimNodeCap bounds one IW probe; zero means the built-in cap.
	SimNodeCap int

	// Options holds the raw string form of every option handed to the
	// config, recognised or not.
	Options map[string]string
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Driver:          "bfws",
		MaxWidth:        2,
		BFWSType:        "F5",
		SearchWidth:     2,
		SimulationWidth: 1,
		EvaluatorT:      EvaluatorAdaptive,
		NoveltyBudgetMB: 10,
		Options:         make(map[string]string),
	}
}

// Set applies one string-keyed option, recording the raw value either
// way. Unrecognised keys are kept but drive nothing.
func (c *Config) Set(key, value string) error {
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
	c.Options[key] = value
	switch key {
	case "driver":
		c.Driver = value
	case "width.max":
		return setInt(&c.MaxWidth, key, value)
	case "bfws.type":
		c.BFWSType = value
	case "search_width":
		return setInt(&c.SearchWidth, key, value)
	case "simulation_width":
		return setInt(&c.SimulationWidth, key, value)
	case "mark_negative_propositions":
		return setBool(&c.MarkNegative, key, value)
	case "ignore_negative":
		return setBool(&c.IgnoreNegative, key, value)
	case "evaluator_t":
		c.EvaluatorT = value
	case "timeout_ms":
		return setInt(&c.TimeoutMS, key, value)
	case "memory_mb":
		return setInt(&c.MemoryMB, key, value)
	case "novelty_budget_mb":
		return setInt(&c.NoveltyBudgetMB, key, value)
	case "workers":
		return setInt(&c.Workers, key, value)
	case "simulation_node_cap":
		return setInt(&c.SimNodeCap, key, value)
	}
	return nil
}

// Get returns the raw string form of an option.
func (c *Config) Get(key string) (string, bool) {
	v, ok := c.Options[key]
	return v, ok
}

// LoadYAML overlays the options in a YAML file onto c. The file is a
// flat mapping from option names to scalars.
func (c *Config) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	for key, val := range raw {
		if err := c.Set(key, fmt.Sprintf("%v", val)); err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
	}
	return nil
}

// Validate rejects option values no driver can honor. Driver-name
// validation happens at engine construction, where the known set
// lives.
func (c *Config) Validate() error {
	if c.MaxWidth < 1 || c.MaxWidth > 2 {
		return fmt.Errorf("width.max must be 1 or 2, got %d", c.MaxWidth)
	}
	if c.SearchWidth < 1 || c.SearchWidth > 2 {
		return fmt.Errorf("search_width must be 1 or 2, got %d", c.SearchWidth)
	}
	if c.SimulationWidth < 1 || c.SimulationWidth > 2 {
		return fmt.Errorf("simulation_width must be 1 or 2, got %d", c.SimulationWidth)
	}
	switch c.BFWSType {
	case "F0", "F1", "F2", "F5":
	default:
		return fmt.Errorf("unknown bfws.type %q (known: F0, F1, F2, F5)", c.BFWSType)
	}
	switch c.EvaluatorT {
	case EvaluatorGeneric, EvaluatorAdaptive:
	default:
		return fmt.Errorf("unknown evaluator_t %q (known: %s, %s)", c.EvaluatorT, EvaluatorGeneric, EvaluatorAdaptive)
	}
	if c.TimeoutMS < 0 {
		return fmt.Errorf("timeout_ms must be >= 0, got %d", c.TimeoutMS)
	}
	if c.MemoryMB < 0 {
		return fmt.Errorf("memory_mb must be >= 0, got %d", c.MemoryMB)
	}
	if c.NoveltyBudgetMB <= 0 {
		return fmt.Errorf("novelty_budget_mb must be > 0, got %d", c.NoveltyBudgetMB)
	}
	return nil
}

// Timeout returns the configured deadline, zero when disabled.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("option %s: %q is not an integer", key, value)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("option %s: %q is not a boolean", key, value)
	}
	*dst = b
	return nil
}
