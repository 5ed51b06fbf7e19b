// Engine registry: the driver names the configuration layer accepts
// and the factories behind them.
package fstrips

import (
	"fmt"
	"strings"

	"github.com/gitrdm/gostrips/pkg/logging"
)

// engineFactory builds one driver from a validated config.
type engineFactory func(cfg *Config, log *logging.Logger) Engine

// engineOrder fixes the presentation order of the registry.
var engineOrder = []string{"bfws", "smart", "lsmart", "iw", "bfs", "native", "lifted"}

var engineFactories = map[string]engineFactory{
	"bfws": func(cfg *Config, log *logging.Logger) Engine {
		return NewBFWS("bfws", bfwsOptions(cfg, log))
	},
	"smart": func(cfg *Config, log *logging.Logger) Engine {
		opts := bfwsOptions(cfg, log)
		opts.Smart = true
		return NewBFWS("smart", opts)
	},
	"lsmart": func(cfg *Config, log *logging.Logger) Engine {
		opts := bfwsOptions(cfg, log)
		opts.Smart = true
		opts.Lifted = true
		return NewBFWS("lsmart", opts)
	},
	"iw": func(cfg *Config, log *logging.Logger) Engine {
		return NewIW("iw", IWOptions{
			MaxWidth:       cfg.MaxWidth,
			Flavour:        cfg.EvaluatorT,
			Budget:         noveltyBudget(cfg),
			IgnoreNegative: cfg.IgnoreNegative,
			Workers:        cfg.Workers,
			MemoryMB:       cfg.MemoryMB,
			Log:            log,
		})
	},
	"bfs": func(cfg *Config, log *logging.Logger) Engine {
		return NewBFS("bfs", BFSOptions{
			Workers:  cfg.Workers,
			MemoryMB: cfg.MemoryMB,
			Log:      log,
		})
	},
	"native": func(cfg *Config, log *logging.Logger) Engine {
		opts := bfwsOptions(cfg, log)
		opts.Greedy = true
		return NewBFWS("native", opts)
	},
	"lifted": func(cfg *Config, log *logging.Logger) Engine {
		opts := bfwsOptions(cfg, log)
		opts.Greedy = true
		opts.Lifted = true
		return NewBFWS("lifted", opts)
	},
}

// Engines lists the registered driver names.
func Engines() []string {
	names := make([]string, len(engineOrder))
	copy(names, engineOrder)
	return names
}

// NewEngine builds the driver cfg.Driver names. An unknown name is a
// configuration error carrying the known set.
func NewEngine(cfg *Config, log *logging.Logger) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	factory, ok := engineFactories[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unknown driver %q (known: %s)", cfg.Driver, strings.Join(engineOrder, ", "))
	}
	if log == nil {
		log = logging.Discard()
	}
	return factory(cfg, log), nil
}

// bfwsOptions maps the config onto the BFWS family knobs. MaxWidth
// caps both evaluator widths.
func bfwsOptions(cfg *Config, log *logging.Logger) BFWSOptions {
	searchW := cfg.SearchWidth
	if searchW > cfg.MaxWidth {
		searchW = cfg.MaxWidth
	}
	simW := cfg.SimulationWidth
	if simW > cfg.MaxWidth {
		simW = cfg.MaxWidth
	}
	return BFWSOptions{
		Variant:        BFWSVariant(cfg.BFWSType),
		SearchWidth:    searchW,
		SimWidth:       simW,
		Flavour:        cfg.EvaluatorT,
		Budget:         noveltyBudget(cfg),
		IgnoreNegative: cfg.IgnoreNegative,
		MarkNegative:   cfg.MarkNegative,
		Workers:        cfg.Workers,
		SimNodeCap:     cfg.SimNodeCap,
		MemoryMB:       cfg.MemoryMB,
		Log:            log,
	}
}

func noveltyBudget(cfg *Config) int64 {
	if cfg.NoveltyBudgetMB <= 0 {
		return DefaultNoveltyBudget
	}
	return int64(cfg.NoveltyBudgetMB) << 20
}
