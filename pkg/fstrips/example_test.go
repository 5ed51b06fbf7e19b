package fstrips_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitrdm/gostrips/pkg/fstrips"
)

// exampleDoc is a two-switch problem: both switches start off, flip
// turns one on, and the goal wants both on.
const exampleDoc = `{
  "language": {
    "types": [{"name": "switch", "objects": ["s1", "s2"]}],
    "symbols": [{"name": "on", "domain": ["switch"], "codomain": "bool", "fluent": true}]
  },
  "actions": [
    {"name": "flip",
     "parameters": [{"name": "s", "type": "switch"}],
     "precondition": {"type": "atom", "rel": "=",
       "lhs": {"type": "app", "symbol": "on", "args": [{"type": "variable", "name": "s"}]},
       "rhs": {"type": "constant", "value": false}},
     "effects": [
       {"type": "add", "lhs": {"type": "app", "symbol": "on", "args": [{"type": "variable", "name": "s"}]}}
     ]}
  ],
  "goal": {"type": "forall", "binders": [{"name": "s", "type": "switch"}],
    "body": {"type": "atom", "rel": "=",
      "lhs": {"type": "app", "symbol": "on", "args": [{"type": "variable", "name": "s"}]},
      "rhs": {"type": "constant", "value": true}}}
}`

func ExampleLoadProblem() {
	prob, err := fstrips.LoadProblem(strings.NewReader(exampleDoc))
	if err != nil {
		fmt.Println("load:", err)
		return
	}
	fmt.Println("state variables:", prob.Index.Count())
	fmt.Println("action schemas:", len(prob.Schemas))
	// Output:
	// state variables: 2
	// action schemas: 1
}

func ExampleNewEngine() {
	prob, err := fstrips.LoadProblem(strings.NewReader(exampleDoc))
	if err != nil {
		fmt.Println("load:", err)
		return
	}

	cfg := fstrips.DefaultConfig()
	if err := cfg.Set("driver", "bfs"); err != nil {
		fmt.Println("config:", err)
		return
	}
	engine, err := fstrips.NewEngine(cfg, nil)
	if err != nil {
		fmt.Println("engine:", err)
		return
	}

	res, err := engine.Search(context.Background(), prob)
	if err != nil {
		fmt.Println("search:", err)
		return
	}
	for _, step := range res.Plan {
		fmt.Println(step)
	}
	// Output:
	// flip(s1)
	// flip(s2)
}

func ExampleCheckPlan() {
	prob, err := fstrips.LoadProblem(strings.NewReader(exampleDoc))
	if err != nil {
		fmt.Println("load:", err)
		return
	}

	// Flipping the same switch twice trips the precondition check.
	err = fstrips.CheckPlan(context.Background(), prob, []string{"flip(s1)", "flip(s1)"})
	fmt.Println(err)
	// Output:
	// plan invariant violated at step 1 (flip(s1)): precondition does not hold
}
