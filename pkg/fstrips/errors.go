// Package fstrips implements a functional STRIPS planning engine.
// This file defines the error kinds surfaced by the engine and the
// sentinel values callers test against with errors.Is / errors.As.
package fstrips

import (
	"errors"
	"fmt"
)

// Sentinel errors for the interpretation and search layers.
var (
	// ErrUnboundVariable is returned when a term references a bound
	// variable that the supplied binding does not cover.
	ErrUnboundVariable = errors.New("unbound variable")

	// ErrUnassignedVariable is returned when interpretation under a
	// partial assignment reads a state variable that has no value yet.
	ErrUnassignedVariable = errors.New("unassigned state variable")

	// ErrUnsolvable is returned by a driver when the open list empties
	// without reaching a goal state.
	ErrUnsolvable = errors.New("problem is unsolvable")

	// ErrCspInconsistent signals that propagation emptied a domain.
	// The applicability enumerator absorbs it as "no binding".
	ErrCspInconsistent = errors.New("csp inconsistent")

	// ErrUntranslatable signals that an action precondition falls outside
	// the fragment the lifted CSP can encode; the enumerator falls back
	// to ground applicability for that schema.
	ErrUntranslatable = errors.New("precondition not CSP-translatable")

	// ErrOutOfTime and ErrOutOfMemory unwind from the expansion loop to
	// the driver, which finalises statistics before returning.
	ErrOutOfTime   = errors.New("deadline exceeded")
	ErrOutOfMemory = errors.New("memory cap exceeded")
)

// TypeMismatchError reports an interpretation step whose operand tags
// violate the declared signature. Unlike other interpretation errors it
// is fatal: the applicability manager propagates it instead of treating
// the action as inapplicable.
type TypeMismatchError struct {
	Context string
	Want    ObjectKind
	Got     ObjectKind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch in %s: want %s, got %s", e.Context, e.Want, e.Got)
}

// UnregisteredVariableError reports a CSP translation that referenced a
// state-variable/role pair never registered with the translator.
type UnregisteredVariableError struct {
	Variable VarID
	Role     string
}

func (e *UnregisteredVariableError) Error() string {
	return fmt.Sprintf("state variable %d not registered for role %q", e.Variable, e.Role)
}

// NoveltyBudgetError reports that a novelty table would exceed its
// memory budget. Construction fails; the driver may downgrade the
// evaluator to width 1 when configured to do so.
type NoveltyBudgetError struct {
	Width    int
	Required int64
	Budget   int64
}

func (e *NoveltyBudgetError) Error() string {
	return fmt.Sprintf("width-%d novelty table needs %d bytes, budget is %d", e.Width, e.Required, e.Budget)
}

// ParseError reports malformed problem input. Path locates the offending
// node inside the JSON document.
type ParseError struct {
	Path string
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return "parse error: " + e.Msg
	}
	return fmt.Sprintf("parse error at %s: %s", e.Path, e.Msg)
}

// PlanInvariantError reports that a returned plan does not execute
// cleanly from the initial state. It always indicates an engine bug.
type PlanInvariantError struct {
	Step   int
	Action string
	Reason string
}

func (e *PlanInvariantError) Error() string {
	return fmt.Sprintf("plan invariant violated at step %d (%s): %s", e.Step, e.Action, e.Reason)
}

// fatalInterpretation reports whether an interpretation error must
// propagate instead of being absorbed as "not applicable".
func fatalInterpretation(err error) bool {
	var tm *TypeMismatchError
	return errors.As(err, &tm)
}
