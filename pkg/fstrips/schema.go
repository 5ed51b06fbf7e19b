// Package fstrips implements a functional STRIPS planning engine.
// This file defines action schemas and ground actions.
package fstrips

import (
	"fmt"
	"strings"
)

// ActionID is the dense index of a ground action.
type ActionID int

// InvalidAction marks the absence of an incoming action, e.g. on the
// root search node.
const InvalidAction ActionID = -1

// ActionSchema is a lifted action: a parameter signature, a
// precondition and an ordered effect list. Parameter ids are the
// bound-variable ids 0..len(Signature)-1.
type ActionSchema struct {
	Name         string
	Signature    []TypeID
	ParamNames   []string
	Precondition *Formula
	Effects      []*Effect
}

// NewActionSchema validates and builds a schema. A nil precondition
// becomes the tautology.
func NewActionSchema(name string, signature []TypeID, paramNames []string, pre *Formula, effects []*Effect) (*ActionSchema, error) {
	if name == "" {
		return nil, fmt.Errorf("action schema needs a name")
	}
	if len(signature) != len(paramNames) {
		return nil, fmt.Errorf("schema %q: %d parameter types but %d names", name, len(signature), len(paramNames))
	}
	if len(effects) == 0 {
		return nil, fmt.Errorf("schema %q has no effects", name)
	}
	if pre == nil {
		pre = Tautology()
	}
	return &ActionSchema{
		Name:         name,
		Signature:    append([]TypeID(nil), signature...),
		ParamNames:   append([]string(nil), paramNames...),
		Precondition: pre,
		Effects:      effects,
	}, nil
}

// Arity returns the number of schema parameters.
func (s *ActionSchema) Arity() int { return len(s.Signature) }

// GroundAction is a schema closed by a full parameter binding. The
// precondition and effects are owned, fully bound trees; ground fluent
// applications inside them have been resolved to state variables.
type GroundAction struct {
	ID           ActionID
	Schema       *ActionSchema
	Binding      *Binding
	Precondition *Formula
	Effects      []*Effect

	name string
}

// Ground closes a schema under a full binding, producing an owned
// ground action. The caller assigns the dense id.
func Ground(in *Interpreter, schema *ActionSchema, binding *Binding, id ActionID) (*GroundAction, error) {
	if binding.Size() < schema.Arity() || !binding.Full() {
		return nil, fmt.Errorf("grounding %q: binding %s does not cover all %d parameters",
			schema.Name, binding, schema.Arity())
	}
	pre, err := in.BindFormula(schema.Precondition, binding)
	if err != nil {
		return nil, fmt.Errorf("grounding %q: %w", schema.Name, err)
	}
	effects := make([]*Effect, len(schema.Effects))
	for i, e := range schema.Effects {
		be, err := e.Bind(in, binding)
		if err != nil {
			return nil, fmt.Errorf("grounding %q effect %d: %w", schema.Name, i, err)
		}
		effects[i] = be
	}
	ga := &GroundAction{
		ID:           id,
		Schema:       schema,
		Binding:      binding,
		Precondition: pre,
		Effects:      effects,
	}
	ga.name = renderGroundName(in.lang, schema, binding)
	return ga, nil
}

func renderGroundName(lang *Language, schema *ActionSchema, binding *Binding) string {
	if schema.Arity() == 0 {
		return schema.Name
	}
	parts := make([]string, schema.Arity())
	for i := 0; i < schema.Arity(); i++ {
		if o, ok := binding.Value(i); ok {
			parts[i] = lang.ObjectName(o)
		} else {
			parts[i] = "?"
		}
	}
	return schema.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Name returns the rendered ground action name, e.g. "pick(o2)". This
// is the identifier emitted in plans.
func (a *GroundAction) Name() string { return a.name }

func (a *GroundAction) String() string { return a.name }
