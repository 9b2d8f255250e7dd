// Package procedure holds the editable procedure tree: scalar fields, the
// prerequisite lists and the Step → Action → Scenario → scenario-step
// hierarchy.
//
// Steps, actions and scenarios live in an arena keyed by stable generated
// ids; each parent keeps the ordered list of its children's ids. Positional
// addressing (StepAt, ActionAt, ScenarioAt) is resolved against the current
// order, so removing a sibling shifts later positions while ids held by
// callers stay valid.
package procedure

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/procforge/internal/apperr"
)

// StepID identifies a step node.
type StepID string

// ActionID identifies an action node.
type ActionID string

// ScenarioID identifies a scenario node.
type ScenarioID string

type stepNode struct {
	id          StepID
	name        string
	objective   string
	responsible string
	duration    string
	result      string
	actions     []ActionID
	controls    []string
}

type actionNode struct {
	id          ActionID
	step        StepID
	description string
	scenarios   []ScenarioID
}

type scenarioNode struct {
	id        ScenarioID
	action    ActionID
	condition string
	steps     []string
}

// Tree is the in-memory procedure being edited. It is not safe for
// concurrent use.
type Tree struct {
	fields map[string]*string
	prereq map[ListKind]*[]string
	logo   *string

	steps     []StepID
	stepNodes map[StepID]*stepNode
	actions   map[ActionID]*actionNode
	scenarios map[ScenarioID]*scenarioNode

	newID func() string
}

// New returns a tree holding one empty step with its placeholder children
// and one empty row in every list.
func New() *Tree {
	t := empty()
	t.AddStep()
	return t
}

func empty() *Tree {
	t := &Tree{
		fields:    make(map[string]*string),
		prereq:    make(map[ListKind]*[]string),
		stepNodes: make(map[StepID]*stepNode),
		actions:   make(map[ActionID]*actionNode),
		scenarios: make(map[ScenarioID]*scenarioNode),
		newID:     uuid.NewString,
	}
	for _, k := range PrerequisiteKinds {
		t.prereq[k] = &[]string{""}
	}
	return t
}

// AddStep appends a step with one action, one scenario, one scenario-step
// row and one control row.
func (t *Tree) AddStep() StepID {
	id := StepID(t.newID())
	t.stepNodes[id] = &stepNode{id: id, controls: []string{""}}
	t.steps = append(t.steps, id)
	t.AddAction(id)
	return id
}

// RemoveStep deletes a step and everything below it.
func (t *Tree) RemoveStep(id StepID) error {
	n, ok := t.stepNodes[id]
	if !ok {
		return fmt.Errorf("step %s: %w", id, apperr.ErrNotFound)
	}
	for _, a := range n.actions {
		t.dropAction(a)
	}
	delete(t.stepNodes, id)
	t.steps = removeID(t.steps, id)
	return nil
}

// RemoveStepAt deletes the step at position i.
func (t *Tree) RemoveStepAt(i int) error {
	id, err := t.StepAt(i)
	if err != nil {
		return err
	}
	return t.RemoveStep(id)
}

// Steps returns the step ids in document order.
func (t *Tree) Steps() []StepID {
	return append([]StepID(nil), t.steps...)
}

// StepAt resolves a step position to its id.
func (t *Tree) StepAt(i int) (StepID, error) {
	if i < 0 || i >= len(t.steps) {
		return "", fmt.Errorf("step index %d: %w", i, apperr.ErrNotFound)
	}
	return t.steps[i], nil
}

// StepIndex returns the current position of a step, or -1.
func (t *Tree) StepIndex(id StepID) int {
	return indexOf(t.steps, id)
}

// AddAction appends an action, with one scenario, to a step.
func (t *Tree) AddAction(step StepID) (ActionID, error) {
	s, ok := t.stepNodes[step]
	if !ok {
		return "", fmt.Errorf("step %s: %w", step, apperr.ErrNotFound)
	}
	id := ActionID(t.newID())
	t.actions[id] = &actionNode{id: id, step: step}
	s.actions = append(s.actions, id)
	_, _ = t.AddScenario(id)
	return id, nil
}

// RemoveAction deletes an action and its scenarios.
func (t *Tree) RemoveAction(id ActionID) error {
	a, ok := t.actions[id]
	if !ok {
		return fmt.Errorf("action %s: %w", id, apperr.ErrNotFound)
	}
	if s, ok := t.stepNodes[a.step]; ok {
		s.actions = removeID(s.actions, id)
	}
	t.dropAction(id)
	return nil
}

// Actions returns the action ids of a step in order.
func (t *Tree) Actions(step StepID) ([]ActionID, error) {
	s, ok := t.stepNodes[step]
	if !ok {
		return nil, fmt.Errorf("step %s: %w", step, apperr.ErrNotFound)
	}
	return append([]ActionID(nil), s.actions...), nil
}

// ActionAt resolves an action position within a step.
func (t *Tree) ActionAt(step StepID, i int) (ActionID, error) {
	ids, err := t.Actions(step)
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(ids) {
		return "", fmt.Errorf("action index %d: %w", i, apperr.ErrNotFound)
	}
	return ids[i], nil
}

// AddScenario appends a scenario with one empty row to an action.
func (t *Tree) AddScenario(action ActionID) (ScenarioID, error) {
	a, ok := t.actions[action]
	if !ok {
		return "", fmt.Errorf("action %s: %w", action, apperr.ErrNotFound)
	}
	id := ScenarioID(t.newID())
	t.scenarios[id] = &scenarioNode{id: id, action: action, steps: []string{""}}
	a.scenarios = append(a.scenarios, id)
	return id, nil
}

// RemoveScenario deletes a scenario.
func (t *Tree) RemoveScenario(id ScenarioID) error {
	sc, ok := t.scenarios[id]
	if !ok {
		return fmt.Errorf("scenario %s: %w", id, apperr.ErrNotFound)
	}
	if a, ok := t.actions[sc.action]; ok {
		a.scenarios = removeID(a.scenarios, id)
	}
	delete(t.scenarios, id)
	return nil
}

// Scenarios returns the scenario ids of an action in order.
func (t *Tree) Scenarios(action ActionID) ([]ScenarioID, error) {
	a, ok := t.actions[action]
	if !ok {
		return nil, fmt.Errorf("action %s: %w", action, apperr.ErrNotFound)
	}
	return append([]ScenarioID(nil), a.scenarios...), nil
}

// ScenarioAt resolves a scenario position within an action.
func (t *Tree) ScenarioAt(action ActionID, i int) (ScenarioID, error) {
	ids, err := t.Scenarios(action)
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(ids) {
		return "", fmt.Errorf("scenario index %d: %w", i, apperr.ErrNotFound)
	}
	return ids[i], nil
}

// Path addresses a node by position. Negative components are unused.
type Path struct {
	Step     int
	Action   int
	Scenario int
}

// ResolveScenario walks a full path down to a scenario id.
func (t *Tree) ResolveScenario(p Path) (ScenarioID, error) {
	s, err := t.StepAt(p.Step)
	if err != nil {
		return "", err
	}
	a, err := t.ActionAt(s, p.Action)
	if err != nil {
		return "", err
	}
	return t.ScenarioAt(a, p.Scenario)
}

func (t *Tree) dropAction(id ActionID) {
	a, ok := t.actions[id]
	if !ok {
		return
	}
	for _, sc := range a.scenarios {
		delete(t.scenarios, sc)
	}
	delete(t.actions, id)
}

func removeID[T comparable](ids []T, id T) []T {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func indexOf[T comparable](ids []T, id T) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
