package procedure

import (
	"fmt"

	"github.com/starford/procforge/internal/apperr"
)

// ListKind names an editable list of strings.
type ListKind string

const (
	ListTechnical   ListKind = "technical"
	ListAccess      ListKind = "access"
	ListTools       ListKind = "tools"
	ListEnvironment ListKind = "environment"

	// ListControls is a step's list of checks; Owner is the step id.
	ListControls ListKind = "controls"
	// ListScenarioSteps is a scenario's ordered instructions; Owner is the scenario id.
	ListScenarioSteps ListKind = "scenarioSteps"
)

// PrerequisiteKinds lists the four prerequisite categories in document order.
var PrerequisiteKinds = []ListKind{ListTechnical, ListAccess, ListTools, ListEnvironment}

// ListRef addresses one editable list.
type ListRef struct {
	Kind  ListKind
	Owner string
}

// Prerequisite returns the ref of a prerequisite category.
func Prerequisite(kind ListKind) ListRef { return ListRef{Kind: kind} }

// Controls returns the ref of a step's controls.
func Controls(step StepID) ListRef { return ListRef{Kind: ListControls, Owner: string(step)} }

// ScenarioSteps returns the ref of a scenario's instructions.
func ScenarioSteps(sc ScenarioID) ListRef {
	return ListRef{Kind: ListScenarioSteps, Owner: string(sc)}
}

// ParsePrerequisite maps a category name to its ListKind.
func ParsePrerequisite(name string) (ListKind, bool) {
	for _, k := range PrerequisiteKinds {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// Row is one line of an editable list. Removable is false for the last
// remaining row.
type Row struct {
	Index     int    `json:"index"`
	Value     string `json:"value"`
	Removable bool   `json:"removable"`
}

// ListItems returns the rows of a list.
func (t *Tree) ListItems(ref ListRef) ([]Row, error) {
	items, err := t.list(ref)
	if err != nil {
		return nil, err
	}
	return rows(*items), nil
}

// AddListItem appends an empty row and returns its index.
func (t *Tree) AddListItem(ref ListRef) (int, error) {
	items, err := t.list(ref)
	if err != nil {
		return 0, err
	}
	*items = append(*items, "")
	return len(*items) - 1, nil
}

// SetListItem overwrites the row at index.
func (t *Tree) SetListItem(ref ListRef, index int, value string) error {
	items, err := t.list(ref)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*items) {
		return fmt.Errorf("%s row %d: %w", ref.Kind, index, apperr.ErrNotFound)
	}
	(*items)[index] = value
	return nil
}

// RemoveListItem deletes the row at index. The last remaining row cannot be
// removed.
func (t *Tree) RemoveListItem(ref ListRef, index int) error {
	items, err := t.list(ref)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*items) {
		return fmt.Errorf("%s row %d: %w", ref.Kind, index, apperr.ErrNotFound)
	}
	if len(*items) <= 1 {
		return fmt.Errorf("%s: %w", ref.Kind, apperr.ErrLastRow)
	}
	*items = append((*items)[:index], (*items)[index+1:]...)
	return nil
}

// list returns a pointer to the backing slice of ref.
func (t *Tree) list(ref ListRef) (*[]string, error) {
	switch ref.Kind {
	case ListTechnical, ListAccess, ListTools, ListEnvironment:
		return t.prereq[ref.Kind], nil
	case ListControls:
		s, ok := t.stepNodes[StepID(ref.Owner)]
		if !ok {
			return nil, fmt.Errorf("step %s: %w", ref.Owner, apperr.ErrNotFound)
		}
		return &s.controls, nil
	case ListScenarioSteps:
		sc, ok := t.scenarios[ScenarioID(ref.Owner)]
		if !ok {
			return nil, fmt.Errorf("scenario %s: %w", ref.Owner, apperr.ErrNotFound)
		}
		return &sc.steps, nil
	default:
		return nil, fmt.Errorf("list %q: %w", ref.Kind, apperr.ErrNotFound)
	}
}

func rows(items []string) []Row {
	out := make([]Row, len(items))
	for i, v := range items {
		out[i] = Row{Index: i, Value: v, Removable: len(items) > 1}
	}
	return out
}
