package procedure

import (
	"fmt"

	"github.com/starford/procforge/internal/apperr"
)

// Scalar field names of the procedure itself.
const (
	FieldTitle          = "title"
	FieldReference      = "reference"
	FieldAuthor         = "author"
	FieldValidator      = "validator"
	FieldClassification = "classification"
	FieldObjective      = "objective"
	FieldCompany        = "company"
	FieldCreationDate   = "creationDate"
	FieldRevisionDate   = "revisionDate"
	FieldScopePerimeter = "scope.perimeter"
	FieldScopePersonnel = "scope.personnel"
	FieldScopeSystems   = "scope.systems"
	FieldRedactor       = "validation.redactor"
	FieldVerifier       = "validation.verifier"
	FieldApprover       = "validation.approver"
	FieldSupportEmail   = "contact.supportEmail"
	FieldHotline        = "contact.hotline"
	FieldPortal         = "contact.portal"
	FieldLocation       = "contact.location"
)

// ProcedureFields lists every scalar field of the procedure.
var ProcedureFields = []string{
	FieldTitle, FieldReference, FieldAuthor, FieldValidator, FieldClassification,
	FieldObjective, FieldCompany, FieldCreationDate, FieldRevisionDate,
	FieldScopePerimeter, FieldScopePersonnel, FieldScopeSystems,
	FieldRedactor, FieldVerifier, FieldApprover,
	FieldSupportEmail, FieldHotline, FieldPortal, FieldLocation,
}

// Field names of nested nodes.
const (
	StepName        = "name"
	StepObjective   = "objective"
	StepResponsible = "responsible"
	StepDuration    = "duration"
	StepResult      = "result"

	ActionDescription = "description"
	ScenarioCondition = "condition"
)

// NodeKind restricts which kind of node a FieldID may resolve to.
type NodeKind string

const (
	AnyNode      NodeKind = ""
	StepNode     NodeKind = "step"
	ActionNode   NodeKind = "action"
	ScenarioNode NodeKind = "scenario"
)

// FieldID addresses one scalar value. An empty Node addresses the procedure;
// otherwise Node is a step, action or scenario id. A non-empty Kind makes an
// id of another kind resolve as not found.
type FieldID struct {
	Node string
	Kind NodeKind
	Name string
}

func (f FieldID) accepts(k NodeKind) bool {
	return f.Kind == AnyNode || f.Kind == k
}

// SetField writes a scalar value.
func (t *Tree) SetField(f FieldID, value string) error {
	ptr, err := t.field(f)
	if err != nil {
		return err
	}
	*ptr = value
	return nil
}

// Field reads a scalar value.
func (t *Tree) Field(f FieldID) (string, error) {
	ptr, err := t.field(f)
	if err != nil {
		return "", err
	}
	return *ptr, nil
}

func (t *Tree) field(f FieldID) (*string, error) {
	if f.Node == "" {
		if !isProcedureField(f.Name) {
			return nil, fmt.Errorf("procedure field %q: %w", f.Name, apperr.ErrUnknownField)
		}
		return t.procedureField(f.Name), nil
	}
	if s, ok := t.stepNodes[StepID(f.Node)]; ok && f.accepts(StepNode) {
		switch f.Name {
		case StepName:
			return &s.name, nil
		case StepObjective:
			return &s.objective, nil
		case StepResponsible:
			return &s.responsible, nil
		case StepDuration:
			return &s.duration, nil
		case StepResult:
			return &s.result, nil
		}
		return nil, fmt.Errorf("step field %q: %w", f.Name, apperr.ErrUnknownField)
	}
	if a, ok := t.actions[ActionID(f.Node)]; ok && f.accepts(ActionNode) {
		if f.Name == ActionDescription {
			return &a.description, nil
		}
		return nil, fmt.Errorf("action field %q: %w", f.Name, apperr.ErrUnknownField)
	}
	if sc, ok := t.scenarios[ScenarioID(f.Node)]; ok && f.accepts(ScenarioNode) {
		if f.Name == ScenarioCondition {
			return &sc.condition, nil
		}
		return nil, fmt.Errorf("scenario field %q: %w", f.Name, apperr.ErrUnknownField)
	}
	if f.Kind != AnyNode {
		return nil, fmt.Errorf("%s %s: %w", f.Kind, f.Node, apperr.ErrNotFound)
	}
	return nil, fmt.Errorf("node %s: %w", f.Node, apperr.ErrNotFound)
}

// procedureField returns the storage slot of a procedure field, creating it
// on first use.
func (t *Tree) procedureField(name string) *string {
	v, ok := t.fields[name]
	if !ok {
		v = new(string)
		t.fields[name] = v
	}
	return v
}

func isProcedureField(name string) bool {
	for _, n := range ProcedureFields {
		if n == name {
			return true
		}
	}
	return false
}
