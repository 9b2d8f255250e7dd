package procedure

// Outline is the id skeleton of the hierarchy, used by editors to address
// nodes that Snapshot exposes only by position.
type Outline struct {
	Steps []StepOutline `json:"steps"`
}

// StepOutline is one step with its action ids.
type StepOutline struct {
	ID      StepID          `json:"id"`
	Name    string          `json:"name"`
	Actions []ActionOutline `json:"actions"`
}

// ActionOutline is one action with its scenario ids.
type ActionOutline struct {
	ID          ActionID          `json:"id"`
	Description string            `json:"description"`
	Scenarios   []ScenarioOutline `json:"scenarios"`
}

// ScenarioOutline is one scenario.
type ScenarioOutline struct {
	ID        ScenarioID `json:"id"`
	Condition string     `json:"condition"`
}

// Outline returns the current hierarchy with node ids, in document order.
func (t *Tree) Outline() Outline {
	out := Outline{Steps: make([]StepOutline, 0, len(t.steps))}
	for _, sid := range t.steps {
		s := t.stepNodes[sid]
		so := StepOutline{ID: sid, Name: s.name, Actions: make([]ActionOutline, 0, len(s.actions))}
		for _, aid := range s.actions {
			a := t.actions[aid]
			ao := ActionOutline{ID: aid, Description: a.description, Scenarios: make([]ScenarioOutline, 0, len(a.scenarios))}
			for _, scid := range a.scenarios {
				ao.Scenarios = append(ao.Scenarios, ScenarioOutline{ID: scid, Condition: t.scenarios[scid].condition})
			}
			so.Actions = append(so.Actions, ao)
		}
		out.Steps = append(out.Steps, so)
	}
	return out
}
