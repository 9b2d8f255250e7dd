package procedure

import (
	"strings"

	"github.com/starford/procforge/internal/models"
)

// DefaultClassification is used when the classification field is blank.
const DefaultClassification = "Interne"

// Snapshot returns a deep copy of the tree as a Procedure. Text is trimmed
// and blank list rows are dropped. Version and VersionHistory belong to the
// ledger and are left for the caller to fill.
func (t *Tree) Snapshot() models.Procedure {
	get := func(name string) string {
		if v, ok := t.fields[name]; ok {
			return strings.TrimSpace(*v)
		}
		return ""
	}

	p := models.Procedure{
		Title:          get(FieldTitle),
		Reference:      get(FieldReference),
		Author:         get(FieldAuthor),
		Validator:      get(FieldValidator),
		CreationDate:   get(FieldCreationDate),
		RevisionDate:   get(FieldRevisionDate),
		Classification: get(FieldClassification),
		Objective:      get(FieldObjective),
		Scope: models.Scope{
			Perimeter: get(FieldScopePerimeter),
			Personnel: get(FieldScopePersonnel),
			Systems:   get(FieldScopeSystems),
		},
		Prerequisites: models.Prerequisites{
			Technical:   compact(*t.prereq[ListTechnical]),
			Access:      compact(*t.prereq[ListAccess]),
			Tools:       compact(*t.prereq[ListTools]),
			Environment: compact(*t.prereq[ListEnvironment]),
		},
		Steps: make([]models.Step, 0, len(t.steps)),
		Validation: models.Validation{
			Redactor: models.Person{Name: get(FieldRedactor)},
			Verifier: models.Person{Name: get(FieldVerifier)},
			Approver: models.Person{Name: get(FieldApprover)},
		},
		Contact: models.Contact{
			SupportEmail: get(FieldSupportEmail),
			Hotline:      get(FieldHotline),
			Portal:       get(FieldPortal),
			Location:     get(FieldLocation),
		},
		Company:        get(FieldCompany),
		VersionHistory: []models.Entry{},
	}
	if p.Classification == "" {
		p.Classification = DefaultClassification
	}
	if t.logo != nil {
		logo := *t.logo
		p.LogoData = &logo
	}

	for _, sid := range t.steps {
		s := t.stepNodes[sid]
		step := models.Step{
			Name:        strings.TrimSpace(s.name),
			Objective:   strings.TrimSpace(s.objective),
			Responsible: strings.TrimSpace(s.responsible),
			Duration:    strings.TrimSpace(s.duration),
			Actions:     make([]models.Action, 0, len(s.actions)),
			Controls:    compact(s.controls),
			Result:      strings.TrimSpace(s.result),
		}
		for _, aid := range s.actions {
			a := t.actions[aid]
			action := models.Action{
				Description: strings.TrimSpace(a.description),
				Scenarios:   make([]models.Scenario, 0, len(a.scenarios)),
			}
			for _, scid := range a.scenarios {
				sc := t.scenarios[scid]
				action.Scenarios = append(action.Scenarios, models.Scenario{
					Condition: strings.TrimSpace(sc.condition),
					Steps:     compact(sc.steps),
				})
			}
			step.Actions = append(step.Actions, action)
		}
		p.Steps = append(p.Steps, step)
	}
	return p
}

// Load replaces the whole tree with p. Levels that are absent or empty get
// exactly one placeholder, so every list keeps at least one row. The new
// tree is built aside and swapped in at the end.
func (t *Tree) Load(p models.Procedure) {
	fresh := empty()
	if t.newID != nil {
		fresh.newID = t.newID
	}

	set := func(name, value string) {
		v := value
		fresh.fields[name] = &v
	}
	set(FieldTitle, p.Title)
	set(FieldReference, p.Reference)
	set(FieldAuthor, p.Author)
	set(FieldValidator, p.Validator)
	set(FieldCreationDate, p.CreationDate)
	set(FieldRevisionDate, p.RevisionDate)
	set(FieldClassification, p.Classification)
	set(FieldObjective, p.Objective)
	set(FieldScopePerimeter, p.Scope.Perimeter)
	set(FieldScopePersonnel, p.Scope.Personnel)
	set(FieldScopeSystems, p.Scope.Systems)
	set(FieldRedactor, p.Validation.Redactor.Name)
	set(FieldVerifier, p.Validation.Verifier.Name)
	set(FieldApprover, p.Validation.Approver.Name)
	set(FieldSupportEmail, p.Contact.SupportEmail)
	set(FieldHotline, p.Contact.Hotline)
	set(FieldPortal, p.Contact.Portal)
	set(FieldLocation, p.Contact.Location)
	set(FieldCompany, p.Company)

	if p.LogoData != nil && *p.LogoData != "" {
		logo := *p.LogoData
		fresh.logo = &logo
	}

	*fresh.prereq[ListTechnical] = rowsOrPlaceholder(p.Prerequisites.Technical)
	*fresh.prereq[ListAccess] = rowsOrPlaceholder(p.Prerequisites.Access)
	*fresh.prereq[ListTools] = rowsOrPlaceholder(p.Prerequisites.Tools)
	*fresh.prereq[ListEnvironment] = rowsOrPlaceholder(p.Prerequisites.Environment)

	steps := p.Steps
	if len(steps) == 0 {
		steps = []models.Step{{}}
	}
	for _, st := range steps {
		fresh.loadStep(st)
	}

	*t = *fresh
}

func (t *Tree) loadStep(st models.Step) {
	id := StepID(t.newID())
	n := &stepNode{
		id:          id,
		name:        st.Name,
		objective:   st.Objective,
		responsible: st.Responsible,
		duration:    st.Duration,
		result:      st.Result,
		controls:    rowsOrPlaceholder(st.Controls),
	}
	t.stepNodes[id] = n
	t.steps = append(t.steps, id)

	actions := st.Actions
	if len(actions) == 0 {
		actions = []models.Action{{}}
	}
	for _, a := range actions {
		aid := ActionID(t.newID())
		an := &actionNode{id: aid, step: id, description: a.Description}
		t.actions[aid] = an
		n.actions = append(n.actions, aid)

		scenarios := a.Scenarios
		if len(scenarios) == 0 {
			scenarios = []models.Scenario{{}}
		}
		for _, sc := range scenarios {
			scid := ScenarioID(t.newID())
			t.scenarios[scid] = &scenarioNode{
				id:        scid,
				action:    aid,
				condition: sc.Condition,
				steps:     rowsOrPlaceholder(sc.Steps),
			}
			an.scenarios = append(an.scenarios, scid)
		}
	}
}

// compact trims every row and drops the blank ones. The result is never nil.
func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, v := range items {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func rowsOrPlaceholder(items []string) []string {
	if len(items) == 0 {
		return []string{""}
	}
	return append([]string(nil), items...)
}
