// Package document assembles a procedure snapshot into the ordered,
// print-ready structure handed to renderers: cover page, running header and
// the fixed list of sections.
package document

import (
	"strconv"
	"time"

	"github.com/starford/procforge/internal/ledger"
	"github.com/starford/procforge/internal/models"
)

// Placeholders shown in place of missing values.
const (
	DefaultTitle      = "Nouvelle procédure"
	DefaultReference  = "N/A"
	DefaultValidator  = "En attente"
	DefaultCompany    = "Entreprise"
	Undefined         = "Non défini"
	UndefinedFeminine = "Non définie"

	NoObjective     = "Aucun objectif défini"
	NoPrerequisites = "Aucun prérequis défini"
	NoSteps         = "Aucune étape définie"
	NoHistory       = "Aucun historique de version disponible"

	CoverHeading = "PROCÉDURE IT"
	Confidential = "Document confidentiel - Usage interne uniquement"
)

// Header truncation widths.
const (
	HeaderTitleWidth    = 25
	HeaderModifierWidth = 12
)

// Kind identifies a section.
type Kind string

const (
	KindObjective     Kind = "objective"
	KindPrerequisites Kind = "prerequisites"
	KindSteps         Kind = "steps"
	KindHistory       Kind = "history"
	KindContact       Kind = "contact"
)

// Options carries the inputs that are not part of the snapshot.
type Options struct {
	// PrintedAt supplies the copyright year.
	PrintedAt time.Time
}

// Document is the assembled, render-ready procedure.
type Document struct {
	Cover     Cover     `json:"cover"`
	Cartouche Cartouche `json:"cartouche"`
	Header    Header    `json:"header"`
	Sections  []Section `json:"sections"`
	Footer    Footer    `json:"footer"`
}

// Cover is the title page.
type Cover struct {
	Heading string  `json:"heading"`
	Title   string  `json:"title"`
	Logo    *string `json:"logo,omitempty"`
	Version string  `json:"version"`
	Author  string  `json:"author"`
	Date    string  `json:"date"`
}

// Cartouche is the metadata block at the top of the main content.
type Cartouche struct {
	Reference string `json:"reference"`
	Version   string `json:"version"`
	Date      string `json:"date"`
	Validator string `json:"validator"`
}

// Header is the running header repeated on every page but the cover. Title
// and LastModifier are truncated; the Full variants keep the whole text.
type Header struct {
	Title            string `json:"title"`
	FullTitle        string `json:"fullTitle"`
	Reference        string `json:"reference"`
	Version          string `json:"version"`
	Date             string `json:"date"`
	LastModifier     string `json:"lastModifier"`
	FullLastModifier string `json:"fullLastModifier"`
	RepeatOnCover    bool   `json:"repeatOnCover"`
}

// Section is one block of the main content. Exactly one of the content
// pointers is set, matching Kind.
type Section struct {
	Kind    Kind   `json:"kind"`
	Heading string `json:"heading"`

	Objective     *ObjectiveSection    `json:"objective,omitempty"`
	Prerequisites *PrerequisiteSection `json:"prerequisites,omitempty"`
	Steps         *StepsSection        `json:"steps,omitempty"`
	History       *HistorySection      `json:"history,omitempty"`
	Contact       *ContactSection      `json:"contact,omitempty"`
}

// Card is a labelled value.
type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ObjectiveSection holds the objective text and the scope cards.
type ObjectiveSection struct {
	Objective string `json:"objective"`
	Scope     []Card `json:"scope"`
}

// ItemList is a titled checklist; EmptyMessage is set when Items is empty.
type ItemList struct {
	Title        string   `json:"title"`
	Items        []string `json:"items"`
	EmptyMessage string   `json:"emptyMessage,omitempty"`
}

// PrerequisiteSection holds the four prerequisite categories.
type PrerequisiteSection struct {
	Categories []ItemList `json:"categories"`
}

// StepsSection holds the numbered steps. Empty is set when there are none.
type StepsSection struct {
	Empty        bool        `json:"empty"`
	EmptyMessage string      `json:"emptyMessage,omitempty"`
	Steps        []StepBlock `json:"steps"`
}

// StepBlock is one rendered step.
type StepBlock struct {
	Number   int           `json:"number"`
	Title    string        `json:"title"`
	Cards    []Card        `json:"cards"`
	Actions  []ActionBlock `json:"actions"`
	Controls *ItemList     `json:"controls,omitempty"`
	Result   string        `json:"result,omitempty"`
}

// ActionBlock is one rendered action.
type ActionBlock struct {
	Number    int               `json:"number"`
	Title     string            `json:"title"`
	Scenarios []models.Scenario `json:"scenarios"`
}

// HistorySection is the version table, most recent first.
type HistorySection struct {
	Rows         []ledger.TableRow `json:"rows"`
	EmptyMessage string            `json:"emptyMessage,omitempty"`
}

// ContactSection holds the support cards.
type ContactSection struct {
	Cards []Card `json:"cards"`
}

// Footer closes the document.
type Footer struct {
	Lines []string `json:"lines"`
}

// Assemble builds the document for p. p.Version and p.VersionHistory are
// expected to carry the ledger state. Assemble has no side effects.
func Assemble(p models.Procedure, opts Options) Document {
	title := or(p.Title, DefaultTitle)
	lastModifier := LastModifier(p.VersionHistory, p.Author)

	var logo *string
	if p.LogoData != nil && *p.LogoData != "" {
		l := *p.LogoData
		logo = &l
	}

	return Document{
		Cover: Cover{
			Heading: CoverHeading,
			Title:   title,
			Logo:    logo,
			Version: p.Version,
			Author:  or(p.Author, Undefined),
			Date:    p.CreationDate,
		},
		Cartouche: Cartouche{
			Reference: or(p.Reference, DefaultReference),
			Version:   p.Version,
			Date:      p.CreationDate,
			Validator: or(p.Validator, DefaultValidator),
		},
		Header: Header{
			Title:            Truncate(title, HeaderTitleWidth),
			FullTitle:        title,
			Reference:        or(p.Reference, DefaultReference),
			Version:          p.Version,
			Date:             p.CreationDate,
			LastModifier:     Truncate(lastModifier, HeaderModifierWidth),
			FullLastModifier: lastModifier,
		},
		Sections: []Section{
			objectiveSection(p),
			prerequisiteSection(p.Prerequisites),
			stepsSection(p.Steps),
			historySection(p.VersionHistory),
			contactSection(p.Contact),
		},
		Footer: Footer{Lines: []string{
			Confidential,
			"© " + or(p.Company, DefaultCompany) + " - " + strconv.Itoa(opts.PrintedAt.Year()) + " - Tous droits réservés",
		}},
	}
}

func objectiveSection(p models.Procedure) Section {
	return Section{
		Kind:    KindObjective,
		Heading: "OBJECTIF ET PORTÉE",
		Objective: &ObjectiveSection{
			Objective: or(p.Objective, NoObjective),
			Scope: []Card{
				{Label: "Périmètre d'application", Value: or(p.Scope.Perimeter, Undefined)},
				{Label: "Personnel concerné", Value: or(p.Scope.Personnel, Undefined)},
				{Label: "Systèmes/Technologies", Value: or(p.Scope.Systems, Undefined)},
			},
		},
	}
}

func prerequisiteSection(pr models.Prerequisites) Section {
	return Section{
		Kind:    KindPrerequisites,
		Heading: "PRÉREQUIS",
		Prerequisites: &PrerequisiteSection{Categories: []ItemList{
			checklist("Compétences techniques", pr.Technical),
			checklist("Accès et permissions", pr.Access),
			checklist("Outils et ressources", pr.Tools),
			checklist("Environnement matériel / logiciel", pr.Environment),
		}},
	}
}

func checklist(title string, items []string) ItemList {
	l := ItemList{Title: title, Items: append([]string{}, items...)}
	if len(items) == 0 {
		l.EmptyMessage = NoPrerequisites
	}
	return l
}

func stepsSection(steps []models.Step) Section {
	s := &StepsSection{Steps: make([]StepBlock, 0, len(steps))}
	if len(steps) == 0 {
		s.Empty = true
		s.EmptyMessage = NoSteps
	}
	for i, st := range steps {
		b := StepBlock{
			Number: i + 1,
			Title:  "Étape " + strconv.Itoa(i+1) + " : " + st.Name,
			Cards: []Card{
				{Label: "Objectif", Value: or(st.Objective, Undefined)},
				{Label: "Responsable", Value: or(st.Responsible, Undefined)},
				{Label: "Durée estimée", Value: or(st.Duration, Undefined)},
			},
			Actions: make([]ActionBlock, 0, len(st.Actions)),
			Result:  st.Result,
		}
		for j, a := range st.Actions {
			scenarios := make([]models.Scenario, 0, len(a.Scenarios))
			for _, sc := range a.Scenarios {
				scenarios = append(scenarios, models.Scenario{
					Condition: sc.Condition,
					Steps:     append([]string{}, sc.Steps...),
				})
			}
			b.Actions = append(b.Actions, ActionBlock{
				Number:    j + 1,
				Title:     "Action " + strconv.Itoa(j+1) + ": " + a.Description,
				Scenarios: scenarios,
			})
		}
		if len(st.Controls) > 0 {
			b.Controls = &ItemList{Title: "Contrôles/Vérifications :", Items: append([]string{}, st.Controls...)}
		}
		s.Steps = append(s.Steps, b)
	}
	return Section{Kind: KindSteps, Heading: "PROCÉDURE DÉTAILLÉE", Steps: s}
}

func historySection(history []models.Entry) Section {
	h := &HistorySection{Rows: ledger.Table(history)}
	if len(history) == 0 {
		h.EmptyMessage = NoHistory
	}
	return Section{Kind: KindHistory, Heading: "Historique des versions", History: h}
}

func contactSection(c models.Contact) Section {
	return Section{
		Kind:    KindContact,
		Heading: "INFORMATIONS DE CONTACT",
		Contact: &ContactSection{Cards: []Card{
			{Label: "Support IT", Value: or(c.SupportEmail, Undefined)},
			{Label: "Hotline", Value: or(c.Hotline, UndefinedFeminine)},
			{Label: "Portail interne", Value: or(c.Portal, Undefined)},
			{Label: "Localisation", Value: or(c.Location, UndefinedFeminine)},
		}},
	}
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
