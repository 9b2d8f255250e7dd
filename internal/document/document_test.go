package document

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/procforge/internal/models"
	"github.com/starford/procforge/internal/procedure"
)

var printedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestAssembleSectionOrder(t *testing.T) {
	p := procedure.Example()
	p.Version = "1.2.0"
	doc := Assemble(p, Options{PrintedAt: printedAt})

	kinds := make([]Kind, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []Kind{KindObjective, KindPrerequisites, KindSteps, KindHistory, KindContact}, kinds)

	assert.Equal(t, CoverHeading, doc.Cover.Heading)
	assert.Equal(t, "1.2.0", doc.Cover.Version)
	assert.Equal(t, "PROC-IT-2024-001", doc.Cartouche.Reference)
	assert.Equal(t, "Marie Martin", doc.Cartouche.Validator)
	assert.False(t, doc.Header.RepeatOnCover)
	assert.Equal(t, "Installation d'un nouv...", doc.Header.Title)
	assert.Equal(t, "Jean Dupont", doc.Header.LastModifier)

	steps := doc.Sections[2].Steps
	require.NotNil(t, steps)
	require.Len(t, steps.Steps, 1)
	assert.Equal(t, "Étape 1 : Préparation du matériel", steps.Steps[0].Title)
	assert.Len(t, steps.Steps[0].Actions[0].Scenarios, 2)
	require.NotNil(t, steps.Steps[0].Controls)

	assert.Equal(t, []string{
		"Document confidentiel - Usage interne uniquement",
		"© Entreprise Tech Solutions - 2025 - Tous droits réservés",
	}, doc.Footer.Lines)
}

func TestAssembleDefaults(t *testing.T) {
	doc := Assemble(models.Procedure{Version: "1.0.0"}, Options{PrintedAt: printedAt})

	assert.Equal(t, DefaultTitle, doc.Cover.Title)
	assert.Equal(t, Undefined, doc.Cover.Author)
	assert.Nil(t, doc.Cover.Logo)
	assert.Equal(t, DefaultReference, doc.Cartouche.Reference)
	assert.Equal(t, DefaultValidator, doc.Cartouche.Validator)
	assert.Equal(t, Undefined, doc.Header.LastModifier)

	steps := doc.Sections[2].Steps
	assert.True(t, steps.Empty)
	assert.Equal(t, NoSteps, steps.EmptyMessage)

	for _, c := range doc.Sections[1].Prerequisites.Categories {
		assert.Equal(t, NoPrerequisites, c.EmptyMessage)
	}
	assert.Equal(t, NoHistory, doc.Sections[3].History.EmptyMessage)
	assert.Equal(t, UndefinedFeminine, doc.Sections[4].Contact.Cards[1].Value)
	assert.Equal(t, "© Entreprise - 2025 - Tous droits réservés", doc.Footer.Lines[1])
}

func TestAssembleIsPure(t *testing.T) {
	p := procedure.Example()
	p.VersionHistory = []models.Entry{{Version: "1.0.1", PreviousVersion: "1.0.0", Author: "Lucie", ChangeType: models.ChangePatch}}
	a := Assemble(p, Options{PrintedAt: printedAt})
	b := Assemble(p, Options{PrintedAt: printedAt})
	assert.Equal(t, a, b)

	a.Sections[2].Steps.Steps[0].Actions[0].Scenarios[0].Steps[0] = "changed"
	assert.Equal(t, "Déballer le matériel avec précaution", p.Steps[0].Actions[0].Scenarios[0].Steps[0])

	assert.Equal(t, "Lucie", a.Header.LastModifier)
	assert.Equal(t, "CORRECTION", a.Sections[3].History.Rows[0].Label)
}

func TestTruncate(t *testing.T) {
	got := Truncate("Configuration réseau avancée", 12)
	assert.Equal(t, 12, utf8.RuneCountInString(got))
	assert.Equal(t, "Configura...", got)
	assert.Equal(t, "OK", Truncate("OK", 12))
	assert.Equal(t, "exactly12chr", Truncate("exactly12chr", 12))
}

func TestLastModifier(t *testing.T) {
	history := []models.Entry{{Author: "A"}, {Author: "B"}}
	assert.Equal(t, "B", LastModifier(history, "C"))
	assert.Equal(t, "C", LastModifier(nil, "C"))
	assert.Equal(t, Undefined, LastModifier(nil, ""))
}

func TestFilename(t *testing.T) {
	day := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "procedure_install__pc__1_v1.0.1_2024-03-15.json", Filename("Install: PC #1", "1.0.1", day))
	assert.Equal(t, "procedure_procedure_v1.0.0_2024-03-15.json", Filename("", "1.0.0", day))
	assert.Equal(t, "procedure_r_seau_v2.0.0_2024-03-15.json", Filename("Réseau", "2.0.0", day))
}
