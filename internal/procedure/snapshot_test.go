package procedure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/procforge/internal/models"
)

func TestSnapshotTrimsAndDropsBlankRows(t *testing.T) {
	tr := New()
	require.NoError(t, tr.SetField(FieldID{Name: FieldTitle}, "  Sauvegarde  "))
	ref := Prerequisite(ListAccess)
	require.NoError(t, tr.SetListItem(ref, 0, " VPN "))
	_, _ = tr.AddListItem(ref)

	p := tr.Snapshot()
	assert.Equal(t, "Sauvegarde", p.Title)
	assert.Equal(t, []string{"VPN"}, p.Prerequisites.Access)
	assert.Equal(t, []string{}, p.Prerequisites.Tools)
	assert.Equal(t, DefaultClassification, p.Classification)
	assert.Nil(t, p.LogoData)
	assert.NotNil(t, p.VersionHistory)

	require.Len(t, p.Steps, 1)
	require.Len(t, p.Steps[0].Actions, 1)
	require.Len(t, p.Steps[0].Actions[0].Scenarios, 1)
	assert.Equal(t, []string{}, p.Steps[0].Actions[0].Scenarios[0].Steps)
}

func TestRoundTripExample(t *testing.T) {
	want := Example()
	want.Version = ""

	tr := New()
	tr.Load(want)
	got := tr.Snapshot()
	assert.Equal(t, want, got)

	again := New()
	again.Load(got)
	assert.Equal(t, got, again.Snapshot())
}

func TestLoadSynthesisesPlaceholders(t *testing.T) {
	tr := New()
	tr.Load(models.Procedure{
		Title: "Vide",
		Steps: []models.Step{{Name: "Seule", Actions: []models.Action{{Description: "a"}}}},
	})

	steps := tr.Steps()
	require.Len(t, steps, 1)
	controls, err := tr.ListItems(Controls(steps[0]))
	require.NoError(t, err)
	assert.Len(t, controls, 1)

	a, err := tr.ActionAt(steps[0], 0)
	require.NoError(t, err)
	sc, err := tr.ScenarioAt(a, 0)
	require.NoError(t, err)
	rows, err := tr.ListItems(ScenarioSteps(sc))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	for _, k := range PrerequisiteKinds {
		rows, err := tr.ListItems(Prerequisite(k))
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	}

	empty := New()
	empty.Load(models.Procedure{})
	assert.Len(t, empty.Steps(), 1)
}

func TestLoadReplacesEverything(t *testing.T) {
	tr := New()
	old := tr.Steps()[0]
	tr.AddStep()
	require.NoError(t, tr.SetField(FieldID{Name: FieldCompany}, "Ancienne"))

	tr.Load(models.Procedure{Title: "Nouvelle"})
	assert.Equal(t, -1, tr.StepIndex(old))
	assert.Len(t, tr.Steps(), 1)
	company, _ := tr.Field(FieldID{Name: FieldCompany})
	assert.Empty(t, company)
}

func TestLogoDataURI(t *testing.T) {
	tr := New()
	tr.SetLogo(models.Logo{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}})

	p := tr.Snapshot()
	require.NotNil(t, p.LogoData)
	assert.Equal(t, "data:image/png;base64,iVBORw==", *p.LogoData)

	l, ok := tr.Logo()
	require.True(t, ok)
	assert.Equal(t, "image/png", l.MIMEType)

	tr.ClearLogo()
	_, ok = tr.Logo()
	assert.False(t, ok)

	_, err := DecodeDataURI("data:image/png,plain")
	assert.Error(t, err)
}
