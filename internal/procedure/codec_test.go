package procedure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/procforge/internal/apperr"
)

func TestDecodeJSON(t *testing.T) {
	data := []byte(`{
  "title": "Migration",
  "logoData": null,
  "steps": [{"name": "Arrêt", "actions": []}],
  "versionHistory": [{"version": "1.0.1", "previousVersion": "1.0.0", "author": "A", "changeType": "patch"}]
}`)
	p, err := Decode(data, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "Migration", p.Title)
	assert.Nil(t, p.LogoData)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, "1.0.1", p.VersionHistory[0].Version)
}

func TestDecodeYAML(t *testing.T) {
	data := []byte("title: Migration\nprerequisites:\n  tools:\n    - Clé USB\n")
	p, err := Decode(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"Clé USB"}, p.Prerequisites.Tools)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]struct {
		data string
		f    Format
	}{
		"broken json":        {`{"title": `, FormatJSON},
		"array":              {`[1, 2]`, FormatJSON},
		"null":               {`null`, FormatJSON},
		"wrong type":         {`{"steps": "many"}`, FormatJSON},
		"bad version":        {`{"versionHistory": [{"version": "next"}]}`, FormatJSON},
		"history going back": {`{"versionHistory": [{"version": "3.0.0"}, {"version": "1.0.1"}]}`, FormatJSON},
		"history repeating":  {`{"versionHistory": [{"version": "1.0.1"}, {"version": "1.0.1"}]}`, FormatJSON},
		"broken chain": {`{"versionHistory": [
			{"version": "1.0.1", "previousVersion": "1.0.0"},
			{"version": "1.1.0", "previousVersion": "1.0.0"}]}`, FormatJSON},
		"yaml scalar": {"just text", FormatYAML},
		"empty yaml":  {"", FormatYAML},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data), tc.f)
			assert.ErrorIs(t, err, apperr.ErrInvalidImport)
		})
	}
}

func TestDecodeAcceptsOrderedHistory(t *testing.T) {
	data := []byte(`{"versionHistory": [
  {"version": "1.0.1", "previousVersion": "1.0.0"},
  {"version": "2.0.0", "previousVersion": "1.0.1"},
  {"version": "2.0.1"}
]}`)
	p, err := Decode(data, FormatJSON)
	require.NoError(t, err)
	assert.Len(t, p.VersionHistory, 3)
}

func TestEncodeDecodeExample(t *testing.T) {
	out, err := Encode(Example())
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  \"title\": ")

	p, err := Decode(out, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, Example(), p)

	y, err := EncodeYAML(Example())
	require.NoError(t, err)
	p, err = Decode(y, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, Example().Steps, p.Steps)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, DetectFormat("a.JSON", nil))
	assert.Equal(t, FormatYAML, DetectFormat("a.yml", nil))
	assert.Equal(t, FormatJSON, DetectFormat("upload", []byte("  {\"title\":1}")))
	assert.Equal(t, FormatYAML, DetectFormat("upload", []byte("title: x")))
}
