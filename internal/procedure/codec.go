package procedure

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/procforge/internal/apperr"
	"github.com/starford/procforge/internal/models"
)

// Format is a serialization of a procedure file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat guesses the format from a file name, falling back to the
// first non-blank byte of the content.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("format %q: %w", s, apperr.ErrValidation)
}

// Decode parses a procedure file. Any failure is reported as
// apperr.ErrInvalidImport.
func Decode(data []byte, f Format) (models.Procedure, error) {
	var raw map[string]any
	var p models.Procedure
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return models.Procedure{}, fmt.Errorf("%w: %v", apperr.ErrInvalidImport, err)
		}
		if raw != nil {
			if err := yaml.Unmarshal(data, &p); err != nil {
				return models.Procedure{}, fmt.Errorf("%w: %v", apperr.ErrInvalidImport, err)
			}
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return models.Procedure{}, fmt.Errorf("%w: %v", apperr.ErrInvalidImport, err)
		}
		if raw != nil {
			if err := json.Unmarshal(data, &p); err != nil {
				return models.Procedure{}, fmt.Errorf("%w: %v", apperr.ErrInvalidImport, err)
			}
		}
	}
	if raw == nil {
		return models.Procedure{}, fmt.Errorf("%w: document is not an object", apperr.ErrInvalidImport)
	}
	if err := validateHistory(p.VersionHistory); err != nil {
		return models.Procedure{}, fmt.Errorf("%w: %v", apperr.ErrInvalidImport, err)
	}
	return p, nil
}

// Encode renders a procedure as indented JSON.
func Encode(p models.Procedure) ([]byte, error) {
	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode procedure: %w", err)
	}
	return out, nil
}

// EncodeYAML renders a procedure as YAML.
func EncodeYAML(p models.Procedure) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode procedure: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode procedure: %w", err)
	}
	return buf.Bytes(), nil
}

var semverRule = validation.By(func(v any) error {
	s, _ := v.(string)
	if _, err := models.ParseSemVer(s); err != nil {
		return errors.New("must be a version such as 1.2.0")
	}
	return nil
})

// followsRule checks that a version is strictly greater than prev.
func followsRule(prev models.SemVer) validation.Rule {
	return validation.By(func(v any) error {
		s, _ := v.(string)
		cur, err := models.ParseSemVer(s)
		if err != nil {
			return nil
		}
		if prev.Compare(cur) >= 0 {
			return fmt.Errorf("must be greater than %s", prev)
		}
		return nil
	})
}

// validateHistory checks that every entry carries a version, that versions
// strictly increase and that a non-empty previousVersion names the entry
// before it.
func validateHistory(history []models.Entry) error {
	for i := range history {
		e := &history[i]
		versionRules := []validation.Rule{validation.Required, semverRule}
		var prevRules []validation.Rule
		if i > 0 {
			prev, _ := models.ParseSemVer(history[i-1].Version)
			versionRules = append(versionRules, followsRule(prev))
			prevRules = append(prevRules, validation.In(history[i-1].Version).Error("must be "+history[i-1].Version))
		}
		if err := validation.ValidateStruct(e,
			validation.Field(&e.Version, versionRules...),
			validation.Field(&e.PreviousVersion, prevRules...),
		); err != nil {
			return fmt.Errorf("versionHistory[%d]: %w", i, err)
		}
	}
	return nil
}
