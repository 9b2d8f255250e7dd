package procedure

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/starford/procforge/internal/apperr"
	"github.com/starford/procforge/internal/models"
)

// SetLogo replaces the logo. The image is kept as a data URI, which is also
// its serialized form.
func (t *Tree) SetLogo(l models.Logo) {
	uri := EncodeDataURI(l)
	t.logo = &uri
}

// ClearLogo removes the logo.
func (t *Tree) ClearLogo() {
	t.logo = nil
}

// Logo returns the decoded logo, if one is set and decodable.
func (t *Tree) Logo() (models.Logo, bool) {
	if t.logo == nil {
		return models.Logo{}, false
	}
	l, err := DecodeDataURI(*t.logo)
	if err != nil {
		return models.Logo{}, false
	}
	return l, true
}

// EncodeDataURI renders a logo as data:<mime>;base64,<data>.
func EncodeDataURI(l models.Logo) string {
	return "data:" + l.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(l.Data)
}

// DecodeDataURI parses a data:[<mediatype>][;base64],<data> URI.
func DecodeDataURI(uri string) (models.Logo, error) {
	if !strings.HasPrefix(uri, "data:") {
		return models.Logo{}, fmt.Errorf("logo: not a data URI: %w", apperr.ErrInvalidImport)
	}
	rest := strings.TrimPrefix(uri, "data:")
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return models.Logo{}, fmt.Errorf("logo: missing comma separator: %w", apperr.ErrInvalidImport)
	}
	meta, encoded := rest[:comma], rest[comma+1:]
	if !strings.Contains(meta, ";base64") {
		return models.Logo{}, fmt.Errorf("logo: only base64 data URIs are supported: %w", apperr.ErrInvalidImport)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return models.Logo{}, fmt.Errorf("logo: invalid base64 data: %w", apperr.ErrInvalidImport)
		}
	}
	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	return models.Logo{MIMEType: mime, Data: data}, nil
}
