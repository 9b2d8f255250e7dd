package session

import (
	"fmt"
	"mime"
	"strings"

	"github.com/starford/procforge/internal/apperr"
	"github.com/starford/procforge/internal/models"
)

// LogoPolicy bounds accepted logo uploads.
type LogoPolicy struct {
	MaxBytes     int64
	AllowedTypes []string
}

// DefaultLogoPolicy accepts JPEG, PNG and SVG images up to 2 MiB.
func DefaultLogoPolicy() LogoPolicy {
	return LogoPolicy{
		MaxBytes:     2 << 20,
		AllowedTypes: []string{"image/jpeg", "image/jpg", "image/png", "image/svg+xml"},
	}
}

// Check validates an upload against the policy and returns the normalised
// media type.
func (p LogoPolicy) Check(mimeType string, size int64) (string, error) {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(mimeType))
	}
	allowed := false
	for _, a := range p.AllowedTypes {
		if strings.EqualFold(a, mt) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("%w: %s", apperr.ErrUnsupportedImage, mimeType)
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", apperr.ErrImageTooLarge, size, p.MaxBytes)
	}
	return mt, nil
}

// LogoPolicy returns the active upload policy.
func (s *Session) LogoPolicy() LogoPolicy {
	return s.logo
}

// SetLogo validates and stores a logo. A rejected image leaves the current
// logo in place.
func (s *Session) SetLogo(data []byte, mimeType string) error {
	mt, err := s.logo.Check(mimeType, int64(len(data)))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tree.SetLogo(models.Logo{MIMEType: mt, Data: data})
	s.mu.Unlock()
	s.notify(ChangeLogo, mt)
	return nil
}

// ClearLogo removes the logo.
func (s *Session) ClearLogo() {
	s.mu.Lock()
	s.tree.ClearLogo()
	s.mu.Unlock()
	s.notify(ChangeLogo, "")
}
