package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func write(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "procforge")
	var s sample
	if err := Load(write(t, "name: ${SAMPLE_NAME}\nport: 80\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "procforge" || s.Port != 80 {
		t.Errorf("got %+v", s)
	}
}

func TestLoadRunsValidator(t *testing.T) {
	var s sample
	if err := Load(write(t, "name: x\nport: 0\n"), &s); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	def := write(t, "name: fallback\nport: 1\n")
	var s sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), def, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "fallback" {
		t.Errorf("name = %q", s.Name)
	}

	err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), "", &s)
	if !IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}
