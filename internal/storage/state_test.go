package storage

import (
	"errors"
	"os"
	"reflect"
	"testing"
)

type sample struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
	Inner struct {
		N int `json:"n"`
	} `json:"inner"`
}

func stores(t *testing.T) map[string]StateStore {
	t.Helper()
	return map[string]StateStore{
		"file":   NewFileState(tempWorkspace(t)),
		"memory": NewMemory(),
	}
}

func TestStateRoundTrip(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			in := sample{Name: "x", Items: []string{"a", "b"}}
			in.Inner.N = 3
			if err := SaveJSON(st, KeyAutosave, in); err != nil {
				t.Fatalf("SaveJSON: %v", err)
			}
			var out sample
			if err := LoadJSON(st, KeyAutosave, &out); err != nil {
				t.Fatalf("LoadJSON: %v", err)
			}
			if !reflect.DeepEqual(in, out) {
				t.Errorf("round trip mismatch: %+v != %+v", in, out)
			}
		})
	}
}

func TestStateMissingKey(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.LoadState(KeyVersionHistory)
			if !errors.Is(err, os.ErrNotExist) {
				t.Errorf("expected ErrNotExist, got %v", err)
			}
			if err := st.DeleteState(KeyVersionHistory); err != nil {
				t.Errorf("delete missing key: %v", err)
			}
		})
	}
}

func TestStateCorruptValue(t *testing.T) {
	st := NewMemory()
	_ = st.SaveState(KeyAutosave, []byte("{not json"))
	var out sample
	if err := LoadJSON(st, KeyAutosave, &out); err == nil {
		t.Error("expected decode error")
	}
}

func TestFileStateRejectsBadKeys(t *testing.T) {
	st := NewFileState(tempWorkspace(t))
	if err := st.SaveState("../escape", []byte("x")); err == nil {
		t.Error("expected error for traversal key")
	}
}
