package storage

import (
	"errors"
	"testing"
	"time"
)

func TestMemory_LogOnlyIncludesCommitsTouchingPath(t *testing.T) {
	m := NewMemory()

	commit := func(path, content, message string) string {
		t.Helper()
		if err := m.Stage(path, []byte(content)); err != nil {
			t.Fatalf("Stage() error = %v", err)
		}
		id, err := m.Commit(message, Author{Name: "tester"})
		if err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
		return id
	}

	first := commit("A.markdown", "a", "Created A")
	commit("B.markdown", "b", "Created B")
	third := commit("A.markdown", "aa", "Edited A")

	history, err := m.Log("HEAD", "A.markdown")
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if len(history) != 2 || history[0].ID != third || history[1].ID != first {
		t.Fatalf("Log() = %v, want [%s %s]", history, third, first)
	}

	if m.Commits() != 3 {
		t.Errorf("Commits() = %d, want 3", m.Commits())
	}
}

func TestMemory_Resolve(t *testing.T) {
	m := NewMemory()
	m.now = func() time.Time { return time.Unix(1000, 0) }

	if _, err := m.Blob("A.markdown", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Blob() on empty store error = %v, want ErrNotFound", err)
	}

	if err := m.Stage("A.markdown", []byte("hello")); err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	id, err := m.Commit("Created A", Author{Name: "tester"})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	tests := []struct {
		name     string
		revision string
		wantErr  bool
	}{
		{"head", "HEAD", false},
		{"empty means head", "", false},
		{"full id", id, false},
		{"prefix", id[:ShortIDLength], false},
		{"too short", id[:3], true},
		{"unknown", "nonexistent", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := m.Blob("A.markdown", tt.revision)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Blob() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("Blob() error = %v, want ErrNotFound", err)
				}
				return
			}
			if string(blob.Content) != "hello" || blob.Revision != id {
				t.Errorf("Blob() = %q@%s, want %q@%s", blob.Content, blob.Revision, "hello", id)
			}
			if blob.Hash != "b6fc4c620b67d95f953a5c1c1230aaab5db5a1b0" {
				t.Errorf("Blob() hash = %s, want git blob hash of content", blob.Hash)
			}
		})
	}
}

func TestMemory_TreeIsSortedAndTopLevel(t *testing.T) {
	m := NewMemory()
	for _, p := range []string{"Zulu.markdown", "Alpha.markdown", "nested/Page.markdown"} {
		if err := m.Stage(p, []byte(p)); err != nil {
			t.Fatalf("Stage() error = %v", err)
		}
	}
	if _, err := m.Commit("seed", Author{Name: "tester"}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	entries, err := m.Tree("HEAD")
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Path != "Alpha.markdown" || entries[1].Path != "Zulu.markdown" {
		t.Errorf("Tree() = %v, want Alpha then Zulu", entries)
	}
}
