package roadmap

import (
	"errors"
	"os"
	"testing"
)

func TestFileStore_InitAndLoad(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore()

	if store.Exists(root) {
		t.Fatal("Exists = true before Init")
	}
	if err := store.Init(root, NewDocument()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !store.Exists(root) {
		t.Fatal("Exists = false after Init")
	}

	doc, err := store.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Version != FormatVersion {
		t.Errorf("Version = %d, want %d", doc.Version, FormatVersion)
	}
}

func TestFileStore_InitTwiceFails(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore()
	if err := store.Init(root, NewDocument()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := store.Init(root, NewDocument()); !errors.Is(err, ErrValidation) {
		t.Errorf("second Init err = %v, want ErrValidation", err)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore()
	if _, err := store.Load(t.TempDir()); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFileStore_SaveRejectsInvalid(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore()
	if err := store.Init(root, NewDocument()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	doc := NewDocument()
	doc.ActivePhase = "0099" // dangling pointer
	if err := store.Save(root, doc); !errors.Is(err, ErrValidation) {
		t.Fatalf("Save err = %v, want ErrValidation", err)
	}

	// The document on disk must be untouched.
	got, err := store.Load(root)
	if err != nil {
		t.Fatalf("Load after failed Save: %v", err)
	}
	if got.ActivePhase != "" {
		t.Errorf("ActivePhase on disk = %q, want empty", got.ActivePhase)
	}
}

func TestFileStore_SaveLeavesNoTempFile(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore()
	if err := store.Init(root, NewDocument()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := os.Stat(DocumentPath(root) + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind after Save: %v", err)
	}
}

func TestFileStore_SaveSetsUpdatedAt(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore()
	doc := NewDocument()
	doc.UpdatedAt = "2020-01-01T00:00:00Z"
	if err := store.Init(root, doc); err != nil {
		t.Fatalf("Init: %v", err)
	}
	got, err := store.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.UpdatedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("UpdatedAt = %s, want frozen test time", got.UpdatedAt)
	}
}
