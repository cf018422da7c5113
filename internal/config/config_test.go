package config

import (
	"errors"
	"testing"
	"time"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

func init() {
	// Freeze time for deterministic tests.
	timeNow = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
}

func TestNewSettings_Defaults(t *testing.T) {
	s := NewSettings("demo")
	if s.Project != "demo" {
		t.Errorf("Project = %q, want demo", s.Project)
	}
	if s.Version != "0.1.0" {
		t.Errorf("Version = %q, want 0.1.0", s.Version)
	}
	if s.CreatedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("CreatedAt = %q", s.CreatedAt)
	}
	if got := s.LockStaleAfter(); got != DefaultLockStaleAfter {
		t.Errorf("LockStaleAfter = %v, want %v", got, DefaultLockStaleAfter)
	}
}

func TestLockStaleAfter_Configured(t *testing.T) {
	s := &Settings{LockStaleAfterSeconds: 30}
	if got := s.LockStaleAfter(); got != 30*time.Second {
		t.Errorf("LockStaleAfter = %v, want 30s", got)
	}
}

func TestLockStaleAfter_ZeroFallsBack(t *testing.T) {
	s := &Settings{}
	if got := s.LockStaleAfter(); got != DefaultLockStaleAfter {
		t.Errorf("LockStaleAfter = %v, want default", got)
	}
}

func TestLockOwner_ExplicitWins(t *testing.T) {
	s := &Settings{Owner: "ci-bot"}
	if got := s.LockOwner(); got != "ci-bot" {
		t.Errorf("LockOwner = %q, want ci-bot", got)
	}
}

func TestLockOwner_DefaultNonEmpty(t *testing.T) {
	s := &Settings{}
	if got := s.LockOwner(); got == "" {
		t.Error("LockOwner returned empty string")
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore()

	if store.Exists(root) {
		t.Fatal("Exists = true before Save")
	}
	if err := store.Save(root, NewSettings("demo")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.Exists(root) {
		t.Fatal("Exists = false after Save")
	}

	got, err := store.Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Project != "demo" {
		t.Errorf("Project = %q, want demo", got.Project)
	}
	if got.LockStaleAfterSeconds != 600 {
		t.Errorf("LockStaleAfterSeconds = %d, want 600", got.LockStaleAfterSeconds)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore()
	if _, err := store.Load(t.TempDir()); !errors.Is(err, roadmap.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
