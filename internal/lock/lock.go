// Package lock serializes mutating roadmap operations across process
// invocations.
//
// The lock is a small JSON file next to the roadmap document. Creating
// it with O_EXCL is the acquisition; the content records who holds it
// and since when, so a contending process can distinguish a live holder
// from a stale lock left behind by a crash and report both usefully.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HendryAvila/waypoint/internal/roadmap"
)

// File is the lock filename inside the waypoint/ directory.
const File = "roadmap.lock"

// DefaultStaleAfter is how old a lock may be before an acquisition
// attempt reports it stale instead of held.
const DefaultStaleAfter = 10 * time.Minute

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Holder identifies the owner of an acquired lock.
type Holder struct {
	Owner      string `json:"owner"`
	PID        int    `json:"pid"`
	AcquiredAt string `json:"acquired_at"`
}

// Lock is an acquired exclusive lock on a project's roadmap state.
type Lock struct {
	path     string
	released bool
}

// Path returns the absolute path of the lock file for a project.
func Path(projectRoot string) string {
	return filepath.Join(roadmap.DirPath(projectRoot), File)
}

// Acquire takes the exclusive lock for the given owner. If the lock is
// already held it fails immediately: with roadmap.ErrStaleLock when the
// holder's acquisition timestamp is older than staleAfter (the caller
// may then ForceClear and retry), otherwise with roadmap.ErrLockHeld.
// There is no blocking mode — transactions are short, and the calling
// driver decides whether to retry.
func Acquire(projectRoot, owner string, staleAfter time.Duration) (*Lock, error) {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	path := Path(projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating waypoint directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("creating lock file: %w", err)
		}
		return nil, describeContention(path, staleAfter)
	}

	holder := Holder{
		Owner:      owner,
		PID:        os.Getpid(),
		AcquiredAt: timeNow().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(holder, "", "  ")
	if err == nil {
		_, err = f.Write(data)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing lock file: %w", err)
	}
	return &Lock{path: path}, nil
}

// describeContention reads the existing lock file and classifies the
// failure as held or stale.
func describeContention(path string, staleAfter time.Duration) error {
	holder, err := readHolder(path)
	if err != nil {
		// Unreadable or vanished mid-race: report held, the caller
		// can simply retry.
		return fmt.Errorf("%w: lock file %s is unreadable: %v", roadmap.ErrLockHeld, path, err)
	}
	acquired, err := time.Parse(time.RFC3339, holder.AcquiredAt)
	if err == nil && timeNow().UTC().Sub(acquired) > staleAfter {
		return fmt.Errorf("%w: held by %s (pid %d) since %s; force-clear it if the holder is gone",
			roadmap.ErrStaleLock, holder.Owner, holder.PID, holder.AcquiredAt)
	}
	return fmt.Errorf("%w: held by %s (pid %d) since %s",
		roadmap.ErrLockHeld, holder.Owner, holder.PID, holder.AcquiredAt)
}

func readHolder(path string) (*Holder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var h Holder
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Release removes the lock file. Safe to call twice.
func (l *Lock) Release() error {
	if l.released {
		return nil
	}
	l.released = true
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// Inspect returns the current lock holder, or nil if the lock is free.
func Inspect(projectRoot string) (*Holder, error) {
	h, err := readHolder(Path(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	return h, nil
}

// ForceClear removes the lock regardless of holder. Intended for
// recovering from a stale lock after the caller has confirmed the
// holding process is gone.
func ForceClear(projectRoot string) error {
	if err := os.Remove(Path(projectRoot)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing lock file: %w", err)
	}
	return nil
}

// WithLock runs fn while holding the exclusive lock, always releasing
// it afterwards. Every mutating engine operation goes through here.
func WithLock(projectRoot, owner string, staleAfter time.Duration, fn func() error) error {
	l, err := Acquire(projectRoot, owner, staleAfter)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn()
}
