package roadmap

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the engine. Every operation surfaces
// failures through one of these so callers can branch with errors.Is
// without string matching.
var (
	ErrParse              = errors.New("malformed roadmap document")
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrValidation         = errors.New("validation failed")
	ErrLockHeld           = errors.New("roadmap lock held")
	ErrStaleLock          = errors.New("roadmap lock is stale")
)

// ParseError reports a malformed persisted document with the offending
// location. It is non-fatal to the store — the file on disk is left
// untouched — but fatal to the current operation.
type ParseError struct {
	Line    int    // 1-based line in roadmap.md, 0 if unknown
	Section string // e.g. "phase 0020", "backlog", "frontmatter"
	Msg     string
}

func (e *ParseError) Error() string {
	loc := "roadmap.md"
	if e.Line > 0 {
		loc = fmt.Sprintf("roadmap.md:%d", e.Line)
	}
	if e.Section != "" {
		return fmt.Sprintf("%s: in %s: %s", loc, e.Section, e.Msg)
	}
	return fmt.Sprintf("%s: %s", loc, e.Msg)
}

// Is makes ParseError match ErrParse under errors.Is.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func parseErrorf(line int, section, format string, args ...any) error {
	return &ParseError{Line: line, Section: section, Msg: fmt.Sprintf(format, args...)}
}
