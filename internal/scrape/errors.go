// Package scrape contains the core crawl logic for the squad harvester:
// the crawl cursor state machine, the staleness gate, the record assembler,
// and the token-stream table builder. It consumes the browser and store
// collaborators through narrow interfaces and never touches markup itself.
package scrape

import (
	"errors"
	"fmt"
)

// NotFoundError reports that an expected element, section, or record was
// absent. Callers recover locally with a sentinel value; it never aborts a
// player.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.What)
}

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// MalformedTableError reports a token stream that violates the table
// ordering invariant, such as a cell appearing before any row marker.
type MalformedTableError struct {
	Message string
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("malformed table: %s", e.Message)
}

// FatalCrawlError reports a failure the crawl cannot recover from: totals
// that cannot be parsed, a page listing failure, or a failed page
// transition. It aborts the whole run.
type FatalCrawlError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *FatalCrawlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fatal crawl error during %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("fatal crawl error during %s: %s", e.Stage, e.Message)
}

func (e *FatalCrawlError) Unwrap() error {
	return e.Cause
}

// PersistenceConflictError reports a write target that already exists when
// none was expected. It is surfaced rather than silently overwritten.
type PersistenceConflictError struct {
	Path string
}

func (e *PersistenceConflictError) Error() string {
	return fmt.Sprintf("persistence conflict: %s already exists", e.Path)
}
