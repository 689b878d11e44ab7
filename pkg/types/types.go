// Package types holds the shared data model for stowaway: the entries the
// discovery engine plans, the per-entry outcomes the linker records, and the
// filesystem interface every mutating component is written against.
package types

import (
	"io/fs"
	"time"
)

// SourceEntry is one unit the engine will link. RelativePath is the name the
// link will have under the target root; for entries produced by second-level
// expansion it carries one extra segment (e.g. ".config/nvim") and IsExpanded
// is set, which controls empty-parent cleanup during unstow.
type SourceEntry struct {
	SourcePath   string
	RelativePath string
	IsExpanded   bool
}

// LinkOutcome classifies what happened to a single SourceEntry.
type LinkOutcome int

const (
	OutcomeCreated LinkOutcome = iota
	OutcomeAlreadyCorrect
	OutcomeConflictSkipped
	OutcomeConflictReplaced
	OutcomeConflictBackedUp
	OutcomeCircularRejected
	OutcomeRemoved
	OutcomeRestored
	OutcomeNotFound
	OutcomeNotOwned
	OutcomeError
)

func (o LinkOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAlreadyCorrect:
		return "already-correct"
	case OutcomeConflictSkipped:
		return "skipped"
	case OutcomeConflictReplaced:
		return "replaced"
	case OutcomeConflictBackedUp:
		return "backed-up"
	case OutcomeCircularRejected:
		return "circular-rejected"
	case OutcomeRemoved:
		return "removed"
	case OutcomeRestored:
		return "restored"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeNotOwned:
		return "not-owned"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// RunSummary tallies outcomes for one invocation. It is purely derived state:
// per-file resolutions are logged, only the counts survive the run.
type RunSummary struct {
	Created         int
	AlreadyCorrect  int
	Skipped         int
	Replaced        int
	BackedUp        int
	CircularRejects int
	Removed         int
	Restored        int
	NotFound        int
	NotOwned        int
	Errors          int
}

// Record increments the counter for one outcome.
func (s *RunSummary) Record(o LinkOutcome) {
	switch o {
	case OutcomeCreated:
		s.Created++
	case OutcomeAlreadyCorrect:
		s.AlreadyCorrect++
	case OutcomeConflictSkipped:
		s.Skipped++
	case OutcomeConflictReplaced:
		s.Replaced++
	case OutcomeConflictBackedUp:
		s.BackedUp++
	case OutcomeCircularRejected:
		s.CircularRejects++
	case OutcomeRemoved:
		s.Removed++
	case OutcomeRestored:
		s.Restored++
	case OutcomeNotFound:
		s.NotFound++
	case OutcomeNotOwned:
		s.NotOwned++
	case OutcomeError:
		s.Errors++
	}
}

// ExitCode is 0 iff no per-entry errors were recorded.
func (s *RunSummary) ExitCode() int {
	if s.Errors > 0 {
		return 1
	}
	return 0
}

// FS is the filesystem surface stowaway mutates through. Injecting it keeps
// the engine testable and lets dry-run swap in a mutation-swallowing
// implementation.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)

	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
	RemoveAll(path string) error
	Chtimes(name string, atime, mtime time.Time) error
}
