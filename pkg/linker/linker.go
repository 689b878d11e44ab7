// Package linker performs the per-entry work of a run: conflict
// classification, circular-link rejection, link creation, and the symmetric
// unstow removal with backup restoration. Each entry gets exactly one
// outcome; failures are recorded and never abort the run.
package linker

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/stowaway/pkg/backup"
	"github.com/arthur-debert/stowaway/pkg/config"
	"github.com/arthur-debert/stowaway/pkg/errors"
	"github.com/arthur-debert/stowaway/pkg/logging"
	"github.com/arthur-debert/stowaway/pkg/paths"
	"github.com/arthur-debert/stowaway/pkg/types"
)

// Linker applies the stow or unstow operation to planned entries.
type Linker struct {
	fs     types.FS
	opts   config.Options
	logger zerolog.Logger

	// now is swappable for backup-collision tests.
	now func() time.Time
}

// New creates a Linker operating through the given filesystem.
func New(fsys types.FS, opts config.Options) *Linker {
	return &Linker{
		fs:     fsys,
		opts:   opts,
		logger: logging.GetLogger("linker"),
		now:    time.Now,
	}
}

func (l *Linker) linkPath(entry types.SourceEntry) string {
	return filepath.Join(l.opts.TargetDir, entry.RelativePath)
}

// Stow ensures the target link for entry exists, resolving any conflict per
// the force/backup configuration. The recorded outcome is returned.
func (l *Linker) Stow(entry types.SourceEntry, summary *types.RunSummary) types.LinkOutcome {
	outcome := l.stow(entry)
	summary.Record(outcome)
	l.logger.Info().
		Str("rel", entry.RelativePath).
		Str("outcome", outcome.String()).
		Msg("Stow entry processed")
	return outcome
}

func (l *Linker) stow(entry types.SourceEntry) types.LinkOutcome {
	link := l.linkPath(entry)

	kind, err := paths.Classify(l.fs, link)
	if err != nil {
		l.logger.Error().Err(err).Str("path", link).Msg("Failed to classify target path")
		return types.OutcomeError
	}

	if kind == paths.KindSymlink && paths.SameResolved(link, entry.SourcePath) {
		return types.OutcomeAlreadyCorrect
	}

	// Circular rejection precedes any mutation, so a forced run can never
	// remove an entry only to discover the replacement would loop.
	if l.isCircular(entry, link) {
		l.logger.Warn().
			Err(errors.Newf(errors.ErrCircularLink, "linking %s at %s would loop", entry.SourcePath, link)).
			Str("source", entry.SourcePath).
			Str("link", link).
			Msg("Rejected circular link")
		return types.OutcomeCircularRejected
	}

	switch {
	case kind == paths.KindAbsent:
		return l.create(entry, link, types.OutcomeCreated)

	case l.opts.Force:
		if err := l.fs.RemoveAll(link); err != nil {
			l.logger.Error().Err(err).Str("path", link).Msg("Failed to remove conflicting entry")
			return types.OutcomeError
		}
		return l.create(entry, link, types.OutcomeConflictReplaced)

	case l.opts.Backup:
		if _, err := backup.Create(l.fs, link, l.now()); err != nil {
			l.logger.Error().Err(err).Str("path", link).Msg("Failed to back up conflicting entry")
			return types.OutcomeError
		}
		return l.create(entry, link, types.OutcomeConflictBackedUp)

	default:
		l.logger.Warn().Str("path", link).Str("kind", kind.String()).Msg("Conflict, skipping (use --force or --backup)")
		return types.OutcomeConflictSkipped
	}
}

// create ensures the parent directory and places the symlink. success is
// the outcome to report when everything lands.
func (l *Linker) create(entry types.SourceEntry, link string, success types.LinkOutcome) types.LinkOutcome {
	parent := filepath.Dir(link)
	if err := l.fs.MkdirAll(parent, 0755); err != nil {
		err = errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", parent)
		l.logger.Error().Err(err).Str("path", parent).Msg("Failed to create parent directory")
		return types.OutcomeError
	}

	if err := l.fs.Symlink(entry.SourcePath, link); err != nil {
		err = errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to link %s", link)
		l.logger.Error().Err(err).Str("link", link).Msg("Failed to create symlink")
		return types.OutcomeError
	}
	return success
}

// isCircular rejects links that would resolve back onto themselves: the
// source being the link's own parent directory, or the source resolving to
// the link path (an existing chain that would close into a loop). Runs
// before any mutation so a rejected entry leaves no partial state.
func (l *Linker) isCircular(entry types.SourceEntry, link string) bool {
	if paths.SameResolved(entry.SourcePath, filepath.Dir(link)) {
		return true
	}
	if resolved, err := paths.Resolve(entry.SourcePath); err == nil {
		if abs, err := filepath.Abs(link); err == nil && resolved == abs {
			return true
		}
	}
	return false
}

// Unstow removes the entry's link when stowaway owns it, restores the most
// recent backup, and prunes an emptied expansion parent. Entries that are
// not stowaway's symlink are left untouched.
func (l *Linker) Unstow(entry types.SourceEntry, summary *types.RunSummary) types.LinkOutcome {
	outcome := l.unstow(entry, summary)
	summary.Record(outcome)
	l.logger.Info().
		Str("rel", entry.RelativePath).
		Str("outcome", outcome.String()).
		Msg("Unstow entry processed")
	return outcome
}

func (l *Linker) unstow(entry types.SourceEntry, summary *types.RunSummary) types.LinkOutcome {
	link := l.linkPath(entry)

	kind, err := paths.Classify(l.fs, link)
	if err != nil {
		l.logger.Error().Err(err).Str("path", link).Msg("Failed to classify target path")
		return types.OutcomeError
	}

	switch {
	case kind == paths.KindAbsent:
		return types.OutcomeNotFound

	case kind != paths.KindSymlink || !paths.SameResolved(link, entry.SourcePath):
		// Not ours. Unstow never touches entries it did not create.
		l.logger.Debug().Str("path", link).Str("kind", kind.String()).Msg("Not a stowaway link, leaving in place")
		return types.OutcomeNotOwned
	}

	if err := l.fs.Remove(link); err != nil {
		err = errors.Wrapf(err, errors.ErrSymlinkRemove, "failed to remove %s", link)
		l.logger.Error().Err(err).Str("path", link).Msg("Failed to remove symlink")
		return types.OutcomeError
	}

	if l.opts.DryRun {
		// The link removal above was a no-op, so a real restore would
		// refuse the occupied path. Report what would happen instead.
		if backupPath, err := backup.Latest(l.fs, link); err == nil && backupPath != "" {
			l.logger.Info().Str("backup", backupPath).Str("path", link).Msg("Would restore backup")
			summary.Record(types.OutcomeRestored)
		}
	} else {
		restored, err := backup.Restore(l.fs, link)
		if err != nil {
			l.logger.Error().Err(err).Str("path", link).Msg("Failed to restore backup")
			summary.Record(types.OutcomeError)
		} else if restored {
			summary.Record(types.OutcomeRestored)
		}
	}

	if entry.IsExpanded {
		l.pruneEmptyParent(filepath.Dir(link))
	}

	return types.OutcomeRemoved
}

// pruneEmptyParent removes a second-level expansion parent once its last
// child is gone. Best effort: failure is logged, never fatal.
func (l *Linker) pruneEmptyParent(parent string) {
	children, err := l.fs.ReadDir(parent)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Debug().Err(err).Str("path", parent).Msg("Could not inspect expansion parent")
		}
		return
	}
	if len(children) > 0 {
		return
	}
	if err := l.fs.Remove(parent); err != nil {
		l.logger.Debug().Err(err).Str("path", parent).Msg("Could not remove empty expansion parent")
		return
	}
	l.logger.Info().Str("path", parent).Msg("Removed empty expansion parent")
}
