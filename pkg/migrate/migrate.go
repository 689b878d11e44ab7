// Package migrate absorbs files that already live under the target root
// into the source tree, so a later stow in the same run links them back.
// The transfer is copy-then-delete, preserves modes and mtimes, never
// overwrites anything already in the source, and is all-or-nothing: a
// failed transfer aborts the whole migration, because a half-moved tree
// silently loses the mapping between target and source.
package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/stowaway/pkg/config"
	"github.com/arthur-debert/stowaway/pkg/errors"
	"github.com/arthur-debert/stowaway/pkg/ignore"
	"github.com/arthur-debert/stowaway/pkg/logging"
	"github.com/arthur-debert/stowaway/pkg/types"
)

// Report summarizes one migration pass.
type Report struct {
	Moved           int
	SkippedExisting int
	SkippedSymlinks int
	Bytes           uint64
}

// HumanBytes renders the moved byte total for display.
func (r Report) HumanBytes() string {
	return humanize.Bytes(r.Bytes)
}

// Importer moves target-root files into the source tree.
type Importer struct {
	fs     types.FS
	opts   config.Options
	rules  *ignore.Set
	logger zerolog.Logger
}

// New creates an Importer honoring the run's dotfiles-only and ignore
// configuration.
func New(fsys types.FS, opts config.Options, rules *ignore.Set) *Importer {
	return &Importer{
		fs:     fsys,
		opts:   opts,
		rules:  rules,
		logger: logging.GetLogger("migrate"),
	}
}

// Run migrates every eligible immediate child of the target root. The first
// transfer failure aborts with ErrMigrationFailed.
func (m *Importer) Run() (*Report, error) {
	report := &Report{}

	children, err := m.fs.ReadDir(m.opts.TargetDir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrMigrationFailed, "failed to read target root %s", m.opts.TargetDir)
	}

	for _, child := range children {
		name := child.Name()

		if m.opts.DotfilesOnly && !strings.HasPrefix(name, ".") {
			continue
		}
		if m.rules.Match(name) {
			continue
		}

		src := filepath.Join(m.opts.TargetDir, name)
		dst := filepath.Join(m.opts.SourceDir, name)

		info, err := m.fs.Lstat(src)
		if err != nil {
			return report, errors.Wrapf(err, errors.ErrMigrationFailed, "failed to inspect %s", src)
		}

		// Symlinks are not migrated. Links into the source tree are
		// already managed; foreign links are not ours to move.
		if info.Mode()&fs.ModeSymlink != 0 {
			report.SkippedSymlinks++
			m.logger.Debug().Str("path", src).Msg("Skipped symlink")
			continue
		}

		// An occupied destination blocks the move, except when both
		// sides are directories: those merge, skipping per file.
		dstInfo, dstErr := m.fs.Lstat(dst)
		if dstErr == nil && !(info.IsDir() && dstInfo.IsDir()) {
			report.SkippedExisting++
			m.logger.Info().Str("path", dst).Msg("Destination exists in source, skipped")
			continue
		}
		if dstErr != nil && !os.IsNotExist(dstErr) {
			return report, errors.Wrapf(dstErr, errors.ErrMigrationFailed, "failed to inspect %s", dst)
		}

		moved, err := m.transfer(src, dst, report)
		if err != nil {
			return report, errors.Wrapf(err, errors.ErrMigrationFailed, "failed to migrate %s", src)
		}
		report.Moved++
		report.Bytes += moved
		m.logger.Info().
			Str("from", src).
			Str("to", dst).
			Str("size", humanize.Bytes(moved)).
			Msg("Migrated into source tree")
	}

	m.logger.Info().
		Int("moved", report.Moved).
		Int("skippedExisting", report.SkippedExisting).
		Int("skippedSymlinks", report.SkippedSymlinks).
		Str("bytes", report.HumanBytes()).
		Msg("Migration complete")
	return report, nil
}

// transfer copies src (file or directory tree) to dst, preserving mode and
// mtime. Each file is deleted only after its own copy succeeds, so a
// skipped destination always leaves the original in place; directories
// emptied by the move are pruned.
func (m *Importer) transfer(src, dst string, report *Report) (uint64, error) {
	info, err := m.fs.Lstat(src)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return m.copyDir(src, dst, info, report)
	}
	return m.copyFile(src, dst, info)
}

func (m *Importer) copyDir(src, dst string, info fs.FileInfo, report *Report) (uint64, error) {
	if err := m.fs.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return 0, err
	}

	children, err := m.fs.ReadDir(src)
	if err != nil {
		return 0, err
	}

	var moved uint64
	for _, child := range children {
		childSrc := filepath.Join(src, child.Name())
		childDst := filepath.Join(dst, child.Name())

		childInfo, err := m.fs.Lstat(childSrc)
		if err != nil {
			return moved, err
		}
		if childInfo.Mode()&fs.ModeSymlink != 0 {
			// A symlink cannot be transferred faithfully by the copy
			// mechanism, so the run aborts rather than half-moving.
			return moved, errors.Newf(errors.ErrMigrationFailed, "refusing to migrate symlink %s", childSrc)
		}

		childDstInfo, childDstErr := m.fs.Lstat(childDst)
		if childDstErr == nil && !(childInfo.IsDir() && childDstInfo.IsDir()) {
			report.SkippedExisting++
			m.logger.Info().Str("path", childDst).Msg("Destination exists in source, skipped")
			continue
		}
		if childDstErr != nil && !os.IsNotExist(childDstErr) {
			return moved, childDstErr
		}

		var n uint64
		if childInfo.IsDir() {
			n, err = m.copyDir(childSrc, childDst, childInfo, report)
		} else {
			n, err = m.copyFile(childSrc, childDst, childInfo)
		}
		if err != nil {
			return moved, err
		}
		moved += n
	}

	if err := m.fs.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		m.logger.Debug().Err(err).Str("path", dst).Msg("Could not preserve directory mtime")
	}

	// Prune the source directory once the move emptied it. A directory
	// still holding skipped files stays behind.
	remaining, err := m.fs.ReadDir(src)
	if err == nil && len(remaining) == 0 {
		if err := m.fs.Remove(src); err != nil {
			m.logger.Debug().Err(err).Str("path", src).Msg("Could not prune emptied directory")
		}
	}
	return moved, nil
}

func (m *Importer) copyFile(src, dst string, info fs.FileInfo) (uint64, error) {
	data, err := m.fs.ReadFile(src)
	if err != nil {
		return 0, err
	}
	if err := m.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}
	if err := m.fs.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return 0, err
	}
	if err := m.fs.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		m.logger.Debug().Err(err).Str("path", dst).Msg("Could not preserve file mtime")
	}
	if err := m.fs.Remove(src); err != nil {
		return uint64(len(data)), err
	}
	return uint64(len(data)), nil
}
