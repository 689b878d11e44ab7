// Package stow orchestrates a full run: validate, lock, bootstrap, migrate,
// discover, then link or unlink every planned entry in sorted order.
package stow

import (
	"github.com/arthur-debert/stowaway/pkg/bootstrap"
	"github.com/arthur-debert/stowaway/pkg/config"
	"github.com/arthur-debert/stowaway/pkg/discovery"
	"github.com/arthur-debert/stowaway/pkg/filesystem"
	"github.com/arthur-debert/stowaway/pkg/ignore"
	"github.com/arthur-debert/stowaway/pkg/linker"
	"github.com/arthur-debert/stowaway/pkg/lock"
	"github.com/arthur-debert/stowaway/pkg/logging"
	"github.com/arthur-debert/stowaway/pkg/migrate"
	"github.com/arthur-debert/stowaway/pkg/types"
)

// Result bundles what one invocation produced.
type Result struct {
	Summary   types.RunSummary
	Migration *migrate.Report
	Entries   int
}

// Run executes one invocation against validated options. Fatal conditions
// (lock contention, migration failure) return an error; per-entry failures
// only raise the summary's error count.
func Run(opts config.Options) (*Result, error) {
	logger := logging.GetLogger("stow")

	fsys := filesystem.NewOS()
	if opts.DryRun {
		logger.Info().Msg("Dry run: no filesystem changes will be made")
		fsys = filesystem.NewDryRun(fsys)
	}

	// One live run per target. The marker is removed on every exit path
	// short of SIGKILL.
	lk := lock.New(opts.TargetDir)
	if err := lk.Acquire(); err != nil {
		return nil, err
	}
	defer lk.Release()
	lk.ReleaseOnSignal()

	if err := bootstrap.Ensure(fsys, opts.SourceDir, opts.ExpandDirs); err != nil {
		return nil, err
	}

	rules, err := ignore.LoadSet(fsys, opts.SourceDir, opts.TargetDir, opts.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	// Migration runs first so absorbed files are visible to discovery in
	// the same invocation.
	if opts.Migrate && !opts.Unstow {
		report, err := migrate.New(fsys, opts, rules).Run()
		if err != nil {
			return nil, err
		}
		result.Migration = report
	}

	entries, err := discovery.Discover(fsys, opts.SourceDir, opts.DotfilesOnly, opts.ExpandDirs, rules)
	if err != nil {
		return nil, err
	}
	result.Entries = len(entries)
	if len(entries) == 0 {
		logger.Info().Msg("Nothing to do: no entries survived filtering")
		return result, nil
	}

	ln := linker.New(fsys, opts)
	for _, entry := range entries {
		if opts.Unstow {
			ln.Unstow(entry, &result.Summary)
		} else {
			ln.Stow(entry, &result.Summary)
		}
	}

	logger.Info().
		Int("entries", result.Entries).
		Int("errors", result.Summary.Errors).
		Msg("Run complete")
	return result, nil
}
