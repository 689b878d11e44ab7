// Package discovery walks the source root one level deep and turns the
// surviving entries into a sorted, deduplicated link plan.
package discovery

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/stowaway/pkg/errors"
	"github.com/arthur-debert/stowaway/pkg/ignore"
	"github.com/arthur-debert/stowaway/pkg/logging"
	"github.com/arthur-debert/stowaway/pkg/types"
)

// Discover enumerates the immediate children of sourceRoot, applies
// dotfiles-only and ignore filtering, expands the configured second-level
// directories into their immediate children, and returns the plan sorted by
// the relative path each link will receive. An empty plan is a successful
// no-op, not an error.
func Discover(fsys types.FS, sourceRoot string, dotfilesOnly bool, expandDirs []string, rules *ignore.Set) ([]types.SourceEntry, error) {
	logger := logging.GetLogger("discovery")

	children, err := fsys.ReadDir(sourceRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceNotFound, "failed to read source root %s", sourceRoot)
	}

	expandable := make(map[string]bool, len(expandDirs))
	for _, name := range expandDirs {
		expandable[name] = true
	}

	// Dedupe by the relative path the link would receive, first wins.
	seen := make(map[string]bool)
	var entries []types.SourceEntry
	add := func(e types.SourceEntry) {
		if seen[e.RelativePath] {
			logger.Debug().Str("rel", e.RelativePath).Msg("Duplicate link path, keeping first")
			return
		}
		seen[e.RelativePath] = true
		entries = append(entries, e)
	}

	for _, child := range children {
		name := child.Name()

		if dotfilesOnly && !strings.HasPrefix(name, ".") {
			logger.Trace().Str("name", name).Msg("Skipped, not a dotfile")
			continue
		}
		if rules.Match(name) {
			logger.Debug().Str("name", name).Msg("Skipped by ignore rule")
			continue
		}

		if child.IsDir() && expandable[name] {
			grandchildren, err := fsys.ReadDir(filepath.Join(sourceRoot, name))
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrSourceNotFound, "failed to read expandable directory %s", name)
			}
			for _, gc := range grandchildren {
				rel := filepath.Join(name, gc.Name())
				if rules.MatchPath(rel) {
					logger.Debug().Str("rel", rel).Msg("Skipped by ignore rule")
					continue
				}
				add(types.SourceEntry{
					SourcePath:   filepath.Join(sourceRoot, rel),
					RelativePath: rel,
					IsExpanded:   true,
				})
			}
			continue
		}

		add(types.SourceEntry{
			SourcePath:   filepath.Join(sourceRoot, name),
			RelativePath: name,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelativePath < entries[j].RelativePath
	})

	logger.Info().Int("entries", len(entries)).Str("source", sourceRoot).Msg("Discovery complete")
	return entries, nil
}
