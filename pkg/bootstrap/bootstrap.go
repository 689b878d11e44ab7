// Package bootstrap pre-seeds the source tree with the well-known
// directories and files stowaway expects, so a fresh tree stows cleanly.
// Every step is create-if-absent; running it repeatedly changes nothing.
package bootstrap

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/stowaway/pkg/errors"
	"github.com/arthur-debert/stowaway/pkg/ignore"
	"github.com/arthur-debert/stowaway/pkg/logging"
	"github.com/arthur-debert/stowaway/pkg/types"
)

// Ensure creates the expandable directories and an empty ignore file under
// sourceRoot when they are missing.
func Ensure(fsys types.FS, sourceRoot string, expandDirs []string) error {
	logger := logging.GetLogger("bootstrap")

	for _, dir := range expandDirs {
		path := filepath.Join(sourceRoot, dir)
		if _, err := fsys.Lstat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrDirCreate, "failed to inspect %s", path)
		}
		if err := fsys.MkdirAll(path, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", path)
		}
		logger.Info().Str("path", path).Msg("Created expandable directory")
	}

	ignorePath := filepath.Join(sourceRoot, ignore.IgnoreFileName)
	if _, err := fsys.Lstat(ignorePath); err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrInternal, "failed to inspect %s", ignorePath)
		}
		header := []byte("# Glob patterns for entries stowaway should skip, one per line.\n")
		if err := fsys.WriteFile(ignorePath, header, 0644); err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "failed to create %s", ignorePath)
		}
		logger.Info().Str("path", ignorePath).Msg("Created ignore file")
	}

	return nil
}
