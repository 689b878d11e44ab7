// Package backup renames conflicting target entries aside as
// <path>.bak.<YYYYMMDD_HHMMSS> and restores the most recent one on unstow.
// The fixed-width timestamp makes lexicographic order chronological order.
package backup

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/stowaway/pkg/errors"
	"github.com/arthur-debert/stowaway/pkg/logging"
	"github.com/arthur-debert/stowaway/pkg/types"
)

// TimestampLayout is the backup suffix format.
const TimestampLayout = "20060102_150405"

// Name returns the backup path for original at the given moment.
func Name(original string, at time.Time) string {
	return original + ".bak." + at.Format(TimestampLayout)
}

// ParseTimestamp validates a backup suffix strictly, rejecting anything
// that is not exactly YYYYMMDD_HHMMSS.
func ParseTimestamp(suffix string) (time.Time, bool) {
	if len(suffix) != len(TimestampLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, suffix)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Create renames the entry at path aside. Timestamps are second-granular;
// a same-second collision fails rather than silently overwriting the
// earlier backup.
func Create(fsys types.FS, path string, at time.Time) (string, error) {
	backupPath := Name(path, at)
	if _, err := fsys.Lstat(backupPath); err == nil {
		return "", errors.Newf(errors.ErrBackupExists, "backup %s already exists", backupPath)
	} else if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, errors.ErrBackupExists, "failed to inspect backup path %s", backupPath)
	}

	if err := fsys.Rename(path, backupPath); err != nil {
		return "", errors.Wrapf(err, errors.ErrBackupRestore, "failed to back up %s", path)
	}

	logger := logging.GetLogger("backup")
	logger.Info().
		Str("path", path).
		Str("backup", backupPath).
		Msg("Backed up conflicting entry")
	return backupPath, nil
}

// Latest returns the newest valid backup for path, or "" when none exist.
func Latest(fsys types.FS, path string) (string, error) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + ".bak."

	children, err := fsys.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	var candidates []string
	for _, child := range children {
		name := child.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if _, ok := ParseTimestamp(strings.TrimPrefix(name, prefix)); !ok {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return "", nil
	}

	// Fixed-width timestamps: lexicographic max is the most recent.
	sort.Strings(candidates)
	return filepath.Join(dir, candidates[len(candidates)-1]), nil
}

// Restore moves the most recent backup for path back into place. Returns
// false without error when no backup exists. Never overwrites: restoring
// onto an occupied path is an error.
func Restore(fsys types.FS, path string) (bool, error) {
	backupPath, err := Latest(fsys, path)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrBackupRestore, "failed to scan backups for %s", path)
	}
	if backupPath == "" {
		return false, nil
	}

	if _, err := fsys.Lstat(path); err == nil {
		return false, errors.Newf(errors.ErrBackupRestore, "cannot restore %s, path is occupied", path)
	} else if !os.IsNotExist(err) {
		return false, errors.Wrapf(err, errors.ErrBackupRestore, "failed to inspect %s", path)
	}

	if err := fsys.Rename(backupPath, path); err != nil {
		return false, errors.Wrapf(err, errors.ErrBackupRestore, "failed to restore %s", backupPath)
	}

	logger := logging.GetLogger("backup")
	logger.Info().
		Str("backup", backupPath).
		Str("path", path).
		Msg("Restored backup")
	return true, nil
}
