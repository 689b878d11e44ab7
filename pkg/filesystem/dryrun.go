package filesystem

import (
	"io/fs"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/stowaway/pkg/logging"
	"github.com/arthur-debert/stowaway/pkg/types"
)

// dryRunFS wraps another FS: reads pass through, mutations are logged and
// dropped. Decisions downstream therefore run against the real filesystem
// state while guaranteeing nothing is created, removed, moved, or linked.
type dryRunFS struct {
	inner  types.FS
	logger zerolog.Logger
}

// NewDryRun wraps fs so that all mutating operations become no-ops.
func NewDryRun(inner types.FS) types.FS {
	return &dryRunFS{
		inner:  inner,
		logger: logging.GetLogger("filesystem.dryrun"),
	}
}

func (d *dryRunFS) Stat(name string) (fs.FileInfo, error) {
	return d.inner.Stat(name)
}

func (d *dryRunFS) Lstat(name string) (fs.FileInfo, error) {
	return d.inner.Lstat(name)
}

func (d *dryRunFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return d.inner.ReadDir(name)
}

func (d *dryRunFS) ReadFile(name string) ([]byte, error) {
	return d.inner.ReadFile(name)
}

func (d *dryRunFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	d.logger.Info().Str("path", name).Msg("Would write file")
	return nil
}

func (d *dryRunFS) MkdirAll(path string, perm fs.FileMode) error {
	d.logger.Info().Str("path", path).Msg("Would create directory")
	return nil
}

func (d *dryRunFS) Symlink(oldname, newname string) error {
	d.logger.Info().
		Str("source", oldname).
		Str("link", newname).
		Msg("Would create symlink")
	return nil
}

func (d *dryRunFS) Readlink(name string) (string, error) {
	return d.inner.Readlink(name)
}

func (d *dryRunFS) Rename(oldpath, newpath string) error {
	d.logger.Info().
		Str("from", oldpath).
		Str("to", newpath).
		Msg("Would rename")
	return nil
}

func (d *dryRunFS) Remove(name string) error {
	d.logger.Info().Str("path", name).Msg("Would remove")
	return nil
}

func (d *dryRunFS) RemoveAll(path string) error {
	d.logger.Info().Str("path", path).Msg("Would remove recursively")
	return nil
}

func (d *dryRunFS) Chtimes(name string, atime, mtime time.Time) error {
	return nil
}
