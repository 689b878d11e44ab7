package migrate_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/stowaway/pkg/config"
	"github.com/arthur-debert/stowaway/pkg/filesystem"
	"github.com/arthur-debert/stowaway/pkg/ignore"
	"github.com/arthur-debert/stowaway/pkg/migrate"
)

func newImporter(t *testing.T, opts config.Options, patterns ...string) *migrate.Importer {
	t.Helper()
	rules, err := ignore.NewSet(patterns...)
	require.NoError(t, err)
	return migrate.New(filesystem.NewOS(), opts, rules)
}

func testOpts(source, target string) config.Options {
	return config.Options{
		SourceDir:    source,
		TargetDir:    target,
		DotfilesOnly: true,
	}
}

func TestRunMovesFiles(t *testing.T) {
	t.Run("moves a target file into the source tree", func(t *testing.T) {
		// Setup
		source := t.TempDir()
		target := t.TempDir()
		path := filepath.Join(target, ".bashrc")
		require.NoError(t, os.WriteFile(path, []byte("content"), 0600))
		mtime := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
		require.NoError(t, os.Chtimes(path, mtime, mtime))

		// Execute
		report, err := newImporter(t, testOpts(source, target)).Run()

		// Verify
		require.NoError(t, err)
		assert.Equal(t, 1, report.Moved)
		assert.Equal(t, uint64(7), report.Bytes)
		assert.NoFileExists(t, path)

		moved := filepath.Join(source, ".bashrc")
		data, err := os.ReadFile(moved)
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))

		info, err := os.Stat(moved)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "mode preserved")
		assert.True(t, info.ModTime().Equal(mtime), "mtime preserved")
	})

	t.Run("moves a directory tree", func(t *testing.T) {
		// Setup
		source := t.TempDir()
		target := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(target, ".vim", "colors"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(target, ".vim", "vimrc"), []byte("set nu"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(target, ".vim", "colors", "dark.vim"), []byte("hi"), 0644))

		// Execute
		report, err := newImporter(t, testOpts(source, target)).Run()

		// Verify
		require.NoError(t, err)
		assert.Equal(t, 1, report.Moved)
		assert.NoDirExists(t, filepath.Join(target, ".vim"))
		assert.FileExists(t, filepath.Join(source, ".vim", "vimrc"))
		assert.FileExists(t, filepath.Join(source, ".vim", "colors", "dark.vim"))
	})
}

func TestRunSkips(t *testing.T) {
	t.Run("never overwrites an existing source file", func(t *testing.T) {
		// Setup
		source := t.TempDir()
		target := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(source, ".bashrc"), []byte("canonical"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(target, ".bashrc"), []byte("local"), 0644))

		// Execute
		report, err := newImporter(t, testOpts(source, target)).Run()

		// Verify: both files untouched
		require.NoError(t, err)
		assert.Equal(t, 0, report.Moved)
		assert.Equal(t, 1, report.SkippedExisting)

		data, err := os.ReadFile(filepath.Join(source, ".bashrc"))
		require.NoError(t, err)
		assert.Equal(t, "canonical", string(data))
		data, err = os.ReadFile(filepath.Join(target, ".bashrc"))
		require.NoError(t, err)
		assert.Equal(t, "local", string(data))
	})

	t.Run("nested existing destination leaves the original in place", func(t *testing.T) {
		// Setup: .vim exists in source with one overlapping file.
		source := t.TempDir()
		target := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(source, ".vim"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(source, ".vim", "vimrc"), []byte("canonical"), 0644))
		require.NoError(t, os.MkdirAll(filepath.Join(target, ".vim"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(target, ".vim", "vimrc"), []byte("local"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(target, ".vim", "plugins.vim"), []byte("new"), 0644))

		// Execute
		report, err := newImporter(t, testOpts(source, target)).Run()

		// Verify: the overlapping file stayed at the target, the new one moved.
		require.NoError(t, err)
		assert.Equal(t, 1, report.SkippedExisting)
		data, err := os.ReadFile(filepath.Join(target, ".vim", "vimrc"))
		require.NoError(t, err)
		assert.Equal(t, "local", string(data))
		data, err = os.ReadFile(filepath.Join(source, ".vim", "vimrc"))
		require.NoError(t, err)
		assert.Equal(t, "canonical", string(data))
	})

	t.Run("skips symlinks", func(t *testing.T) {
		// Setup: a link already pointing into the source tree.
		source := t.TempDir()
		target := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(source, ".bashrc"), []byte("canonical"), 0644))
		require.NoError(t, os.Symlink(filepath.Join(source, ".bashrc"), filepath.Join(target, ".bashrc")))

		// Execute
		report, err := newImporter(t, testOpts(source, target)).Run()

		// Verify
		require.NoError(t, err)
		assert.Equal(t, 0, report.Moved)
		assert.Equal(t, 1, report.SkippedSymlinks)

		info, err := os.Lstat(filepath.Join(target, ".bashrc"))
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&os.ModeSymlink)
	})

	t.Run("honors dotfiles-only and ignore rules", func(t *testing.T) {
		// Setup
		source := t.TempDir()
		target := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(target, "notes.txt"), []byte("x"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(target, ".session.swp"), []byte("x"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(target, ".bashrc"), []byte("x"), 0644))

		// Execute
		report, err := newImporter(t, testOpts(source, target)).Run()

		// Verify: only .bashrc migrated
		require.NoError(t, err)
		assert.Equal(t, 1, report.Moved)
		assert.FileExists(t, filepath.Join(target, "notes.txt"))
		assert.FileExists(t, filepath.Join(target, ".session.swp"))
	})
}

func TestRunDryRun(t *testing.T) {
	t.Run("reports moves without touching either tree", func(t *testing.T) {
		// Setup
		source := t.TempDir()
		target := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(target, ".bashrc"), []byte("content"), 0644))

		rules, err := ignore.NewSet()
		require.NoError(t, err)
		importer := migrate.New(filesystem.NewDryRun(filesystem.NewOS()), testOpts(source, target), rules)

		// Execute
		report, err := importer.Run()

		// Verify
		require.NoError(t, err)
		assert.Equal(t, 1, report.Moved)
		assert.FileExists(t, filepath.Join(target, ".bashrc"))
		assert.NoFileExists(t, filepath.Join(source, ".bashrc"))
	})
}

func TestRunAbortsOnSymlinkInsideTree(t *testing.T) {
	// A symlink buried in a directory cannot be transferred faithfully by
	// the copy mechanism, so the whole migration fails rather than leaving
	// a half-moved tree.
	source := t.TempDir()
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, ".vim"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, ".vim", "vimrc"), []byte("x"), 0644))
	require.NoError(t, os.Symlink(filepath.Join(target, ".vim", "vimrc"), filepath.Join(target, ".vim", "link")))

	_, err := newImporter(t, testOpts(source, target)).Run()

	require.Error(t, err)
}
