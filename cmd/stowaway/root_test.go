package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "stowaway version")
}

func TestSourceIsRequired(t *testing.T) {
	_, err := execute(t)

	require.Error(t, err)
}

func TestUnstowExcludesForce(t *testing.T) {
	_, err := execute(t, "--source", t.TempDir(), "--unstow", "--force")

	require.Error(t, err)
}

func TestStowEndToEnd(t *testing.T) {
	// Setup
	source := t.TempDir()
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, ".bashrc"), []byte("bash"), 0644))

	// Execute
	out, err := execute(t, "--source", source, "--target", target)

	// Verify
	require.NoError(t, err)
	assert.Contains(t, out, "created")

	dest, err := os.Readlink(filepath.Join(target, ".bashrc"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(source, ".bashrc"), dest)
}

func TestExplicitFlagBeatsConfigFile(t *testing.T) {
	// Setup: the config file disables the dotfile filter, but the user
	// passes --dotfiles-only=true on the command line.
	source := t.TempDir()
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, ".bashrc"), []byte("bash"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "notes.txt"), []byte("notes"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(source, ".stowaway.toml"), []byte("dotfiles_only = false\n"), 0644))

	// Execute
	_, err := execute(t, "--source", source, "--target", target, "--dotfiles-only=true")

	// Verify: only the dotfile was linked.
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(target, ".bashrc"))
	assert.NoFileExists(t, filepath.Join(target, "notes.txt"))
}

func TestConfigFileAppliesWithoutExplicitFlag(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "notes.txt"), []byte("notes"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(source, ".stowaway.toml"), []byte("dotfiles_only = false\n"), 0644))

	_, err := execute(t, "--source", source, "--target", target)

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(target, "notes.txt"))
}

func TestDryRunFlagTouchesNothing(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, ".bashrc"), []byte("bash"), 0644))

	_, err := execute(t, "--source", source, "--target", target, "--dry-run")

	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(target, ".bashrc"))
}
