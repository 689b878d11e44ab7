// Package config resolves the options for one invocation: CLI flags merged
// over the optional .stowaway.toml file in the source root, then validated
// before anything touches the filesystem.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/stowaway/pkg/errors"
	"github.com/arthur-debert/stowaway/pkg/logging"
	"github.com/arthur-debert/stowaway/pkg/paths"
)

// ConfigFileName is the optional per-source-tree configuration file.
const ConfigFileName = ".stowaway.toml"

// Options is the fully resolved configuration for one run.
type Options struct {
	SourceDir string
	TargetDir string

	DryRun       bool
	DotfilesOnly bool
	Force        bool
	Backup       bool
	Migrate      bool
	Unstow       bool

	// ExpandDirs are directory names whose immediate children are linked
	// individually instead of linking the directory itself.
	ExpandDirs []string

	// IgnorePatterns are extra CLI-supplied globs.
	IgnorePatterns []string
}

// fileConfig is the subset of Options settable from .stowaway.toml.
type fileConfig struct {
	Expand       []string `toml:"expand"`
	Ignore       []string `toml:"ignore"`
	DotfilesOnly *bool    `toml:"dotfiles_only"`
	Backup       *bool    `toml:"backup"`
}

// Explicit records which boolean options the user set on the command line.
// A file value never overrides an explicit flag.
type Explicit struct {
	DotfilesOnly bool
	Backup       bool
}

// Default returns options with the stock defaults applied.
func Default() Options {
	return Options{
		TargetDir:    paths.DefaultTarget(),
		DotfilesOnly: true,
		ExpandDirs:   []string{".config"},
	}
}

// Load merges the source tree's .stowaway.toml (if any) into opts. Flags
// the user passed explicitly win; the file only contributes expand/ignore
// lists and defaults the user did not override.
func Load(opts Options, explicit Explicit) (Options, error) {
	logger := logging.GetLogger("config")

	path := filepath.Join(opts.SourceDir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, errors.Wrapf(err, errors.ErrConfigParse, "failed to read %s", path)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return opts, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", path)
	}

	if len(fc.Expand) > 0 {
		opts.ExpandDirs = fc.Expand
	}
	opts.IgnorePatterns = append(opts.IgnorePatterns, fc.Ignore...)
	if fc.DotfilesOnly != nil && !explicit.DotfilesOnly {
		opts.DotfilesOnly = *fc.DotfilesOnly
	}
	// A file backup default is meaningless under force, and forbidden
	// under unstow.
	if fc.Backup != nil && !explicit.Backup && !opts.Force && !opts.Unstow {
		opts.Backup = *fc.Backup
	}

	logger.Debug().
		Str("path", path).
		Strs("expand", opts.ExpandDirs).
		Msg("Loaded config file")
	return opts, nil
}

// Validate enforces the pre-mutation invariants: the source must exist and
// be a directory, the target must exist, and unstow excludes force/backup.
func Validate(opts Options) (Options, error) {
	if opts.SourceDir == "" {
		return opts, errors.New(errors.ErrInvalidArgs, "source directory is required")
	}
	if opts.Unstow && (opts.Force || opts.Backup) {
		return opts, errors.New(errors.ErrInvalidArgs, "--unstow cannot be combined with --force or --backup")
	}

	opts.SourceDir = paths.ExpandHome(opts.SourceDir)
	opts.TargetDir = paths.ExpandHome(opts.TargetDir)
	if opts.TargetDir == "" {
		opts.TargetDir = paths.DefaultTarget()
	}

	src, err := paths.Resolve(opts.SourceDir)
	if err != nil {
		return opts, errors.Wrapf(err, errors.ErrSourceNotFound, "source directory %s does not exist", opts.SourceDir)
	}
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return opts, errors.Newf(errors.ErrSourceNotFound, "source %s is not a directory", src)
	}
	opts.SourceDir = src

	tgt, err := paths.Resolve(opts.TargetDir)
	if err != nil {
		return opts, errors.Wrapf(err, errors.ErrTargetNotFound, "target directory %s does not exist", opts.TargetDir)
	}
	opts.TargetDir = tgt

	return opts, nil
}
