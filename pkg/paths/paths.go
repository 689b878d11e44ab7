// Package paths wraps canonical-path resolution and filesystem entry
// classification. Every other component goes through it to answer "what is
// at this path" and "where does this path ultimately lead".
package paths

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/arthur-debert/stowaway/pkg/types"
)

// EntryKind classifies what sits at a filesystem path.
type EntryKind int

const (
	KindAbsent EntryKind = iota
	KindFile
	KindDir
	KindSymlink
	KindOther
)

func (k EntryKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Classify reports the kind of entry at path without following symlinks.
func Classify(fsys types.FS, path string) (EntryKind, error) {
	info, err := fsys.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return KindAbsent, nil
		}
		return KindAbsent, err
	}
	return classifyMode(info.Mode()), nil
}

func classifyMode(mode fs.FileMode) EntryKind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDir
	case mode.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}

// Resolve canonicalizes path: absolute, symlinks followed, ".." collapsed.
// Fails when the path (or any link in the chain) does not exist.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// SameResolved reports whether two paths resolve to the same canonical
// location. Either path failing to resolve counts as not-same.
func SameResolved(a, b string) bool {
	ra, err := Resolve(a)
	if err != nil {
		return false
	}
	rb, err := Resolve(b)
	if err != nil {
		return false
	}
	return ra == rb
}

// ExpandHome replaces a leading ~ or $HOME with the home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return xdg.Home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(xdg.Home, path[2:])
	}
	if strings.HasPrefix(path, "$HOME") {
		return filepath.Join(xdg.Home, strings.TrimPrefix(path, "$HOME"))
	}
	return path
}

// DefaultTarget returns the conventional stow target, the user home.
func DefaultTarget() string {
	return xdg.Home
}
