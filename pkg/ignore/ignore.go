// Package ignore evaluates glob-style ignore patterns against entry names
// and relative paths. Patterns come from built-in defaults, CLI flags, and
// the ignore file under the source and target roots; all are unioned into
// one set with first-match-wins semantics.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/arthur-debert/stowaway/pkg/errors"
	"github.com/arthur-debert/stowaway/pkg/logging"
	"github.com/arthur-debert/stowaway/pkg/types"
)

// IgnoreFileName is looked up under both the source and target roots.
const IgnoreFileName = ".stowawayignore"

// DefaultPatterns are always active. They keep stowaway's own bookkeeping
// files, editor droppings, and VCS metadata out of the plan.
var DefaultPatterns = []string{
	".git",
	".gitignore",
	".gitmodules",
	".DS_Store",
	"*.swp",
	"*.bak.*",
	IgnoreFileName,
	".stowaway.toml",
	".stowaway.lock",
	"README*",
	"LICENSE*",
}

type rule struct {
	pattern string
	g       glob.Glob
}

// Set is a compiled union of ignore rules. Order is irrelevant; a name is
// ignored iff any rule matches.
type Set struct {
	rules []rule
}

// NewSet compiles the given patterns plus the built-in defaults. Patterns
// that fail to compile are rejected.
func NewSet(patterns ...string) (*Set, error) {
	s := &Set{}
	for _, p := range append(append([]string{}, DefaultPatterns...), patterns...) {
		if err := s.add(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) add(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}
	// Separator-aware compile so "*" does not leak across path segments
	// when matching two-segment relative paths.
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidArgs, "invalid ignore pattern %q", pattern)
	}
	s.rules = append(s.rules, rule{pattern: pattern, g: g})
	return nil
}

// Match reports whether the bare name matches any rule.
func (s *Set) Match(name string) bool {
	for _, r := range s.rules {
		if r.g.Match(name) {
			return true
		}
	}
	return false
}

// MatchPath reports whether either the relative path or its final segment
// matches any rule. Used for entries produced by second-level expansion,
// where a pattern may name the child ("nvim") or the path (".config/nvim").
func (s *Set) MatchPath(relPath string) bool {
	if s.Match(filepath.Base(relPath)) {
		return true
	}
	for _, r := range s.rules {
		if r.g.Match(relPath) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// LoadFile reads one ignore file: one glob per line, blank lines and lines
// starting with # skipped. A missing file yields no patterns and no error.
func LoadFile(fsys types.FS, root string) ([]string, error) {
	path := filepath.Join(root, IgnoreFileName)
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}

	logger := logging.GetLogger("ignore")
	logger.Debug().
		Str("path", path).
		Int("patterns", len(patterns)).
		Msg("Loaded ignore file")
	return patterns, nil
}

// LoadSet builds the full rule set for a run: defaults, ignore files from
// the source and target roots, and CLI-supplied patterns.
func LoadSet(fsys types.FS, sourceRoot, targetRoot string, cliPatterns []string) (*Set, error) {
	var patterns []string
	for _, root := range []string{sourceRoot, targetRoot} {
		fromFile, err := LoadFile(fsys, root)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, fromFile...)
	}
	patterns = append(patterns, cliPatterns...)
	return NewSet(patterns...)
}
