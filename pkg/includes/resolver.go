// Package includes resolves package and zip include declarations into
// concrete file paths.
//
// A declaration is a path or pattern authored against a root directory. Five
// addressing modes are supported: relative file, relative folder, absolute
// file, absolute folder, and glob pattern. Nothing may resolve outside its
// root; offending includes are dropped with a warning, never an error.
package includes

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-hclog"
)

// Declaration is one include entry bound to the root directory of the
// package or zip that declared it.
type Declaration struct {
	PathOrPattern string // as authored
	NoRecurse     bool
	RootDir       string // absolute
}

// Resolver turns declarations into lazy sequences of absolute file paths.
type Resolver struct {
	logger   hclog.Logger
	foldCase bool // case-insensitive matching for case-insensitive filesystems
}

// NewResolver returns a Resolver. Pattern matching is case-insensitive on
// Windows and case-sensitive elsewhere.
func NewResolver(logger hclog.Logger) *Resolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{
		logger:   logger,
		foldCase: runtime.GOOS == "windows",
	}
}

// Resolve yields the absolute file paths selected by decl. An empty
// sequence is valid: patterns that match nothing are not an error.
//
// A relative non-pattern path that names no existing directory is yielded
// as-is, whether or not a file exists there, so a bad include fails loudly
// at copy time instead of vanishing silently.
func (r *Resolver) Resolve(decl Declaration) iter.Seq[string] {
	return func(yield func(string) bool) {
		text := decl.PathOrPattern

		r.logger.Debug("resolving include",
			"include", text, "root", decl.RootDir, "no_recurse", decl.NoRecurse)

		if strings.HasPrefix(text, "..") {
			r.logger.Warn("include paths cannot start with a parent-directory marker", "include", text)
			return
		}

		// "." and "./" anchor the include to the root directory. A leading
		// dot alone (".gitignore") is an ordinary relative path.
		if text == "." {
			text = decl.RootDir
		} else if len(text) > 1 && text[0] == '.' && (text[1] == '/' || text[1] == '\\') {
			text = decl.RootDir + text[1:]
		}

		normalized := normalizePath(text)

		switch {
		case strings.Contains(normalized, "*"):
			r.resolvePattern(decl, normalized, yield)
		case filepath.IsAbs(normalized):
			r.resolveAbsolute(decl, normalized, yield)
		default:
			r.resolveRelative(decl, normalized, yield)
		}
	}
}

// resolvePattern scans for candidate files and keeps those matching the
// full pattern. The scan is anchored at the pattern's wildcard-free
// directory prefix; candidates are always re-filtered against the whole
// pattern, because the scan sees a superset of what the pattern selects.
func (r *Resolver) resolvePattern(decl Declaration, pattern string, yield func(string) bool) {
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(decl.RootDir, pattern)
	}

	base := staticPrefix(pattern)
	if !Within(decl.RootDir, base) {
		r.logger.Warn("cannot include path outside root directory",
			"include", decl.PathOrPattern, "root", decl.RootDir)
		return
	}

	match, err := newMatcher(pattern, r.foldCase)
	if err != nil {
		r.logger.Warn("invalid include pattern", "include", decl.PathOrPattern, "error", err)
		return
	}

	r.walk(base, decl.NoRecurse, func(path string) bool {
		if match(path) {
			return yield(path)
		}
		return true
	})
}

func (r *Resolver) resolveAbsolute(decl Declaration, path string, yield func(string) bool) {
	if !Within(decl.RootDir, path) {
		r.logger.Warn("cannot include path outside root directory",
			"include", decl.PathOrPattern, "root", decl.RootDir)
		return
	}

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		yield(path)
		return
	}

	// Anything else is treated as a folder; one that cannot be read
	// contributes nothing.
	r.walk(path, decl.NoRecurse, yield)
}

func (r *Resolver) resolveRelative(decl Declaration, rel string, yield func(string) bool) {
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		r.logger.Warn("include paths cannot escape the root directory", "include", decl.PathOrPattern)
		return
	}

	joined := filepath.Join(decl.RootDir, rel)

	info, err := os.Stat(joined)
	if err != nil || !info.IsDir() {
		yield(joined)
		return
	}

	r.walk(joined, decl.NoRecurse, yield)
}

// walk feeds every file beneath base to fn: all descendants when recursive,
// immediate children only under NoRecurse. Unreadable paths contribute
// nothing; resolution never fails on filesystem errors.
func (r *Resolver) walk(base string, noRecurse bool, fn func(path string) bool) {
	if noRecurse {
		entries, err := os.ReadDir(base)
		if err != nil {
			r.logger.Debug("cannot scan directory", "dir", base, "error", err)
			return
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if !fn(filepath.Join(base, entry.Name())) {
				return
			}
		}
		return
	}

	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logger.Debug("cannot scan path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !fn(path) {
			return fs.SkipAll
		}
		return nil
	})
}

// normalizePath converts either separator style to the native one and
// collapses redundant segments. Project descriptors are routinely authored
// on Windows with backslash paths and built elsewhere.
func normalizePath(text string) string {
	text = strings.ReplaceAll(text, "\\", string(filepath.Separator))
	text = strings.ReplaceAll(text, "/", string(filepath.Separator))
	return filepath.Clean(text)
}

// staticPrefix returns the deepest directory prefix of pattern containing
// no wildcard, the anchor for the candidate scan.
func staticPrefix(pattern string) string {
	dir := pattern
	for strings.ContainsAny(dir, "*?[") {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dir
}

// newMatcher compiles a shell-style matcher with fnmatch semantics: '*'
// and '?' cross directory separators, so root/*.pex matches at any depth
// beneath root.
func newMatcher(pattern string, foldCase bool) (func(string) bool, error) {
	pattern = filepath.ToSlash(pattern)
	if foldCase {
		pattern = strings.ToLower(pattern)
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return func(path string) bool {
		path = filepath.ToSlash(path)
		if foldCase {
			path = strings.ToLower(path)
		}
		return g.Match(path)
	}, nil
}

// Within reports whether path lies at or beneath root. This is a proper
// path-prefix comparison: siblings sharing a textual prefix, like
// /proj/src2 against root /proj/src, do not pass.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
