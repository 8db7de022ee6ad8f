// Package staging maintains the temporary tree a package is assembled in
// before the archiver packs it.
//
// The tree is ephemeral: it is cleared before the first package and after
// every package, and is never shared between two packages in one run.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

const (
	// compiledScriptExt is the compiled Papyrus script extension.
	compiledScriptExt = ".pex"
	// scriptsFolder is the folder name game archives expect scripts under.
	scriptsFolder = "Scripts"
)

// Area is one staging tree rooted at a temporary directory.
type Area struct {
	root   string
	logger hclog.Logger
}

// New returns an Area rooted at root. Nothing is created until Stage runs.
func New(root string, logger hclog.Logger) *Area {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Area{root: root, logger: logger}
}

// Root returns the staging root path.
func (a *Area) Root() string {
	return a.root
}

// Stage copies sourcePath into the tree at its location relative to
// packageRoot, creating parent directories and overwriting an existing
// target. It returns the target path.
//
// Layout fix: authors routinely declare a RootDir deeper than the archive
// root, which would leave compiled scripts at the top of the archive.
// A compiled script whose relative path does not already start with the
// scripts folder is relocated under it.
func (a *Area) Stage(sourcePath, packageRoot string) (string, error) {
	rel, err := filepath.Rel(packageRoot, sourcePath)
	if err != nil {
		return "", fmt.Errorf("relativize %q against %q: %w", sourcePath, packageRoot, err)
	}

	target := filepath.Join(a.root, rel)
	if foldSuffix(sourcePath, compiledScriptExt) && !foldPrefix(rel, scriptsFolder) {
		target = filepath.Join(a.root, scriptsFolder, rel)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create staging folder: %w", err)
	}
	if err := copyFile(sourcePath, target); err != nil {
		return "", fmt.Errorf("stage %q: %w", sourcePath, err)
	}

	a.logger.Trace("staged file", "source", sourcePath, "target", target)
	return target, nil
}

// Clear removes the staging tree. Best-effort: a tree that is already gone
// or cannot be fully removed is not an error.
func (a *Area) Clear() {
	if err := os.RemoveAll(a.root); err != nil {
		a.logger.Debug("could not clear staging folder", "path", a.root, "error", err)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// Keep the source timestamp so the archiver records real file times.
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func foldSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

func foldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
