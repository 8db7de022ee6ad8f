package packager

import (
	"fmt"
	"os"
	"strings"

	"github.com/emberforge/pyrite/pkg/game"
)

// nameSet tracks output names already produced in this run,
// case-insensitively. One set exists per artifact kind, owned by the
// Packager instance, so names never leak across runs.
type nameSet map[string]struct{}

func (s nameSet) has(name string) bool {
	_, ok := s[strings.ToLower(name)]
	return ok
}

func (s nameSet) add(name string) {
	s[strings.ToLower(name)] = struct{}{}
}

// resolveOutputName makes name unique within the run. A name already
// produced gets the declaration's zero-based index appended, so the second
// of two packages named "Foo" becomes "Foo (1)".
func resolveOutputName(used nameSet, name string, index int) string {
	if used.has(name) {
		name = fmt.Sprintf("%s (%d)", name, index)
	}
	used.add(name)
	return name
}

// fixPackageExt gives name the game's archive extension, replacing an
// existing .bsa or .ba2 extension of any casing and appending otherwise.
func fixPackageExt(name string, g game.Type) string {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".ba2") || strings.HasSuffix(lower, ".bsa") {
		name = name[:len(name)-len(".bsa")]
	}
	return name + g.ArchiveExt()
}

// fixZipExt gives name the .zip extension, replacing an existing one of
// any casing and appending otherwise.
func fixZipExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".zip") {
		name = name[:len(name)-len(".zip")]
	}
	return name + ".zip"
}

// checkWritable fails when an existing file at path cannot be opened for
// writing. The probe runs before any staging work so a read-only artifact
// stops the run early.
func checkWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrOutputNotWritable, path)
	}
	return f.Close()
}
