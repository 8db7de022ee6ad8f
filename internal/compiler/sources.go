package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/emberforge/pyrite/pkg/includes"
	"github.com/emberforge/pyrite/pkg/ppj"
)

// Sources collects every script the project compiles: explicit Scripts
// entries plus source files found under Folders entries. The result is
// deduplicated and sorted.
func Sources(proj *ppj.Project, logger hclog.Logger) ([]string, error) {
	seen := make(map[string]struct{})
	var sources []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		sources = append(sources, path)
	}

	for _, script := range proj.Scripts {
		path, err := findScript(proj, script)
		if err != nil {
			return nil, err
		}
		add(path)
	}

	resolver := includes.NewResolver(logger)
	for _, folder := range proj.Folders {
		for path := range resolver.Resolve(includes.Declaration{
			PathOrPattern: "*" + sourceExt,
			NoRecurse:     folder.NoRecurse,
			RootDir:       folder.Path,
		}) {
			add(path)
		}
	}

	slices.Sort(sources)
	return sources, nil
}

// findScript resolves one Scripts entry: absolute entries must exist,
// relative ones are tried against the project folder and then each
// import in order.
func findScript(proj *ppj.Project, script string) (string, error) {
	script = filepath.FromSlash(strings.ReplaceAll(script, `\`, "/"))

	if filepath.IsAbs(script) {
		if _, err := os.Stat(script); err != nil {
			return "", fmt.Errorf("script not found: %q", script)
		}
		return script, nil
	}

	bases := make([]string, 0, len(proj.Imports)+1)
	bases = append(bases, proj.Dir)
	bases = append(bases, proj.Imports...)
	for _, base := range bases {
		candidate := filepath.Join(base, script)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("script not found: %q", script)
}
