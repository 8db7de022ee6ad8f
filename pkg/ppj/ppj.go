// Package ppj loads Papyrus project descriptors (.ppj files).
//
// A descriptor names the scripts to compile, the imports they need, and the
// packages and zip archives to build from the compiled output. Loading
// substitutes @Variable references, parses boolean attributes (the literal
// "True", case-insensitive, is true; anything else is false), and resolves
// root and output paths against the directory containing the project file.
package ppj

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emberforge/pyrite/pkg/game"
)

var (
	// ErrNotProjectFile is returned when the input path does not name a .ppj file
	ErrNotProjectFile = errors.New("not a papyrus project file (.ppj)")
)

// Project is a fully resolved project descriptor.
type Project struct {
	Path string // absolute path of the .ppj file
	Dir  string // directory containing it
	Name string // file stem, the fallback artifact name

	Game      game.Type // zero value when the descriptor omits Game
	FlagsFile string    // compiler flags file name, located by the compiler via imports
	OutputDir string    // compiled script output, absolute; empty means unset
	Optimize  bool
	Release   bool
	Final     bool
	Anonymize bool
	Package   bool
	Zip       bool

	Imports []string // script import directories, absolute
	Folders []Folder // script source folders, absolute
	Scripts []string // individual scripts, as authored

	PackageOutput string // absolute; empty means unset
	Packages      []PackageDecl
	ZipOutput     string // absolute; empty means unset
	ZipFiles      []ZipDecl

	PreBuild  *BuildEvent
	PostBuild *BuildEvent
}

// Folder is one script source folder.
type Folder struct {
	Path      string
	NoRecurse bool
}

// Include is one path-or-pattern entry inside a package or zip declaration,
// kept exactly as authored. Resolution against RootDir happens later.
type Include struct {
	Text      string
	NoRecurse bool
}

// PackageDecl describes one game archive to build.
type PackageDecl struct {
	Name     string
	RootDir  string // absolute
	Includes []Include
}

// ZipDecl describes one zip archive to build. RootDir stays as authored:
// relative roots are resolved, and required to exist, at packaging time.
type ZipDecl struct {
	Name        string
	RootDir     string
	Compression string // exactly "store" keeps entries uncompressed, anything else deflates
	Includes    []Include
}

// BuildEvent is a list of command lines run before or after the build.
type BuildEvent struct {
	Description string
	UseInBuild  bool
	Commands    []string
}

type rawProject struct {
	Game      string        `xml:"Game,attr"`
	Flags     string        `xml:"Flags,attr"`
	Output    string        `xml:"Output,attr"`
	Optimize  string        `xml:"Optimize,attr"`
	Release   string        `xml:"Release,attr"`
	Final     string        `xml:"Final,attr"`
	Anonymize string        `xml:"Anonymize,attr"`
	Package   string        `xml:"Package,attr"`
	Zip       string        `xml:"Zip,attr"`
	Variables []rawVariable `xml:"Variables>Variable"`
	Imports   []string      `xml:"Imports>Import"`
	Folders   []rawFolder   `xml:"Folders>Folder"`
	Scripts   []string      `xml:"Scripts>Script"`
	Packages  *rawPackages  `xml:"Packages"`
	ZipFiles  *rawZipFiles  `xml:"ZipFiles"`
	PreBuild  *rawEvent     `xml:"PreBuildEvent"`
	PostBuild *rawEvent     `xml:"PostBuildEvent"`
}

type rawVariable struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:"Value,attr"`
}

type rawFolder struct {
	Text      string `xml:",chardata"`
	NoRecurse string `xml:"NoRecurse,attr"`
}

type rawPackages struct {
	Output   string       `xml:"Output,attr"`
	Packages []rawPackage `xml:"Package"`
}

type rawPackage struct {
	Name     string       `xml:"Name,attr"`
	RootDir  string       `xml:"RootDir,attr"`
	Includes []rawInclude `xml:"Include"`
}

type rawZipFiles struct {
	Output string   `xml:"Output,attr"`
	Zips   []rawZip `xml:"ZipFile"`
}

type rawZip struct {
	Name        string       `xml:"Name,attr"`
	RootDir     string       `xml:"RootDir,attr"`
	Compression string       `xml:"Compression,attr"`
	Includes    []rawInclude `xml:"Include"`
}

type rawInclude struct {
	Text      string `xml:",chardata"`
	NoRecurse string `xml:"NoRecurse,attr"`
}

type rawEvent struct {
	Description string   `xml:"Description,attr"`
	UseInBuild  string   `xml:"UseInBuild,attr"`
	Commands    []string `xml:"Command"`
}

// Load reads and resolves the project descriptor at path.
func Load(path string) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(abs), ".ppj") {
		return nil, fmt.Errorf("%w: %s", ErrNotProjectFile, path)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}

	var raw rawProject
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse project file: %w", err)
	}

	sub := newSubstituter(raw.Variables)

	proj := &Project{
		Path:      abs,
		Dir:       filepath.Dir(abs),
		Name:      strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)),
		FlagsFile: sub.apply(raw.Flags),
		Optimize:  parseBool(raw.Optimize),
		Release:   parseBool(raw.Release),
		Final:     parseBool(raw.Final),
		Anonymize: parseBool(raw.Anonymize),
		Package:   parseBool(raw.Package),
		Zip:       parseBool(raw.Zip),
	}

	if g := strings.TrimSpace(sub.apply(raw.Game)); g != "" {
		proj.Game, err = game.Parse(g)
		if err != nil {
			return nil, fmt.Errorf("project file: %w", err)
		}
	}

	if out := strings.TrimSpace(sub.apply(raw.Output)); out != "" {
		proj.OutputDir = absAgainst(proj.Dir, out)
	}

	for _, imp := range raw.Imports {
		if text := strings.TrimSpace(sub.apply(imp)); text != "" {
			proj.Imports = append(proj.Imports, absAgainst(proj.Dir, text))
		}
	}
	for _, f := range raw.Folders {
		if text := strings.TrimSpace(sub.apply(f.Text)); text != "" {
			proj.Folders = append(proj.Folders, Folder{
				Path:      absAgainst(proj.Dir, text),
				NoRecurse: parseBool(f.NoRecurse),
			})
		}
	}
	for _, s := range raw.Scripts {
		if text := strings.TrimSpace(sub.apply(s)); text != "" {
			proj.Scripts = append(proj.Scripts, text)
		}
	}

	if raw.Packages != nil {
		if out := strings.TrimSpace(sub.apply(raw.Packages.Output)); out != "" {
			proj.PackageOutput = absAgainst(proj.Dir, out)
		}
		for _, pkg := range raw.Packages.Packages {
			name := strings.TrimSpace(sub.apply(pkg.Name))
			if name == "" {
				name = proj.Name
			}
			proj.Packages = append(proj.Packages, PackageDecl{
				Name:     name,
				RootDir:  absAgainst(proj.Dir, sub.apply(pkg.RootDir)),
				Includes: convertIncludes(sub, pkg.Includes),
			})
		}
	}

	if raw.ZipFiles != nil {
		if out := strings.TrimSpace(sub.apply(raw.ZipFiles.Output)); out != "" {
			proj.ZipOutput = absAgainst(proj.Dir, out)
		}
		for _, z := range raw.ZipFiles.Zips {
			name := strings.TrimSpace(sub.apply(z.Name))
			if name == "" {
				name = proj.Name
			}
			proj.ZipFiles = append(proj.ZipFiles, ZipDecl{
				Name:        name,
				RootDir:     strings.TrimSpace(sub.apply(z.RootDir)),
				Compression: sub.apply(z.Compression),
				Includes:    convertIncludes(sub, z.Includes),
			})
		}
	}

	proj.PreBuild = convertEvent(sub, raw.PreBuild)
	proj.PostBuild = convertEvent(sub, raw.PostBuild)

	return proj, nil
}

func convertIncludes(sub *substituter, raw []rawInclude) []Include {
	includes := make([]Include, 0, len(raw))
	for _, inc := range raw {
		text := strings.TrimSpace(sub.apply(inc.Text))
		if text == "" {
			continue
		}
		includes = append(includes, Include{
			Text:      text,
			NoRecurse: parseBool(inc.NoRecurse),
		})
	}
	return includes
}

func convertEvent(sub *substituter, raw *rawEvent) *BuildEvent {
	if raw == nil {
		return nil
	}
	event := &BuildEvent{
		Description: sub.apply(raw.Description),
		UseInBuild:  parseBool(raw.UseInBuild),
	}
	for _, c := range raw.Commands {
		if text := strings.TrimSpace(sub.apply(c)); text != "" {
			event.Commands = append(event.Commands, text)
		}
	}
	return event
}

// parseBool implements the descriptor's boolean attribute semantics: the
// literal "True" in any casing is true, everything else is false.
func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// absAgainst resolves p against base when relative. An empty p resolves
// to base itself.
func absAgainst(base, p string) string {
	if p == "" {
		return base
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return filepath.Clean(p)
}

// substituter replaces @Name references with declared variable values.
// Later variables may reference earlier ones. Names are matched longest
// first so @ModName is never clobbered by a shorter @Mod.
type substituter struct {
	vars  map[string]string
	names []string
}

func newSubstituter(vars []rawVariable) *substituter {
	s := &substituter{vars: make(map[string]string, len(vars))}
	for _, v := range vars {
		if v.Name == "" {
			continue
		}
		s.vars[v.Name] = s.apply(v.Value)
		s.names = append(s.names, v.Name)
		sort.Slice(s.names, func(i, j int) bool {
			return len(s.names[i]) > len(s.names[j])
		})
	}
	return s
}

func (s *substituter) apply(text string) string {
	if len(s.names) == 0 || !strings.Contains(text, "@") {
		return text
	}
	for _, name := range s.names {
		text = strings.ReplaceAll(text, "@"+name, s.vars[name])
	}
	return text
}
