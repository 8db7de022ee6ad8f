package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-hclog"

	"github.com/emberforge/pyrite/internal/proc"
	"github.com/emberforge/pyrite/pkg/game"
	"github.com/emberforge/pyrite/pkg/ppj"
)

// fakeCompiler plays the external compiler: it records invocations and
// drops a compiled output for each accepted source.
type fakeCompiler struct {
	mu       sync.Mutex
	commands []proc.Command
	reject   map[string]int // source path to non-zero exit status
	outDir   string
}

func (f *fakeCompiler) Run(_ context.Context, cmd proc.Command) (int, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()

	source := cmd.Argv[1]
	if status, ok := f.reject[source]; ok {
		return status, nil
	}
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if err := os.WriteFile(filepath.Join(f.outDir, stem+".pex"), []byte("pex"), 0o644); err != nil {
		return -1, err
	}
	return 0, nil
}

func (f *fakeCompiler) sourcesSeen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make([]string, 0, len(f.commands))
	for _, cmd := range f.commands {
		seen = append(seen, cmd.Argv[1])
	}
	slices.Sort(seen)
	return seen
}

func newTestLogger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.Trace,
	})
}

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "skyrim with optimize",
			opts: Options{
				CompilerPath: "/opt/papyrus/PapyrusCompiler.exe",
				FlagsFile:    "TESV_Papyrus_Flags.flg",
				Imports:      []string{"/data/source", "/data/base"},
				OutputDir:    "/data/scripts",
				Game:         game.TES5,
				Optimize:     true,
			},
			want: []string{
				"/opt/papyrus/PapyrusCompiler.exe",
				"/data/source/main.psc",
				"-f=TESV_Papyrus_Flags.flg",
				"-i=/data/source;/data/base",
				"-o=/data/scripts",
				"-op",
				"-q",
			},
		},
		{
			name: "fallout release final",
			opts: Options{
				CompilerPath: "/opt/papyrus/PapyrusCompiler.exe",
				FlagsFile:    "Institute_Papyrus_Flags.flg",
				Imports:      []string{"/data/source"},
				OutputDir:    "/data/scripts",
				Game:         game.FO4,
				Release:      true,
				Final:        true,
			},
			want: []string{
				"/opt/papyrus/PapyrusCompiler.exe",
				"/data/source/main.psc",
				"-f=Institute_Papyrus_Flags.flg",
				"-i=/data/source",
				"-o=/data/scripts",
				"-release",
				"-final",
				"-q",
			},
		},
		{
			name: "release and final only apply to fallout",
			opts: Options{
				CompilerPath: "/opt/papyrus/PapyrusCompiler.exe",
				FlagsFile:    "TESV_Papyrus_Flags.flg",
				Imports:      []string{"/data/source"},
				OutputDir:    "/data/scripts",
				Game:         game.SSE,
				Release:      true,
				Final:        true,
			},
			want: []string{
				"/opt/papyrus/PapyrusCompiler.exe",
				"/data/source/main.psc",
				"-f=TESV_Papyrus_Flags.flg",
				"-i=/data/source",
				"-o=/data/scripts",
				"-q",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.opts, nil, newTestLogger("compiler_test"))
			got := d.BuildCommand("/data/source/main.psc")
			if diff := cmp.Diff(tt.want, got.Argv); diff != "" {
				t.Errorf("argv mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileRunsAllSources(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	sources := []string{
		filepath.Join(dir, "alpha.psc"),
		filepath.Join(dir, "beta.psc"),
		filepath.Join(dir, "gamma.psc"),
	}

	runner := &fakeCompiler{outDir: outDir}
	d := New(Options{
		CompilerPath: "/opt/papyrus/PapyrusCompiler.exe",
		FlagsFile:    "TESV_Papyrus_Flags.flg",
		Imports:      []string{dir},
		OutputDir:    outDir,
		Game:         game.SSE,
	}, runner, newTestLogger("compiler_test"))

	start := time.Now()
	if err := d.Compile(context.Background(), sources); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	want := slices.Clone(sources)
	slices.Sort(want)
	if diff := cmp.Diff(want, runner.sourcesSeen()); diff != "" {
		t.Errorf("compiled sources mismatch (-want +got):\n%s", diff)
	}
	if err := d.Validate(sources, start); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestCompileFailureReturnsError(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	sources := []string{
		filepath.Join(dir, "alpha.psc"),
		filepath.Join(dir, "broken.psc"),
	}

	runner := &fakeCompiler{
		outDir: outDir,
		reject: map[string]int{sources[1]: 1},
	}
	d := New(Options{OutputDir: outDir, Game: game.SSE}, runner, newTestLogger("compiler_test"))

	err := d.Compile(context.Background(), sources)
	if !errors.Is(err, ErrCompilationFailed) {
		t.Fatalf("Compile() error = %v, want ErrCompilationFailed", err)
	}
}

func TestCompileNoSourcesIsNoop(t *testing.T) {
	runner := &fakeCompiler{}
	d := New(Options{OutputDir: t.TempDir()}, runner, newTestLogger("compiler_test"))

	if err := d.Compile(context.Background(), nil); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(runner.commands) != 0 {
		t.Errorf("compiler invoked %d times, want 0", len(runner.commands))
	}
}

func TestValidateReportsMissingAndStale(t *testing.T) {
	outDir := t.TempDir()
	d := New(Options{OutputDir: outDir}, nil, newTestLogger("compiler_test"))

	fresh := filepath.Join(outDir, "fresh.pex")
	stale := filepath.Join(outDir, "stale.pex")
	for _, path := range []string{fresh, stale} {
		if err := os.WriteFile(path, []byte("pex"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	sources := []string{"/src/fresh.psc", "/src/stale.psc", "/src/absent.psc"}
	err := d.Validate(sources, time.Now().Add(-time.Minute))
	if !errors.Is(err, ErrMissingOutputs) {
		t.Fatalf("Validate() error = %v, want ErrMissingOutputs", err)
	}
	for _, name := range []string{"stale.pex", "absent.pex"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Validate() error %q does not name %s", err, name)
		}
	}
	if strings.Contains(err.Error(), "fresh.pex") {
		t.Errorf("Validate() error %q names fresh.pex", err)
	}
}

func TestSources(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "src", "main.psc"), "main")
	mustWrite(t, filepath.Join(dir, "src", "util", "helper.psc"), "helper")
	mustWrite(t, filepath.Join(dir, "src", "util", "readme.md"), "doc")
	mustWrite(t, filepath.Join(dir, "imports", "shared.psc"), "shared")

	proj := &ppj.Project{
		Dir:     dir,
		Imports: []string{filepath.Join(dir, "imports")},
		Scripts: []string{"src/main.psc", "shared.psc"},
		Folders: []ppj.Folder{{Path: filepath.Join(dir, "src")}},
	}

	got, err := Sources(proj, newTestLogger("compiler_test"))
	if err != nil {
		t.Fatalf("Sources() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "imports", "shared.psc"),
		filepath.Join(dir, "src", "main.psc"),
		filepath.Join(dir, "src", "util", "helper.psc"),
	}
	slices.Sort(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestSourcesFolderNoRecurse(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "src", "main.psc"), "main")
	mustWrite(t, filepath.Join(dir, "src", "util", "helper.psc"), "helper")

	proj := &ppj.Project{
		Dir:     dir,
		Folders: []ppj.Folder{{Path: filepath.Join(dir, "src"), NoRecurse: true}},
	}

	got, err := Sources(proj, newTestLogger("compiler_test"))
	if err != nil {
		t.Fatalf("Sources() error = %v", err)
	}
	want := []string{filepath.Join(dir, "src", "main.psc")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestSourcesMissingScriptFatal(t *testing.T) {
	proj := &ppj.Project{
		Dir:     t.TempDir(),
		Scripts: []string{"ghost.psc"},
	}
	if _, err := Sources(proj, newTestLogger("compiler_test")); err == nil {
		t.Fatal("Sources() error = nil, want missing script failure")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
