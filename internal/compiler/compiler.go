// Package compiler drives the external Papyrus script compiler.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/emberforge/pyrite/internal/proc"
	"github.com/emberforge/pyrite/pkg/game"
)

// ErrCompilationFailed marks scripts the compiler rejected.
var ErrCompilationFailed = errors.New("script compilation failed")

const (
	sourceExt   = ".psc"
	compiledExt = ".pex"
)

// Options configure a compile run. Directory paths are absolute.
type Options struct {
	CompilerPath string
	FlagsFile    string   // file name, located by the compiler via the import list
	Imports      []string // searched in order by the compiler
	OutputDir    string
	Game         game.Type
	Optimize     bool
	Release      bool // fo4 only
	Final        bool // fo4 only
}

// Driver compiles Papyrus sources in parallel through a process runner.
type Driver struct {
	opts   Options
	runner proc.Runner
	logger hclog.Logger
}

func New(opts Options, runner proc.Runner, logger hclog.Logger) *Driver {
	return &Driver{opts: opts, runner: runner, logger: logger}
}

// BuildCommand assembles the compiler invocation for one source file.
// Argument order follows the compiler's expectations: source first,
// then -f/-i/-o, then the per-game switches, quiet last.
func (d *Driver) BuildCommand(sourcePath string) proc.Command {
	argv := []string{
		d.opts.CompilerPath,
		sourcePath,
		"-f=" + d.opts.FlagsFile,
		"-i=" + strings.Join(d.opts.Imports, ";"),
		"-o=" + d.opts.OutputDir,
	}
	if d.opts.Optimize {
		argv = append(argv, "-op")
	}
	if d.opts.Game == game.FO4 {
		if d.opts.Release {
			argv = append(argv, "-release")
		}
		if d.opts.Final {
			argv = append(argv, "-final")
		}
	}
	argv = append(argv, "-q")
	return proc.Command{Argv: argv}
}

// OutputPath returns where the compiled form of a source lands.
func (d *Driver) OutputPath(sourcePath string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return filepath.Join(d.opts.OutputDir, stem+compiledExt)
}

// Compile runs the compiler over every source, one worker per CPU.
// Each failure is logged; the first one cancels the remaining work and
// is returned once in-flight compiles finish.
func (d *Driver) Compile(ctx context.Context, sources []string) error {
	if len(sources) == 0 {
		d.logger.Warn("no scripts to compile")
		return nil
	}

	if err := os.MkdirAll(d.opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create script output folder: %w", err)
	}

	workers := runtime.NumCPU()
	d.logger.Info("🚀 compiling scripts", "count", len(sources), "workers", workers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, source := range sources {
		g.Go(func() error {
			name := filepath.Base(source)
			d.logger.Debug("compiling", "script", name)

			status, err := d.runner.Run(ctx, d.BuildCommand(source))
			if err != nil {
				return fmt.Errorf("run compiler: %w", err)
			}
			if status != 0 {
				d.logger.Error("❌ compilation failed", "script", name, "status", status)
				return fmt.Errorf("%w: %s", ErrCompilationFailed, name)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	d.logger.Info("✅ compiled scripts", "count", len(sources))
	return nil
}
