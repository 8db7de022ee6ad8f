// Package build runs the whole pipeline for one project: build events,
// compilation, output validation, packaging, and zipping.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/emberforge/pyrite/internal/compiler"
	"github.com/emberforge/pyrite/internal/config"
	"github.com/emberforge/pyrite/internal/packager"
	"github.com/emberforge/pyrite/internal/proc"
	"github.com/emberforge/pyrite/pkg/game"
	"github.com/emberforge/pyrite/pkg/logging"
	"github.com/emberforge/pyrite/pkg/ppj"
	"github.com/emberforge/pyrite/pkg/timing"
)

// ErrNoGame is returned when neither the project, the configuration,
// nor the command line names a target game.
var ErrNoGame = errors.New("no game specified")

// Options come from the command line.
type Options struct {
	ProjectPath string
	ConfigPath  string
	Game        string // overrides the project's Game attribute
	Quiet       bool
	SkipCompile bool
	SkipPackage bool
	SkipZip     bool
}

// Run executes the pipeline and returns the first fatal error.
func Run(ctx context.Context, opts Options) error {
	level := ""
	if opts.Quiet {
		level = "warn"
	}
	logger := logging.NewLogger(config.AppName, level, os.Stderr)
	runner := &proc.ExecRunner{Logger: logger.Named("proc")}
	return run(ctx, opts, runner, logger)
}

func run(ctx context.Context, opts Options, runner proc.Runner, logger hclog.Logger) error {
	logger.Info("Pyrite Papyrus builder starting...")
	watch := timing.Start()

	cfg, cfgFile, err := config.Load(opts.ConfigPath)
	if err != nil {
		logger.Error("❌ Failed to load configuration", "error", err)
		return err
	}
	if cfgFile != "" {
		logger.Debug("configuration loaded", "file", cfgFile)
	}

	proj, err := ppj.Load(opts.ProjectPath)
	if err != nil {
		logger.Error("❌ Failed to load project", "error", err, "path", opts.ProjectPath)
		return err
	}
	logger.Info("📋 Project loaded", "name", proj.Name, "path", proj.Path)

	g, err := pickGame(opts, cfg, proj)
	if err != nil {
		logger.Error("❌ Failed to determine target game", "error", err)
		return err
	}
	logger.Debug("target game", "game", g)

	if proj.Anonymize {
		logger.Warn("⚠️ Script anonymization is not supported, skipping")
	}

	if err := runEvent(ctx, logger, runner, proj.PreBuild, proj.Dir, "pre-build"); err != nil {
		return err
	}

	if opts.SkipCompile {
		logger.Info("Skipping compilation")
	} else {
		if err := compile(ctx, logger, runner, cfg, proj, g); err != nil {
			return err
		}
		logger.Debug("stage finished", "stage", "compile", "duration", watch.Mark("compile").Duration.String())
	}

	wantPackages := proj.Package && len(proj.Packages) > 0 && !opts.SkipPackage
	wantZips := proj.Zip && len(proj.ZipFiles) > 0 && !opts.SkipZip

	if wantPackages || wantZips {
		pkgr := packager.New(packager.Options{
			Game:          g,
			ArchiverPath:  cfg.ArchiverPath,
			StagingDir:    filepath.Join(resolveDir(proj.Dir, cfg.TempDir, os.TempDir()), proj.Name),
			PackageOutput: outputFor(proj.PackageOutput, proj.Dir, cfg.PackageOutput),
			ZipOutput:     outputFor(proj.ZipOutput, proj.Dir, cfg.ZipOutput),
			ProjectDir:    proj.Dir,
		}, runner, logger.Named("packager"))

		if wantPackages {
			if cfg.ArchiverPath == "" {
				logger.Error("❌ No archiver configured", "hint", "set archiver_path in pyrite.toml or PYRITE_ARCHIVER_PATH")
				return errors.New("archiver path not configured")
			}
			if err := pkgr.BuildPackages(ctx, proj.Packages); err != nil {
				logger.Error("❌ Packaging failed", "error", err)
				return err
			}
			logger.Debug("stage finished", "stage", "package", "duration", watch.Mark("package").Duration.String())
		}

		if wantZips {
			if err := pkgr.BuildArchives(proj.ZipFiles); err != nil {
				logger.Error("❌ Zip build failed", "error", err)
				return err
			}
			logger.Debug("stage finished", "stage", "zip", "duration", watch.Mark("zip").Duration.String())
		}
	}

	if err := runEvent(ctx, logger, runner, proj.PostBuild, proj.Dir, "post-build"); err != nil {
		return err
	}

	fields := []any{"elapsed", watch.Total().String()}
	for _, stage := range watch.Stages() {
		fields = append(fields, stage.Name, stage.Duration.String())
	}
	logger.Info("✅ Build complete", fields...)
	return nil
}

// compile gathers the project's sources, runs the compiler over them,
// and refuses to continue when any expected output is absent.
func compile(ctx context.Context, logger hclog.Logger, runner proc.Runner, cfg *config.Config, proj *ppj.Project, g game.Type) error {
	if cfg.CompilerPath == "" {
		logger.Error("❌ No compiler configured", "hint", "set compiler_path in pyrite.toml or PYRITE_COMPILER_PATH")
		return errors.New("compiler path not configured")
	}

	sources, err := compiler.Sources(proj, logger.Named("compiler"))
	if err != nil {
		logger.Error("❌ Failed to gather scripts", "error", err)
		return err
	}

	flags := proj.FlagsFile
	if flags == "" {
		flags = g.FlagsFile()
	}

	driver := compiler.New(compiler.Options{
		CompilerPath: cfg.CompilerPath,
		FlagsFile:    flags,
		Imports:      proj.Imports,
		OutputDir:    outputFor(proj.OutputDir, proj.Dir, cfg.OutputDir),
		Game:         g,
		Optimize:     proj.Optimize,
		Release:      proj.Release,
		Final:        proj.Final,
	}, runner, logger.Named("compiler"))

	start := time.Now()
	if err := driver.Compile(ctx, sources); err != nil {
		logger.Error("❌ Compilation failed", "error", err)
		return err
	}
	if err := driver.Validate(sources, start); err != nil {
		logger.Error("❌ Cannot package without all compiled scripts", "error", err)
		return err
	}
	return nil
}

// runEvent executes one build event's command lines in the project
// directory. A failing command stops the build.
func runEvent(ctx context.Context, logger hclog.Logger, runner proc.Runner, event *ppj.BuildEvent, dir, name string) error {
	if event == nil || !event.UseInBuild || len(event.Commands) == 0 {
		return nil
	}

	if event.Description != "" {
		logger.Info("🚀 Running build event", "event", name, "description", event.Description)
	} else {
		logger.Info("🚀 Running build event", "event", name)
	}

	for _, line := range event.Commands {
		cmd, err := proc.Parse(line, dir)
		if err != nil {
			logger.Error("❌ Cannot parse build event command", "event", name, "command", line, "error", err)
			return err
		}
		status, err := runner.Run(ctx, cmd)
		if err != nil {
			logger.Error("❌ Build event command failed to run", "event", name, "command", line, "error", err)
			return err
		}
		if status != 0 {
			logger.Error("❌ Build event command failed", "event", name, "command", line, "status", status)
			return fmt.Errorf("%s command failed with status %d", name, status)
		}
	}
	return nil
}

// pickGame applies the precedence command line > project > configuration.
func pickGame(opts Options, cfg *config.Config, proj *ppj.Project) (game.Type, error) {
	if opts.Game != "" {
		return game.Parse(opts.Game)
	}
	if proj.Game != "" {
		return proj.Game, nil
	}
	if cfg.Game != "" {
		return game.Parse(cfg.Game)
	}
	return "", ErrNoGame
}

// outputFor picks the project's own output folder when set, otherwise
// the configured fallback resolved against the project directory.
func outputFor(own, projectDir, configured string) string {
	if own != "" {
		return own
	}
	return resolveDir(projectDir, configured, projectDir)
}

// resolveDir makes path absolute against base, falling back when empty.
func resolveDir(base, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(base, path))
}
