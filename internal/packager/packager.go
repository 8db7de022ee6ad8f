// Package packager builds the artifacts a project declares: game archives
// through the external archiver, and zips written directly.
//
// One Packager serves one build run. It owns the run-scoped output-name
// sets, the staging tree, and the archiver invoker; packages are built
// strictly one after another because they share the staging tree.
package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/emberforge/pyrite/internal/archiver"
	"github.com/emberforge/pyrite/internal/proc"
	"github.com/emberforge/pyrite/internal/staging"
	"github.com/emberforge/pyrite/pkg/game"
	"github.com/emberforge/pyrite/pkg/includes"
	"github.com/emberforge/pyrite/pkg/ppj"
)

// Options is the run configuration for a Packager.
type Options struct {
	Game          game.Type
	ArchiverPath  string
	StagingDir    string // temporary tree the archiver packs from
	PackageOutput string // where game archives land
	ZipOutput     string // where zips land
	ProjectDir    string // base for resolving relative zip roots
}

// Packager drives package and zip builds for one run.
type Packager struct {
	opts     Options
	resolver *includes.Resolver
	area     *staging.Area
	invoker  *archiver.Invoker
	logger   hclog.Logger

	packageNames nameSet
	zipNames     nameSet
}

// New returns a Packager. runner executes archiver commands; production
// callers pass a proc.ExecRunner, tests pass fakes.
func New(opts Options, runner proc.Runner, logger hclog.Logger) *Packager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Packager{
		opts:     opts,
		resolver: includes.NewResolver(logger.Named("includes")),
		area:     staging.New(opts.StagingDir, logger.Named("staging")),
		invoker: &archiver.Invoker{
			Archiver: opts.ArchiverPath,
			Runner:   runner,
			Logger:   logger.Named("archiver"),
		},
		logger:       logger,
		packageNames: make(nameSet),
		zipNames:     make(nameSet),
	}
}

// BuildPackages builds every declared package in order: resolve includes,
// stage them, run the archiver, clear staging. An archiver failure is
// logged and charged to its package only; the remaining declarations still
// build. Staging failures and unwritable outputs stop the run.
func (p *Packager) BuildPackages(ctx context.Context, packages []ppj.PackageDecl) error {
	if len(packages) == 0 {
		return nil
	}

	// leftovers from an earlier aborted run
	p.area.Clear()

	if err := os.MkdirAll(p.opts.PackageOutput, 0o755); err != nil {
		return fmt.Errorf("create package output folder: %w", err)
	}

	for i, decl := range packages {
		if err := p.buildPackage(ctx, i, decl); err != nil {
			if errors.Is(err, archiver.ErrArchiverFailed) {
				p.logger.Error("❌ package build failed", "name", decl.Name, "error", err)
				continue
			}
			return err
		}
	}
	return nil
}

func (p *Packager) buildPackage(ctx context.Context, index int, decl ppj.PackageDecl) error {
	fileName := resolveOutputName(p.packageNames, decl.Name, index)
	fileName = fixPackageExt(fileName, p.opts.Game)

	outputPath := filepath.Join(p.opts.PackageOutput, fileName)
	if err := checkWritable(outputPath); err != nil {
		return err
	}

	p.logger.Info("📦 creating package", "file", fileName)
	defer p.area.Clear()

	staged := 0
	for _, inc := range decl.Includes {
		for source := range p.resolver.Resolve(includes.Declaration{
			PathOrPattern: inc.Text,
			NoRecurse:     inc.NoRecurse,
			RootDir:       decl.RootDir,
		}) {
			p.logger.Info("+ including", "path", source)
			if _, err := p.area.Stage(source, decl.RootDir); err != nil {
				return err
			}
			staged++
		}
	}

	if err := p.invoker.Pack(ctx, p.area.Root(), outputPath, p.opts.Game); err != nil {
		return err
	}

	p.logger.Info("✅ wrote package", "path", outputPath, "files", staged)
	return nil
}
