// Package archiver builds and runs the external archiver invocation that
// packs one staged folder into a game archive.
package archiver

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/emberforge/pyrite/internal/proc"
	"github.com/emberforge/pyrite/pkg/game"
)

// ErrArchiverFailed reports a non-zero archiver exit.
var ErrArchiverFailed = errors.New("archiver failed")

// BuildCommand returns the invocation that packs folder into outputPath:
//
//	<archiverPath> pack <folder> <outputPath> <formatFlag>
func BuildCommand(archiverPath, folder, outputPath string, g game.Type) proc.Command {
	return proc.Command{
		Argv: []string{archiverPath, "pack", folder, outputPath, g.ArchiverFlag()},
	}
}

// Invoker runs archiver commands through a Runner.
type Invoker struct {
	Archiver string // archiver executable path
	Runner   proc.Runner
	Logger   hclog.Logger
}

// Pack archives folder into outputPath for game g, blocking until the
// archiver exits. A non-zero exit maps to ErrArchiverFailed; failures stay
// scoped to the package being built, the caller decides whether to go on.
func (inv *Invoker) Pack(ctx context.Context, folder, outputPath string, g game.Type) error {
	cmd := BuildCommand(inv.Archiver, folder, outputPath, g)

	if inv.Logger != nil {
		inv.Logger.Debug("📦 invoking archiver", "command", cmd.String())
	}

	status, err := inv.Runner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiverFailed, err)
	}
	if status != 0 {
		return fmt.Errorf("%w: exit status %d", ErrArchiverFailed, status)
	}
	return nil
}
