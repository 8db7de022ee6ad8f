package archiver

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/emberforge/pyrite/internal/proc"
	"github.com/emberforge/pyrite/pkg/game"
)

// fakeRunner records invocations and plays back canned results.
type fakeRunner struct {
	commands []proc.Command
	status   int
	err      error
}

func (f *fakeRunner) Run(_ context.Context, cmd proc.Command) (int, error) {
	f.commands = append(f.commands, cmd)
	return f.status, f.err
}

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name     string
		game     game.Type
		wantArgv []string
		wantStr  string
	}{
		{
			name:     "classic skyrim",
			game:     game.TES5,
			wantArgv: []string{"/usr/bin/bsarch", "pack", "/tmp/stage", "/out/Foo.bsa", "-tes5"},
			wantStr:  `"/usr/bin/bsarch" pack "/tmp/stage" "/out/Foo.bsa" -tes5`,
		},
		{
			name:     "special edition",
			game:     game.SSE,
			wantArgv: []string{"/usr/bin/bsarch", "pack", "/tmp/stage", "/out/Foo.bsa", "-sse"},
			wantStr:  `"/usr/bin/bsarch" pack "/tmp/stage" "/out/Foo.bsa" -sse`,
		},
		{
			name:     "fallout 4",
			game:     game.FO4,
			wantArgv: []string{"/usr/bin/bsarch", "pack", "/tmp/stage", "/out/Foo.bsa", "-fo4"},
			wantStr:  `"/usr/bin/bsarch" pack "/tmp/stage" "/out/Foo.bsa" -fo4`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := BuildCommand("/usr/bin/bsarch", "/tmp/stage", "/out/Foo.bsa", tt.game)
			if diff := cmp.Diff(tt.wantArgv, cmd.Argv); diff != "" {
				t.Errorf("argv mismatch (-want +got):\n%s", diff)
			}
			if got := cmd.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestInvokerPack(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		runErr    error
		wantErr   bool
		wantIs    error
		wantCalls int
	}{
		{
			name:      "clean exit",
			status:    0,
			wantCalls: 1,
		},
		{
			name:      "non-zero exit",
			status:    2,
			wantErr:   true,
			wantIs:    ErrArchiverFailed,
			wantCalls: 1,
		},
		{
			name:      "runner failure",
			runErr:    errors.New("binary not found"),
			wantErr:   true,
			wantIs:    ErrArchiverFailed,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{status: tt.status, err: tt.runErr}
			inv := &Invoker{Archiver: "/usr/bin/bsarch", Runner: runner}

			err := inv.Pack(context.Background(), "/tmp/stage", "/out/Foo.bsa", game.TES5)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Pack() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("Pack() error = %v, want %v", err, tt.wantIs)
			}
			if len(runner.commands) != tt.wantCalls {
				t.Fatalf("runner calls = %d, want %d", len(runner.commands), tt.wantCalls)
			}

			want := []string{"/usr/bin/bsarch", "pack", "/tmp/stage", "/out/Foo.bsa", "-tes5"}
			if diff := cmp.Diff(want, runner.commands[0].Argv); diff != "" {
				t.Errorf("recorded argv mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
