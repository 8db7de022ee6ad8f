package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrMissingOutputs marks a compile run whose output folder lacks, or
// holds stale copies of, expected compiled scripts. Packaging must not
// run while any output is missing.
var ErrMissingOutputs = errors.New("missing compiled scripts")

// Validate checks that every source has a compiled output no older than
// the given start time.
func (d *Driver) Validate(sources []string, start time.Time) error {
	// Filesystem mtimes can be coarser than the monotonic clock.
	cutoff := start.Truncate(time.Second)

	var missing []string
	for _, source := range sources {
		output := d.OutputPath(source)
		info, err := os.Stat(output)
		if err != nil || info.ModTime().Before(cutoff) {
			missing = append(missing, filepath.Base(output))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingOutputs, strings.Join(missing, ", "))
	}
	return nil
}
