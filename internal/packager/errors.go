package packager

import "errors"

var (
	// ErrOutputNotWritable is returned when an existing artifact cannot be
	// opened for writing. The run stops rather than build into a file it
	// cannot replace.
	ErrOutputNotWritable = errors.New("cannot create file without write permission")

	// ErrRootNotFound is returned when a zip's relative root directory does
	// not resolve to an existing folder under the project.
	ErrRootNotFound = errors.New("cannot resolve root directory to an existing folder")
)
