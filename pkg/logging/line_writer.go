package logging

import (
	"bytes"
	"io"
	"strings"
)

// LineWriter is an io.Writer that buffers input until a newline and hands
// each complete line to a sink. A partial trailing line stays buffered until
// more data arrives or Flush is called.
type LineWriter struct {
	sink   func(line []byte) error
	buffer bytes.Buffer
}

// NewPrefixWriter returns a LineWriter that prepends prefix to every line
// before writing it to w.
func NewPrefixWriter(prefix string, w io.Writer) *LineWriter {
	return &LineWriter{
		sink: func(line []byte) error {
			if _, err := io.WriteString(w, prefix); err != nil {
				return err
			}
			_, err := w.Write(line)
			return err
		},
	}
}

// NewLogWriter returns a LineWriter that feeds each line, stripped of its
// trailing line ending, to log. Used to stream subprocess output through
// an hclog logger one line at a time.
func NewLogWriter(log func(line string)) *LineWriter {
	return &LineWriter{
		sink: func(line []byte) error {
			log(strings.TrimRight(string(line), "\r\n"))
			return nil
		},
	}
}

// Write implements the io.Writer interface.
func (lw *LineWriter) Write(p []byte) (int, error) {
	n := len(p)
	if _, err := lw.buffer.Write(p); err != nil {
		return 0, err
	}

	for {
		line, err := lw.buffer.ReadBytes('\n')
		if err != nil {
			// Incomplete line: put it back and wait for more data.
			if len(line) > 0 {
				if _, wErr := lw.buffer.Write(line); wErr != nil {
					return 0, wErr
				}
			}
			break
		}

		if err := lw.sink(line); err != nil {
			return 0, err
		}
	}

	return n, nil
}

// Flush emits any buffered partial line. Call it after the producing process
// exits so final unterminated output is not lost.
func (lw *LineWriter) Flush() error {
	if lw.buffer.Len() == 0 {
		return nil
	}
	line := append([]byte(nil), lw.buffer.Bytes()...)
	lw.buffer.Reset()
	return lw.sink(line)
}
