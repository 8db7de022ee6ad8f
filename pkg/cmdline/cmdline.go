// Package cmdline renders and tokenizes archiver and compiler command lines.
//
// The grammar is deliberately narrower than POSIX shell word splitting:
// double quotes group words, and backslash is an ordinary character, so
// Windows paths like C:\Games\Skyrim survive untouched. Single quotes are
// legal filename characters and carry no special meaning.
package cmdline

import (
	"errors"
	"strings"
	"unicode"
)

// ErrUnclosedQuote is returned when a quoted argument is not closed
var ErrUnclosedQuote = errors.New("unclosed quote in command line")

// Split parses a command line into arguments.
//
// Parsing rules:
//   - Words are separated by whitespace
//   - Double quotes group words; the quotes themselves are stripped
//   - "" yields an empty argument
//   - Backslash is a literal character, never an escape
//   - Empty input returns an empty slice
//
// Examples:
//
//	Split(`bsarch pack src out.bsa -tes5`) => ["bsarch", "pack", "src", "out.bsa", "-tes5"]
//	Split(`"C:\Program Files\BSArch\bsarch.exe" pack`) => [`C:\Program Files\BSArch\bsarch.exe`, "pack"]
func Split(input string) ([]string, error) {
	if input == "" {
		return []string{}, nil
	}

	var result []string
	var current strings.Builder
	var inQuote bool
	var sawQuote bool // a quoted empty string is still an argument

	for _, ch := range input {
		switch {
		case ch == '"':
			if inQuote {
				inQuote = false
				sawQuote = true
			} else {
				inQuote = true
			}
		case unicode.IsSpace(ch) && !inQuote:
			if current.Len() > 0 || sawQuote {
				result = append(result, current.String())
				current.Reset()
				sawQuote = false
			}
		default:
			current.WriteRune(ch)
		}
	}

	if inQuote {
		return nil, ErrUnclosedQuote
	}

	if current.Len() > 0 || sawQuote {
		result = append(result, current.String())
	}

	return result, nil
}

// Join combines arguments into one command line, quoting with Quote.
// Split(Join(args)) round-trips as long as no argument embeds a double
// quote, which no valid path can.
func Join(args []string) string {
	if len(args) == 0 {
		return ""
	}

	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, Quote(arg))
	}

	return strings.Join(parts, " ")
}

// Quote double-quotes an argument when it contains whitespace or a path
// separator. Path-bearing arguments are therefore always rendered quoted,
// bare words and flags never are.
func Quote(arg string) string {
	if arg == "" {
		return `""`
	}
	if !needsQuote(arg) {
		return arg
	}
	return `"` + arg + `"`
}

func needsQuote(arg string) bool {
	for _, ch := range arg {
		if unicode.IsSpace(ch) || ch == '"' || ch == '/' || ch == '\\' {
			return true
		}
	}
	return false
}
