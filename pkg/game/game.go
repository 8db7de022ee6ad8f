// Package game identifies the supported titles and the per-title
// packaging parameters that differ between them.
package game

import (
	"fmt"
	"strings"
)

// Type identifies one supported game.
type Type string

const (
	TES5 Type = "tes5" // Skyrim Classic
	SSE  Type = "sse"  // Skyrim Special Edition
	FO4  Type = "fo4"  // Fallout 4
)

// Parse maps user input to a Type. Matching is case-insensitive and
// accepts "tesv" as an alias for tes5.
func Parse(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tes5", "tesv":
		return TES5, nil
	case "sse":
		return SSE, nil
	case "fo4":
		return FO4, nil
	}
	return "", fmt.Errorf("unknown game %q (expected tes5, sse, or fo4)", s)
}

func (t Type) String() string {
	return string(t)
}

// ArchiveExt returns the game archive extension: .ba2 for Fallout 4,
// .bsa for both Skyrim generations.
func (t Type) ArchiveExt() string {
	if t == FO4 {
		return ".ba2"
	}
	return ".bsa"
}

// ArchiverFlag returns the format flag passed to the archiver. tes5 is
// the fallback for any game without ba2 support.
func (t Type) ArchiverFlag() string {
	switch t {
	case FO4:
		return "-fo4"
	case SSE:
		return "-sse"
	default:
		return "-tes5"
	}
}

// FlagsFile returns the default compiler flags file shipped with the game.
func (t Type) FlagsFile() string {
	if t == FO4 {
		return "Institute_Papyrus_Flags.flg"
	}
	return "TESV_Papyrus_Flags.flg"
}
