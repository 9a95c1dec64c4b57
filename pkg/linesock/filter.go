package linesock

import (
	"fmt"
	"regexp"

	"github.com/charmbracelet/x/ansi"
)

// StripMode selects which escape sequences are removed from completed lines.
type StripMode string

const (
	StripNone StripMode = "none"
	StripCSI  StripMode = "csi" // ESC [ ... final byte: colors, cursor movement, erase
	StripAll  StripMode = "all" // every ANSI/VT sequence, including OSC and DCS
)

// csiPattern matches a control sequence: the ESC [ introducer, parameter bytes 0x30-0x3F,
// intermediate bytes 0x20-0x2F and one final byte 0x40-0x7E.
var csiPattern = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

// StripCSISequences removes ANSI control sequences (like color codes) from line.
// Removing a sequence can join the bytes around it into a new one (ESC [ ESC[31m m), so
// it repeats until nothing matches.
func StripCSISequences(line string) string {
	for {
		out := csiPattern.ReplaceAllString(line, "")
		if out == line {
			return out
		}
		line = out
	}
}

// StripAllSequences removes every ANSI escape sequence from line, for example window title
// (OSC) and hyperlink sequences which StripCSISequences leaves in place.
func StripAllSequences(line string) string {
	return ansi.Strip(line)
}

// ParseStripMode parses "none", "csi" or "all". The empty string means "none".
func ParseStripMode(s string) (StripMode, error) {
	switch StripMode(s) {
	case "", StripNone:
		return StripNone, nil
	case StripCSI:
		return StripCSI, nil
	case StripAll:
		return StripAll, nil
	}
	return StripNone, fmt.Errorf("unknown strip mode %q (valid: none, csi, all)", s)
}

// filter returns the function applied to each completed line, or nil for StripNone.
func (m StripMode) filter() func(string) string {
	switch m {
	case StripCSI:
		return StripCSISequences
	case StripAll:
		return StripAllSequences
	}
	return nil
}
