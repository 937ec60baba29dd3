package gopher

import "strings"

// GophermapLineKind classifies one line of a parsed gophermap file.
type GophermapLineKind int

const (
	// GophermapLineInfo is a plain info line (zero TABs, not "." or "*").
	GophermapLineInfo GophermapLineKind = iota
	// GophermapLineItem is a parsed TAB-separated item record.
	GophermapLineItem
	// GophermapLineWildcard is a bare "*", requesting an inline auto
	// listing of the gophermap's own directory.
	GophermapLineWildcard
	// GophermapLineTerminator is a bare ".", which stops processing; any
	// line after it is ignored.
	GophermapLineTerminator
	// GophermapLineParseError is a line with at least one TAB that failed
	// to parse as an item.
	GophermapLineParseError
)

// GophermapLine is one classified, already-parsed line of a gophermap
// file, ready to be rendered by the response builder.
type GophermapLine struct {
	Kind GophermapLineKind
	Info string
	Item *GopherItem
	Raw  string
}

// ParseGophermapLines classifies every line of a gophermap file's raw
// contents in order, stopping at (and including) the first "." line.
// Lines after a terminator are never returned, matching the boundary
// behavior that a gophermap's "." stops processing outright.
func ParseGophermapLines(data []byte, defaultHost string, defaultPort int) []GophermapLine {
	var lines []GophermapLine

	for _, raw := range splitLines(data) {
		line := strings.TrimRight(raw, "\r")
		tabs := strings.Count(line, "\t")

		if tabs == 0 {
			switch line {
			case ".":
				lines = append(lines, GophermapLine{Kind: GophermapLineTerminator})
				return lines
			case "*":
				lines = append(lines, GophermapLine{Kind: GophermapLineWildcard})
			default:
				lines = append(lines, GophermapLine{Kind: GophermapLineInfo, Info: line})
			}
			continue
		}

		item, err := ParseItem(line, defaultHost, defaultPort)
		if err != nil {
			lines = append(lines, GophermapLine{Kind: GophermapLineParseError, Raw: line})
			continue
		}
		lines = append(lines, GophermapLine{Kind: GophermapLineItem, Item: item})
	}

	return lines
}

// splitLines splits raw gophermap bytes on LF, tolerating a file with no
// trailing newline on its last line and dropping one trailing empty
// element produced by a final newline.
func splitLines(data []byte) []string {
	text := string(data)
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
