package ast

import "strings"

// ExcuseMarker introduces a suppression comment.
const ExcuseMarker = "weft-excuse"

// ScanExcuses extracts suppression comments from raw source text. A
// comment alone on its line excuses the line after it; a trailing
// comment excuses its own line. Codes follow the marker separated by
// spaces or commas; none means every code.
//
//	// weft-excuse sketchy-null-number
//	if (settings.retries) { ... }
//
//	if (flag.on) { ... } // weft-excuse
//
// Detection is textual: every "//" on a line is tried, so a "//" inside
// a string literal does not hide a marker after it.
func ScanExcuses(src string) []Excuse {
	var out []Excuse
	for i, line := range strings.Split(src, "\n") {
		at := markerComment(line)
		if at < 0 {
			continue
		}
		rest := strings.TrimSpace(line[at+2:])[len(ExcuseMarker):]
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' && rest[0] != ':' {
			continue
		}
		target := i + 1
		if strings.TrimSpace(line[:at]) == "" {
			target++
		}
		out = append(out, Excuse{Line: target, Codes: splitCodes(rest)})
	}
	return out
}

// markerComment returns the offset of the "//" that starts an excuse
// comment, or -1.
func markerComment(line string) int {
	for at := strings.Index(line, "//"); at >= 0; {
		if strings.HasPrefix(strings.TrimSpace(line[at+2:]), ExcuseMarker) {
			return at
		}
		next := strings.Index(line[at+2:], "//")
		if next < 0 {
			return -1
		}
		at += 2 + next
	}
	return -1
}

func splitCodes(s string) []string {
	s = strings.TrimLeft(s, ": \t")
	if s == "" {
		return nil
	}
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}
