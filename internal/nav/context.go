package nav

import (
	"regexp"
	"strings"
)

// Textual cursor-context classification. The cursor is a column inside one
// line of text; these helpers decide what kind of reference the word under it
// is before any resolution work happens.

var (
	qualifiedRe = regexp.MustCompile(`(\$?[A-Za-z_][A-Za-z0-9_]*)::([A-Za-z_][A-Za-z0-9_]*)`)
	callRe      = regexp.MustCompile(`(?:call|exec|syscall)\.([A-Za-z_][A-Za-z0-9_]*)`)
	upperRe     = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// wordAt returns the identifier covering col and its start column.
func wordAt(line string, col int) (word string, start int, ok bool) {
	if col < 0 || col >= len(line) || !isWordByte(line[col]) {
		return "", 0, false
	}

	start = col
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isWordByte(line[end]) {
		end++
	}
	return line[start:end], start, true
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// positionExcluded reports whether the word starting at start sits behind a
// comment marker or inside an odd-parity quoted string prefix.
func positionExcluded(line string, start int) bool {
	prefix := line[:start]
	if strings.Contains(prefix, "#") {
		return true
	}
	return strings.Count(prefix, `"`)%2 == 1
}

// qualifiedAt finds a module::proc reference covering the cursor word and
// reports which side of it the word is.
func qualifiedAt(line string, wordStart int) (module, proc string, onModule bool, ok bool) {
	for _, m := range qualifiedRe.FindAllStringSubmatchIndex(line, -1) {
		moduleStart, moduleEnd := m[2], m[3]
		procStart, procEnd := m[4], m[5]
		switch {
		case wordStart >= moduleStart && wordStart < moduleEnd:
			return line[moduleStart:moduleEnd], line[procStart:procEnd], true, true
		case wordStart >= procStart && wordStart < procEnd:
			return line[moduleStart:moduleEnd], line[procStart:procEnd], false, true
		}
	}
	return "", "", false, false
}

// unqualifiedCallAt reports whether the cursor word is the target of a bare
// call with no qualification anywhere before it on the line.
func unqualifiedCallAt(line string, wordStart int) bool {
	for _, m := range callRe.FindAllStringSubmatchIndex(line, -1) {
		nameStart, nameEnd := m[2], m[3]
		if wordStart < nameStart || wordStart >= nameEnd {
			continue
		}
		return !strings.Contains(line[:nameStart], "::")
	}
	return false
}

func isUpperSnake(word string) bool {
	return upperRe.MatchString(word)
}

// pathSegments splits a dotted import path, dropping an alias-root marker so
// segment comparison works on bare identifiers.
func pathSegments(path string) []string {
	segments := strings.Split(path, "::")
	if len(segments) > 0 {
		segments[0] = strings.TrimPrefix(segments[0], "$")
	}
	return segments
}

func containsSegment(segments []string, word string) bool {
	for _, s := range segments {
		if s == word {
			return true
		}
	}
	return false
}
