package index

import "strings"

// Summary is an immutable snapshot of one file's declarations. Keys are unique
// by construction; the last declaration for a name wins.
type Summary struct {
	// Imports maps the name used at call sites to the full dotted import
	// path. An aliased import registers the alias as an additional key for
	// the same path.
	Imports map[string]string

	// Procedures and Constants map a name to its zero-based defining line.
	Procedures map[string]int
	Constants  map[string]int

	// Reexports maps an exported name to the module/original it forwards to.
	Reexports map[string]Reexport
}

// Reexport records one `use module::original->exported` declaration. Module
// is the local module key; its full import path is always present in Imports.
type Reexport struct {
	Module   string
	Original string
	Line     int
}

func emptySummary() Summary {
	return Summary{
		Imports:    map[string]string{},
		Procedures: map[string]int{},
		Constants:  map[string]int{},
		Reexports:  map[string]Reexport{},
	}
}

// ParseSummary scans content line by line. All patterns are checked on every
// line; comment/string exclusion is the caller's concern, applied at lookup
// time, not here.
func ParseSummary(content string) Summary {
	s := emptySummary()

	for i, line := range strings.Split(content, "\n") {
		if path, alias, ok := MatchImport(line); ok {
			segments := strings.Split(path, "::")
			last := segments[len(segments)-1]
			s.Imports[last] = path
			if alias != "" {
				s.Imports[alias] = path
			}
			if alias != "" && len(segments) >= 2 {
				module := strings.Join(segments[:len(segments)-1], "::")
				moduleKey := segments[len(segments)-2]
				s.Reexports[alias] = Reexport{
					Module:   moduleKey,
					Original: last,
					Line:     i,
				}
				if _, exists := s.Imports[moduleKey]; !exists {
					s.Imports[moduleKey] = module
				}
			}
		}

		if name, ok := MatchProcedure(line); ok {
			s.Procedures[name] = i
		}

		if name, ok := MatchConstant(line); ok {
			s.Constants[name] = i
		}
	}

	return s
}
