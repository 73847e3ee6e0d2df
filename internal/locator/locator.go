package locator

import (
	"strings"

	"masmnav/internal/index"
	"masmnav/internal/resolver"
)

// Location is the terminal output of any lookup: zero-based line and column
// inside a file.
type Location struct {
	File   string
	Line   int
	Column int
}

// Locator finds definition lines for procedures and constants, following
// re-export chains across files.
type Locator struct {
	ix  *index.Indexer
	res *resolver.Resolver
}

func New(ix *index.Indexer, res *resolver.Resolver) *Locator {
	return &Locator{ix: ix, res: res}
}

// FindProcedure scans file for a procedure definition named name.
func (l *Locator) FindProcedure(file, name string) (Location, bool) {
	summary, err := l.ix.Summary(file)
	if err != nil {
		return Location{}, false
	}
	line, ok := summary.Procedures[name]
	if !ok {
		return Location{}, false
	}
	return l.LocationAt(file, line, name), true
}

// FindConstant scans file for a constant definition named name.
func (l *Locator) FindConstant(file, name string) (Location, bool) {
	summary, err := l.ix.Summary(file)
	if err != nil {
		return Location{}, false
	}
	line, ok := summary.Constants[name]
	if !ok {
		return Location{}, false
	}
	return l.LocationAt(file, line, name), true
}

// FindSource locates the definition behind name in file, transparently
// following re-export chains. A revisited (file, name) pair terminates the
// walk as absent, so cyclic re-export graphs cannot loop.
func (l *Locator) FindSource(file, name string) (Location, bool) {
	return l.findSource(file, name, make(map[string]bool))
}

func (l *Locator) findSource(file, name string, visited map[string]bool) (Location, bool) {
	key := file + "\x00" + name
	if visited[key] {
		return Location{}, false
	}
	visited[key] = true

	summary, err := l.ix.Summary(file)
	if err != nil {
		return Location{}, false
	}

	re, isReexport := summary.Reexports[name]
	if !isReexport {
		return l.FindProcedure(file, name)
	}

	importPath, ok := summary.Imports[re.Module]
	if !ok {
		importPath = re.Module
	}
	resolved, ok := l.res.Resolve(file, importPath)
	if !ok {
		return Location{}, false
	}

	if loc, ok := l.findSource(resolved, re.Original, visited); ok {
		return loc, true
	}
	return l.FindProcedure(resolved, re.Original)
}

// LocationAt computes the column of name on its defining line. A name that
// cannot be found on the line (should not happen) falls back to column 0.
func (l *Locator) LocationAt(file string, line int, name string) Location {
	col := 0
	if lines, err := l.ix.Lines(file); err == nil && line < len(lines) {
		if idx := strings.Index(lines[line], name); idx >= 0 {
			col = idx
		}
	}
	return Location{File: file, Line: line, Column: col}
}
