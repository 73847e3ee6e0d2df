package nav

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"masmnav/internal/data/history"
	"masmnav/internal/index"
	"masmnav/internal/locator"
	"masmnav/internal/resolver"
	"masmnav/internal/shared/observability"
	"masmnav/internal/workspace"
)

// Recorder persists lookup outcomes. Satisfied by *history.Store.
type Recorder interface {
	Record(history.Entry) error
}

// Service answers definition and hover queries against the live index.
type Service struct {
	ix         *index.Indexer
	res        *resolver.Resolver
	loc        *locator.Locator
	namespaces *workspace.Directory
	rec        Recorder
}

func NewService(ix *index.Indexer, res *resolver.Resolver, loc *locator.Locator, namespaces *workspace.Directory, rec Recorder) *Service {
	return &Service{ix: ix, res: res, loc: loc, namespaces: namespaces, rec: rec}
}

// Definition returns the location of the symbol under the cursor. file is the
// document being edited, lineText the cursor line's text and col the
// zero-based cursor column within it.
func (s *Service) Definition(ctx context.Context, file, lineText string, col int) (locator.Location, bool) {
	ctx, span := observability.Tracer.Start(ctx, "nav.Definition")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return locator.Location{}, false
	}

	start := time.Now()
	loc, word, ok := s.definition(file, lineText, col)

	outcome := "found"
	if !ok {
		outcome = "absent"
	}
	observability.LookupsTotal.WithLabelValues("definition", outcome).Inc()
	s.record("definition", word, file, outcome, start)

	return loc, ok
}

func (s *Service) definition(file, lineText string, col int) (locator.Location, string, bool) {
	word, wordStart, ok := wordAt(lineText, col)
	if !ok {
		return locator.Location{}, "", false
	}
	if positionExcluded(lineText, wordStart) {
		return locator.Location{}, word, false
	}

	if path, alias, isImport := index.MatchImport(lineText); isImport {
		if loc, found := s.importDefinition(file, path, alias, word); found {
			return loc, word, true
		}
		if word == alias || containsSegment(pathSegments(path), word) {
			return locator.Location{}, word, false
		}
	}

	if module, proc, onModule, isQualified := qualifiedAt(lineText, wordStart); isQualified {
		loc, found := s.qualifiedDefinition(file, module, proc, onModule)
		return loc, word, found
	}

	if unqualifiedCallAt(lineText, wordStart) {
		loc, found := s.callDefinition(file, word)
		return loc, word, found
	}

	if summary, err := s.ix.Summary(file); err == nil {
		if line, found := summary.Procedures[word]; found {
			return s.loc.LocationAt(file, line, word), word, true
		}
	}

	loc, found := s.searchImports(file, word)
	return loc, word, found
}

// importDefinition handles a cursor on a use line. The alias and every path
// segment jump to the imported module; an upper-snake final segment is a
// constant re-export and jumps to the constant itself.
func (s *Service) importDefinition(file, path, alias, word string) (locator.Location, bool) {
	segments := pathSegments(path)

	if word == alias && alias != "" {
		if loc, ok := s.moduleStart(file, path); ok {
			return loc, true
		}
		// The aliased path may name a procedure rather than a module.
		if len(segments) >= 2 {
			modulePath := path[:strings.LastIndex(path, "::")]
			if resolved, ok := s.res.Resolve(file, modulePath); ok {
				return s.loc.FindProcedure(resolved, segments[len(segments)-1])
			}
		}
		return locator.Location{}, false
	}
	if !containsSegment(segments, word) {
		return locator.Location{}, false
	}

	last := segments[len(segments)-1]
	if len(segments) >= 2 && word == last && isUpperSnake(word) {
		modulePath := path[:strings.LastIndex(path, "::")]
		if resolved, ok := s.res.Resolve(file, modulePath); ok {
			if loc, found := s.loc.FindConstant(resolved, word); found {
				return loc, true
			}
		}
		return locator.Location{}, false
	}

	if loc, ok := s.moduleStart(file, path); ok {
		return loc, true
	}
	if len(segments) >= 2 && isUpperSnake(last) {
		return s.moduleStart(file, path[:strings.LastIndex(path, "::")])
	}
	return locator.Location{}, false
}

func (s *Service) qualifiedDefinition(file, module, proc string, onModule bool) (locator.Location, bool) {
	resolved, ok := s.resolveLocalModule(file, module)
	if !ok {
		return locator.Location{}, false
	}
	if onModule {
		return locator.Location{File: resolved}, true
	}
	if loc, found := s.loc.FindSource(resolved, proc); found {
		return loc, true
	}
	return s.loc.FindProcedure(resolved, proc)
}

// callDefinition searches the current file first, then every imported module.
func (s *Service) callDefinition(file, word string) (locator.Location, bool) {
	if summary, err := s.ix.Summary(file); err == nil {
		if line, found := summary.Procedures[word]; found {
			return s.loc.LocationAt(file, line, word), true
		}
	}
	return s.searchImports(file, word)
}

func (s *Service) searchImports(file, word string) (locator.Location, bool) {
	summary, err := s.ix.Summary(file)
	if err != nil {
		return locator.Location{}, false
	}

	names := make([]string, 0, len(summary.Imports))
	for name := range summary.Imports {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		resolved, ok := s.res.Resolve(file, summary.Imports[name])
		if !ok {
			continue
		}
		if loc, found := s.loc.FindSource(resolved, word); found {
			return loc, true
		}
	}
	return locator.Location{}, false
}

// resolveLocalModule maps a call-site module name through the file's imports
// before resolving, so aliased imports keep working at call sites.
func (s *Service) resolveLocalModule(file, module string) (string, bool) {
	target := module
	if summary, err := s.ix.Summary(file); err == nil {
		if full, found := summary.Imports[strings.TrimPrefix(module, "$")]; found {
			target = full
		}
	}
	return s.res.Resolve(file, target)
}

func (s *Service) moduleStart(file, path string) (locator.Location, bool) {
	resolved, ok := s.res.Resolve(file, path)
	if !ok {
		return locator.Location{}, false
	}
	return locator.Location{File: resolved}, true
}

// Hover returns documentation for a qualified procedure reference under the
// cursor. Only the procedure-name side of module::proc produces hover text.
func (s *Service) Hover(ctx context.Context, file, lineText string, col int) (string, bool) {
	ctx, span := observability.Tracer.Start(ctx, "nav.Hover")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return "", false
	}

	start := time.Now()
	text, word, ok := s.hover(file, lineText, col)

	outcome := "found"
	if !ok {
		outcome = "absent"
	}
	observability.LookupsTotal.WithLabelValues("hover", outcome).Inc()
	s.record("hover", word, file, outcome, start)

	return text, ok
}

func (s *Service) hover(file, lineText string, col int) (string, string, bool) {
	word, wordStart, ok := wordAt(lineText, col)
	if !ok {
		return "", "", false
	}
	if positionExcluded(lineText, wordStart) {
		return "", word, false
	}

	module, proc, onModule, isQualified := qualifiedAt(lineText, wordStart)
	if !isQualified || onModule {
		return "", word, false
	}

	resolved, ok := s.resolveLocalModule(file, module)
	if !ok {
		return "", word, false
	}

	loc, found := s.loc.FindSource(resolved, proc)
	if !found {
		loc, found = s.loc.FindProcedure(resolved, proc)
	}
	if !found {
		return "", word, false
	}

	if docs := s.docBlock(loc.File, loc.Line); len(docs) > 0 {
		return strings.Join(docs, "\n"), word, true
	}
	return fallbackHover(proc, loc.File), word, true
}

// docBlock collects the #! lines immediately above a definition. Blank lines
// and plain comments are skipped; any other line ends the walk.
func (s *Service) docBlock(file string, defLine int) []string {
	lines, err := s.ix.Lines(file)
	if err != nil {
		return nil
	}

	var docs []string
	for i := defLine - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(trimmed, index.DocMarker):
			text := strings.TrimPrefix(trimmed, index.DocMarker)
			docs = append([]string{strings.TrimPrefix(text, " ")}, docs...)
		case trimmed == "" || strings.HasPrefix(trimmed, index.CommentMarker):
			continue
		default:
			return docs
		}
	}
	return docs
}

func fallbackHover(proc, file string) string {
	return fmt.Sprintf("proc %s (%s)", proc, filepath.Base(file))
}

// OnFileChanged invalidates cached state for a changed path. Build
// configuration changes additionally drop the namespace directory.
func (s *Service) OnFileChanged(path string) {
	s.ix.Invalidate(path)
	s.res.Reset()

	base := filepath.Base(path)
	if base == "build.rs" || base == "Cargo.toml" {
		s.namespaces.Reset()
	}
	slog.Debug("invalidated caches", "path", path)
}

func (s *Service) record(op, word, file, outcome string, start time.Time) {
	if s.rec == nil {
		return
	}
	err := s.rec.Record(history.Entry{
		Op:         op,
		Word:       word,
		File:       file,
		Outcome:    outcome,
		DurationMs: time.Since(start).Milliseconds(),
	})
	if err != nil {
		slog.Warn("history record failed", "error", err)
	}
}
