package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"masmnav/internal/index"
	"masmnav/internal/registry"
	"masmnav/internal/shared/observability"
	"masmnav/internal/workspace"
)

const (
	asmDir         = "asm"
	maxUpwardWalk  = 10
	midenNamespace = "miden"
	stdNamespace   = "std"
	coreNamespace  = "core"
)

// Sibling directory names probed by the alias-rooted rule at each level of
// the upward walk.
var aliasSearchDirs = []string{"lib", "shared"}

// Resolver maps a raw import expression, relative to the file that declares
// it, to the absolute path of the referenced module. Results (including
// misses) are memoized per (file, expression); the memo is only cleared
// wholesale, trading strict correctness under restructuring for speed.
type Resolver struct {
	namespaces *workspace.Directory
	registry   *registry.Locator

	mu   sync.RWMutex
	memo map[string]memoEntry
}

type memoEntry struct {
	path string
	ok   bool
}

func New(namespaces *workspace.Directory, reg *registry.Locator) *Resolver {
	return &Resolver{
		namespaces: namespaces,
		registry:   reg,
		memo:       make(map[string]memoEntry),
	}
}

// Resolve returns the absolute file path of the module referenced by
// importExpr inside currentFile, or ok=false. Failure is silent at every
// stage: a missing workspace or project root skips that branch.
func (r *Resolver) Resolve(currentFile, importExpr string) (string, bool) {
	key := currentFile + "\x00" + importExpr

	r.mu.RLock()
	cached, hit := r.memo[key]
	r.mu.RUnlock()
	if hit {
		observability.CacheEventsTotal.WithLabelValues("resolved", "hit").Inc()
		return cached.path, cached.ok
	}
	observability.CacheEventsTotal.WithLabelValues("resolved", "miss").Inc()

	start := time.Now()
	path, ok, rule := r.dispatch(currentFile, importExpr)
	observability.ResolveDuration.WithLabelValues(rule).Observe(time.Since(start).Seconds())

	r.mu.Lock()
	r.memo[key] = memoEntry{path: path, ok: ok}
	r.mu.Unlock()

	return path, ok
}

// Reset clears the memo. Invalidation is conservative: any relevant file
// change clears every cached resolution, since a changed file can alter
// import statements other resolutions depended on.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.memo = make(map[string]memoEntry)
	r.mu.Unlock()
	observability.CacheEventsTotal.WithLabelValues("resolved", "reset").Inc()
}

func (r *Resolver) dispatch(currentFile, importExpr string) (string, bool, string) {
	segments := strings.Split(importExpr, "::")

	switch {
	case segments[0] == midenNamespace && len(segments) >= 2:
		if segments[1] == coreNamespace {
			path, ok := r.findInRegistry(registry.CorePackage, segments[2:])
			return path, ok, "core"
		}
		path, ok := r.resolveNamespaced(currentFile, segments[1], segments[2:])
		return path, ok, "namespaced"

	case segments[0] == stdNamespace:
		path, ok := r.findInRegistry(registry.StdlibPackage, segments[1:])
		return path, ok, "stdlib"

	case strings.HasPrefix(segments[0], "$"):
		path, ok := r.resolveAliasRooted(currentFile, segments[1:])
		return path, ok, "alias"

	default:
		path, ok := resolveRelative(currentFile, segments)
		return path, ok, "relative"
	}
}

// resolveNamespaced handles miden::<ns>::<rest> imports: namespace bindings
// from the build configuration first, then progressively wider directory
// searches, then the registry.
func (r *Resolver) resolveNamespaced(currentFile, ns string, rest []string) (string, bool) {
	currentDir := filepath.Dir(currentFile)

	if wsRoot, ok := workspace.FindWorkspaceRoot(currentDir); ok {
		dir := r.namespaces.NamespacesFor(wsRoot)

		if entry, ok := dir.Lookup(midenNamespace + "::" + ns); ok {
			if path, ok := probeModule(entry.ModuleDir(), rest); ok {
				return path, true
			}
			// Sibling subdirectories of the bound crate's library root.
			if siblings, err := os.ReadDir(entry.AsmRoot()); err == nil {
				for _, s := range siblings {
					if !s.IsDir() || s.Name() == entry.AsmSubdir {
						continue
					}
					if path, ok := probeModule(filepath.Join(entry.AsmRoot(), s.Name()), rest); ok {
						return path, true
					}
				}
			}
		}

		// A subdirectory literally named after the namespace, in any crate.
		for _, libRoot := range dir.LibraryRoots() {
			if path, ok := probeModule(filepath.Join(libRoot, ns), rest); ok {
				return path, true
			}
		}
		for _, libRoot := range dir.LibraryRoots() {
			subs, err := os.ReadDir(libRoot)
			if err != nil {
				continue
			}
			for _, s := range subs {
				if !s.IsDir() {
					continue
				}
				if path, ok := probeModule(filepath.Join(libRoot, s.Name()), rest); ok {
					return path, true
				}
			}
		}
	}

	if projRoot, ok := workspace.FindProjectRoot(currentDir); ok {
		asmRoot := filepath.Join(projRoot, asmDir)
		if path, ok := probeModule(filepath.Join(asmRoot, ns), rest); ok {
			return path, true
		}
		if path, ok := probeModule(asmRoot, rest); ok {
			return path, true
		}
	}

	for _, pkg := range []string{midenNamespace + "-" + ns + "-lib", midenNamespace + "-" + ns} {
		if path, ok := r.findInRegistry(pkg, rest); ok {
			return path, true
		}
	}

	return "", false
}

func (r *Resolver) findInRegistry(pkg string, rest []string) (string, bool) {
	if len(rest) == 0 {
		return "", false
	}
	return r.registry.Find(pkg, filepath.Join(rest...))
}

// resolveAliasRooted handles $<alias>::<rest>: a bounded upward walk from the
// current file's directory, probing a sibling lib directory and a sibling
// shared-modules directory at each level. The alias itself carries no
// addressing information.
func (r *Resolver) resolveAliasRooted(currentFile string, rest []string) (string, bool) {
	if len(rest) == 0 {
		return "", false
	}

	dir := filepath.Dir(currentFile)
	for depth := 0; depth < maxUpwardWalk; depth++ {
		for _, sub := range aliasSearchDirs {
			if path, ok := probeModule(filepath.Join(dir, sub), rest); ok {
				return path, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}

// resolveRelative handles bare imports: same directory, a lib subdirectory,
// the parent directory, the parent's lib subdirectory, first hit wins.
func resolveRelative(currentFile string, segments []string) (string, bool) {
	dir := filepath.Dir(currentFile)
	parent := filepath.Dir(dir)

	for _, base := range []string{
		dir,
		filepath.Join(dir, "lib"),
		parent,
		filepath.Join(parent, "lib"),
	} {
		if path, ok := probeModule(base, segments); ok {
			return path, true
		}
	}
	return "", false
}

// probeModule tries the segment path as a direct file and as a directory
// holding the conventional index file. Interior segments form a directory
// prefix; the last segment is the module name.
func probeModule(dir string, segments []string) (string, bool) {
	if len(segments) == 0 {
		return "", false
	}
	rel := filepath.Join(segments...)

	direct := filepath.Join(dir, rel+index.Ext)
	if fileExists(direct) {
		return direct, true
	}
	indexed := filepath.Join(dir, rel, index.ModFile)
	if fileExists(indexed) {
		return indexed, true
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
