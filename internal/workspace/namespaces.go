package workspace

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/dghubble/trie"

	"masmnav/internal/shared/observability"
)

const (
	cratesDir   = "crates"
	buildFile   = "build.rs"
	asmDir      = "asm"
	nsSeparator = "::"
)

// Entry binds a logical namespace to the physical directory holding its
// modules.
type Entry struct {
	Namespace string
	CrateDir  string
	AsmSubdir string
}

// ModuleDir is the directory the namespace's module files live in.
func (e Entry) ModuleDir() string {
	return filepath.Join(e.CrateDir, asmDir, e.AsmSubdir)
}

// AsmRoot is the crate's library root, holding ModuleDir and its siblings.
func (e Entry) AsmRoot() string {
	return filepath.Join(e.CrateDir, asmDir)
}

// Namespaces is the namespace directory for one workspace root.
type Namespaces struct {
	entries   map[string]Entry
	byPrefix  *trie.PathTrie
	crateDirs []string
}

// Get returns the exact binding for a namespace.
func (n *Namespaces) Get(namespace string) (Entry, bool) {
	e, ok := n.entries[namespace]
	return e, ok
}

// Lookup returns the deepest binding along the import path, so a lookup of
// miden::foo::bar finds the miden::foo entry.
func (n *Namespaces) Lookup(importPath string) (Entry, bool) {
	var last *Entry
	n.byPrefix.WalkPath(importPath, func(key string, value interface{}) error {
		e := value.(Entry)
		last = &e
		return nil
	})
	if last == nil {
		return Entry{}, false
	}
	return *last, true
}

// LibraryRoots returns every crate's asm root that exists on disk.
func (n *Namespaces) LibraryRoots() []string {
	roots := make([]string, 0, len(n.crateDirs))
	for _, crate := range n.crateDirs {
		root := filepath.Join(crate, asmDir)
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			roots = append(roots, root)
		}
	}
	return roots
}

// Directory discovers and caches namespace bindings per workspace root. The
// cache has no TTL; it is only cleared on demand.
type Directory struct {
	mu    sync.RWMutex
	cache map[string]*Namespaces
}

func NewDirectory() *Directory {
	return &Directory{cache: make(map[string]*Namespaces)}
}

// NamespacesFor scans workspaceRoot/crates/*/build.rs once and caches the
// result for the root's lifetime.
func (d *Directory) NamespacesFor(workspaceRoot string) *Namespaces {
	d.mu.RLock()
	cached, ok := d.cache[workspaceRoot]
	d.mu.RUnlock()
	if ok {
		observability.CacheEventsTotal.WithLabelValues("namespaces", "hit").Inc()
		return cached
	}
	observability.CacheEventsTotal.WithLabelValues("namespaces", "miss").Inc()

	ns := scanWorkspace(workspaceRoot)

	d.mu.Lock()
	d.cache[workspaceRoot] = ns
	d.mu.Unlock()
	return ns
}

// InvalidateRoot drops the cached bindings for one workspace root.
func (d *Directory) InvalidateRoot(workspaceRoot string) {
	d.mu.Lock()
	delete(d.cache, workspaceRoot)
	d.mu.Unlock()
	observability.CacheEventsTotal.WithLabelValues("namespaces", "invalidate").Inc()
}

// Reset drops every cached root.
func (d *Directory) Reset() {
	d.mu.Lock()
	d.cache = make(map[string]*Namespaces)
	d.mu.Unlock()
	observability.CacheEventsTotal.WithLabelValues("namespaces", "reset").Inc()
}

// Static-pattern extraction over build configuration text. This is a
// best-effort scan, not an interpreter: it can mis-bind when the real
// association is only expressed via control flow in the build script.
var (
	nsConstRe  = regexp.MustCompile(`(?m)^\s*(?:pub\s+)?const\s+([A-Z][A-Z0-9_]*)_LIB_NAMESPACE\s*(?::[^=\n]*)?=\s*"([^"]+)"`)
	dirConstRe = regexp.MustCompile(`(?m)^\s*(?:pub\s+)?const\s+ASM_([A-Z][A-Z0-9_]*)_DIR\s*(?::[^=\n]*)?=\s*"([^"]+)"`)
	litNsRe    = regexp.MustCompile(`"(miden(?:::[a-z_][a-z0-9_]*)+)"`)
)

// Directory constants whose key contains one of these denote executables
// (note scripts, account components), not libraries.
var excludedDirKeywords = []string{"NOTE_SCRIPT", "ACCOUNT_COMPONENT"}

func scanWorkspace(workspaceRoot string) *Namespaces {
	ns := &Namespaces{
		entries:  make(map[string]Entry),
		byPrefix: trie.NewPathTrieWithConfig(&trie.PathTrieConfig{Segmenter: namespaceSegmenter}),
	}

	crates, err := os.ReadDir(filepath.Join(workspaceRoot, cratesDir))
	if err != nil {
		return ns
	}

	for _, crate := range crates {
		if !crate.IsDir() {
			continue
		}
		crateDir := filepath.Join(workspaceRoot, cratesDir, crate.Name())
		ns.crateDirs = append(ns.crateDirs, crateDir)

		data, err := os.ReadFile(filepath.Join(crateDir, buildFile))
		if err != nil {
			continue
		}
		scanBuildFile(ns, crateDir, string(data))
	}

	return ns
}

func scanBuildFile(ns *Namespaces, crateDir, content string) {
	type dirConst struct {
		key string
		dir string
	}

	nsByKey := make(map[string]string)
	var dirConsts []dirConst
	usedKeys := make(map[string]bool)

	for _, m := range nsConstRe.FindAllStringSubmatch(content, -1) {
		nsByKey[m[1]] = m[2]
	}
	for _, m := range dirConstRe.FindAllStringSubmatch(content, -1) {
		dirConsts = append(dirConsts, dirConst{key: m[1], dir: m[2]})
	}

	// Constant pairs sharing a key prefix bind directly.
	for _, dc := range dirConsts {
		namespace, ok := nsByKey[dc.key]
		if !ok {
			continue
		}
		ns.put(Entry{Namespace: namespace, CrateDir: crateDir, AsmSubdir: dc.dir})
		usedKeys[dc.key] = true
	}

	// Literal namespace strings passed to library-assembly calls: bind the
	// first directory constant that does not look like an executable; fall
	// back to the namespace's last segment.
	for _, m := range litNsRe.FindAllStringSubmatch(content, -1) {
		namespace := m[1]
		if _, bound := ns.entries[namespace]; bound {
			continue
		}

		subdir := ""
		for _, dc := range dirConsts {
			if usedKeys[dc.key] || isExcludedDirKey(dc.key) {
				continue
			}
			subdir = dc.dir
			usedKeys[dc.key] = true
			break
		}
		if subdir == "" {
			segments := strings.Split(namespace, nsSeparator)
			subdir = segments[len(segments)-1]
		}
		ns.put(Entry{Namespace: namespace, CrateDir: crateDir, AsmSubdir: subdir})
	}
}

func (n *Namespaces) put(e Entry) {
	n.entries[e.Namespace] = e
	n.byPrefix.Put(e.Namespace, e)
}

func isExcludedDirKey(key string) bool {
	for _, kw := range excludedDirKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// namespaceSegmenter segments trie keys on "::" separators. For example,
// "miden::foo::bar" yields "miden", "foo", "bar" in successive calls.
func namespaceSegmenter(path string, start int) (segment string, next int) {
	if len(path) == 0 || start < 0 || start >= len(path) {
		return "", -1
	}
	end := strings.Index(path[start:], nsSeparator)
	if end == -1 {
		return path[start:], -1
	}
	return path[start : start+end], start + end + len(nsSeparator)
}
