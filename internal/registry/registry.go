package registry

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"masmnav/internal/shared/observability"
)

const (
	envOverride = "MASMNAV_REGISTRY_DIR"
	cargoHome   = "CARGO_HOME"
	asmDir      = "asm"
	ext         = ".masm"
	modFile     = "mod" + ext
)

// Fixed package names for the external namespaces.
const (
	CorePackage   = "miden-core"
	StdlibPackage = "miden-stdlib"
)

// Locator searches a package-manager-style global cache for library sources.
type Locator struct {
	root string
}

// NewLocator resolves the registry root from the configured override, the
// environment, or the home-relative default.
func NewLocator(configuredDir string) *Locator {
	if configuredDir != "" {
		return &Locator{root: configuredDir}
	}
	if dir := os.Getenv(envOverride); dir != "" {
		return &Locator{root: dir}
	}
	if home := os.Getenv(cargoHome); home != "" {
		return &Locator{root: filepath.Join(home, "registry", "src")}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return &Locator{}
	}
	return &Locator{root: filepath.Join(home, ".cargo", "registry", "src")}
}

// Find returns the path of subpath inside the newest cached version of pkg,
// trying the direct file first and the directory-form module second. All I/O
// failures count as "no candidates".
func (l *Locator) Find(pkg, subpath string) (string, bool) {
	observability.RegistryScansTotal.Inc()

	if l.root == "" {
		return "", false
	}
	indexes, err := os.ReadDir(l.root)
	if err != nil {
		return "", false
	}

	for _, idx := range indexes {
		if !idx.IsDir() {
			continue
		}
		indexDir := filepath.Join(l.root, idx.Name())

		for _, version := range packageVersions(indexDir, pkg) {
			base := filepath.Join(indexDir, version, asmDir)

			direct := filepath.Join(base, subpath+ext)
			if fileExists(direct) {
				return direct, true
			}
			indexed := filepath.Join(base, subpath, modFile)
			if fileExists(indexed) {
				return indexed, true
			}
		}
	}

	return "", false
}

// packageVersions lists entries named pkg-<version> under indexDir, newest
// version first.
func packageVersions(indexDir, pkg string) []string {
	entries, err := os.ReadDir(indexDir)
	if err != nil {
		return nil
	}

	prefix := pkg + "-"
	var names []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		rest := e.Name()[len(prefix):]
		if rest == "" || rest[0] < '0' || rest[0] > '9' {
			continue
		}
		names = append(names, e.Name())
	}

	// Numeric-aware descending order approximates "pick latest version":
	// -10 must sort above -9.
	sort.Slice(names, func(i, j int) bool {
		return compareNumericAware(names[i], names[j]) > 0
	})
	return names
}

// compareNumericAware compares strings segment-wise, treating digit runs as
// numbers rather than text.
func compareNumericAware(a, b string) int {
	for a != "" && b != "" {
		aNum, aRest, aIsNum := leadingChunk(a)
		bNum, bRest, bIsNum := leadingChunk(b)

		if aIsNum && bIsNum {
			if aNum != bNum {
				if len(aNum) != len(bNum) {
					if len(aNum) < len(bNum) {
						return -1
					}
					return 1
				}
				return strings.Compare(aNum, bNum)
			}
		} else if aNum != bNum {
			return strings.Compare(aNum, bNum)
		}
		a, b = aRest, bRest
	}
	return strings.Compare(a, b)
}

// leadingChunk splits off the leading digit run or non-digit run.
func leadingChunk(s string) (chunk, rest string, isNum bool) {
	isNum = s[0] >= '0' && s[0] <= '9'
	for i := 0; i < len(s); i++ {
		digit := s[i] >= '0' && s[i] <= '9'
		if digit != isNum {
			return s[:i], s[i:], isNum
		}
	}
	return s, "", isNum
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
