package workspace

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const manifestFile = "Cargo.toml"

// manifest is the slice of a crate manifest we care about: whether it
// declares a workspace. Everything else in the file is ignored.
type manifest struct {
	Workspace *struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
}

// FindWorkspaceRoot walks upward from startDir to the nearest ancestor whose
// manifest declares a multi-crate workspace.
func FindWorkspaceRoot(startDir string) (string, bool) {
	current := startDir
	for {
		path := filepath.Join(current, manifestFile)
		if data, err := os.ReadFile(path); err == nil {
			var m manifest
			if _, err := toml.Decode(string(data), &m); err == nil && m.Workspace != nil {
				return current, true
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// FindProjectRoot walks upward from startDir to the nearest ancestor holding
// a crate manifest of any kind.
func FindProjectRoot(startDir string) (string, bool) {
	current := startDir
	for {
		if _, err := os.Stat(filepath.Join(current, manifestFile)); err == nil {
			return current, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}
