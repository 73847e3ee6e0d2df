package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("export.placeholder\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFindDirectFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "index.crates.io-6f17d22bba15001f",
		"miden-stdlib-0.10.0", "asm", "crypto", "hashes", "blake3.masm")
	writeFile(t, target)

	l := NewLocator(root)
	got, ok := l.Find("miden-stdlib", filepath.Join("crypto", "hashes", "blake3"))
	if !ok || got != target {
		t.Errorf("Find = (%s, %v), want %s", got, ok, target)
	}
}

func TestFindModFileFallback(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "index.crates.io-6f17d22bba15001f",
		"miden-core-1.2.3", "asm", "mem", "mod.masm")
	writeFile(t, target)

	l := NewLocator(root)
	got, ok := l.Find("miden-core", "mem")
	if !ok || got != target {
		t.Errorf("Find = (%s, %v), want %s", got, ok, target)
	}
}

func TestFindPicksLatestVersion(t *testing.T) {
	root := t.TempDir()
	idx := filepath.Join(root, "index.crates.io-6f17d22bba15001f")

	old := filepath.Join(idx, "miden-stdlib-0.9.0", "asm", "math", "u64.masm")
	newer := filepath.Join(idx, "miden-stdlib-0.10.0", "asm", "math", "u64.masm")
	writeFile(t, old)
	writeFile(t, newer)

	l := NewLocator(root)
	got, ok := l.Find("miden-stdlib", filepath.Join("math", "u64"))
	if !ok {
		t.Fatal("Find failed")
	}
	// 0.10 sorts above 0.9 numerically, not lexically.
	if got != newer {
		t.Errorf("Find = %s, want newest %s", got, newer)
	}
}

func TestFindIgnoresOtherPackages(t *testing.T) {
	root := t.TempDir()
	idx := filepath.Join(root, "index.crates.io-6f17d22bba15001f")
	writeFile(t, filepath.Join(idx, "miden-stdlib-extra-1.0.0", "asm", "math", "u64.masm"))

	l := NewLocator(root)
	if _, ok := l.Find("miden-stdlib", filepath.Join("math", "u64")); ok {
		t.Error("expected no match from a differently named package")
	}
}

func TestFindAbsent(t *testing.T) {
	l := NewLocator(t.TempDir())
	if _, ok := l.Find("miden-stdlib", "nope"); ok {
		t.Error("expected absent result for empty registry")
	}
}

func TestEnvOverride(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "idx", "miden-core-1.0.0", "asm", "mem.masm")
	writeFile(t, target)

	t.Setenv("MASMNAV_REGISTRY_DIR", root)
	l := NewLocator("")
	got, ok := l.Find("miden-core", "mem")
	if !ok || got != target {
		t.Errorf("Find = (%s, %v), want %s", got, ok, target)
	}
}

func TestCompareNumericAware(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"miden-stdlib-0.10.0", "miden-stdlib-0.9.0", 1},
		{"miden-stdlib-0.9.0", "miden-stdlib-0.10.0", -1},
		{"miden-stdlib-1.0.0", "miden-stdlib-1.0.0", 0},
		{"pkg-2", "pkg-10", -1},
	}
	for _, tt := range tests {
		got := compareNumericAware(tt.a, tt.b)
		norm := 0
		if got > 0 {
			norm = 1
		} else if got < 0 {
			norm = -1
		}
		if norm != tt.want {
			t.Errorf("compareNumericAware(%s, %s) = %d, want sign %d", tt.a, tt.b, got, tt.want)
		}
	}
}
