package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"masmnav/internal/registry"
	"masmnav/internal/workspace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// newTestResolver returns a resolver whose registry points at registryDir
// (possibly empty).
func newTestResolver(t *testing.T, registryDir string) *Resolver {
	t.Helper()
	if registryDir == "" {
		registryDir = t.TempDir()
	}
	return New(workspace.NewDirectory(), registry.NewLocator(registryDir))
}

// workspaceFixture builds a minimal workspace:
//
//	root/Cargo.toml ([workspace])
//	root/crates/miden-foo/build.rs (binds miden::foo -> foolib)
//	root/crates/miden-foo/asm/foolib/bar.masm
//	root/crates/miden-foo/asm/sibling/baz.masm
//	root/crates/miden-tx/asm/tx/prologue.masm
//	root/kernel/main.masm (the querying file)
func workspaceFixture(t *testing.T) (root, currentFile string) {
	t.Helper()
	root = t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), "[workspace]\nmembers = [\"crates/*\"]\n")
	writeFile(t, filepath.Join(root, "crates", "miden-foo", "build.rs"), `
const FOO_LIB_NAMESPACE: &str = "miden::foo";
const ASM_FOO_DIR: &str = "foolib";
`)
	writeFile(t, filepath.Join(root, "crates", "miden-foo", "asm", "foolib", "bar.masm"), "proc.bar_main\n")
	writeFile(t, filepath.Join(root, "crates", "miden-foo", "asm", "sibling", "baz.masm"), "proc.baz_main\n")
	writeFile(t, filepath.Join(root, "crates", "miden-tx", "asm", "tx", "prologue.masm"), "proc.prologue\n")

	currentFile = filepath.Join(root, "kernel", "main.masm")
	writeFile(t, currentFile, "use.miden::foo::bar\n")
	return root, currentFile
}

func TestResolveNamespaceBinding(t *testing.T) {
	root, current := workspaceFixture(t)

	r := newTestResolver(t, "")
	got, ok := r.Resolve(current, "miden::foo::bar")
	want := filepath.Join(root, "crates", "miden-foo", "asm", "foolib", "bar.masm")
	if !ok || got != want {
		t.Errorf("Resolve = (%s, %v), want %s", got, ok, want)
	}
}

func TestResolveSiblingDirectory(t *testing.T) {
	root, current := workspaceFixture(t)

	// baz lives in a sibling of the bound foolib directory.
	r := newTestResolver(t, "")
	got, ok := r.Resolve(current, "miden::foo::baz")
	want := filepath.Join(root, "crates", "miden-foo", "asm", "sibling", "baz.masm")
	if !ok || got != want {
		t.Errorf("Resolve = (%s, %v), want %s", got, ok, want)
	}
}

func TestResolveLiteralNamespaceDirectory(t *testing.T) {
	root, current := workspaceFixture(t)

	// miden::tx has no binding; the crate's library root holds a directory
	// literally named tx.
	r := newTestResolver(t, "")
	got, ok := r.Resolve(current, "miden::tx::prologue")
	want := filepath.Join(root, "crates", "miden-tx", "asm", "tx", "prologue.masm")
	if !ok || got != want {
		t.Errorf("Resolve = (%s, %v), want %s", got, ok, want)
	}
}

func TestResolveNamespaceRegistryFallback(t *testing.T) {
	_, current := workspaceFixture(t)

	regDir := t.TempDir()
	target := filepath.Join(regDir, "idx", "miden-acct-lib-0.5.0", "asm", "wallet.masm")
	writeFile(t, target, "proc.spend\n")

	r := newTestResolver(t, regDir)
	got, ok := r.Resolve(current, "miden::acct::wallet")
	if !ok || got != target {
		t.Errorf("Resolve = (%s, %v), want %s", got, ok, target)
	}
}

func TestResolveCoreIsRegistryOnly(t *testing.T) {
	root, current := workspaceFixture(t)

	// A local directory that would satisfy a namespaced search must never be
	// consulted for miden::core.
	writeFile(t, filepath.Join(root, "crates", "miden-foo", "asm", "core", "mem.masm"), "proc.load\n")

	r := newTestResolver(t, "")
	if _, ok := r.Resolve(current, "miden::core::mem"); ok {
		t.Fatal("miden::core must not resolve against the local tree")
	}

	regDir := t.TempDir()
	target := filepath.Join(regDir, "idx", "miden-core-2.0.0", "asm", "mem.masm")
	writeFile(t, target, "proc.load\n")

	r = newTestResolver(t, regDir)
	got, ok := r.Resolve(current, "miden::core::mem")
	if !ok || got != target {
		t.Errorf("Resolve = (%s, %v), want %s", got, ok, target)
	}
}

func TestResolveStdlib(t *testing.T) {
	_, current := workspaceFixture(t)

	regDir := t.TempDir()
	target := filepath.Join(regDir, "idx", "miden-stdlib-0.10.0",
		"asm", "crypto", "hashes", "blake3.masm")
	writeFile(t, target, "export.hash_1to1\n")

	r := newTestResolver(t, regDir)
	got, ok := r.Resolve(current, "std::crypto::hashes::blake3")
	if !ok || got != target {
		t.Errorf("Resolve = (%s, %v), want %s", got, ok, target)
	}
}

func TestResolveStdlibNeverLocal(t *testing.T) {
	root, current := workspaceFixture(t)
	writeFile(t, filepath.Join(root, "crates", "miden-foo", "asm", "foolib", "math.masm"), "proc.add\n")

	r := newTestResolver(t, "")
	if _, ok := r.Resolve(current, "std::math"); ok {
		t.Error("std imports must not resolve against the local tree")
	}
}

func TestResolveAliasRooted(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "kernel", "lib", "memory.masm")
	writeFile(t, target, "export.get_nonce\n")

	current := filepath.Join(root, "kernel", "api", "account.masm")
	writeFile(t, current, "use.$kernel::memory\n")

	r := newTestResolver(t, "")
	got, ok := r.Resolve(current, "$kernel::memory")
	if !ok || got != target {
		t.Errorf("Resolve = (%s, %v), want %s", got, ok, target)
	}
}

func TestResolveAliasRootedShared(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "shared", "utils", "mod.masm")
	writeFile(t, target, "export.helper\n")

	current := filepath.Join(root, "scripts", "note.masm")
	writeFile(t, current, "use.$std::utils\n")

	r := newTestResolver(t, "")
	got, ok := r.Resolve(current, "$std::utils")
	if !ok || got != target {
		t.Errorf("Resolve = (%s, %v), want %s", got, ok, target)
	}
}

func TestResolveRelative(t *testing.T) {
	root := t.TempDir()
	current := filepath.Join(root, "asm", "account.masm")
	writeFile(t, current, "use.memory\n")

	sameDir := filepath.Join(root, "asm", "memory.masm")
	writeFile(t, sameDir, "proc.peek\n")

	r := newTestResolver(t, "")
	got, ok := r.Resolve(current, "memory")
	if !ok || got != sameDir {
		t.Errorf("Resolve = (%s, %v), want same-dir %s", got, ok, sameDir)
	}
}

func TestResolveRelativeSearchOrder(t *testing.T) {
	root := t.TempDir()
	current := filepath.Join(root, "asm", "deep", "account.masm")
	writeFile(t, current, "use.memory\n")

	inLib := filepath.Join(root, "asm", "deep", "lib", "memory.masm")
	inParent := filepath.Join(root, "asm", "memory.masm")
	writeFile(t, inLib, "proc.a\n")
	writeFile(t, inParent, "proc.b\n")

	// lib subdirectory wins over the parent directory.
	r := newTestResolver(t, "")
	got, ok := r.Resolve(current, "memory")
	if !ok || got != inLib {
		t.Errorf("Resolve = (%s, %v), want lib %s", got, ok, inLib)
	}
}

func TestResolveModFileFallback(t *testing.T) {
	root := t.TempDir()
	current := filepath.Join(root, "asm", "account.masm")
	writeFile(t, current, "use.memory\n")

	target := filepath.Join(root, "asm", "memory", "mod.masm")
	writeFile(t, target, "proc.peek\n")

	r := newTestResolver(t, "")
	got, ok := r.Resolve(current, "memory")
	if !ok || got != target {
		t.Errorf("Resolve = (%s, %v), want %s", got, ok, target)
	}
}

func TestResolveMemoization(t *testing.T) {
	root := t.TempDir()
	current := filepath.Join(root, "asm", "account.masm")
	writeFile(t, current, "use.memory\n")
	target := filepath.Join(root, "asm", "memory.masm")
	writeFile(t, target, "proc.peek\n")

	r := newTestResolver(t, "")
	if _, ok := r.Resolve(current, "memory"); !ok {
		t.Fatal("first resolve failed")
	}

	// The memo serves the stale answer after the file disappears.
	if err := os.Remove(target); err != nil {
		t.Fatal(err)
	}
	got, ok := r.Resolve(current, "memory")
	if !ok || got != target {
		t.Errorf("expected memoized result, got (%s, %v)", got, ok)
	}

	r.Reset()
	if _, ok := r.Resolve(current, "memory"); ok {
		t.Error("expected miss after reset")
	}
}

func TestResolveNoWorkspaceShortCircuits(t *testing.T) {
	root := t.TempDir()
	current := filepath.Join(root, "standalone.masm")
	writeFile(t, current, "use.miden::foo::bar\n")

	r := newTestResolver(t, "")
	if _, ok := r.Resolve(current, "miden::foo::bar"); ok {
		t.Error("expected absent result without workspace, project root or registry hit")
	}
}
