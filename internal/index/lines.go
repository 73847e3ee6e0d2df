package index

import "regexp"

// Line grammar for Miden assembly. These are the only structural patterns the
// engine recognizes; everything else on a line is opaque text.
const (
	Ext           = ".masm"
	ModFile       = "mod" + Ext
	CommentMarker = "#"
	DocMarker     = "#!"
)

var (
	// use.miden::protocol::account, use std::math::u64->u64_ops, use $kernel::memory
	importRe = regexp.MustCompile(`^\s*(?:pub\s+)?use[.\s]+(\$?[A-Za-z_][A-Za-z0-9_]*(?:::[A-Za-z_][A-Za-z0-9_]*)*)(?:\s*->\s*([A-Za-z_][A-Za-z0-9_]*))?`)

	// proc.validate_nonce, pub proc validate_nonce, export.get_id
	procRe = regexp.MustCompile(`^\s*(?:pub\s+)?(?:proc|export)[.\s]+([A-Za-z_][A-Za-z0-9_]*)`)

	// const.MAX_NONCE=100, pub const MAX_NONCE = 100
	constRe = regexp.MustCompile(`^\s*(?:pub\s+)?const[.\s]+([A-Z][A-Z0-9_]*)\s*=`)
)

// MatchImport returns the dotted import path and optional alias declared on a
// line, or ok=false.
func MatchImport(line string) (path, alias string, ok bool) {
	m := importRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// MatchProcedure returns the procedure name defined on a line, or ok=false.
func MatchProcedure(line string) (string, bool) {
	m := procRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// MatchConstant returns the constant name defined on a line, or ok=false.
func MatchConstant(line string) (string, bool) {
	m := constRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}
