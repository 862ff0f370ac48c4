// Package drive implements the key-namespace core of the Study Drive
// backend: the uploads/<folder>/<name> key convention, collision-avoiding
// key resolution, folder-scoped listing pagination, copy+delete relocation,
// and signed-URL issuance parameters. Everything here is independent of the
// HTTP layer and of the concrete object-store client.
package drive

import (
	"fmt"
	"path"
	"strings"
	"unicode"
)

// KeyPrefix is the fixed root segment under which every stored object lives.
const KeyPrefix = "uploads/"

// DefaultFolder is the folder assigned to objects whose key carries no
// folder segment, and the normalization fallback for empty folder input.
const DefaultFolder = "root"

// NormalizeFolder maps arbitrary folder input onto the restricted character
// set embedded in keys: trimmed, lower-cased, every character outside
// [a-z0-9_-] replaced with an underscore. Empty or whitespace-only input
// becomes DefaultFolder. The function is idempotent.
func NormalizeFolder(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultFolder
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// SanitizeBaseName prepares a display filename (without extension) for use
// in a key: whitespace runs collapse to a single underscore, characters
// outside [a-z0-9._-] are replaced with underscores, and the result is
// lower-cased. Input that sanitizes to nothing becomes "file".
func SanitizeBaseName(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	b.Grow(len(raw))
	pendingSep := false
	for _, r := range raw {
		if unicode.IsSpace(r) {
			pendingSep = true
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "file"
	}
	return out
}

// BuildKey assembles uploads/<folder>/<base><ext>. The folder must already
// be normalized and the base name sanitized; BuildKey does not re-check
// either, it is the single place the key shape is spelled out.
func BuildKey(folder, base, ext string) string {
	return KeyPrefix + folder + "/" + base + ext
}

// ParseKey splits a storage key into its folder and display name. Keys
// without a folder segment map onto DefaultFolder. Keys that do not start
// with KeyPrefix, or that are nothing but the prefix, fail with
// ErrInvalidKey; such keys carry no file identity.
func ParseKey(key string) (folder, name string, err error) {
	rest, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok || rest == "" {
		return "", "", fmt.Errorf("parse key %q: %w", key, ErrInvalidKey)
	}
	first, remainder, found := strings.Cut(rest, "/")
	if !found {
		return DefaultFolder, rest, nil
	}
	if first == "" || remainder == "" {
		return "", "", fmt.Errorf("parse key %q: %w", key, ErrInvalidKey)
	}
	return first, remainder, nil
}

// SplitExt separates a display name into base and extension, where the
// extension includes the leading dot and may be empty.
func SplitExt(name string) (base, ext string) {
	ext = path.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}
