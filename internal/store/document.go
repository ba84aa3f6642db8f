package store

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SignatureDelimiter separates keywords in the persisted signature.
// Keywords are alphanumeric, so they can never contain it.
const SignatureDelimiter = ","

// Document is one note as known to the store.
type Document struct {
	// Path is the absolute file path and the unique key.
	Path string
	// Name is the display name: the file name without its extension.
	Name string
	// Group is the name of the immediate parent directory.
	Group string
	// Signature is the ordered keyword signature.
	Signature []string
}

// NewDocument builds a Document for an absolute path, deriving name and group.
func NewDocument(path string, signature []string) Document {
	return Document{
		Path:      path,
		Name:      DisplayName(path),
		Group:     GroupLabel(path),
		Signature: signature,
	}
}

// DisplayName returns the base name of path with its extension stripped.
func DisplayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GroupLabel returns the name of the directory directly containing path.
func GroupLabel(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return filepath.Base(dir)
}

// EncodeSignature joins keywords with the delimiter.
// Keywords containing the delimiter are rejected instead of being silently split.
func EncodeSignature(signature []string) (string, error) {
	for _, k := range signature {
		if strings.Contains(k, SignatureDelimiter) {
			return "", fmt.Errorf("keyword %q contains signature delimiter", k)
		}
	}
	return strings.Join(signature, SignatureDelimiter), nil
}

// DecodeSignature splits a persisted signature, dropping empty and
// whitespace-only entries.
func DecodeSignature(s string) []string {
	parts := strings.Split(s, SignatureDelimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
