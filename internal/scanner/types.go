// Package scanner discovers the notes of a vault, respecting hidden
// directories, configured exclude patterns and .gitignore/.notelinkignore
// files.
package scanner

import (
	"time"
)

// FileInfo describes one discovered note.
type FileInfo struct {
	Path    string    // Relative path to the vault root, slash separated
	AbsPath string    // Absolute path
	Name    string    // Display name: file name without extension
	Group   string    // Name of the immediate parent directory
	Size    int64     // File size in bytes
	ModTime time.Time // Last modification time

	// Err is set when the note exists but cannot be processed: it is
	// larger than MaxFileSize or a symlink to a missing target.
	Err error
}

// ScanOptions configures the scanner.
type ScanOptions struct {
	// Extensions lists the note extensions to include (default: .md).
	// Matching is case-insensitive.
	Extensions []string

	// ExcludePatterns are gitignore-style patterns applied at the vault root.
	ExcludePatterns []string

	// RespectIgnoreFiles enables .gitignore and .notelinkignore parsing.
	RespectIgnoreFiles bool

	// MaxFileSize skips larger files (0 = DefaultMaxFileSize).
	MaxFileSize int64
}

// DefaultExtensions are the note extensions scanned when none are configured.
var DefaultExtensions = []string{".md"}

// DefaultMaxFileSize is the default maximum note size (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// DefaultScanOptions returns options scanning .md files and honoring ignore files.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Extensions:         append([]string(nil), DefaultExtensions...),
		RespectIgnoreFiles: true,
		MaxFileSize:        DefaultMaxFileSize,
	}
}
