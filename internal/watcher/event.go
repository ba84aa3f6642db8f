package watcher

import (
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new note or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing note was written.
	OpModify
	// OpDelete indicates a note or directory was removed.
	OpDelete
	// OpRename indicates a note or directory was moved away.
	OpRename
	// OpIgnoreChange indicates a .gitignore or .notelinkignore file changed.
	OpIgnoreChange
	// OpConfigChange indicates the vault config file changed.
	OpConfigChange
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	case OpIgnoreChange:
		return "IGNORE_CHANGE"
	case OpConfigChange:
		return "CONFIG_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one change inside the vault.
type FileEvent struct {
	// Path is relative to the vault root, slash separated.
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// HasOperation reports whether any event in batch has op.
func HasOperation(batch []FileEvent, op Operation) bool {
	for _, e := range batch {
		if e.Operation == op {
			return true
		}
	}
	return false
}

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period before a batch is emitted. Default: 500ms
	Debounce time.Duration

	// EventBufferSize is the number of batches buffered for the consumer. Default: 16
	EventBufferSize int

	// Extensions are the note extensions reported. Default: .md
	Extensions []string

	// ExcludePatterns are gitignore-style patterns applied at the vault root.
	ExcludePatterns []string

	// RespectIgnoreFiles enables .gitignore and .notelinkignore parsing.
	RespectIgnoreFiles bool

	// ConfigFiles are vault-relative file names reported as OpConfigChange.
	ConfigFiles []string
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Debounce:           500 * time.Millisecond,
		EventBufferSize:    16,
		Extensions:         []string{".md"},
		RespectIgnoreFiles: true,
		ConfigFiles:        []string{".notelink.yaml", ".notelink.yml"},
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.Debounce <= 0 {
		o.Debounce = defaults.Debounce
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if len(o.Extensions) == 0 {
		o.Extensions = defaults.Extensions
	}
	if o.ConfigFiles == nil {
		o.ConfigFiles = defaults.ConfigFiles
	}
	return o
}
