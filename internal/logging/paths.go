package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.notelink/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".notelink", "logs")
	}
	return filepath.Join(home, ".notelink", "logs")
}

// DefaultLogPath returns the default debug log file.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "notelink.log")
}
