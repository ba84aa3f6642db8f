// Package lock serializes runs on a vault across processes.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	nlerrors "github.com/Aman-CERP/notelink/internal/errors"
)

// FileName is the lock file created inside the vault data directory.
const FileName = "run.lock"

// VaultLock is an exclusive cross-process lock on one vault.
type VaultLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New creates a lock whose file lives in dataDir. Nothing is touched on disk
// until the lock is acquired.
func New(dataDir string) *VaultLock {
	p := filepath.Join(dataDir, FileName)
	return &VaultLock{path: p, flock: flock.New(p)}
}

// TryAcquire takes the lock without blocking. It fails with a
// VaultLocked error when another run holds it.
func (l *VaultLock) TryAcquire() error {
	if err := l.ensureDir(); err != nil {
		return err
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return nlerrors.New(nlerrors.ErrCodeVaultLocked, "failed to acquire vault lock", err).
			WithDetail("lock", l.path)
	}
	if !acquired {
		return nlerrors.VaultLocked(l.path)
	}
	l.locked = true
	return nil
}

// Release unlocks. Safe to call when not held.
func (l *VaultLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release vault lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *VaultLock) Path() string {
	return l.path
}

// Held reports whether this VaultLock currently holds the lock.
func (l *VaultLock) Held() bool {
	return l.locked
}

func (l *VaultLock) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nlerrors.New(nlerrors.ErrCodeVaultLocked, "failed to create lock directory", err).
			WithDetail("lock", l.path)
	}
	return nil
}
