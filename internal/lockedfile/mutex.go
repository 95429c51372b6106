// Package lockedfile provides an inter-process mutex backed by a lock file.
//
// Several cargo invocations (for example a workspace build running build
// scripts in parallel) may prepare the same wrapper directory at once.
package lockedfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// A Mutex is an exclusive lock on a file path. The zero value is not usable;
// create one with MutexAt.
type Mutex struct {
	path string
}

// MutexAt returns a Mutex locking the file at path. The file is created on
// first Lock and never removed.
func MutexAt(path string) *Mutex {
	if path == "" {
		panic("lockedfile.MutexAt: path must be non-empty")
	}
	return &Mutex{path: path}
}

func (mu *Mutex) String() string {
	return fmt.Sprintf("lockedfile.Mutex(%s)", mu.path)
}

// Lock blocks until the lock is held and returns the function releasing it.
func (mu *Mutex) Lock() (unlock func(), err error) {
	if err := os.MkdirAll(filepath.Dir(mu.path), 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(mu.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock %s: %w", mu.path, err)
	}
	return func() {
		unlockFile(f)
		f.Close()
	}, nil
}
