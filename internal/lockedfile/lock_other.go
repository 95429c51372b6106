//go:build !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd && !windows

package lockedfile

import "os"

// Platforms without flock (aix, solaris, plan9, js, wasip1) run unlocked.

func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
