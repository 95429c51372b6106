package env

import (
	"os"
	"path/filepath"
	"strings"
)

// Name is the directory name used under the user cache dir.
const Name = "cargo-zigbuild"

// Version is the release the wrapper scripts are written for. Scripts live
// in a per-version directory so an upgrade never reuses stale wrappers.
var Version = "0.1.0"

// Environment variables read by zigbuild.
const (
	ZigPathVar   = "CARGO_ZIGBUILD_ZIG_PATH"
	LogVar       = "CARGO_ZIGBUILD_LOG"
	BinExeVar    = "CARGO_BIN_EXE_cargo-zigbuild"
	TargetVar    = "CARGO_BUILD_TARGET"
	TargetDirVar = "CARGO_TARGET_DIR"
)

// CacheDir returns the directory holding generated linker wrappers,
// creating it if needed. It falls back to the working directory when the
// platform has no user cache dir.
func CacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		if base, err = os.Getwd(); err != nil {
			return "", err
		}
	}
	dir := filepath.Join(base, Name, Version)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// Executable returns the path of the running cargo-zigbuild binary. Cargo
// integration tests set CARGO_BIN_EXE_cargo-zigbuild to point elsewhere.
func Executable() (string, error) {
	if exe := os.Getenv(BinExeVar); exe != "" {
		return exe, nil
	}
	return os.Executable()
}

// IsMingwShell reports whether we run inside an MSYS2 or Git Bash shell,
// where wrapper scripts need forward slashes.
func IsMingwShell() bool {
	_, msys := os.LookupEnv("MSYSTEM")
	_, shell := os.LookupEnv("SHELL")
	return msys && shell
}

// ZigCommand returns the user supplied zig command line split on blanks,
// or nil if none is configured.
func ZigCommand() []string {
	fields := strings.Fields(os.Getenv(ZigPathVar))
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Debug reports whether CARGO_ZIGBUILD_LOG asks for debug output.
func Debug() bool {
	return strings.EqualFold(os.Getenv(LogVar), "debug")
}
