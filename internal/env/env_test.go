package env

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

func TestCacheDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME is only honoured on linux")
	}
	tempDir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", tempDir)

	dir, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() returned error: %v", err)
	}
	want := filepath.Join(tempDir, Name, Version)
	if dir != want {
		t.Errorf("CacheDir() = %q, want %q", dir, want)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("CacheDir() created a file instead of a directory")
	}
	if mode := info.Mode().Perm(); mode != 0o700 {
		t.Errorf("Directory has permissions %v, want %v", mode, os.FileMode(0o700))
	}
}

// TestCacheDirIdempotent verifies repeated calls return the same directory.
func TestCacheDirIdempotent(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir1, err := CacheDir()
	if err != nil {
		t.Fatalf("First CacheDir() call failed: %v", err)
	}
	dir2, err := CacheDir()
	if err != nil {
		t.Fatalf("Second CacheDir() call failed: %v", err)
	}
	if dir1 != dir2 {
		t.Errorf("CacheDir() not idempotent: %q != %q", dir1, dir2)
	}
}

func TestExecutableOverride(t *testing.T) {
	t.Setenv(BinExeVar, "/opt/bin/cargo-zigbuild")
	exe, err := Executable()
	if err != nil {
		t.Fatal(err)
	}
	if exe != "/opt/bin/cargo-zigbuild" {
		t.Errorf("Executable() = %q", exe)
	}

	t.Setenv(BinExeVar, "")
	exe, err = Executable()
	if err != nil {
		t.Fatal(err)
	}
	if exe == "" {
		t.Error("Executable() returned empty path")
	}
}

func TestIsMingwShell(t *testing.T) {
	t.Setenv("MSYSTEM", "MINGW64")
	t.Setenv("SHELL", "/usr/bin/bash")
	if !IsMingwShell() {
		t.Error("IsMingwShell() = false with MSYSTEM and SHELL set")
	}
	os.Unsetenv("MSYSTEM")
	if IsMingwShell() {
		t.Error("IsMingwShell() = true without MSYSTEM")
	}
}

func TestZigCommand(t *testing.T) {
	t.Setenv(ZigPathVar, "python3 -m ziglang")
	if got := ZigCommand(); !reflect.DeepEqual(got, []string{"python3", "-m", "ziglang"}) {
		t.Errorf("ZigCommand() = %q", got)
	}
	t.Setenv(ZigPathVar, "")
	if got := ZigCommand(); got != nil {
		t.Errorf("ZigCommand() = %q, want nil", got)
	}
}

func TestDebug(t *testing.T) {
	t.Setenv(LogVar, "DEBUG")
	if !Debug() {
		t.Error("Debug() = false for DEBUG")
	}
	t.Setenv(LogVar, "info")
	if Debug() {
		t.Error("Debug() = true for info")
	}
}
