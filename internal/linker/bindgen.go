package linker

import (
	"os"
	"path/filepath"
	"strings"
)

// BindgenArgs returns extra clang arguments for bindgen so it parses headers
// for the target instead of the host, using zig's bundled libc headers.
// Only include directories present under libDir are listed.
func BindgenArgs(w *Wrappers, libDir string) []string {
	args := []string{"--target=" + w.Triple}
	if libDir == "" {
		return args
	}
	zt, _, _ := strings.Cut(w.ZigTarget, ".")
	parts := strings.SplitN(zt, "-", 3)
	if len(parts) != 3 {
		return args
	}
	arch, osName, abi := parts[0], parts[1], parts[2]

	libc := "glibc"
	if strings.HasPrefix(abi, "musl") {
		libc = "musl"
	} else if osName == "windows" {
		libc = "mingw"
	}
	candidates := []string{
		filepath.Join(libDir, "include"),
		filepath.Join(libDir, "libc", "include", zt),
		filepath.Join(libDir, "libc", "include", "generic-"+libc),
		filepath.Join(libDir, "libc", "include", arch+"-"+osName+"-any"),
		filepath.Join(libDir, "libc", "include", "any-"+osName+"-any"),
	}
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			args = append(args, "-isystem", dir)
		}
	}
	return args
}
