package linker

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/goplus/zigbuild/pkgs/target"
)

// cmakeToolchain renders a CMAKE_TOOLCHAIN_FILE pointing CMake at the zig
// wrappers, so crates building C code through cmake-rs cross compile too.
func cmakeToolchain(t target.Triple, w *Wrappers) []byte {
	defines := [][2]string{
		{"CMAKE_SYSTEM_NAME", cmakeSystemName(t)},
		{"CMAKE_SYSTEM_PROCESSOR", cmakeProcessor(t)},
		{"CMAKE_C_COMPILER", filepath.ToSlash(w.CC)},
		{"CMAKE_CXX_COMPILER", filepath.ToSlash(w.CXX)},
		{"CMAKE_C_COMPILER_TARGET", w.ZigTarget},
		{"CMAKE_CXX_COMPILER_TARGET", w.ZigTarget},
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# generated by cargo-zigbuild for %s\n", w.Triple)
	for _, d := range defines {
		fmt.Fprintf(&buf, "set(%s %q)\n", d[0], d[1])
	}
	return buf.Bytes()
}

func cmakeSystemName(t target.Triple) string {
	switch {
	case t.IsLinux():
		return "Linux"
	case t.IsMacOS():
		return "Darwin"
	case t.IsWindows():
		return "Windows"
	}
	return t.OS
}

func cmakeProcessor(t target.Triple) string {
	switch {
	case t.IsX86():
		return "i686"
	case t.IsArm():
		return "arm"
	case t.Arch == "aarch64" && t.IsMacOS():
		return "arm64"
	}
	return t.Arch
}
