// Package linker composes zig compiler flags for a rust target and writes
// the wrapper scripts cargo uses as C compiler and linker.
package linker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goplus/zigbuild/pkgs/gnu"
	"github.com/goplus/zigbuild/pkgs/target"
)

// ErrUnsupportedTarget is returned for operating systems zig cannot link for
// through cargo-zigbuild.
var ErrUnsupportedTarget = errors.New("unsupported target")

// Toolchain is the part of a zig installation flag composition depends on.
type Toolchain interface {
	AtLeast(version string) bool
}

// ZigTarget converts a rust target (with optional libc version) into the
// value zig expects after -target, e.g.
//
//	aarch64-unknown-linux-gnu.2.17  ->  aarch64-linux-gnu.2.17
//	i686-pc-windows-gnu             ->  x86-windows-gnu
func ZigTarget(spec target.Specifier, tc Toolchain) (string, error) {
	t := target.ParseTriple(spec.Triple)
	arch := zigArch(t, tc)

	var osName, abi string
	switch {
	case t.IsLinux():
		osName, abi = "linux", t.Env
		if abi == "" {
			abi = "gnu"
		}
		if (t.Arch == "mips" || t.Arch == "mipsel") && abi == "gnu" {
			abi = "gnueabihf"
		}
	case t.IsMacOS():
		osName, abi = "macos", "gnu"
	case t.IsWindows():
		osName, abi = "windows", t.Env
		if abi == "" {
			abi = "gnu"
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedTarget, spec.Triple)
	}

	zt := arch + "-" + osName + "-" + abi
	if spec.HasVersion() {
		zt += "." + spec.VersionString()
	}
	return zt, nil
}

func zigArch(t target.Triple, tc Toolchain) string {
	switch {
	case t.IsX86():
		// zig 0.11 renamed i386 to x86
		if tc != nil && tc.AtLeast("0.11.0") {
			return "x86"
		}
		return "i386"
	case strings.HasPrefix(t.Arch, "thumb"):
		return "thumb"
	case strings.HasPrefix(t.Arch, "arm") && !strings.HasPrefix(t.Arch, "armeb"):
		return "arm"
	case strings.HasPrefix(t.Arch, "riscv64"):
		return "riscv64"
	case strings.HasPrefix(t.Arch, "riscv32"):
		return "riscv32"
	}
	return t.Arch
}

// CPUFlags returns the -mcpu flag matching the baseline rustc assumes for
// arch, if zig's default differs.
func CPUFlags(arch string) []string {
	switch {
	case strings.HasPrefix(arch, "armv7"), strings.HasPrefix(arch, "thumbv7"):
		return []string{"-mcpu=generic+v7a+vfp3-d32+thumb2-neon"}
	case arch == "arm":
		return []string{"-mcpu=generic+v6+strict_align"}
	case arch == "riscv64gc":
		return []string{"-mcpu=generic_rv64+m+a+f+d+c"}
	}
	return nil
}

// needsFcntlShim reports glibc x86_64 targets older than 2.28, where
// fcntl64 does not exist yet.
func needsFcntlShim(spec target.Specifier) bool {
	t := target.ParseTriple(spec.Triple)
	if t.Arch != "x86_64" || !t.IsLinux() || !t.IsGnu() || !spec.HasVersion() {
		return false
	}
	return gnu.Less(spec.VersionString(), "2.28")
}

// needsArmFeatures reports 32-bit arm glibc targets, whose zig headers lack
// arm-features.h.
func needsArmFeatures(spec target.Specifier) bool {
	t := target.ParseTriple(spec.Triple)
	return t.IsArm() && t.IsLinux() && t.IsGnu()
}
