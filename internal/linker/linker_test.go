package linker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/goplus/zigbuild/pkgs/gnu"
	"github.com/goplus/zigbuild/pkgs/target"
)

type fakeZig string

func (v fakeZig) AtLeast(min string) bool {
	return gnu.Compare(string(v), min) >= 0
}

func TestZigTarget(t *testing.T) {
	tests := []struct {
		in      string
		zig     fakeZig
		want    string
		wantErr bool
	}{
		{"x86_64-unknown-linux-gnu", "0.11.0", "x86_64-linux-gnu", false},
		{"aarch64-unknown-linux-gnu.2.17", "0.11.0", "aarch64-linux-gnu.2.17", false},
		{"x86_64-unknown-linux-musl", "0.11.0", "x86_64-linux-musl", false},
		{"armv7-unknown-linux-gnueabihf", "0.11.0", "arm-linux-gnueabihf", false},
		{"arm-unknown-linux-musleabihf", "0.11.0", "arm-linux-musleabihf", false},
		{"thumbv7neon-unknown-linux-gnueabihf", "0.11.0", "thumb-linux-gnueabihf", false},
		{"riscv64gc-unknown-linux-gnu", "0.11.0", "riscv64-linux-gnu", false},
		{"i686-unknown-linux-gnu", "0.11.0", "x86-linux-gnu", false},
		{"i686-unknown-linux-gnu", "0.10.1", "i386-linux-gnu", false},
		{"i586-unknown-linux-gnu.2.17", "0.9.0", "i386-linux-gnu.2.17", false},
		{"mips-unknown-linux-gnu", "0.11.0", "mips-linux-gnueabihf", false},
		{"mips64-unknown-linux-gnuabi64", "0.11.0", "mips64-linux-gnuabi64", false},
		{"aarch64-apple-darwin", "0.11.0", "aarch64-macos-gnu", false},
		{"x86_64-apple-darwin", "0.11.0", "x86_64-macos-gnu", false},
		{"x86_64-pc-windows-gnu", "0.11.0", "x86_64-windows-gnu", false},
		{"i686-pc-windows-gnu", "0.11.0", "x86-windows-gnu", false},
		{"wasm32-unknown-unknown", "0.11.0", "", true},
		{"aarch64-apple-ios", "0.11.0", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in+"@"+string(tt.zig), func(t *testing.T) {
			got, err := ZigTarget(target.Parse(tt.in), tt.zig)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedTarget) {
					t.Fatalf("ZigTarget(%q) error = %v, want ErrUnsupportedTarget", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ZigTarget(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ZigTarget(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCPUFlags(t *testing.T) {
	if got := CPUFlags("armv7"); len(got) != 1 || !strings.Contains(got[0], "v7a") {
		t.Errorf("CPUFlags(armv7) = %q", got)
	}
	if got := CPUFlags("riscv64gc"); len(got) != 1 {
		t.Errorf("CPUFlags(riscv64gc) = %q", got)
	}
	if got := CPUFlags("x86_64"); got != nil {
		t.Errorf("CPUFlags(x86_64) = %q, want nil", got)
	}
}

func TestNeedsFcntlShim(t *testing.T) {
	tests := map[string]bool{
		"x86_64-unknown-linux-gnu.2.17":  true,
		"x86_64-unknown-linux-gnu.2.27":  true,
		"x86_64-unknown-linux-gnu.2.28":  false,
		"x86_64-unknown-linux-gnu.2.31":  false,
		"x86_64-unknown-linux-gnu":       false,
		"aarch64-unknown-linux-gnu.2.17": false,
		"x86_64-unknown-linux-musl":      false,
	}
	for in, want := range tests {
		if got := needsFcntlShim(target.Parse(in)); got != want {
			t.Errorf("needsFcntlShim(%q) = %v, want %v", in, got, want)
		}
	}
}

func testOptions(t *testing.T) Options {
	t.Helper()
	unix := false
	return Options{
		Zig:      fakeZig("0.11.0"),
		CacheDir: t.TempDir(),
		Exe:      "/usr/local/bin/cargo-zigbuild",
		Windows:  &unix,
	}
}

func TestPrepare(t *testing.T) {
	opts := testOptions(t)
	spec := target.Parse("aarch64-unknown-linux-gnu.2.17")
	w, err := Prepare(context.Background(), spec, spec.Triple, opts)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	if w.Triple != "aarch64-unknown-linux-gnu" || w.ZigTarget != "aarch64-linux-gnu.2.17" {
		t.Errorf("Prepare() = %+v", w)
	}
	if want := filepath.Join(opts.CacheDir, "zigcc-aarch64-unknown-linux-gnu.2.17.sh"); w.CC != want {
		t.Errorf("CC = %q, want %q", w.CC, want)
	}
	if want := filepath.Join(opts.CacheDir, "zigcxx-aarch64-unknown-linux-gnu.2.17.sh"); w.CXX != want {
		t.Errorf("CXX = %q, want %q", w.CXX, want)
	}

	data, err := os.ReadFile(w.CC)
	if err != nil {
		t.Fatal(err)
	}
	want := "#!/bin/sh\nexec /usr/local/bin/cargo-zigbuild zig cc -- -target aarch64-linux-gnu.2.17 -g \"$@\"\n"
	if string(data) != want {
		t.Errorf("cc wrapper = %q, want %q", data, want)
	}
	data, err = os.ReadFile(w.CXX)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), " zig c++ -- ") {
		t.Errorf("c++ wrapper = %q", data)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(w.CC)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o700 {
			t.Errorf("wrapper mode = %v, want 0700", perm)
		}
	}

	cmake, err := os.ReadFile(w.CMakeToolchain)
	if err != nil {
		t.Fatalf("toolchain file: %v", err)
	}
	for _, line := range []string{
		`set(CMAKE_SYSTEM_NAME "Linux")`,
		`set(CMAKE_SYSTEM_PROCESSOR "aarch64")`,
		`set(CMAKE_C_COMPILER "` + filepath.ToSlash(w.CC) + `")`,
		`set(CMAKE_CXX_COMPILER "` + filepath.ToSlash(w.CXX) + `")`,
	} {
		if !strings.Contains(string(cmake), line) {
			t.Errorf("toolchain file missing %s:\n%s", line, cmake)
		}
	}
}

func TestPrepareFcntlShim(t *testing.T) {
	opts := testOptions(t)
	spec := target.Parse("x86_64-unknown-linux-gnu.2.17")
	w, err := Prepare(context.Background(), spec, spec.Triple, opts)
	if err != nil {
		t.Fatal(err)
	}
	mapPath := filepath.Join(opts.CacheDir, "fcntl.map")
	hPath := filepath.Join(opts.CacheDir, "fcntl.h")
	wantFlags := []string{"-target", "x86_64-linux-gnu.2.17", "-g", "-Wl,--version-script=" + mapPath, "-include", hPath}
	if !reflect.DeepEqual(w.Flags, wantFlags) {
		t.Errorf("Flags = %q, want %q", w.Flags, wantFlags)
	}
	for _, p := range []string{mapPath, hPath} {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("shim %s: %v", p, err)
		}
		if !strings.Contains(string(data), "GLIBC_2.2.5") {
			t.Errorf("shim %s = %q", p, data)
		}
	}
}

func TestPrepareArmFeatures(t *testing.T) {
	opts := testOptions(t)
	spec := target.Parse("armv7-unknown-linux-gnueabihf")
	w, err := Prepare(context.Background(), spec, spec.Triple, opts)
	if err != nil {
		t.Fatal(err)
	}
	incDir := filepath.Join(opts.CacheDir, "include")
	if _, err := os.Stat(filepath.Join(incDir, "arm-features.h")); err != nil {
		t.Errorf("arm-features.h not written: %v", err)
	}
	want := []string{"-target", "arm-linux-gnueabihf", "-g", "-mcpu=generic+v7a+vfp3-d32+thumb2-neon", "-isystem", incDir}
	if !reflect.DeepEqual(w.Flags, want) {
		t.Errorf("Flags = %q, want %q", w.Flags, want)
	}
}

func TestPrepareWindowsWrapper(t *testing.T) {
	opts := testOptions(t)
	win := true
	opts.Windows = &win
	opts.Exe = `C:\Program Files\cargo-zigbuild.exe`
	opts.SlashPaths = true

	spec := target.Parse("x86_64-pc-windows-gnu")
	w, err := Prepare(context.Background(), spec, spec.Triple, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(w.CC, "zigcc-x86_64-pc-windows-gnu.bat") {
		t.Errorf("CC = %q", w.CC)
	}
	data, err := os.ReadFile(w.CC)
	if err != nil {
		t.Fatal(err)
	}
	exe := filepath.ToSlash(opts.Exe)
	want := "@echo off\r\n\"" + exe + "\" zig cc -- -target x86_64-windows-gnu -g %*\r\n"
	if string(data) != want {
		t.Errorf("bat wrapper = %q, want %q", data, want)
	}
}

func TestPrepareUnsupported(t *testing.T) {
	opts := testOptions(t)
	for _, in := range []string{"wasm32-unknown-unknown", target.Universal2 + ".2.17"} {
		spec := target.Parse(in)
		if _, err := PrepareAll(context.Background(), []target.Specifier{spec}, opts); !errors.Is(err, ErrUnsupportedTarget) {
			t.Errorf("PrepareAll(%q) error = %v, want ErrUnsupportedTarget", in, err)
		}
	}
}

func TestPrepareKeepsUnchangedFiles(t *testing.T) {
	opts := testOptions(t)
	spec := target.Parse("x86_64-unknown-linux-musl")
	w, err := Prepare(context.Background(), spec, spec.Triple, opts)
	if err != nil {
		t.Fatal(err)
	}
	before, err := os.Stat(w.CC)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Prepare(context.Background(), spec, spec.Triple, opts); err != nil {
		t.Fatal(err)
	}
	after, err := os.Stat(w.CC)
	if err != nil {
		t.Fatal(err)
	}
	if !os.SameFile(before, after) {
		t.Error("unchanged wrapper was rewritten")
	}
}

func TestPrepareAll(t *testing.T) {
	opts := testOptions(t)
	specs := []target.Specifier{
		target.Parse("x86_64-unknown-linux-gnu.2.28"),
		target.Parse(target.Universal2),
	}
	ws, err := PrepareAll(context.Background(), specs, opts)
	if err != nil {
		t.Fatalf("PrepareAll() error: %v", err)
	}
	var triples []string
	for _, w := range ws {
		triples = append(triples, w.Triple)
		if _, err := os.Stat(w.CC); err != nil {
			t.Errorf("wrapper for %s missing: %v", w.Triple, err)
		}
	}
	want := []string{"x86_64-unknown-linux-gnu", "aarch64-apple-darwin", "x86_64-apple-darwin"}
	if !reflect.DeepEqual(triples, want) {
		t.Errorf("triples = %q, want %q", triples, want)
	}
	if !ws[1].Spec.IsUniversal2() {
		t.Error("universal2 wrappers lost their spec")
	}
}

func TestPrepareAllError(t *testing.T) {
	opts := testOptions(t)
	specs := []target.Specifier{
		target.Parse("x86_64-unknown-linux-gnu"),
		target.Parse("wasm32-unknown-unknown"),
	}
	_, err := PrepareAll(context.Background(), specs, opts)
	if !errors.Is(err, ErrUnsupportedTarget) {
		t.Fatalf("PrepareAll() error = %v, want ErrUnsupportedTarget", err)
	}
	if !strings.Contains(err.Error(), "wasm32-unknown-unknown") {
		t.Errorf("error %q does not name the target", err)
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"-target", "-target"},
		{"/usr/bin/zig", "/usr/bin/zig"},
		{"-Wl,--version-script=/a/b", "-Wl,--version-script=/a/b"},
		{"/my dir/zig", "'/my dir/zig'"},
		{"it's", `'it'\''s'`},
		{"", "''"},
	}
	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBindgenArgs(t *testing.T) {
	libDir := t.TempDir()
	for _, d := range []string{
		"include",
		"libc/include/x86_64-linux-gnu",
		"libc/include/generic-glibc",
		"libc/include/any-linux-any",
		"libc/include/generic-musl",
	} {
		if err := os.MkdirAll(filepath.Join(libDir, filepath.FromSlash(d)), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	w := &Wrappers{Triple: "x86_64-unknown-linux-gnu", ZigTarget: "x86_64-linux-gnu.2.17"}
	got := BindgenArgs(w, libDir)
	want := []string{
		"--target=x86_64-unknown-linux-gnu",
		"-isystem", filepath.Join(libDir, "include"),
		"-isystem", filepath.Join(libDir, "libc", "include", "x86_64-linux-gnu"),
		"-isystem", filepath.Join(libDir, "libc", "include", "generic-glibc"),
		"-isystem", filepath.Join(libDir, "libc", "include", "any-linux-any"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BindgenArgs() = %q, want %q", got, want)
	}

	if got := BindgenArgs(w, ""); !reflect.DeepEqual(got, []string{"--target=x86_64-unknown-linux-gnu"}) {
		t.Errorf("BindgenArgs() without lib dir = %q", got)
	}
}
