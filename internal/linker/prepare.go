package linker

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goplus/zigbuild/internal/lockedfile"
	"github.com/goplus/zigbuild/pkgs/target"
	"github.com/qiniu/x/log"
	"golang.org/x/sync/errgroup"
)

var (
	//go:embed shims/fcntl.map
	fcntlMap []byte
	//go:embed shims/fcntl.h
	fcntlH []byte
	//go:embed shims/arm-features.h
	armFeaturesH []byte
)

// Options controls where and how wrappers are written.
type Options struct {
	Zig Toolchain
	// CacheDir receives the wrapper scripts and shims.
	CacheDir string
	// Exe is the cargo-zigbuild binary the wrappers call back into.
	Exe string
	// Windows selects .bat wrappers. Defaults to runtime.GOOS == "windows".
	Windows *bool
	// SlashPaths writes forward slashes into .bat wrappers (MSYS shells).
	SlashPaths bool
}

func (o *Options) windows() bool {
	if o.Windows != nil {
		return *o.Windows
	}
	return runtime.GOOS == "windows"
}

// Wrappers describes the files prepared for one rust target.
type Wrappers struct {
	// Spec is the target as requested, Triple the rust triple cargo builds.
	Spec   target.Specifier
	Triple string

	ZigTarget string
	// Flags are passed to zig before the arguments from cargo.
	Flags []string

	CC             string
	CXX            string
	CMakeToolchain string
}

// Prepare writes `zig cc` and `zig c++` wrappers for triple. cargo only
// accepts an executable path as linker, so the scripts call back into
// cargo-zigbuild with the composed flags. Each target gets its own files,
// otherwise cargo could skip relinking after the target changed.
func Prepare(ctx context.Context, spec target.Specifier, triple string, opts Options) (*Wrappers, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	one := target.Specifier{Triple: triple, Version: spec.Version}
	zt, err := ZigTarget(one, opts.Zig)
	if err != nil {
		return nil, err
	}
	w := &Wrappers{Spec: spec, Triple: triple, ZigTarget: zt}
	w.Flags = append([]string{"-target", zt, "-g"}, CPUFlags(target.ParseTriple(triple).Arch)...)

	unlock, err := lockedfile.MutexAt(filepath.Join(opts.CacheDir, ".lock")).Lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if needsFcntlShim(one) {
		mapPath := filepath.Join(opts.CacheDir, "fcntl.map")
		hPath := filepath.Join(opts.CacheDir, "fcntl.h")
		if err := writeIfChanged(mapPath, fcntlMap, 0o644); err != nil {
			return nil, err
		}
		if err := writeIfChanged(hPath, fcntlH, 0o644); err != nil {
			return nil, err
		}
		w.Flags = append(w.Flags, "-Wl,--version-script="+mapPath, "-include", hPath)
	}
	if needsArmFeatures(one) {
		incDir := filepath.Join(opts.CacheDir, "include")
		if err := os.MkdirAll(incDir, 0o700); err != nil {
			return nil, err
		}
		if err := writeIfChanged(filepath.Join(incDir, "arm-features.h"), armFeaturesH, 0o644); err != nil {
			return nil, err
		}
		w.Flags = append(w.Flags, "-isystem", incDir)
	}

	ext := "sh"
	if opts.windows() {
		ext = "bat"
	}
	name := one.String()
	w.CC = filepath.Join(opts.CacheDir, fmt.Sprintf("zigcc-%s.%s", name, ext))
	w.CXX = filepath.Join(opts.CacheDir, fmt.Sprintf("zigcxx-%s.%s", name, ext))
	if err := writeIfChanged(w.CC, wrapperScript(opts, "cc", w.Flags), 0o700); err != nil {
		return nil, err
	}
	if err := writeIfChanged(w.CXX, wrapperScript(opts, "c++", w.Flags), 0o700); err != nil {
		return nil, err
	}

	w.CMakeToolchain = filepath.Join(opts.CacheDir, "cmake", name+"-toolchain.cmake")
	if err := os.MkdirAll(filepath.Dir(w.CMakeToolchain), 0o700); err != nil {
		return nil, err
	}
	if err := writeIfChanged(w.CMakeToolchain, cmakeToolchain(target.ParseTriple(triple), w), 0o644); err != nil {
		return nil, err
	}
	log.Debugf("linker: prepared %s for %s", w.CC, zt)
	return w, nil
}

// PrepareAll prepares wrappers for every triple named by specs. The
// universal2 pseudo-target contributes both of its apple triples.
func PrepareAll(ctx context.Context, specs []target.Specifier, opts Options) ([]*Wrappers, error) {
	type job struct {
		spec   target.Specifier
		triple string
	}
	var jobs []job
	for _, spec := range specs {
		for _, triple := range spec.Triples() {
			jobs = append(jobs, job{spec, triple})
		}
	}

	out := make([]*Wrappers, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			w, err := Prepare(gctx, j.spec, j.triple, opts)
			if err != nil {
				return fmt.Errorf("prepare linker for %s: %w", j.triple, err)
			}
			out[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func wrapperScript(opts Options, command string, flags []string) []byte {
	var buf bytes.Buffer
	if opts.windows() {
		exe := opts.Exe
		if opts.SlashPaths {
			exe = filepath.ToSlash(exe)
		}
		fmt.Fprintf(&buf, "@echo off\r\n\"%s\" zig %s -- %s %%*\r\n", exe, command, strings.Join(batQuote(flags), " "))
		return buf.Bytes()
	}
	buf.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&buf, "exec %s zig %s -- %s \"$@\"\n", shellQuote(opts.Exe), command, ShellJoin(flags))
	return buf.Bytes()
}

// ShellJoin quotes args for a POSIX shell and joins them with spaces.
func ShellJoin(args []string) string {
	return strings.Join(shellQuoteAll(args), " ")
}

func shellQuoteAll(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = shellQuote(a)
	}
	return out
}

// shellQuote quotes s for a POSIX shell when it contains special characters.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=+,:@%", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func batQuote(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t&()^") {
			a = `"` + a + `"`
		}
		out[i] = a
	}
	return out
}

// writeIfChanged replaces path with data unless it already holds it. The new
// content is renamed into place so a concurrently running cargo never sees a
// half written script.
func writeIfChanged(path string, data []byte, perm os.FileMode) error {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
