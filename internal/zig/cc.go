package zig

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/goplus/zigbuild/pkgs/gnu"
	"github.com/qiniu/x/log"
)

// Compiler runs `zig cc` or `zig c++` on behalf of rustc and cc-rs, which
// reach it through the generated wrapper scripts.
type Compiler struct {
	Zig *Zig
	// Cmd is the zig subcommand, "cc" or "c++".
	Cmd string
	// RustcRelease reports the active rustc release. Defaults to RustcRelease.
	RustcRelease func(ctx context.Context) (string, error)

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run filters args and executes the compiler. A failing compiler is
// reported as an *exec.ExitError so the caller can keep its exit status.
func (c *Compiler) Run(ctx context.Context, args []string) error {
	args, err := c.Args(ctx, args)
	if err != nil {
		return err
	}
	cmd := c.Zig.Command(ctx, append([]string{c.Cmd}, args...)...)
	cmd.Stdin = orReader(c.Stdin, os.Stdin)
	cmd.Stdout = orWriter(c.Stdout, os.Stdout)
	cmd.Stderr = orWriter(c.Stderr, os.Stderr)
	log.Debugf("zig %s: %s", c.Cmd, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run `zig %s`: %w", c.Cmd, err)
	}
	return nil
}

// Args rewrites the arguments rustc passed to the linker into ones zig
// accepts. Response files named *linker-arguments are rewritten in place.
func (c *Compiler) Args(ctx context.Context, args []string) ([]string, error) {
	release := c.RustcRelease
	if release == nil {
		release = RustcRelease
	}
	f := newLinkFilter(flagValue(args, "-target"), func() string {
		v, err := release(ctx)
		if err != nil {
			log.Debugf("zig %s: cannot determine rustc version: %v", c.Cmd, err)
			return ""
		}
		return v
	})

	out := make([]string, 0, len(args)+1)
	for _, arg := range args {
		if strings.HasPrefix(arg, "@") && strings.HasSuffix(arg, "linker-arguments") {
			if err := f.rewriteResponseFile(arg[1:]); err != nil {
				return nil, err
			}
			out = append(out, arg)
			continue
		}
		if arg, ok := f.filter(arg); ok {
			out = append(out, arg)
		}
	}
	if hasUndefinedDynamicLookup(args) {
		out = append(out, "-Wl,-undefined=dynamic_lookup")
	}
	return out, nil
}

type linkFilter struct {
	musl       bool
	windowsGnu bool
	arm        bool
	// oldRustc reports rustc < 1.59, which did not ship a self-contained
	// libc.a for musl.
	oldRustc func() bool
}

func newLinkFilter(zigTarget string, rustcRelease func() string) *linkFilter {
	return &linkFilter{
		musl:       strings.Contains(zigTarget, "musl"),
		windowsGnu: strings.Contains(zigTarget, "windows-gnu"),
		arm:        strings.Contains(zigTarget, "arm"),
		oldRustc: sync.OnceValue(func() bool {
			v := rustcRelease()
			return v != "" && gnu.Less(v, "1.59.0")
		}),
	}
}

func (f *linkFilter) filter(arg string) (string, bool) {
	if arg == "-lgcc_s" {
		// zig ships libunwind instead of libgcc_s
		return "-lunwind", true
	}
	if f.arm && strings.HasSuffix(arg, ".rlib") && strings.Contains(arg, "libcompiler_builtins-") {
		// duplicated by zig's compiler-rt
		return "", false
	}
	if f.windowsGnu {
		switch arg {
		case "-lgcc_eh":
			return "-lc++", true
		case "-lwindows", "-l:libpthread.a", "-lgcc":
			return "", false
		}
	}
	if f.musl {
		// zig links its own musl crt and libc
		if strings.HasSuffix(arg, ".o") && strings.Contains(arg, "self-contained") && strings.Contains(arg, "crt") {
			return "", false
		}
		if arg == "-lc" {
			return "", false
		}
		if strings.HasSuffix(arg, ".rlib") && strings.Contains(arg, "liblibc-") && f.oldRustc() {
			return "", false
		}
	}
	return arg, true
}

func (f *linkFilter) rewriteResponseFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read linker arguments: %w", err)
	}
	var args []string
	for _, arg := range strings.Split(string(data), "\n") {
		if arg, ok := f.filter(arg); ok {
			args = append(args, arg)
		}
	}
	if hasUndefinedDynamicLookup(args) {
		args = append(args, "-Wl,-undefined=dynamic_lookup")
	}
	if err := os.WriteFile(path, []byte(strings.Join(args, "\n")), 0o644); err != nil {
		return fmt.Errorf("write linker arguments: %w", err)
	}
	return nil
}

// flagValue returns the argument following name, or "".
func flagValue(args []string, name string) string {
	for i, arg := range args {
		if arg == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func hasUndefinedDynamicLookup(args []string) bool {
	return flagValue(args, "-undefined") == "dynamic_lookup"
}

func orReader(r, def io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return def
}

func orWriter(w, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}
