package cargo

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/goplus/zigbuild/internal/env"
	"github.com/goplus/zigbuild/internal/linker"
	"github.com/goplus/zigbuild/internal/zig"
	"github.com/goplus/zigbuild/pkgs/target"
	"github.com/qiniu/x/log"
)

// Invocation is one cargo subcommand run with zig as the linker.
type Invocation struct {
	Subcommand string
	Options    Options
	// DisableZig runs plain cargo, e.g. for host-only builds.
	DisableZig bool

	// Dir is the working directory, defaulting to the process's.
	Dir string
	// CacheDir overrides where wrappers are written.
	CacheDir string
	// ZigOptions are passed to zig.Find.
	ZigOptions []zig.Option
	// Rustc reports the active toolchain. Defaults to zig.Rustc.
	Rustc func(ctx context.Context) (*zig.RustcInfo, error)

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Command prepares the linker wrappers for every requested target and
// returns the cargo command to run.
func (inv *Invocation) Command(ctx context.Context) (*exec.Cmd, error) {
	dir := inv.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}
	cfg, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	opts := inv.Options
	var unset []string
	if len(opts.Targets) == 0 {
		opts.Targets = defaultTargets(cfg)
	}
	if len(opts.Targets) > 0 {
		// cargo would reject a version suffix coming from the environment
		unset = append(unset, env.TargetVar)
	}

	overrides := map[string]string{}
	specs := opts.Specs()
	if !inv.DisableZig && len(specs) > 0 {
		rustc := inv.Rustc
		if rustc == nil {
			rustc = zig.Rustc
		}
		info, err := rustc(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query rustc: %w", err)
		}
		cross := crossSpecs(specs, info.Host)
		if len(cross) > 0 {
			if overrides, err = inv.prepare(ctx, cross); err != nil {
				return nil, err
			}
			triples := Triples(cross)
			if err := SetupAppleDeps(opts.ResolveTargetDir(cfg, dir), opts.ProfileDir(), triples); err != nil {
				return nil, fmt.Errorf("setup apple deps: %w", err)
			}
			setSysroot(overrides, triples)
		}
		for _, s := range cross {
			if s.Triple == info.Host && info.Nightly() {
				// keep build scripts and proc-macros on the host linker
				overrides["CARGO_UNSTABLE_TARGET_APPLIES_TO_HOST"] = "true"
				overrides["CARGO_TARGET_APPLIES_TO_HOST"] = "false"
			}
			if s.IsUniversal2() {
				log.Warnf("%s: building %s separately, no universal binary is produced",
					target.Universal2, strings.Join(s.Triples(), " and "))
			}
		}
	}

	cmd := exec.CommandContext(ctx, cargoBin(), opts.Args(inv.Subcommand)...)
	cmd.Dir = inv.Dir
	cmd.Env = mergeEnv(os.Environ(), overrides, unset)
	cmd.Stdin = orReader(inv.Stdin, os.Stdin)
	cmd.Stdout = orWriter(inv.Stdout, os.Stdout)
	cmd.Stderr = orWriter(inv.Stderr, os.Stderr)
	return cmd, nil
}

// Run executes the invocation. A failing cargo is returned as an
// *exec.ExitError wrapped with context.
func (inv *Invocation) Run(ctx context.Context) error {
	cmd, err := inv.Command(ctx)
	if err != nil {
		return err
	}
	log.Debugf("cargo: %s", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run `cargo %s`: %w", inv.Subcommand, err)
	}
	return nil
}

func (inv *Invocation) prepare(ctx context.Context, specs []target.Specifier) (map[string]string, error) {
	z, err := zig.Find(ctx, inv.ZigOptions...)
	if err != nil {
		return nil, err
	}
	cacheDir := inv.CacheDir
	if cacheDir == "" {
		if cacheDir, err = env.CacheDir(); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	exe, err := env.Executable()
	if err != nil {
		return nil, err
	}
	ws, err := linker.PrepareAll(ctx, specs, linker.Options{
		Zig:        z,
		CacheDir:   cacheDir,
		Exe:        exe,
		SlashPaths: env.IsMingwShell(),
	})
	if err != nil {
		return nil, err
	}
	libDir, err := z.LibDir(ctx)
	if err != nil {
		// only bindgen include paths depend on it
		log.Debugf("zig: no lib dir: %v", err)
		libDir = ""
	}
	return Env(ws, libDir), nil
}

// crossSpecs drops targets spelled exactly as the host triple; those build
// with the host toolchain. A host triple with a version suffix still uses zig.
func crossSpecs(specs []target.Specifier, host string) []target.Specifier {
	var out []target.Specifier
	for _, s := range specs {
		if s.String() == host {
			log.Debugf("cargo: %s is the host target, not using zig", host)
			continue
		}
		out = append(out, s)
	}
	return out
}

// setSysroot points pkg-config at SDKROOT for darwin targets unless the
// user configured a sysroot already.
func setSysroot(overrides map[string]string, triples []string) {
	sdk := os.Getenv("SDKROOT")
	if sdk == "" {
		return
	}
	if _, ok := os.LookupEnv("PKG_CONFIG_SYSROOT_DIR"); ok {
		return
	}
	for _, t := range triples {
		if strings.Contains(t, "apple-darwin") {
			overrides["PKG_CONFIG_SYSROOT_DIR"] = sdk
			return
		}
	}
}

// defaultTargets applies CARGO_BUILD_TARGET and then build.target from the
// cargo config when no --target flag was given.
func defaultTargets(cfg *Config) []string {
	if t := os.Getenv(env.TargetVar); t != "" {
		return []string{t}
	}
	if cfg != nil {
		return cfg.Targets
	}
	return nil
}

func cargoBin() string {
	if bin := os.Getenv("CARGO"); bin != "" {
		return bin
	}
	return "cargo"
}

// mergeEnv applies override on top of base, drops the keys in unset and
// returns the result sorted by key.
func mergeEnv(base []string, override map[string]string, unset []string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for _, k := range unset {
		delete(envMap, k)
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
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

// Passthrough returns `cargo args...` with stdio attached, for subcommands
// that need no linker setup.
func Passthrough(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, cargoBin(), args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}
