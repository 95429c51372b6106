// Package zig locates a usable zig toolchain and drives `zig cc`.
package zig

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/goplus/zigbuild/internal/env"
	"github.com/qiniu/x/log"
	"golang.org/x/mod/semver"
)

// MinVersion is the oldest zig release able to act as a linker for rustc.
const MinVersion = "0.9.0"

// Zig is a resolved zig command. Path and Args form the command prefix, so
// the python distribution runs as `python3 -m ziglang <subcommand>`.
type Zig struct {
	Path    string
	Args    []string
	Version string
}

// finder holds Find's search configuration.
type finder struct {
	candidates [][]string
}

// Option configures Find.
type Option func(*finder)

// WithCommand makes Find probe only the given command line.
func WithCommand(argv ...string) Option {
	return func(f *finder) {
		f.candidates = [][]string{argv}
	}
}

// DefaultCandidates are probed in order when no override is configured.
var DefaultCandidates = [][]string{
	{"python3", "-m", "ziglang"},
	{"zig"},
}

// Find returns the first zig that reports a supported version. The command in
// CARGO_ZIGBUILD_ZIG_PATH, when set, replaces the default search.
func Find(ctx context.Context, opts ...Option) (*Zig, error) {
	f := &finder{candidates: DefaultCandidates}
	if argv := env.ZigCommand(); argv != nil {
		f.candidates = [][]string{argv}
	}
	for _, opt := range opts {
		opt(f)
	}

	var errs []error
	for _, argv := range f.candidates {
		z, err := probe(ctx, argv)
		if err == nil {
			log.Debugf("zig: using %s (version %s)", strings.Join(argv, " "), z.Version)
			return z, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", strings.Join(argv, " "), err))
	}
	return nil, fmt.Errorf("failed to find zig: %w", errors.Join(errs...))
}

func probe(ctx context.Context, argv []string) (*Zig, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	z := &Zig{Path: argv[0], Args: append([]string(nil), argv[1:]...)}
	out, err := z.output(ctx, "version")
	if err != nil {
		return nil, err
	}
	version := strings.TrimSpace(string(out))
	if err := ValidateVersion(version); err != nil {
		return nil, err
	}
	z.Version = version
	return z, nil
}

// ValidateVersion checks that version is a semantic version no older than
// MinVersion.
func ValidateVersion(version string) error {
	v := "v" + version
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid zig version %q", version)
	}
	if semver.Compare(v, "v"+MinVersion) < 0 {
		return fmt.Errorf("zig version %s is too old, need at least %s", version, MinVersion)
	}
	return nil
}

// AtLeast reports whether z is version v or newer.
func (z *Zig) AtLeast(v string) bool {
	return semver.Compare("v"+z.Version, "v"+v) >= 0
}

// Command returns an exec.Cmd running zig with args.
func (z *Zig) Command(ctx context.Context, args ...string) *exec.Cmd {
	full := make([]string, 0, len(z.Args)+len(args))
	full = append(full, z.Args...)
	full = append(full, args...)
	return exec.CommandContext(ctx, z.Path, full...)
}

func (z *Zig) String() string {
	return strings.Join(append([]string{z.Path}, z.Args...), " ")
}

func (z *Zig) output(ctx context.Context, args ...string) ([]byte, error) {
	cmd := z.Command(ctx, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// zonLibDir matches the lib_dir field of `zig env` on releases that print ZON.
var zonLibDir = regexp.MustCompile(`\.lib_dir\s*=\s*"((?:[^"\\]|\\.)*)"`)

// LibDir returns zig's lib directory as reported by `zig env`.
func (z *Zig) LibDir(ctx context.Context) (string, error) {
	out, err := z.output(ctx, "env")
	if err != nil {
		return "", fmt.Errorf("zig env: %w", err)
	}
	return parseLibDir(out)
}

func parseLibDir(out []byte) (string, error) {
	var zigEnv struct {
		LibDir string `json:"lib_dir"`
	}
	if err := json.Unmarshal(out, &zigEnv); err == nil && zigEnv.LibDir != "" {
		return zigEnv.LibDir, nil
	}
	if m := zonLibDir.FindSubmatch(out); m != nil {
		return strings.ReplaceAll(string(m[1]), `\\`, `\`), nil
	}
	return "", errors.New("zig env: lib_dir not found in output")
}
