package cargo

import (
	"strconv"
	"strings"

	"github.com/goplus/zigbuild/pkgs/target"
	"github.com/spf13/pflag"
)

// Options are the cargo flags shared by build, run, rustc and test. They are
// forwarded to cargo unchanged except for --target, whose libc version
// suffix is consumed by zigbuild.
type Options struct {
	Quiet             bool
	Packages          []string
	Workspace         bool
	Exclude           []string
	All               bool
	Jobs              int
	Lib               bool
	Bin               []string
	Bins              bool
	Example           []string
	Examples          bool
	Test              []string
	Tests             bool
	Bench             []string
	Benches           bool
	AllTargets        bool
	Release           bool
	Profile           string
	Features          []string
	AllFeatures       bool
	NoDefaultFeatures bool
	Targets           []string
	TargetDir         string
	ManifestPath      string
	IgnoreRustVersion bool
	MessageFormat     []string
	Verbose           int
	Color             string
	Frozen            bool
	Locked            bool
	Offline           bool
	Config            []string
	Unstable          []string

	// Positional are positional arguments (e.g. a test name filter) and Trailing
	// the arguments after "--".
	Positional []string
	Trailing   []string
}

// Register binds the options to fs.
func (o *Options) Register(fs *pflag.FlagSet) {
	fs.BoolVarP(&o.Quiet, "quiet", "q", false, "Do not print cargo log messages")
	fs.StringArrayVarP(&o.Packages, "package", "p", nil, "Package to build (see `cargo help pkgid`)")
	fs.BoolVar(&o.Workspace, "workspace", false, "Build all packages in the workspace")
	fs.StringArrayVar(&o.Exclude, "exclude", nil, "Exclude packages from the build")
	fs.BoolVar(&o.All, "all", false, "Alias for workspace (deprecated)")
	fs.IntVarP(&o.Jobs, "jobs", "j", 0, "Number of parallel jobs, defaults to # of CPUs")
	fs.BoolVar(&o.Lib, "lib", false, "Build only this package's library")
	fs.StringArrayVar(&o.Bin, "bin", nil, "Build only the specified binary")
	fs.BoolVar(&o.Bins, "bins", false, "Build all binaries")
	fs.StringArrayVar(&o.Example, "example", nil, "Build only the specified example")
	fs.BoolVar(&o.Examples, "examples", false, "Build all examples")
	fs.StringArrayVar(&o.Test, "test", nil, "Build only the specified test target")
	fs.BoolVar(&o.Tests, "tests", false, "Build all tests")
	fs.StringArrayVar(&o.Bench, "bench", nil, "Build only the specified bench target")
	fs.BoolVar(&o.Benches, "benches", false, "Build all benches")
	fs.BoolVar(&o.AllTargets, "all-targets", false, "Build all targets")
	fs.BoolVarP(&o.Release, "release", "r", false, "Build artifacts in release mode, with optimizations")
	fs.StringVar(&o.Profile, "profile", "", "Build artifacts with the specified Cargo profile")
	fs.StringArrayVarP(&o.Features, "features", "F", nil, "Space or comma separated list of features to activate")
	fs.BoolVar(&o.AllFeatures, "all-features", false, "Activate all available features")
	fs.BoolVar(&o.NoDefaultFeatures, "no-default-features", false, "Do not activate the `default` feature")
	fs.StringArrayVar(&o.Targets, "target", nil, "Build for the target triple, optionally with a glibc version suffix (e.g. aarch64-unknown-linux-gnu.2.17)")
	fs.StringVar(&o.TargetDir, "target-dir", "", "Directory for all generated artifacts")
	fs.StringVar(&o.ManifestPath, "manifest-path", "", "Path to Cargo.toml")
	fs.BoolVar(&o.IgnoreRustVersion, "ignore-rust-version", false, "Ignore `rust-version` specification in packages")
	fs.StringArrayVar(&o.MessageFormat, "message-format", nil, "Error format")
	fs.CountVarP(&o.Verbose, "verbose", "v", "Use verbose output (-vv very verbose/build.rs output)")
	fs.StringVar(&o.Color, "color", "", "Coloring: auto, always, never")
	fs.BoolVar(&o.Frozen, "frozen", false, "Require Cargo.lock and cache are up to date")
	fs.BoolVar(&o.Locked, "locked", false, "Require Cargo.lock is up to date")
	fs.BoolVar(&o.Offline, "offline", false, "Run without accessing the network")
	fs.StringArrayVar(&o.Config, "config", nil, "Override a configuration value")
	fs.StringArrayVarP(&o.Unstable, "unstable-flag", "Z", nil, "Unstable (nightly-only) flags to Cargo, see 'cargo -Z help' for details")
}

// Specs returns the parsed --target values.
func (o *Options) Specs() []target.Specifier {
	specs := make([]target.Specifier, 0, len(o.Targets))
	for _, t := range o.Targets {
		specs = append(specs, target.Parse(t))
	}
	return specs
}

// Triples returns the distinct rust triples cargo builds for specs, in
// order of first appearance.
func Triples(specs []target.Specifier) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range specs {
		for _, t := range s.Triples() {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// Args builds the cargo command line for subcommand.
func (o *Options) Args(subcommand string) []string {
	args := []string{subcommand}
	flag := func(on bool, name string) {
		if on {
			args = append(args, name)
		}
	}
	each := func(name string, values []string) {
		for _, v := range values {
			args = append(args, name, v)
		}
	}
	value := func(name, v string) {
		if v != "" {
			args = append(args, name, v)
		}
	}

	flag(o.Quiet, "--quiet")
	each("--package", o.Packages)
	flag(o.Workspace, "--workspace")
	each("--exclude", o.Exclude)
	flag(o.All, "--all")
	if o.Jobs > 0 {
		args = append(args, "--jobs", strconv.Itoa(o.Jobs))
	}
	flag(o.Lib, "--lib")
	each("--bin", o.Bin)
	flag(o.Bins, "--bins")
	each("--example", o.Example)
	flag(o.Examples, "--examples")
	each("--test", o.Test)
	flag(o.Tests, "--tests")
	each("--bench", o.Bench)
	flag(o.Benches, "--benches")
	flag(o.AllTargets, "--all-targets")
	flag(o.Release, "--release")
	value("--profile", o.Profile)
	each("--features", o.Features)
	flag(o.AllFeatures, "--all-features")
	flag(o.NoDefaultFeatures, "--no-default-features")
	each("--target", Triples(o.Specs()))
	value("--target-dir", o.TargetDir)
	value("--manifest-path", o.ManifestPath)
	flag(o.IgnoreRustVersion, "--ignore-rust-version")
	each("--message-format", o.MessageFormat)
	if o.Verbose > 0 {
		args = append(args, "-"+strings.Repeat("v", o.Verbose))
	}
	value("--color", o.Color)
	flag(o.Frozen, "--frozen")
	flag(o.Locked, "--locked")
	flag(o.Offline, "--offline")
	each("--config", o.Config)
	each("-Z", o.Unstable)

	args = append(args, o.Positional...)
	if len(o.Trailing) > 0 {
		args = append(args, "--")
		args = append(args, o.Trailing...)
	}
	return args
}

// ProfileDir returns the output directory name cargo uses for the selected
// profile.
func (o *Options) ProfileDir() string {
	switch o.Profile {
	case "dev", "test":
		return "debug"
	case "release", "bench":
		return "release"
	case "":
		if o.Release {
			return "release"
		}
		return "debug"
	}
	return o.Profile
}
