package cargo

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/goplus/zigbuild/internal/env"
	"github.com/goplus/zigbuild/pkgs/target"
	"github.com/qiniu/x/log"
)

// zig ships no macOS SDK; rust's std links -liconv on apple targets, so a
// text stub is placed where the linker already searches.
//
//go:embed macos/libiconv.tbd
var libiconvTBD []byte

// ResolveTargetDir returns the directory cargo writes artifacts to: the
// --target-dir flag, then CARGO_TARGET_DIR, then build.target-dir from cfg,
// then target next to the manifest, then target in the working directory.
func (o *Options) ResolveTargetDir(cfg *Config, cwd string) string {
	switch {
	case o.TargetDir != "":
		return absJoin(cwd, o.TargetDir)
	case os.Getenv(env.TargetDirVar) != "":
		return absJoin(cwd, os.Getenv(env.TargetDirVar))
	case cfg != nil && cfg.TargetDir != "":
		return cfg.TargetDir
	case o.ManifestPath != "":
		return filepath.Join(filepath.Dir(absJoin(cwd, o.ManifestPath)), "target")
	}
	return filepath.Join(cwd, "target")
}

func absJoin(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// SetupAppleDeps writes libiconv.tbd into the deps directory of every
// apple triple in triples.
func SetupAppleDeps(targetDir, profile string, triples []string) error {
	for _, triple := range triples {
		if !target.ParseTriple(triple).IsApple() {
			continue
		}
		deps := filepath.Join(targetDir, triple, profile, "deps")
		if err := os.MkdirAll(deps, 0o755); err != nil {
			return err
		}
		path := filepath.Join(deps, "libiconv.tbd")
		if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, libiconvTBD) {
			continue
		}
		if err := os.WriteFile(path, libiconvTBD, 0o644); err != nil {
			return err
		}
		log.Debugf("cargo: wrote %s", path)
	}
	return nil
}
