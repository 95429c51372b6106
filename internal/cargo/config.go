package cargo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/qiniu/x/log"
)

// Config holds the parts of cargo's configuration zigbuild needs.
type Config struct {
	// Targets is build.target, which cargo accepts as a string or an array.
	Targets []string
	// TargetDir is build.target-dir, already resolved to an absolute path.
	TargetDir string
}

type configFile struct {
	Build struct {
		Target    any    `toml:"target"`
		TargetDir string `toml:"target-dir"`
	} `toml:"build"`
}

// LoadConfig reads .cargo/config.toml (or the legacy .cargo/config) from dir
// and each of its parents, then from $CARGO_HOME. A value set closer to dir
// wins, matching cargo's own precedence for these keys. When both files
// exist in one directory cargo uses the legacy one, and so do we.
func LoadConfig(dir string) (*Config, error) {
	cfg := &Config{}
	var haveTarget, haveDir bool
	legacy := make(map[string]bool)
	for _, path := range configPaths(dir) {
		cargoDir := filepath.Dir(path)
		if legacy[cargoDir] {
			if _, err := os.Stat(path); err == nil {
				log.Warnf("both %s and %s exist, using %s", filepath.Join(cargoDir, "config"), path, filepath.Join(cargoDir, "config"))
			}
			continue
		}
		file, meta, err := decodeConfig(path)
		if err != nil {
			return nil, err
		}
		if file == nil {
			continue
		}
		if filepath.Base(path) == "config" {
			legacy[cargoDir] = true
		}
		if !haveTarget && meta.IsDefined("build", "target") {
			targets, err := targetList(file.Build.Target)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			cfg.Targets, haveTarget = targets, true
		}
		if !haveDir && meta.IsDefined("build", "target-dir") {
			td := file.Build.TargetDir
			if !filepath.IsAbs(td) {
				// relative to the directory containing .cargo
				td = filepath.Join(filepath.Dir(filepath.Dir(path)), td)
			}
			cfg.TargetDir, haveDir = td, true
		}
		if haveTarget && haveDir {
			break
		}
	}
	return cfg, nil
}

func decodeConfig(path string) (*configFile, toml.MetaData, error) {
	var file configFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, meta, nil
		}
		return nil, meta, fmt.Errorf("parse %s: %w", path, err)
	}
	return &file, meta, nil
}

func configPaths(dir string) []string {
	var paths []string
	seen := make(map[string]bool)
	add := func(cargoDir string) {
		for _, name := range []string{"config", "config.toml"} {
			p := filepath.Join(cargoDir, name)
			if seen[p] {
				continue
			}
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for d := filepath.Clean(dir); ; {
		add(filepath.Join(d, ".cargo"))
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	if home := cargoHome(); home != "" {
		add(home)
	}
	return paths
}

func cargoHome() string {
	if home := os.Getenv("CARGO_HOME"); home != "" {
		return home
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cargo")
	}
	return ""
}

func targetList(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("build.target: expected string, found %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("build.target: expected string or array, found %T", v)
}
