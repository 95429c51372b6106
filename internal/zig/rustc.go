package zig

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// RustcInfo is the part of `rustc -vV` zigbuild cares about.
type RustcInfo struct {
	// Release is e.g. "1.75.0" or "1.77.0-nightly".
	Release string
	// Host is the triple rustc runs on.
	Host string
}

// Nightly reports a nightly toolchain.
func (r *RustcInfo) Nightly() bool {
	return strings.HasSuffix(r.Release, "-nightly")
}

// Rustc runs `rustc -vV`. The RUSTC environment variable selects the
// compiler like cargo does.
func Rustc(ctx context.Context) (*RustcInfo, error) {
	rustc := os.Getenv("RUSTC")
	if rustc == "" {
		rustc = "rustc"
	}
	out, err := exec.CommandContext(ctx, rustc, "-vV").Output()
	if err != nil {
		return nil, err
	}
	return parseRustc(out)
}

// RustcRelease returns the release reported by `rustc -vV`, e.g. "1.75.0".
func RustcRelease(ctx context.Context) (string, error) {
	info, err := Rustc(ctx)
	if err != nil {
		return "", err
	}
	return info.Release, nil
}

func parseRustc(out []byte) (*RustcInfo, error) {
	info := &RustcInfo{}
	s := bufio.NewScanner(bytes.NewReader(out))
	for s.Scan() {
		key, value, ok := strings.Cut(s.Text(), ": ")
		if !ok {
			continue
		}
		switch key {
		case "release":
			info.Release = strings.TrimSpace(value)
		case "host":
			info.Host = strings.TrimSpace(value)
		}
	}
	if info.Release == "" {
		return nil, errors.New("rustc -vV: no release line")
	}
	return info, nil
}
