package target

import "strings"

// Triple holds the hyphen separated components of a rust target triple:
//
//	<arch>-<vendor>-<os>[-<env>]
//
// Two component triples such as "wasm32-wasi" have no vendor.
type Triple struct {
	Arch   string
	Vendor string
	OS     string
	Env    string
}

// ParseTriple splits s into its components. Unknown shapes are kept as-is in
// Arch so callers can still report them.
func ParseTriple(s string) Triple {
	parts := strings.Split(s, "-")
	switch len(parts) {
	case 1:
		return Triple{Arch: s}
	case 2:
		return Triple{Arch: parts[0], OS: parts[1]}
	case 3:
		return Triple{Arch: parts[0], Vendor: parts[1], OS: parts[2]}
	default:
		return Triple{
			Arch:   parts[0],
			Vendor: parts[1],
			OS:     parts[2],
			Env:    strings.Join(parts[3:], "-"),
		}
	}
}

func (t Triple) String() string {
	parts := []string{t.Arch}
	if t.Vendor != "" {
		parts = append(parts, t.Vendor)
	}
	if t.OS != "" {
		parts = append(parts, t.OS)
	}
	if t.Env != "" {
		parts = append(parts, t.Env)
	}
	return strings.Join(parts, "-")
}

func (t Triple) IsApple() bool {
	return t.Vendor == "apple" || t.OS == "darwin" || strings.HasPrefix(t.OS, "macos")
}

// IsMacOS reports darwin targets; iOS and friends are apple but not macOS.
func (t Triple) IsMacOS() bool {
	return t.OS == "darwin" || strings.HasPrefix(t.OS, "macos")
}

func (t Triple) IsWindows() bool { return t.OS == "windows" }

func (t Triple) IsLinux() bool { return t.OS == "linux" }

func (t Triple) IsMusl() bool { return strings.HasPrefix(t.Env, "musl") }

func (t Triple) IsGnu() bool { return strings.HasPrefix(t.Env, "gnu") }

// IsArm reports 32-bit arm and thumb architectures.
func (t Triple) IsArm() bool {
	return strings.HasPrefix(t.Arch, "arm") || strings.HasPrefix(t.Arch, "thumb")
}

// IsX86 reports 32-bit x86 architectures (i386, i586, i686).
func (t Triple) IsX86() bool {
	return len(t.Arch) == 4 && t.Arch[0] == 'i' && strings.HasSuffix(t.Arch, "86")
}
