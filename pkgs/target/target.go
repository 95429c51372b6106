package target

import (
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Universal2 is the pseudo-target for a fat macOS binary built from
// aarch64-apple-darwin and x86_64-apple-darwin.
const Universal2 = "universal2-apple-darwin"

var universal2Triples = []string{"aarch64-apple-darwin", "x86_64-apple-darwin"}

// Specifier is a parsed --target value of the form <triple>[.<version>].
//
// Version is the minimum libc version requested for the target, for example
// glibc 2.17 for "aarch64-unknown-linux-gnu.2.17". It is nil when absent.
type Specifier struct {
	Triple  string
	Version []int
}

// Parse splits s into a triple and an optional trailing version.
//
// The longest suffix made only of ".<digits>" groups becomes the version.
// Parse never fails: when no such suffix exists the whole input is the triple.
// Universal2 takes no version; anything following it stays part of the
// triple.
func Parse(s string) Specifier {
	if strings.HasPrefix(s, Universal2) || !strings.Contains(s, ".") {
		return Specifier{Triple: s}
	}
	cut := versionStart(s)
	if cut <= 0 {
		return Specifier{Triple: s}
	}
	ver, ok := parseVersion(s[cut+1:])
	if !ok {
		return Specifier{Triple: s}
	}
	return Specifier{Triple: s[:cut], Version: ver}
}

// versionStart returns the index of the dot that opens the version suffix,
// or -1 if s does not end in a numeric group.
func versionStart(s string) int {
	start := -1
	end := len(s)
	for end > 0 {
		i := end
		for i > 0 && isDigit(s[i-1]) {
			i--
		}
		if i == end || i == 0 || s[i-1] != '.' {
			break
		}
		start = i - 1
		end = i - 1
	}
	return start
}

func parseVersion(s string) ([]int, bool) {
	parts := strings.Split(s, ".")
	ver := make([]int, 0, len(parts))
	for _, p := range parts {
		u, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, false
		}
		n, err := safecast.Conv[int](u)
		if err != nil {
			return nil, false
		}
		ver = append(ver, n)
	}
	return ver, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// HasVersion reports whether a version suffix was given.
func (s Specifier) HasVersion() bool {
	return len(s.Version) > 0
}

// VersionString returns the version suffix without its leading dot, e.g. "2.17".
func (s Specifier) VersionString() string {
	if len(s.Version) == 0 {
		return ""
	}
	parts := make([]string, len(s.Version))
	for i, v := range s.Version {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ".")
}

// String returns the specifier in its command line form.
func (s Specifier) String() string {
	if !s.HasVersion() {
		return s.Triple
	}
	return s.Triple + "." + s.VersionString()
}

// IsUniversal2 reports whether s names the universal2 pseudo-target.
func (s Specifier) IsUniversal2() bool {
	return s.Triple == Universal2
}

// Triples returns the real triples cargo builds for s.
func (s Specifier) Triples() []string {
	if s.IsUniversal2() {
		return append([]string(nil), universal2Triples...)
	}
	return []string{s.Triple}
}

// Equal reports whether s and o have the same triple and version.
func (s Specifier) Equal(o Specifier) bool {
	if s.Triple != o.Triple || len(s.Version) != len(o.Version) {
		return false
	}
	for i := range s.Version {
		if s.Version[i] != o.Version[i] {
			return false
		}
	}
	return true
}
