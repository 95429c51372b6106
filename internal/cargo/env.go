package cargo

import (
	"strings"

	"github.com/goplus/zigbuild/internal/linker"
	"github.com/goplus/zigbuild/pkgs/target"
)

// Env returns the environment that points cargo and the cc, cmake and
// bindgen crates at the zig wrappers. libDir is zig's lib directory and may
// be empty when it could not be determined.
func Env(ws []*linker.Wrappers, libDir string) map[string]string {
	env := make(map[string]string)
	for _, w := range ws {
		lower := strings.ReplaceAll(w.Triple, "-", "_")
		upper := strings.ToUpper(lower)

		env["CC_"+lower] = w.CC
		env["CXX_"+lower] = w.CXX
		env["CARGO_TARGET_"+upper+"_LINKER"] = w.CC
		env["CMAKE_TOOLCHAIN_FILE_"+lower] = w.CMakeToolchain
		env["BINDGEN_EXTRA_CLANG_ARGS_"+lower] = linker.ShellJoin(linker.BindgenArgs(w, libDir))

		if t := target.ParseTriple(w.Triple); t.IsWindows() && t.IsGnu() {
			// winapi ships import libraries zig's lld cannot read
			env["WINAPI_NO_BUNDLED_LIBRARIES"] = "1"
		}
	}
	return env
}
