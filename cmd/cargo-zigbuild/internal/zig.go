package internal

import (
	"fmt"

	"github.com/goplus/zigbuild/internal/zig"
	"github.com/spf13/cobra"
)

var zigCmd = &cobra.Command{
	Use:   "zig <cc|c++> -- [args]",
	Short: "Run zig as C or C++ compiler, as called by the generated linker wrappers",
	Long: `Zig runs "zig cc" or "zig c++" after rewriting the linker arguments
rustc passes into ones zig understands.`,
	DisableFlagParsing: true,
	RunE:               runZig,
}

func init() {
	rootCmd.AddCommand(zigCmd)
}

func runZig(cmd *cobra.Command, args []string) error {
	sub, rest, err := splitZigArgs(args)
	if err != nil {
		return err
	}
	z, err := zig.Find(cmd.Context())
	if err != nil {
		return err
	}
	c := &zig.Compiler{
		Zig:    z,
		Cmd:    sub,
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
	return c.Run(cmd.Context(), rest)
}

func splitZigArgs(args []string) (sub string, rest []string, err error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("missing zig command, expected cc or c++")
	}
	sub, rest = args[0], args[1:]
	if sub != "cc" && sub != "c++" {
		return "", nil, fmt.Errorf("unsupported zig command %q, expected cc or c++", sub)
	}
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}
	return sub, rest, nil
}
