package internal

import (
	"fmt"

	"github.com/goplus/zigbuild/internal/env"
	"github.com/goplus/zigbuild/internal/zig"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cargo-zigbuild and zig versions",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", env.Name, env.Version)
	z, err := zig.Find(cmd.Context())
	if err != nil {
		warnf(cmd.ErrOrStderr(), "%v", err)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "zig %s (%s)\n", z.Version, z)
	return nil
}
