package internal

import (
	"fmt"

	"github.com/goplus/zigbuild/internal/cargo"
	"github.com/spf13/cobra"
)

var metadataCmd = &cobra.Command{
	Use:                "metadata [args]",
	Short:              "Output the resolved dependencies of a package in machine-readable format",
	DisableFlagParsing: true,
	RunE:               runMetadata,
}

func init() {
	rootCmd.AddCommand(metadataCmd)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	c := cargo.Passthrough(cmd.Context(), append([]string{"metadata"}, args...)...)
	c.Stdin = cmd.InOrStdin()
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	if err := c.Run(); err != nil {
		return fmt.Errorf("failed to run `cargo metadata`: %w", err)
	}
	return nil
}
