package internal

import "github.com/spf13/cobra"

var runCmd = newCargoCommand(&cargoCommand{sub: "run"}, &cobra.Command{
	Use:     "run [options] [-- args]",
	Aliases: []string{"r"},
	Short:   "Run a binary or example of the local package using zig as the linker",
})

func init() {
	rootCmd.AddCommand(runCmd)
}
