package internal

import "github.com/spf13/cobra"

var buildCmd = newCargoCommand(&cargoCommand{sub: "build"}, &cobra.Command{
	Use:     "zigbuild [options] [-- args]",
	Aliases: []string{"build", "b"},
	Short:   "Compile a local package and all of its dependencies using zig as the linker",
})

func init() {
	rootCmd.AddCommand(buildCmd)
}
