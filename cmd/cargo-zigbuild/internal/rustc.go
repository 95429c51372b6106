package internal

import "github.com/spf13/cobra"

var (
	rustcPrint      string
	rustcCrateTypes []string
)

var rustcCmd = newCargoCommand(&cargoCommand{sub: "rustc", extra: rustcExtra}, &cobra.Command{
	Use:   "rustc [options] [-- rustc args]",
	Short: "Compile a package, and pass extra options to the compiler",
})

func init() {
	rustcCmd.Flags().StringVar(&rustcPrint, "print", "", "Output compiler information without compiling")
	rustcCmd.Flags().StringArrayVar(&rustcCrateTypes, "crate-type", nil, "Comma separated list of types of crates for the compiler to emit")
	rootCmd.AddCommand(rustcCmd)
}

func rustcExtra() []string {
	var args []string
	if rustcPrint != "" {
		args = append(args, "--print", rustcPrint)
	}
	for _, t := range rustcCrateTypes {
		args = append(args, "--crate-type", t)
	}
	return args
}
