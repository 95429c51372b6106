package internal

import "github.com/spf13/cobra"

var (
	testNoRun      bool
	testNoFailFast bool
	testDoc        bool
)

var testCmd = newCargoCommand(&cargoCommand{sub: "test", extra: testExtra}, &cobra.Command{
	Use:     "test [options] [TESTNAME] [-- test args]",
	Aliases: []string{"t"},
	Short:   "Execute all unit and integration tests and build examples of a local package",
})

func init() {
	testCmd.Flags().BoolVar(&testNoRun, "no-run", false, "Compile, but don't run tests")
	testCmd.Flags().BoolVar(&testNoFailFast, "no-fail-fast", false, "Run all tests regardless of failure")
	testCmd.Flags().BoolVar(&testDoc, "doc", false, "Test only this library's documentation")
	rootCmd.AddCommand(testCmd)
}

func testExtra() []string {
	var args []string
	if testNoRun {
		args = append(args, "--no-run")
	}
	if testNoFailFast {
		args = append(args, "--no-fail-fast")
	}
	if testDoc {
		args = append(args, "--doc")
	}
	return args
}
