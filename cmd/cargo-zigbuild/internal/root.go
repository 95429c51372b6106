package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"

	"github.com/fatih/color"
	"github.com/goplus/zigbuild/internal/env"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "cargo-zigbuild",
	Short: "Compile Cargo project with zig as linker",
	Long: `cargo-zigbuild runs cargo with zig as the C compiler and linker.

Targets accept an optional glibc version suffix, e.g.
	cargo zigbuild --target aarch64-unknown-linux-gnu.2.17`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var (
	errorLabel = color.New(color.FgRed, color.Bold)
	warnLabel  = color.New(color.FgYellow, color.Bold)
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))
	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		// the child has reported its own failure
		log.Debug(err)
		os.Exit(exitErr.ExitCode())
	}
	printError(os.Stderr, err)
	os.Exit(1)
}

// cargo runs `cargo-zigbuild zigbuild <args>` for `cargo zigbuild <args>`,
// so a leading zigbuild in front of another subcommand is dropped.
func normalizeArgs(args []string) []string {
	if len(args) < 2 || args[0] != "zigbuild" {
		return args
	}
	for _, c := range rootCmd.Commands() {
		if c.Name() == "zigbuild" {
			continue
		}
		if c.Name() == args[1] || slices.Contains(c.Aliases, args[1]) {
			return args[1:]
		}
	}
	return args
}

func setup(cmd *cobra.Command, _ []string) error {
	mode := os.Getenv("CARGO_TERM_COLOR")
	if f := cmd.Flags().Lookup("color"); f != nil && f.Changed {
		mode = f.Value.String()
	}
	if err := setColor(mode, os.Stderr); err != nil {
		return err
	}

	level := log.Linfo
	if env.Debug() {
		level = log.Ldebug
	}
	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Value.String() != "0" {
		level = log.Ldebug
	}
	log.SetOutputLevel(level)
	return nil
}

// setColor applies a cargo style --color value to our own diagnostics.
func setColor(mode string, f *os.File) error {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "", "auto":
		color.NoColor = os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(f.Fd()))
	default:
		return fmt.Errorf("argument for --color must be auto, always, or never, but found `%s`", mode)
	}
	return nil
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", errorLabel.Sprint("error:"), err)
}

func warnf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warnLabel.Sprint("warning:"), fmt.Sprintf(format, args...))
}
