package internal

import (
	"io"
	"path"
	"strings"

	"github.com/goplus/zigbuild/internal/cargo"
	"github.com/goplus/zigbuild/pkgs/target"
	"github.com/spf13/cobra"
)

// cargoCommand is a cargo subcommand run through zig.
type cargoCommand struct {
	// sub is the cargo subcommand, which may differ from the cobra name.
	sub        string
	opts       cargo.Options
	disableZig bool
	// extra returns subcommand specific flags, placed before positional args.
	extra func() []string
}

func newCargoCommand(c *cargoCommand, cmd *cobra.Command) *cobra.Command {
	cmd.Args = cobra.ArbitraryArgs
	cmd.RunE = c.run
	c.opts.Register(cmd.Flags())
	cmd.Flags().BoolVar(&c.disableZig, "disable-zig-linker", false, "Disable zig linker")
	return cmd
}

func (c *cargoCommand) run(cmd *cobra.Command, args []string) error {
	c.opts.Positional, c.opts.Trailing = args, nil
	if n := cmd.ArgsLenAtDash(); n >= 0 {
		c.opts.Positional, c.opts.Trailing = args[:n], args[n:]
	}
	if c.extra != nil {
		c.opts.Positional = append(c.extra(), c.opts.Positional...)
	}
	warnTargets(cmd.ErrOrStderr(), c.opts.Specs())

	inv := &cargo.Invocation{
		Subcommand: c.sub,
		Options:    c.opts,
		DisableZig: c.disableZig,
		Stdin:      cmd.InOrStdin(),
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	}
	return inv.Run(cmd.Context())
}

// warnTargets points out --target values whose dotted tail was not a
// version, since they reach cargo unchanged.
func warnTargets(w io.Writer, specs []target.Specifier) {
	for _, s := range specs {
		if s.HasVersion() || s.IsUniversal2() || !strings.Contains(s.Triple, ".") {
			continue
		}
		if path.Ext(s.Triple) == ".json" {
			continue
		}
		if strings.HasPrefix(s.Triple, target.Universal2+".") {
			warnf(w, "`%s`: %s takes no version suffix, using it as the target triple", s.Triple, target.Universal2)
			continue
		}
		warnf(w, "`%s` has no numeric version suffix, using it as the target triple", s.Triple)
	}
}
