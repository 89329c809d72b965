package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anupcshan/bin2hex/convert"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// newRootCmd builds the command tree. Without subcommands cobra adds no help
// command either, so every positional argument is a path.
func newRootCmd(subcommands bool) *cobra.Command {
	g := &globalFlags{}
	f := &convertFlags{}
	var manifestPath string

	rootCmd := &cobra.Command{
		Use:   "bin2hex [flags] <input.bin> <output.hex>",
		Short: "Convert a raw binary file to Intel HEX",
		Long: `bin2hex converts a raw binary image into Intel HEX text: data records of up
to --record-size bytes each (32 by default), followed by the end-of-file record :00000001FF.

The output file is only replaced once every record has been rendered.

Example:
  bin2hex firmware.bin firmware.hex
  bin2hex --start 0x0800 --upper boot.bin boot.hex`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return convert.Usagef("expected an input and an output path, got %d argument(s)", len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger(cmd.ErrOrStderr())
			opts, err := f.options(logger)
			if err != nil {
				return err
			}

			job := convert.Job{
				Input:    args[0],
				Output:   args[1],
				Manifest: manifestPath,
			}
			return g.withMetrics(func(m *convert.Metrics) error {
				opts.Metrics = m
				_, err := convert.Run(cmd.Context(), job, opts)
				return err
			})
		},
	}

	g.register(rootCmd.PersistentFlags())
	f.register(rootCmd.Flags())
	rootCmd.Flags().StringVar(&manifestPath, "manifest", "", "Write a records manifest to this path")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return convert.Usagef("%s", err)
	})

	if subcommands {
		rootCmd.AddCommand(newBatchCmd(g))
	}
	return rootCmd
}

// isConversion reports whether args parse as root flags plus exactly an input
// and an output path. Such a command line always converts, even when a path
// is named like a subcommand.
func isConversion(args []string) bool {
	c := newRootCmd(false)
	fs := c.Flags()
	fs.AddFlagSet(c.PersistentFlags())
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return false
	}
	return fs.NArg() == 2
}

// Execute runs the command line and exits the process with its status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes args and returns the process exit status. Usage errors print
// the usage text to stdout; everything else goes to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(!isConversion(args))
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	c, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return exitOK
	}

	if convert.IsUsage(err) {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		fmt.Fprint(stdout, c.UsageString())
		return exitUsage
	}

	fmt.Fprintf(stderr, "bin2hex: %v\n", err)
	return exitError
}
