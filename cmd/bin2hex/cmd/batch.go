package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/anupcshan/bin2hex/convert"
)

func newBatchCmd(g *globalFlags) *cobra.Command {
	f := &convertFlags{}
	var (
		jobs      int
		manifests bool
	)

	batchCmd := &cobra.Command{
		Use:   "batch [flags] <input> <output> [<input> <output> ...]",
		Short: "Convert several binary files in parallel",
		Long: `Convert several binary files, each into its own Intel HEX file.

Arguments are taken as input/output pairs. Every pair is converted exactly as
the root command would; the first failure stops conversions not yet started.

Example:
  bin2hex batch --jobs 4 boot.bin boot.hex app.bin app.hex`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return convert.Usagef("expected input/output path pairs, got %d argument(s)", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger(cmd.ErrOrStderr())
			opts, err := f.options(logger)
			if err != nil {
				return err
			}

			var batch []convert.Job
			for i := 0; i < len(args); i += 2 {
				job := convert.Job{Input: args[i], Output: args[i+1]}
				if manifests {
					job.Manifest = fmt.Sprintf("%s.records.%s", job.Output, opts.ManifestFormat)
				}
				batch = append(batch, job)
			}

			return g.withMetrics(func(m *convert.Metrics) error {
				opts.Metrics = m
				results, err := convert.RunBatch(cmd.Context(), batch, opts, jobs)
				if err != nil {
					return err
				}

				var records int
				for _, res := range results {
					records += res.DataRecords
				}
				logger.Info("batch finished", "jobs", len(batch), "records", records)
				return nil
			})
		},
	}

	f.register(batchCmd.Flags())
	batchCmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Conversions to run at once")
	batchCmd.Flags().BoolVar(&manifests, "manifests", false, "Write <output>.records.<format> next to every output")
	return batchCmd
}
