package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "regdiff <baseline_dir> <modified_dir> <bundle_dir>",
		Short:         "Regdiff classifies EnergyPlus regression diffs and bundles a report",
		Args:          cobra.ExactArgs(3),
		RunE:          runRegressions,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("config", "", "config file (default ./.regdiff.yml)")
	persistent.String("format", "pretty", "output format (pretty|markdown|json)")
	persistent.String("log-level", "info", "log level (debug|info|warn|error)")
	persistent.String("log-format", "console", "log encoding (console|json)")
	persistent.BoolP("verbose", "v", false, "log at debug level")

	flags := cmd.Flags()
	flags.String("thresholds", "", "diff threshold config passed to the diff command")
	flags.String("diff-command", "", "diff command; {case} {baseline} {modified} {thresholds} are substituted")
	flags.String("case-timeout", "", "per-case diff timeout (0 disables)")
	flags.IntP("workers", "j", 0, "cases processed concurrently (default: number of CPUs)")
	flags.Int("plot-limit-mb", 0, "ceiling for embedded plot data in MiB")
	flags.StringArray("case", nil, "inspect only matching cases (substring or /regex/)")
	flags.StringArray("skip-case", nil, "skip matching cases (substring or /regex/)")
	flags.String("baseline-label", "", "label for the baseline series in plots")
	flags.String("branch-label", "", "label for the modified series in plots (default: git branch)")
	flags.String("branch-sha", "", "revision shown in plot titles (default: git short sha)")
	flags.String("timezone", "", "secondary time zone for the report header")

	cmd.AddCommand(newTablesCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
