package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/regdiff/internal/config"
	"github.com/bgricker/regdiff/internal/output"
	"github.com/bgricker/regdiff/internal/tables"
)

// errDuplicateTables marks a report with repeated FullName markers.
var errDuplicateTables = errors.New("duplicate HTML tables found")

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables <out_dir>",
		Short: "Check that every table in eplustbl.htm has a unique FullName",
		Args:  cobra.ExactArgs(1),
		RunE:  runTables,
	}
	cmd.Flags().Bool("skip-missing", false, "do not fail if eplustbl.htm is not found")
	return cmd
}

func runTables(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	skipMissing, err := cmd.Flags().GetBool("skip-missing")
	if err != nil {
		return fmt.Errorf("parse --skip-missing: %w", err)
	}

	path, err := tables.ReportPath(args[0])
	rep := output.DuplicateReport{Path: path}
	if err != nil {
		if !skipMissing || !errors.Is(err, tables.ErrMissingReport) {
			return err
		}
		rep.Skipped = true
		return renderDuplicates(cmd, cfg, rep)
	}

	rep.Duplicates, err = tables.CheckFile(path)
	if err != nil {
		return err
	}
	if err := renderDuplicates(cmd, cfg, rep); err != nil {
		return err
	}
	if len(rep.Duplicates) > 0 {
		return errDuplicateTables
	}
	return nil
}

func renderDuplicates(cmd *cobra.Command, cfg config.Config, rep output.DuplicateReport) error {
	switch cfg.Format {
	case config.FormatPretty:
		return output.NewPretty(cmd.OutOrStdout()).RenderDuplicates(rep)
	case config.FormatMarkdown:
		return output.NewMarkdown(cmd.OutOrStdout()).RenderDuplicates(rep)
	case config.FormatJSON:
		return output.NewJSON(cmd.OutOrStdout()).RenderDuplicates(rep)
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}
