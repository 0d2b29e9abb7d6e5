package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/export"
)

var (
	exportLeague string
	exportOutput string
	exportFormat string
)

// exportCmd writes a league roster to a CSV or Excel file.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a league roster to CSV or Excel",
	Long: `Write the roster of the league named by --league to a file, one column per
enabled platform identity plus the fixed Nickname, DiscordID and DriverNumber
columns. The exported file re-imports cleanly.

The format follows --format when given, otherwise the output file extension.
Without --output the file lands in the working directory under the league
slug.`,
	Example: `
  # Export as CSV
  vrlctl export --league midnight-gp --output roster.csv

  # Format inferred from the extension
  vrlctl export --league midnight-gp --output roster.xlsx

  # Default file name, explicit format
  vrlctl export --league midnight-gp --format xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format := exportFormat
		if format == "" && exportOutput != "" {
			format = strings.TrimPrefix(filepath.Ext(exportOutput), ".")
		}
		writer, err := export.ForFormat(format)
		if err != nil {
			return err
		}

		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		league, err := svc.LeagueBySlug(ctx, exportLeague)
		if err != nil {
			return fmt.Errorf("league %q: %w", exportLeague, err)
		}

		specs, err := svc.LeagueHeaderSpecs(ctx, league.ID)
		if err != nil {
			return err
		}
		drivers, err := svc.Roster(ctx, league.ID)
		if err != nil {
			return err
		}

		out := exportOutput
		if out == "" {
			out = export.Filename(league.Slug, writer)
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := writer.Write(f, specs, drivers); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		fmt.Printf("Exported %d driver(s) to %s.\n", len(drivers), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportLeague, "league", "", "League slug to export (required)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Export format: csv or xlsx")
	_ = exportCmd.MarkFlagRequired("league")
}
