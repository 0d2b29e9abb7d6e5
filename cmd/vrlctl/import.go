package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
)

var (
	importLeague string
	importFile   string
	importDryRun bool
)

// importCmd imports a roster CSV into a league.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a roster CSV into a league",
	Long: `Read a roster CSV, normalize it, and import it into the league named by
--league. Rows matching existing drivers are skipped, and row-level problems
are reported per row without aborting the rest of the file.

With --dry-run nothing is written; the command reports what an import would
do.`,
	Example: `
  # Import a roster
  vrlctl import --league midnight-gp --file roster.csv

  # Preview without writing
  vrlctl import --league midnight-gp --file roster.csv --dry-run
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, cleanup, err := openService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		data, err := os.ReadFile(importFile)
		if err != nil {
			return err
		}

		league, err := svc.LeagueBySlug(ctx, importLeague)
		if err != nil {
			return fmt.Errorf("league %q: %w", importLeague, err)
		}

		if importDryRun {
			preview, err := svc.PreviewRoster(ctx, league.ID, string(data))
			if err != nil {
				return errors.New(core.FormatUserError(err))
			}
			fmt.Printf("Dry run: %d row(s), %d new, %d skipped.\n",
				preview.TotalRows, preview.NewRows, preview.SkippedRows)
			for _, rowErr := range preview.Errors {
				fmt.Printf("Row %d: %s\n", rowErr.Row, rowErr.Message)
			}
			return nil
		}

		summary, err := svc.ImportRoster(ctx, league.ID, string(data))
		if err != nil {
			return errors.New(core.FormatUserError(err))
		}
		for _, line := range core.FormatSummary(&summary) {
			fmt.Println(line)
		}
		if len(summary.Errors) > 0 {
			return fmt.Errorf("%d row(s) failed", len(summary.Errors))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importLeague, "league", "", "League slug to import into (required)")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Roster CSV file to read (required)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and report without writing")
	_ = importCmd.MarkFlagRequired("league")
	_ = importCmd.MarkFlagRequired("file")
}
