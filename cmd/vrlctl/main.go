// vrlctl is the operator CLI for the league service. It talks straight to
// the configured store, so rosters can be imported and exported without the
// HTTP server running.
package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/config"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	_ "github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core/platforms" // Register all platforms
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/events"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vrlctl",
	Short: "Manage league rosters from the command line",
	Long: `vrlctl imports and exports league rosters against the configured store.

Configuration comes from the environment (and an optional .env file), using
the same variables the server reads. DATABASE_URL selects the store;
DB_IN_MEMORY=true gives a scratch store where nothing persists.`,
	Example: `
  # Import a roster CSV into a league
  vrlctl import --league midnight-gp --file roster.csv

  # Preview an import without writing anything
  vrlctl import --league midnight-gp --file roster.csv --dry-run

  # Export a roster as Excel
  vrlctl export --league midnight-gp --output roster.xlsx
`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

// openService loads configuration and wires a core.Service the way the
// server does, minus the HTTP layer. The returned cleanup closes the store
// and the event publisher.
func openService(ctx context.Context) (*core.Service, func(), error) {
	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	var st store.Store
	closeStore := func() {}
	if cfg.Database.InMemory {
		st = store.NewMemory()
	} else {
		poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		st = pg
		closeStore = pool.Close
	}

	var pub events.Publisher
	if cfg.Events.NATSURL != "" {
		pub, err = events.NewNATS(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
	} else {
		pub = events.NewMemory()
	}

	svc := core.NewService(st, pub, core.Options{
		MaxCSVBytes:          int(cfg.Import.MaxCSVBytes),
		MaxImportRows:        cfg.Import.MaxRows,
		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		MaxImportWait:        cfg.Import.MaxWaitTime,
		ImportTimeout:        cfg.Import.Timeout,
	})

	cleanup := func() {
		pub.Close()
		closeStore()
	}
	return svc, cleanup, nil
}
