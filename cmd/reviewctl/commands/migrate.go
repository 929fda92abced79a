package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"reviewhub/internal/database"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Manage the database schema.

Subcommands:
  up      - Apply pending SQL migrations
  auto    - Apply the GORM auto-migration (development and sqlite)
  down    - Roll back one migration by version
  status  - Show applied and pending migrations`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		// The embedded migrations are PostgreSQL DDL.
		if rt.cfg.DBDriver == "sqlite" {
			if err := database.ApplySchema(commandContext(cmd), rt.db, rt.cfg); err != nil {
				return fmt.Errorf("sqlite schema apply failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sqlite schema auto-migrated")
			return nil
		}
		if err := database.RunMigrations(commandContext(cmd), rt.db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "sql migrations applied")
		return nil
	},
}

var migrateAutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Apply GORM auto-migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		rt.cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(commandContext(cmd), rt.db, rt.cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "automigrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:     "down <version>",
	Short:   "Roll back a migration",
	Example: `  reviewctl migrate down 2`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}

		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := database.RollbackMigration(commandContext(cmd), rt.db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		status, err := database.GetSchemaStatus(commandContext(cmd), rt.db, rt.cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), status)
		}
		return printSchemaStatus(cmd.OutOrStdout(), status)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateAutoCmd, migrateDownCmd, migrateStatusCmd)
}

func printSchemaStatus(out io.Writer, status *database.SchemaStatus) error {
	fmt.Fprintf(out, "mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
		status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
		len(status.Applied), len(status.PendingMigrations))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if len(status.Applied) > 0 || len(status.PendingMigrations) > 0 {
		fmt.Fprintln(w, "\nVERSION\tNAME\tAPPLIED")
		for _, l := range status.Applied {
			fmt.Fprintf(w, "%06d\t%s\t%s\n", l.Version, l.Name, l.AppliedAt.UTC().Format(time.RFC3339))
		}
		for _, m := range status.PendingMigrations {
			fmt.Fprintf(w, "%06d\t%s\tpending\n", m.Version, m.Name)
		}
	}

	fmt.Fprintln(w, "\nTABLE\tROWS")
	for _, t := range status.Tables {
		rows := strconv.FormatInt(t.Rows, 10)
		if !t.Exists {
			rows = "missing"
		}
		fmt.Fprintf(w, "%s\t%s\n", t.Name, rows)
	}
	return w.Flush()
}
