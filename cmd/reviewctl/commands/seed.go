package commands

import (
	"fmt"

	"reviewhub/internal/seed"

	"github.com/spf13/cobra"
)

var (
	seedUsers      int
	seedReviews    int
	seedMaxDays    int
	seedDraftRatio float64
	seedRandom     int64
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database",
	Long: `Populate the database with reference or demo data.

Subcommands:
  categories - Insert the default categories (idempotent)
  demo       - Generate demo users, reviews and votes`,
}

var seedCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Insert the default categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		created, err := seed.Categories(commandContext(cmd), rt.db)
		if err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]int{"created": created})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d categories\n", created)
		return nil
	},
}

var seedDemoCmd = &cobra.Command{
	Use:     "demo",
	Short:   "Generate demo users, reviews and votes",
	Example: `  reviewctl seed demo --users 20 --reviews 200 --seed 42`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedUsers < 1 {
			return fmt.Errorf("--users must be at least 1")
		}
		if seedReviews < 0 {
			return fmt.Errorf("--reviews must not be negative")
		}
		if seedDraftRatio < 0 || seedDraftRatio > 1 {
			return fmt.Errorf("--draft-ratio must be between 0 and 1")
		}

		rt, err := openRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		report, err := seed.NewSeeder(rt.db, seed.Options{
			Users:      seedUsers,
			Reviews:    seedReviews,
			MaxDays:    seedMaxDays,
			DraftRatio: seedDraftRatio,
			Seed:       seedRandom,
			Policy:     rt.policy,
		}).Demo(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("seed demo: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d users, %d reviews, %d votes\n",
			report.Users, report.Reviews, report.Votes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedCategoriesCmd, seedDemoCmd)

	seedDemoCmd.Flags().IntVar(&seedUsers, "users", 10, "Number of users to create")
	seedDemoCmd.Flags().IntVar(&seedReviews, "reviews", 50, "Number of reviews to create")
	seedDemoCmd.Flags().IntVar(&seedMaxDays, "max-days", 90, "Spread creation times over this many past days")
	seedDemoCmd.Flags().Float64Var(&seedDraftRatio, "draft-ratio", 0.1, "Share of reviews saved as drafts")
	seedDemoCmd.Flags().Int64Var(&seedRandom, "seed", 0, "Random seed for reproducible runs (0 picks one)")
}
