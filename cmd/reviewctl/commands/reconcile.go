package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"reviewhub/internal/repository"

	"github.com/spf13/cobra"
)

var reconcileDryRun bool

// reconcileCmd recomputes denormalized counters
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute helpful vote and category review counters",
	Long: `Compare every review's helpful vote count and every category's review
count against the rows they summarize and correct any drift.

Use --dry-run to report mismatches without writing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		report, err := repository.NewCounterReconciler(rt.db, rt.policy).
			Reconcile(commandContext(cmd), reconcileDryRun)
		if err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		return printReconcileReport(cmd.OutOrStdout(), report)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Report mismatches without fixing them")
}

func printReconcileReport(out io.Writer, report *repository.ReconcileReport) error {
	verb := "fixed"
	if report.DryRun {
		verb = "found"
	}
	fmt.Fprintf(out, "checked %d reviews and %d categories, %s %d mismatches\n",
		report.ReviewsChecked, report.CategoriesChecked, verb, len(report.Corrections))
	if len(report.Corrections) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COUNTER\tID\tSTORED\tACTUAL")
	for _, c := range report.Corrections {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", c.Counter, c.ID, c.Stored, c.Actual)
	}
	return w.Flush()
}
