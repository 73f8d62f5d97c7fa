package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/expenzeus/expenzeus/internal/cli/routeguard"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your expenses",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return runList(cmd.Context(), d)
		},
	}

	return cmd
}

func runList(ctx context.Context, d *deps) error {
	if err := d.enterRoute(ctx, routeguard.RouteDashboard); err != nil {
		return err
	}

	expenses, err := d.api.ListExpenses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list expenses: %w", err)
	}

	if len(expenses) == 0 {
		fmt.Fprintln(d.out, "No expenses found.")
		fmt.Fprintln(d.out, "\nAdd one with: expenzeus add --description <text> --amount <value>")
		return nil
	}

	user := d.sess.CurrentUser()
	fmt.Fprintf(d.out, "Expenses for %s:\n\n", user.Name)

	w := tabwriter.NewWriter(d.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDESCRIPTION\tAMOUNT\tID")
	fmt.Fprintln(w, "────\t───────────\t──────\t──")

	var total float64
	for _, expense := range expenses {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n",
			expense.Date,
			expense.Description,
			expense.Amount,
			expense.ID,
		)
		total += expense.Amount
	}

	fmt.Fprintln(w, "\t\t\t")
	fmt.Fprintf(w, "TOTAL\t\t%.2f\t\n", total)
	w.Flush()

	return nil
}
