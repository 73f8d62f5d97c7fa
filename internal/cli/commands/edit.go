package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expenzeus/expenzeus/internal/cli/client"
	"github.com/expenzeus/expenzeus/internal/cli/routeguard"
)

// NewEditCmd creates the edit command
func NewEditCmd() *cobra.Command {
	var description, amount, date string

	cmd := &cobra.Command{
		Use:   "edit <expense-id>",
		Short: "Update an existing expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return runEdit(cmd.Context(), d, args[0], description, amount, date)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&amount, "amount", "", "New amount (decimal comma accepted)")
	cmd.Flags().StringVar(&date, "date", "", "New date in YYYY-MM-DD format")

	return cmd
}

func runEdit(ctx context.Context, d *deps, id, description, amount, date string) error {
	if description == "" && amount == "" && date == "" {
		return fmt.Errorf("nothing to change (set --description, --amount or --date)")
	}

	if err := d.enterRoute(ctx, routeguard.RouteExpenseModal); err != nil {
		return err
	}

	// The update endpoint replaces all writable fields, so merge the flags
	// over the current record.
	current, err := findExpense(ctx, d, id)
	if err != nil {
		return err
	}

	input := client.ExpenseInput{
		Description: current.Description,
		Amount:      current.Amount,
		Date:        current.Date,
	}
	if description != "" {
		input.Description = description
	}
	if amount != "" {
		value, err := parseAmount(amount)
		if err != nil {
			return err
		}
		input.Amount = value
	}
	if date != "" {
		input.Date = date
	}

	expense, err := d.api.UpdateExpense(ctx, id, input)
	if err != nil {
		return fmt.Errorf("%s", client.ErrorMessage(err, "Failed to save."))
	}

	fmt.Fprintln(d.out, "✓ Expense updated!")
	fmt.Fprintf(d.out, "  %s  %s  %.2f  (%s)\n", expense.Date, expense.Description, expense.Amount, expense.ID)

	return nil
}

// findExpense locates one of the user's expenses by ID
func findExpense(ctx context.Context, d *deps, id string) (*client.Expense, error) {
	expenses, err := d.api.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	for i := range expenses {
		if expenses[i].ID == id {
			return &expenses[i], nil
		}
	}
	return nil, fmt.Errorf("expense '%s' not found", id)
}
