package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/expenzeus/expenzeus/internal/cli/client"
	"github.com/expenzeus/expenzeus/internal/cli/routeguard"
)

// NewAddCmd creates the add command
func NewAddCmd() *cobra.Command {
	var description, amount, date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return runAdd(cmd.Context(), d, description, amount, date)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "What the expense was for")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount spent (decimal comma accepted, e.g. 42,50)")
	cmd.Flags().StringVar(&date, "date", "", "Date in YYYY-MM-DD format (defaults to today)")

	return cmd
}

func runAdd(ctx context.Context, d *deps, description, amount, date string) error {
	if description == "" || amount == "" {
		return fmt.Errorf("please fill in description and amount (--description, --amount)")
	}

	value, err := parseAmount(amount)
	if err != nil {
		return err
	}

	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	if err := d.enterRoute(ctx, routeguard.RouteExpenseModal); err != nil {
		return err
	}

	expense, err := d.api.CreateExpense(ctx, client.ExpenseInput{
		Description: description,
		Amount:      value,
		Date:        date,
	})
	if err != nil {
		return fmt.Errorf("%s", client.ErrorMessage(err, "Failed to save."))
	}

	fmt.Fprintln(d.out, "✓ Expense recorded!")
	fmt.Fprintf(d.out, "  %s  %s  %.2f  (%s)\n", expense.Date, expense.Description, expense.Amount, expense.ID)

	return nil
}

// parseAmount parses a user-supplied amount, accepting a decimal comma
func parseAmount(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid amount %q: please enter a positive value", raw)
	}
	return value, nil
}
