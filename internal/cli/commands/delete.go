package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/expenzeus/expenzeus/internal/cli/client"
	"github.com/expenzeus/expenzeus/internal/cli/routeguard"
)

// NewDeleteCmd creates the delete command
func NewDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm [expense-id]",
		Aliases: []string{"delete"},
		Short:   "Delete an expense",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			return runDelete(cmd.Context(), d, id, yes)
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

func runDelete(ctx context.Context, d *deps, id string, yes bool) error {
	if err := d.enterRoute(ctx, routeguard.RouteExpenseModal); err != nil {
		return err
	}

	var expense *client.Expense
	var err error
	if id == "" {
		expense, err = promptExpenseSelection(ctx, d)
	} else {
		expense, err = findExpense(ctx, d, id)
	}
	if err != nil {
		return err
	}

	if !yes {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Delete '%s' (%.2f)", expense.Description, expense.Amount),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) {
				fmt.Fprintln(d.out, "Cancelled.")
				return nil
			}
			return fmt.Errorf("confirmation cancelled: %w", err)
		}
	}

	if err := d.api.DeleteExpense(ctx, expense.ID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	fmt.Fprintf(d.out, "✓ Deleted '%s'.\n", expense.Description)
	return nil
}

// promptExpenseSelection shows an interactive prompt to pick an expense
func promptExpenseSelection(ctx context.Context, d *deps) (*client.Expense, error) {
	expenses, err := d.api.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	if len(expenses) == 0 {
		return nil, fmt.Errorf("no expenses to delete")
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Date | cyan }} {{ .Description | cyan }} ({{ .Amount }})",
		Inactive: "  {{ .Date }} {{ .Description }} ({{ .Amount }})",
		Selected: "{{ .Description | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select an expense to delete",
		Items:     expenses,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	return &expenses[index], nil
}
