package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

const dateFlagLayout = "2006-01-02"

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn", "tx"},
		Short:   "Record, list and correct transactions",
		Long: `Record income and expenses. Transactions booked on an account move its
balance. A transaction can be edited only within the edit window after it
was created (12 hours by default); deleting is always possible.`,
		Example: `  # Lunch paid in cash, personal
  tally transactions add --type expense --amount 12.50 --category Food \
    --description "Lunch" --account <cash-id>

  # Office income for June
  tally transactions list --division office --from 2024-06-01 --to 2024-06-30`,
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(editTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		txnType  string
		division string
		category string
		account  string
		from     string
		to       string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			loc := a.reporter.Location()
			filter := service.TransactionFilter{
				Type:      model.TransactionType(txnType),
				Division:  model.Division(division),
				Category:  category,
				AccountID: account,
				Limit:     limit,
			}
			if from != "" {
				start, err := parseDateFlag("from", from, loc)
				if err != nil {
					return err
				}
				filter.StartDate = &start
			}
			if to != "" {
				end, err := parseDateFlag("to", to, loc)
				if err != nil {
					return err
				}
				end = end.AddDate(0, 0, 1).Add(-time.Millisecond)
				filter.EndDate = &end
			}

			txns, err := a.ledger.ListTransactions(cmd.Context(), filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTransactions(txns))
			return nil
		},
	}

	cmd.Flags().StringVar(&txnType, "type", "", "Only income or expense")
	cmd.Flags().StringVar(&division, "division", "", "Only office or personal")
	cmd.Flags().StringVar(&category, "category", "", "Only this category")
	cmd.Flags().StringVar(&account, "account", "", "Only this account ID")
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows (0 for all)")

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		txnType     string
		amount      string
		description string
		category    string
		division    string
		account     string
		date        string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := parseAmount("amount", amount, false)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			in := ledger.CreateTransactionInput{
				Type:        model.TransactionType(txnType),
				Amount:      value,
				Description: description,
				Category:    category,
				Division:    model.Division(division),
			}
			if account != "" {
				in.AccountID = &account
			}
			if date != "" {
				d, err := parseDateFlag("date", date, a.reporter.Location())
				if err != nil {
					return err
				}
				in.Date = &d
			}

			txn, err := a.ledger.CreateTransaction(cmd.Context(), in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Recorded %s %s (%s)", txn.Type, txn.Amount.StringFixed(2), txn.ID)))
			fmt.Fprintln(out, cli.SubtleStyle.Render(editableNote(a.ledger.EditableFor(txn), txn)))
			return nil
		},
	}

	cmd.Flags().StringVar(&txnType, "type", "", "income or expense")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount (positive)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "What it was for")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category name")
	cmd.Flags().StringVar(&division, "division", string(model.DivisionPersonal), "office or personal")
	cmd.Flags().StringVar(&account, "account", "", "Account ID whose balance moves")
	cmd.Flags().StringVar(&date, "date", "", "Business date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func editTransactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <transaction-id>",
		Short: "Correct a recently created transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			var in ledger.UpdateTransactionInput
			flags := cmd.Flags()
			if flags.Changed("type") {
				v, _ := flags.GetString("type")
				t := model.TransactionType(v)
				in.Type = &t
			}
			if flags.Changed("amount") {
				v, _ := flags.GetString("amount")
				d, err := parseAmount("amount", v, false)
				if err != nil {
					return err
				}
				in.Amount = &d
			}
			if flags.Changed("description") {
				v, _ := flags.GetString("description")
				in.Description = &v
			}
			if flags.Changed("category") {
				v, _ := flags.GetString("category")
				in.Category = &v
			}
			if flags.Changed("division") {
				v, _ := flags.GetString("division")
				d := model.Division(v)
				in.Division = &d
			}
			if flags.Changed("date") {
				v, _ := flags.GetString("date")
				d, err := parseDateFlag("date", v, a.reporter.Location())
				if err != nil {
					return err
				}
				in.Date = &d
			}

			txn, err := a.ledger.UpdateTransaction(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Updated %s: %s %s",
				txn.ID, txn.Type, txn.Amount.StringFixed(2))))
			fmt.Fprintln(out, cli.SubtleStyle.Render(editableNote(a.ledger.EditableFor(txn), txn)))
			return nil
		},
	}

	cmd.Flags().String("type", "", "income or expense")
	cmd.Flags().StringP("amount", "a", "", "Amount (positive)")
	cmd.Flags().StringP("description", "d", "", "What it was for")
	cmd.Flags().StringP("category", "c", "", "Category name")
	cmd.Flags().String("division", "", "office or personal")
	cmd.Flags().String("date", "", "Business date (YYYY-MM-DD)")

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <transaction-id>",
		Short: "Delete a transaction and undo its balance effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.ledger.GetTransaction(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintln(out, cli.RenderTransactions([]model.Transaction{*txn}))
				ok, err := cli.Confirm(ctx, cli.NewNonBlockingReader(cmd.InOrStdin()), out, "Delete this transaction?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.SubtleStyle.Render("Deletion cancelled."))
					return nil
				}
			}

			if _, err := a.ledger.DeleteTransaction(ctx, txn.ID); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess("Deleted transaction "+txn.ID))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}

// parseDateFlag reads a YYYY-MM-DD flag as midnight in loc.
func parseDateFlag(field, value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateFlagLayout, value, loc)
	if err != nil {
		return time.Time{}, common.NewValidationError(field, fmt.Sprintf("%q is not a YYYY-MM-DD date", value))
	}
	return t, nil
}

// editableNote tells the user how long txn stays editable.
func editableNote(remaining time.Duration, txn *model.Transaction) string {
	if remaining <= 0 {
		return "No longer editable"
	}
	return fmt.Sprintf("Editable for another %s (until %s)",
		formatRemaining(remaining), txn.CreatedAt.Add(remaining).Local().Format("2006-01-02 15:04"))
}

func formatRemaining(d time.Duration) string {
	d = d.Truncate(time.Minute)
	if d < time.Minute {
		return "less than a minute"
	}
	return fmt.Sprintf("%dh %02dm", int(d.Hours()), int(d.Minutes())%60)
}
