package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage accounts and move money between them",
		Example: `  # Open a cash account with 50 in it
  tally accounts create --name Cash --type cash --balance 50

  # Move 20 from the bank to cash
  tally accounts transfer --from <bank-id> --to <cash-id> --amount 20`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(showAccountCmd())
	cmd.AddCommand(createAccountCmd())
	cmd.AddCommand(updateAccountCmd())
	cmd.AddCommand(deleteAccountCmd())
	cmd.AddCommand(transferCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			accounts, err := a.ledger.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderAccounts(accounts))
			return nil
		},
	}
}

func showAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <account-id>",
		Short: "Show an account and its latest transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.ledger.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderAccounts([]model.Account{detail.Account}))
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.FormatTitle("Recent transactions"))
			fmt.Fprintln(out, cli.RenderTransactions(detail.RecentTransactions))
			return nil
		},
	}
}

func createAccountCmd() *cobra.Command {
	var (
		name        string
		accountType string
		balance     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opening, err := parseAmount("balance", balance, true)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.ledger.CreateAccount(cmd.Context(), ledger.CreateAccountInput{
				Name:    name,
				Type:    model.AccountType(accountType),
				Balance: opening,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created account %s (%s) with balance %s",
				cli.InfoStyle.Render(account.Name), account.ID, account.Balance.StringFixed(2))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Account name")
	cmd.Flags().StringVarP(&accountType, "type", "t", string(model.DefaultAccountType), "Account type (cash, bank, credit_card, wallet)")
	cmd.Flags().StringVarP(&balance, "balance", "b", "0", "Opening balance")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func updateAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <account-id>",
		Short: "Rename or retype an account",
		Long:  `Change an account's name or type. Balances only change through transactions.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in ledger.UpdateAccountInput
			if cmd.Flags().Changed("name") {
				name, _ := cmd.Flags().GetString("name")
				in.Name = &name
			}
			if cmd.Flags().Changed("type") {
				t, _ := cmd.Flags().GetString("type")
				accountType := model.AccountType(t)
				in.Type = &accountType
			}

			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.ledger.UpdateAccount(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated account %s (%s)", account.Name, account.Type)))
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "New account name")
	cmd.Flags().StringP("type", "t", "", "New account type")

	return cmd
}

func deleteAccountCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <account-id>",
		Short: "Delete an account",
		Long:  `Delete an account. Its transactions are kept and still reference it.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.ledger.GetAccount(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("This will delete account %s with balance %s.",
					cli.InfoStyle.Render(detail.Name), detail.Balance.StringFixed(2))))
				ok, err := cli.Confirm(ctx, cli.NewNonBlockingReader(cmd.InOrStdin()), out, "Continue?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.SubtleStyle.Render("Deletion cancelled."))
					return nil
				}
			}

			if err := a.ledger.DeleteAccount(ctx, detail.ID); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess("Deleted account "+detail.Name))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}

func transferCmd() *cobra.Command {
	var (
		from        string
		to          string
		amount      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money from one account to another",
		Long: `Move money between accounts. Both balances and the two linked
"Transfer" transactions are written together or not at all.`,
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

			result, err := a.ledger.Transfer(cmd.Context(), ledger.TransferInput{
				FromAccountID: from,
				ToAccountID:   to,
				Amount:        value,
				Description:   description,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Transferred %s from %s to %s",
				value.StringFixed(2), result.From.Name, result.To.Name)))
			fmt.Fprintln(out, cli.RenderAccounts([]model.Account{result.From, result.To}))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source account ID")
	cmd.Flags().StringVar(&to, "to", "", "Destination account ID")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount to move")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description (default: generated from the account names)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// parseAmount reads a decimal flag value.
func parseAmount(field, value string, allowNegative bool) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, common.NewValidationError(field, fmt.Sprintf("%q is not a number", value))
	}
	if !allowNegative && d.IsNegative() {
		return decimal.Zero, common.NewValidationError(field, "must not be negative")
	}
	return d, nil
}
