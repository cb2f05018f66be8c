package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/ofx"
	"github.com/Veraticus/tally/internal/storage"
)

func importCmd() *cobra.Command {
	var (
		account    string
		division   string
		dryRun     bool
		noSnapshot bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.ofx> [more files...]",
		Short: "Book an OFX/QFX bank or card statement onto an account",
		Long: `Parse OFX/QFX statements and book every line as a transaction on the
given account. Debits become expenses and credits become incomes; the
account balance moves accordingly.

All files are booked in one unit of work: if anything fails, or you press
Ctrl+C, nothing is booked. An automatic snapshot of the database is taken
first unless --no-snapshot is given.`,
		Example: `  # Import a checking statement as personal spending
  tally import ~/Downloads/checking.qfx --account <bank-id>

  # Preview a card statement without booking it
  tally import card.ofx --account <card-id> --division office --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			div := model.Division(division)
			if !div.Valid() {
				return fmt.Errorf("invalid --division %q: must be office or personal", division)
			}
			return runImport(cmd, args, account, div, dryRun, noSnapshot)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account ID the statement lines are booked on")
	cmd.Flags().StringVar(&division, "division", string(model.DivisionPersonal), "office or personal")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and summarize without booking")
	cmd.Flags().BoolVar(&noSnapshot, "no-snapshot", false, "Skip the automatic snapshot before booking")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func runImport(cmd *cobra.Command, files []string, accountID string, division model.Division, dryRun, noSnapshot bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	bookings, err := parseStatements(cmd, files, division)
	if err != nil {
		return err
	}
	if len(bookings) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No bookable lines found."))
		return nil
	}

	income, expense := totals(bookings)
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d lines: income %s, expense %s",
		len(bookings), income.StringFixed(2), expense.StringFixed(2))))

	if dryRun {
		fmt.Fprintln(out, cli.SubtleStyle.Render("Dry run: nothing booked."))
		return nil
	}

	a, err := openApp(ctx, appOptions{events: true})
	if err != nil {
		return err
	}
	defer a.Close()

	account, err := a.ledger.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if !noSnapshot {
		snapshotBeforeImport(cmd, a.store)
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	importCtx, stop := interrupts.HandleInterrupts(ctx, "Import", "Nothing was booked: the import is all or nothing.")
	defer stop()

	progress := cli.NewProgress(cmd.ErrOrStderr(), len(bookings), "Booking "+account.Name)
	booked, err := a.ledger.ImportTransactions(importCtx, account.ID, bookings, progress.Set)
	if err != nil {
		if interrupts.WasInterrupted() {
			return nil
		}
		return fmt.Errorf("import failed, nothing was booked: %w", err)
	}
	progress.Finish()

	updated, err := a.ledger.GetAccount(ctx, account.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Booked %d transactions on %s; balance %s → %s",
		len(booked), account.Name, account.Balance.StringFixed(2), updated.Balance.StringFixed(2))))
	return nil
}

func parseStatements(cmd *cobra.Command, files []string, division model.Division) ([]ledger.CreateTransactionInput, error) {
	parser := ofx.NewParser()

	var bookings []ledger.CreateTransactionInput
	for _, path := range files {
		f, err := os.Open(path) // #nosec G304 - user-provided statement path
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		statements, err := parser.ParseFile(cmd.Context(), f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}

		lines := ofx.CountLines(statements)
		slog.Info("Parsed statement", "file", filepath.Base(path), "statements", len(statements), "lines", lines)
		if lines == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No transactions in "+filepath.Base(path)))
			continue
		}
		bookings = append(bookings, ofx.Bookings(statements, division)...)
	}
	return bookings, nil
}

func totals(bookings []ledger.CreateTransactionInput) (income, expense decimal.Decimal) {
	for _, b := range bookings {
		if b.Type == model.TypeIncome {
			income = income.Add(b.Amount)
		} else {
			expense = expense.Add(b.Amount)
		}
	}
	return income, expense
}

// snapshotBeforeImport takes an automatic snapshot. Failing to take one is
// reported but does not stop the import.
func snapshotBeforeImport(cmd *cobra.Command, store *storage.SQLiteStorage) {
	manager, err := store.NewSnapshotManager()
	if err != nil {
		if !errors.Is(err, storage.ErrInMemoryDatabase) {
			slog.Warn("Failed to open snapshot manager", "error", err)
		}
		return
	}

	meta, err := manager.Auto(cmd.Context(), "import")
	if err != nil {
		slog.Warn("Failed to snapshot before import", "error", err)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render(fmt.Sprintf("%s Snapshot %s saved", cli.FolderIcon, meta.ID)))
}
