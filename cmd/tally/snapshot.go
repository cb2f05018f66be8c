package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/storage"
)

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snapshots"},
		Short:   "Manage database snapshots",
		Long: `Create, list, verify, and delete point-in-time copies of the ledger.

Snapshots are written next to the database in a snapshots/ directory.
Imports take one automatically; the five most recent automatic snapshots
are kept.`,
		Example: `  # Snapshot before a cleanup
  tally snapshot create --tag before-cleanup

  # List snapshots
  tally snapshot list

  # Check a snapshot is readable
  tally snapshot verify before-cleanup`,
	}

	cmd.AddCommand(createSnapshotCmd())
	cmd.AddCommand(listSnapshotsCmd())
	cmd.AddCommand(verifySnapshotCmd())
	cmd.AddCommand(deleteSnapshotCmd())

	return cmd
}

// withSnapshots opens the database and its snapshot manager for fn.
func withSnapshots(cmd *cobra.Command, fn func(*storage.SnapshotManager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manager, err := store.NewSnapshotManager()
	if err != nil {
		return fmt.Errorf("failed to create snapshot manager: %w", err)
	}
	return fn(manager)
}

func createSnapshotCmd() *cobra.Command {
	var tag string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSnapshots(cmd, func(m *storage.SnapshotManager) error {
				meta, err := m.Create(cmd.Context(), tag, description)
				if err != nil {
					return fmt.Errorf("failed to create snapshot: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created snapshot %s (%s)",
					cli.InfoStyle.Render(meta.ID), formatFileSize(meta.FileSize))))
				if meta.Description != "" {
					fmt.Fprintf(out, "  Description: %s\n", meta.Description)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Snapshot name (auto-generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of the snapshot")

	return cmd
}

func listSnapshotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSnapshots(cmd, func(m *storage.SnapshotManager) error {
				snapshots, err := m.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list snapshots: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(snapshots) == 0 {
					fmt.Fprintln(out, cli.SubtleStyle.Render("No snapshots found."))
					return nil
				}

				rows := make([][]string, 0, len(snapshots))
				for _, s := range snapshots {
					kind := "manual"
					if s.IsAuto {
						kind = "auto"
					}
					rows = append(rows, []string{
						cli.InfoStyle.Render(s.ID),
						formatRelativeTime(s.CreatedAt, time.Now()),
						formatFileSize(s.FileSize),
						formatRowCounts(s.RowCounts),
						cli.SubtleStyle.Render(kind),
					})
				}
				fmt.Fprintln(out, cli.RenderTable([]string{"Name", "Created", "Size", "Rows", "Type"}, rows))
				return nil
			})
		},
	}
}

func verifySnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <snapshot>",
		Short: "Run an integrity check on a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSnapshots(cmd, func(m *storage.SnapshotManager) error {
				if err := m.Verify(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Snapshot "+args[0]+" is intact"))
				return nil
			})
		},
	}
}

func deleteSnapshotCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <snapshot>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSnapshots(cmd, func(m *storage.SnapshotManager) error {
				out := cmd.OutOrStdout()
				if !yes {
					fmt.Fprintln(out, cli.FormatWarning("This will permanently delete snapshot "+cli.InfoStyle.Render(args[0])+"."))
					ok, err := cli.Confirm(ctx, cli.NewNonBlockingReader(cmd.InOrStdin()), out, "Continue?")
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(out, cli.SubtleStyle.Render("Deletion cancelled."))
						return nil
					}
				}

				if err := m.Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete snapshot: %w", err)
				}
				fmt.Fprintln(out, cli.FormatSuccess("Deleted snapshot "+args[0]))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return pluralAgo(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return pluralAgo(int(d.Hours()), "hour")
	case d < 48*time.Hour:
		return "yesterday"
	case d < 7*24*time.Hour:
		return pluralAgo(int(d.Hours()/24), "day")
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}

func pluralAgo(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func formatRowCounts(counts map[string]int) string {
	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	parts := make([]string, 0, len(tables))
	for _, table := range tables {
		parts = append(parts, fmt.Sprintf("%s %d", table, counts[table]))
	}
	return strings.Join(parts, ", ")
}
