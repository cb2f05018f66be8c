package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tally/internal/cli"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage income and expense categories",
		Long: `List, add, delete and seed categories. Transactions cite categories by
name, so deleting a category leaves existing transactions untouched.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(seedCategoriesCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories with their totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.reporter.CategorySummary(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderCategories(summary))
			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var (
		categoryType string
		icon         string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			category, err := a.ledger.CreateCategory(cmd.Context(), ledger.CreateCategoryInput{
				Name: args[0],
				Type: model.CategoryType(categoryType),
				Icon: icon,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s category %s (%s)",
				category.Type, cli.InfoStyle.Render(category.Name), category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryType, "type", "t", string(model.CategoryTypeExpense), "income or expense")
	cmd.Flags().StringVarP(&icon, "icon", "i", "", "Icon shown by clients")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category-id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.DeleteCategory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted category "+args[0]))
			return nil
		},
	}
}

func seedCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add the default categories that are missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			added, err := a.ledger.SeedCategories(cmd.Context())
			if err != nil {
				return err
			}
			if added == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("All default categories already exist."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %d categories", added)))
			return nil
		},
	}
}
