package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sortd/sortd/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage the category taxonomy",
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(configCategoriesCmd())
	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all category paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			paths := app.meta.CategoryPaths()
			if len(paths) == 0 {
				fmt.Println("No categories yet. Use 'sortd categories add <path>' to create one.")
				return nil
			}

			rows := make([]table.Row, 0, len(paths))
			for _, p := range paths {
				rows = append(rows, table.Row{p})
			}
			fmt.Println(renderTable(table.Row{"Category"}, rows))
			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Add a category path like Documents/Invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			node, err := app.meta.AddCategory(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to add category: %w", err)
			}
			if err := app.meta.Save(ctx); err != nil {
				return fmt.Errorf("failed to save metadata: %w", err)
			}

			fmt.Printf("Added category %s\n", node.Path)
			return nil
		},
	}
}

func configCategoriesCmd() *cobra.Command {
	var (
		mode     string
		maxDepth int
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change taxonomy settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			cfg := app.meta.Config()
			changed := false
			if cmd.Flags().Changed("mode") {
				cfg.Mode = model.TaxonomyMode(mode)
				changed = true
			}
			if cmd.Flags().Changed("max-depth") {
				cfg.MaxDepth = maxDepth
				changed = true
			}

			if changed {
				if err := app.meta.SetConfig(ctx, cfg); err != nil {
					return err
				}
				if err := app.meta.Save(ctx); err != nil {
					return fmt.Errorf("failed to save metadata: %w", err)
				}
			}

			fmt.Printf("Mode:        %s\n", cfg.Mode)
			fmt.Printf("Max depth:   %d\n", cfg.MaxDepth)
			fmt.Printf("Max children: %d\n", cfg.MaxChildren)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "taxonomy mode (strict or flexible)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum category depth")
	return cmd
}
