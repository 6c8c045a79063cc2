package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func correctionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corrections",
		Short: "Inspect and record learned category corrections",
	}

	cmd.AddCommand(listCorrectionsCmd())
	cmd.AddCommand(addCorrectionCmd())
	return cmd
}

func listCorrectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded corrections, newest last",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			records := app.learner.Records()
			if len(records) == 0 {
				fmt.Println("No corrections recorded yet.")
				return nil
			}

			rows := make([]table.Row, 0, len(records))
			for _, r := range records {
				rows = append(rows, table.Row{
					r.FileName,
					r.AISuggested,
					r.UserChosen,
					r.Timestamp.Format("2006-01-02 15:04"),
				})
			}
			fmt.Println(renderTable(table.Row{"File", "AI suggested", "You chose", "When"}, rows))
			return nil
		},
	}
}

func addCorrectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <file-name> <ai-suggested> <chosen-path>",
		Short: "Record that a file belongs somewhere other than suggested",
		Long: `Teach the organizer that files like <file-name> belong under
<chosen-path> rather than the AI's <ai-suggested> category. Future
files with the same or a similar name get the corrected path directly.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.learner.Record(ctx, args[1], args[2], args[0]); err != nil {
				return fmt.Errorf("failed to record correction: %w", err)
			}
			fmt.Printf("Learned: %s -> %s\n", args[0], args[2])
			return nil
		},
	}
}
