package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/engine"
	"github.com/sortd/sortd/internal/mover"
	"github.com/sortd/sortd/internal/staging"
)

func organizeCmd() *cobra.Command {
	var (
		dryRun  bool
		autoYes bool
	)

	cmd := &cobra.Command{
		Use:   "organize [dir]",
		Short: "Analyze a directory and file everything into the organized tree",
		Long: `Scan a directory of unsorted files, propose a category for each one,
and move the approved files under the configured root directory.

With no argument the current directory is scanned.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			store := staging.NewStore()
			ids, err := stageDirectory(ctx, store, app.fs, dir)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("Nothing to organize.")
				return nil
			}

			bar := newProgressBar(len(ids), "Analyzing files...")
			eng := engine.New(store, app.fs, app.createLLMClient(), app.learner, app.meta, engine.Config{
				Progress: func(done, _ int) { _ = bar.Set(done) },
			})
			if err := eng.ProcessFiles(ctx, ids); err != nil && !errors.Is(err, common.ErrNoProviderConfigured) {
				return err
			}
			_ = bar.Finish()
			fmt.Println()

			printReviewTable(store)

			if dryRun {
				return nil
			}
			if !autoYes && !confirm("Move the proposed files?") {
				fmt.Println("Nothing moved.")
				return nil
			}

			committer, err := mover.NewCommitter(store, app.fs, app.meta, app.undo, app.db, app.cfg.RootDir)
			if err != nil {
				return err
			}
			result, err := committer.Commit(ctx, nil)
			if err != nil {
				return err
			}
			printCommitResult(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show proposals without moving anything")
	cmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "commit without asking")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the organized tree's index summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			entries := app.meta.Entries()
			categories := app.meta.CategoryPaths()
			fmt.Printf("Root:       %s\n", app.cfg.RootDir)
			fmt.Printf("Indexed:    %d files\n", len(entries))
			fmt.Printf("Categories: %d\n", len(categories))

			log, err := app.undo.ReadUndoLog(cmd.Context())
			if err == nil && !log.Empty() {
				fmt.Printf("Undoable:   %d moves from %s\n", len(log.Operations), log.Timestamp.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func printReviewTable(store *staging.Store) {
	rows := make([]table.Row, 0)
	for _, f := range store.List() {
		target := f.FinalTargetPath()
		summary := ""
		if f.Proposal != nil {
			summary = f.Proposal.Summary
		}
		rows = append(rows, table.Row{f.DisplayName, statusLabel(f), target, truncate(summary, 60)})
	}
	fmt.Println(renderTable(table.Row{"File", "Status", "Target", "Summary"}, rows))
}

func printCommitResult(result mover.Result) {
	fmt.Printf("Moved %d file(s), %d failed.\n", result.SuccessCount, result.FailCount)
	for _, r := range result.Results {
		if !r.OK {
			fmt.Printf("  %s: %s\n", r.Name, r.Error)
		}
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
