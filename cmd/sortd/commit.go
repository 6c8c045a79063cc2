package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sortd/sortd/internal/common"
	"github.com/sortd/sortd/internal/engine"
	"github.com/sortd/sortd/internal/mover"
	"github.com/sortd/sortd/internal/staging"
)

func commitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit [dir]",
		Short: "Analyze and move files without the review prompt",
		Long: `Run the full organize pipeline non-interactively: scan, analyze, and
move every file that gets a confident proposal. Equivalent to
'sortd organize --yes'.`,
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
				fmt.Println("Nothing to commit.")
				return nil
			}

			eng := engine.New(store, app.fs, app.createLLMClient(), app.learner, app.meta, engine.Config{})
			if err := eng.ProcessFiles(ctx, ids); err != nil {
				if errors.Is(err, common.ErrNoProviderConfigured) {
					return fmt.Errorf("cannot commit without an AI provider: %w", err)
				}
				return err
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
}

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Reverse the most recent commit",
		Long: `Replay the undo log written by the last commit, moving each file back
where it came from. Files that were moved or deleted since are skipped
and reported. The log covers only the latest commit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			committer, err := mover.NewCommitter(staging.NewStore(), app.fs, app.meta, app.undo, app.db, app.cfg.RootDir)
			if err != nil {
				return err
			}

			result, err := committer.Undo(ctx)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					fmt.Println("Nothing to undo.")
					return nil
				}
				return err
			}

			fmt.Printf("Restored %d file(s), %d could not be restored.\n", result.SuccessCount, result.FailCount)
			for _, r := range result.Results {
				if !r.OK {
					fmt.Printf("  %s: %s\n", r.Name, r.Error)
				}
			}
			return nil
		},
	}
}
