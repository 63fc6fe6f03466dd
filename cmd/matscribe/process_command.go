package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"matscribe/internal/media"
	"matscribe/internal/scheduler"
)

const timeRounding = 100 * time.Millisecond

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var concurrency int
	var dryRun bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "process <directory>",
		Short: "Transcribe and subtitle every video in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			if concurrency > 0 {
				cfg.Processing.Concurrency = concurrency
			}

			inputRoot, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve input directory: %w", err)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if err := checkRequiredBinaries(cfg); err != nil {
				return err
			}

			items, err := media.Scan(inputRoot, cfg.Processing.VideoExtensions, logger)
			if err != nil {
				return fmt.Errorf("scan %s: %w", inputRoot, err)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintf(out, "No video files found under %s\n", inputRoot)
				return nil
			}

			rt, err := newRuntime(cfg, inputRoot, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			if dryRun {
				return renderPlan(cmd, rt, items)
			}

			sched := scheduler.New(rt.pipeline, cfg.Processing.Concurrency, logger)
			summary, err := sched.Run(cmd.Context(), items)
			fmt.Fprintf(out, "Processed %d item(s): %d succeeded, %d skipped, %d failed (%s)\n",
				len(items), summary.Succeeded, summary.Skipped, summary.Failed,
				summary.Elapsed.Round(timeRounding))
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d item(s) failed; see `matscribe status` for details", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of videos to process in parallel (defaults to config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would run without processing anything")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

func renderPlan(cmd *cobra.Command, rt *runtime, items []media.Item) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		plan, err := rt.pipeline.Plan(cmd.Context(), item)
		if err != nil {
			return err
		}
		pending := make([]string, 0, len(plan))
		for _, planned := range plan {
			if !planned.Skip {
				pending = append(pending, string(planned.Stage))
			}
		}
		action := "nothing to do"
		if len(pending) > 0 {
			action = strings.Join(pending, ", ")
		}
		rows = append(rows, []string{item.DisplayTitle, action})
	}
	fmt.Fprintln(cmd.OutOrStdout(), planTable(rows))
	return nil
}
