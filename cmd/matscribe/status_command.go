package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"matscribe/internal/stage"
	"matscribe/internal/state"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <directory>",
		Short: "Show processing state for a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			inputRoot, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve input directory: %w", err)
			}

			store, err := state.Open(cfg.WorkDirFor(inputRoot))
			if err != nil {
				return fmt.Errorf("open state database: %w", err)
			}
			defer store.Close() //nolint:errcheck

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No items tracked under %s\n", inputRoot)
				return nil
			}

			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.DisplayTitle,
					renderStage(rec, colorize),
					strconv.Itoa(len(rec.Completed)) + "/" + strconv.Itoa(len(stage.ExecutionOrder())),
					rec.UpdatedAt.Local().Format("2006-01-02 15:04"),
					truncate(rec.LastError, 60),
				})
			}
			fmt.Fprintln(out, statusTable(rows))

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderStatsLine(stats))
			return nil
		},
	}
	return cmd
}

func renderStage(rec *state.Record, colorize bool) string {
	label := string(rec.CurrentStage)
	if !colorize {
		return label
	}
	switch rec.CurrentStage {
	case stage.Completed:
		return ansiGreen + label + ansiReset
	case stage.Failed:
		return ansiRed + label + ansiReset
	default:
		return ansiYellow + label + ansiReset
	}
}

func renderStatsLine(stats map[stage.Stage]int) string {
	if len(stats) == 0 {
		return ""
	}
	names := make([]string, 0, len(stats))
	for s := range stats {
		names = append(names, string(s))
	}
	sort.Strings(names)
	line := "Totals:"
	for _, name := range names {
		line += fmt.Sprintf(" %s=%d", name, stats[stage.Stage(name)])
	}
	return line
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}
