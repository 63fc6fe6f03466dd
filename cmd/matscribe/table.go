package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// planTable lays out the dry-run plan: one row per video with the stages
// that would still run.
func planTable(rows [][]string) string {
	tw := newTableWriter(table.Row{"Video", "Pending stages"})
	for _, row := range rows {
		tw.AppendRow(toRow(row))
	}
	return tw.Render()
}

// statusTable lays out the state store listing. The stage-count column is
// right-aligned so the fractions line up.
func statusTable(rows [][]string) string {
	tw := newTableWriter(table.Row{"Video", "Stage", "Done", "Updated", "Last error"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	for _, row := range rows {
		tw.AppendRow(toRow(row))
	}
	return tw.Render()
}

func newTableWriter(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(header)
	return tw
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return row
}
