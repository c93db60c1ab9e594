package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"pnm2img/contracts"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderSummary formats one row per input file.
func renderSummary(report *contracts.BatchReport) string {
	t := table.NewWriter()
	t.SetTitle("Run " + report.RunID)
	t.AppendHeader(table.Row{"#", "File", "Format", "Size", "Maxval", "Outputs", "Status"})
	for i, res := range report.Files {
		size := ""
		if res.Width > 0 {
			size = fmt.Sprintf("%dx%d", res.Width, res.Height)
		}
		maxValue := ""
		if res.MaxValue > 0 {
			maxValue = fmt.Sprint(res.MaxValue)
		}
		outputs := make([]string, len(res.Outputs))
		for j, out := range res.Outputs {
			outputs[j] = filepath.Base(out)
		}
		t.AppendRow(table.Row{
			i + 1,
			filepath.Base(res.Source),
			res.Format,
			size,
			maxValue,
			strings.Join(outputs, "\n"),
			status(res),
		})
	}
	if report.Album != "" {
		albumStatus := "ok"
		if report.AlbumErr != nil {
			albumStatus = "failed: " + report.AlbumErr.Error()
		}
		t.AppendSeparator()
		t.AppendRow(table.Row{"", "(album)", "PDF", "", "", filepath.Base(report.Album), albumStatus})
	}
	return t.Render()
}

func status(res contracts.FileResult) string {
	switch {
	case !res.OK():
		return fmt.Sprintf("failed (%s): %v", res.Stage, res.Err)
	case res.Deleted:
		return "ok, source deleted"
	}
	return "ok"
}
