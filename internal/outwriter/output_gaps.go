package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// csvHeader is the flat row layout shared by CSV and Parquet output.
var csvHeader = []string{"person", "kind", "day", "start", "end", "duration_hours", "label", "category"}

// writeReportTable generates and writes the human-readable tables.
func writeReportTable(report schema.GapReport, cfg *contract.Config, duration time.Duration, withMutual bool, w io.Writer) error {
	labelWidth := GetMaxTableLabelWidth(cfg)

	if withMutual {
		if err := writeMutualSection(report, cfg, labelWidth, w); err != nil {
			return err
		}
	}

	// Schedules always show everyone; gap queries only with --detail
	if !withMutual || cfg.Detail {
		withClasses := includeClasses(cfg, withMutual)
		for _, p := range report.People {
			if err := writePersonSection(p, cfg, withClasses, labelWidth, w); err != nil {
				return err
			}
		}
	} else {
		for _, p := range report.People {
			if p.Empty {
				if _, err := fmt.Fprintln(w, emptyWarning(p, cfg)); err != nil {
					return err
				}
			}
		}
	}

	if report.Skipped > 0 {
		if _, err := fmt.Fprintf(w, "Skipped %d malformed timetable records\n", report.Skipped); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Query completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeMutualSection renders the mutual table or a notice when nothing overlaps.
func writeMutualSection(report schema.GapReport, cfg *contract.Config, labelWidth int, w io.Writer) error {
	if len(report.Mutual) == 0 {
		_, err := fmt.Fprintf(w, "No mutual free time of at least %s within %s for %d people\n",
			formatHours(cfg.MinMutualGap), schema.FormatSpan(report.Window.Start, report.Window.End), len(report.People))
		return err
	}
	return renderRecords(report.Mutual, false, labelWidth, w)
}

// writePersonSection renders one person's title line followed by their table.
func writePersonSection(p schema.PersonReport, cfg *contract.Config, withClasses bool, labelWidth int, w io.Writer) error {
	if p.Empty {
		_, err := fmt.Fprintln(w, emptyWarning(p, cfg))
		return err
	}
	title := fmt.Sprintf("%s (%d classes, %d gaps)", p.ID, len(p.Classes), len(p.Gaps))
	if cfg.UseEmojis {
		title = "👤 " + title
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	rows := personRows(p, withClasses)
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No free time within the day window")
		return err
	}
	return renderRecords(rows, withClasses, labelWidth, w)
}

// emptyWarning is printed for people with no classes in the queried week.
func emptyWarning(p schema.PersonReport, cfg *contract.Config) string {
	msg := fmt.Sprintf("%s has no classes this week; every day counts as free", p.ID)
	if cfg.UseEmojis {
		return "⚠️  " + msg
	}
	return "Warning: " + msg
}

// renderRecords writes one table of display records.
func renderRecords(records []schema.DisplayRecord, withCategory bool, labelWidth int, w io.Writer) error {
	table := tablewriter.NewWriter(w)

	// 1. Define Headers
	headers := []string{"Day", "Start", "End", "Duration", "Label"}
	if withCategory {
		headers = append(headers, "Category")
	}
	table.Header(headers)

	// 2. Configure Separators/Borders to match a minimal look
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	data := make([][]string, 0, len(records))
	for _, rec := range records {
		rec.Label = contract.TruncateLabel(rec.Label, labelWidth)
		row := []string{
			string(rec.Day),
			schema.FormatClock(rec.Start),
			schema.FormatClock(rec.End),
			formatHours(rec.Duration),
			contract.GetColorLabel(rec),
		}
		if withCategory {
			row = append(row, rec.Category)
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeReportCSV writes flat rows in CSV format.
func writeReportCSV(w io.Writer, rows []schema.DisplayRecord) error {
	return writeCSVWithHeader(w, csvHeader, func(cw *csv.Writer) error {
		for _, rec := range rows {
			if err := cw.Write(csvRow(rec)); err != nil {
				return err
			}
		}
		return nil
	})
}

// csvRow renders one record with clock times and two-decimal hours.
func csvRow(rec schema.DisplayRecord) []string {
	return []string{
		rec.Person,
		string(rec.Kind),
		string(rec.Day),
		schema.FormatClock(rec.Start),
		schema.FormatClock(rec.End),
		fmt.Sprintf("%.2f", rec.Duration),
		strings.TrimSpace(rec.Label),
		rec.Category,
	}
}
