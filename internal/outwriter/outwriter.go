// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/internal/parquet"
	"github.com/GarnettJZ/makan-apa/schema"
)

// WriteGapReport outputs a mutual gap report, dispatching based on the output format configured.
func WriteGapReport(report schema.GapReport, cfg *contract.Config, duration time.Duration) error {
	return writeReport(report, cfg, duration, true)
}

// WriteSchedules outputs per-person schedules, dispatching based on the output format configured.
// Class rows are always shown.
func WriteSchedules(report schema.GapReport, cfg *contract.Config, duration time.Duration) error {
	return writeReport(report, cfg, duration, false)
}

// writeReport is the shared dispatcher behind both public writers.
func writeReport(report schema.GapReport, cfg *contract.Config, duration time.Duration, withMutual bool) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportCSV(w, flattenReport(report, withMutual, includeClasses(cfg, withMutual)))
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeReportParquet(report, cfg, withMutual); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable tables
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportTable(report, cfg, duration, withMutual, w)
		}, "Wrote table")
	}
	return nil
}

// includeClasses reports whether class rows belong in the output.
func includeClasses(cfg *contract.Config, withMutual bool) bool {
	return !withMutual || cfg.ShowClasses
}

// flattenReport lists every record of the report as flat rows.
// Mutual windows come first, then each person's rows in canonical order.
func flattenReport(report schema.GapReport, withMutual, withClasses bool) []schema.DisplayRecord {
	var rows []schema.DisplayRecord
	if withMutual {
		rows = append(rows, report.Mutual...)
	}
	for _, p := range report.People {
		rows = append(rows, personRows(p, withClasses)...)
	}
	return rows
}

// personRows merges a person's classes and gaps into day and start order.
func personRows(p schema.PersonReport, withClasses bool) []schema.DisplayRecord {
	rows := make([]schema.DisplayRecord, 0, len(p.Classes)+len(p.Gaps))
	if withClasses {
		rows = append(rows, p.Classes...)
	}
	rows = append(rows, p.Gaps...)
	slices.SortStableFunc(rows, func(a, b schema.DisplayRecord) int {
		if a.Day != b.Day {
			return a.Day.Rank() - b.Day.Rank()
		}
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})
	return rows
}

// writeReportParquet writes the flat rows to cfg.OutputFile.
func writeReportParquet(report schema.GapReport, cfg *contract.Config, withMutual bool) error {
	rows := flattenReport(report, withMutual, includeClasses(cfg, withMutual))
	data := make([]parquet.GapRecord, 0, len(rows))
	for _, rec := range rows {
		data = append(data, parquet.FromDisplayRecord(report.Week, rec))
	}
	if err := parquet.WriteGapRecordsParquet(data, cfg.OutputFile); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	return nil
}
