// Package parquet exports gap query rows to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"

	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/parquet-go/parquet-go"
)

// GapRecord is one flat output row: a class, a personal gap or a mutual window.
type GapRecord struct {
	// Week is the Monday of the queried week (YYYY-MM-DD)
	Week string `parquet:"week,snappy"`

	// Person is the person id, empty for mutual windows
	Person string `parquet:"person,snappy"`

	// Kind is class, gap or mutual
	Kind string `parquet:"kind,snappy,dict"`

	// Day is the weekday abbreviation
	Day string `parquet:"day,snappy,dict"`

	// DayRank orders days Monday first
	DayRank int32 `parquet:"day_rank,snappy"`

	Start         float64 `parquet:"start_hour,snappy"`
	End           float64 `parquet:"end_hour,snappy"`
	DurationHours float64 `parquet:"duration_hours,snappy"`

	Label    string `parquet:"label,snappy"`
	Category string `parquet:"category,snappy,dict"`
}

// FromDisplayRecord converts a display record into a Parquet row.
func FromDisplayRecord(week string, rec schema.DisplayRecord) GapRecord {
	return GapRecord{
		Week:          week,
		Person:        rec.Person,
		Kind:          string(rec.Kind),
		Day:           string(rec.Day),
		DayRank:       int32(rec.Day.Rank()),
		Start:         rec.Start,
		End:           rec.End,
		DurationHours: rec.Duration,
		Label:         rec.Label,
		Category:      rec.Category,
	}
}

// WriteGapRecordsParquet writes rows to a Parquet file at outputPath.
func WriteGapRecordsParquet(data []GapRecord, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the GapRecord struct tags
	writer := parquet.NewGenericWriter[GapRecord](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}
