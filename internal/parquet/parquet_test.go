package parquet

import (
	"path/filepath"
	"testing"

	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGapRecordStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	s := parquet.SchemaOf(new(GapRecord))
	require.NotNil(t, s)

	expectedColumns := []string{
		"week", "person", "kind", "day", "day_rank",
		"start_hour", "end_hour", "duration_hours", "label", "category",
	}
	for _, colName := range expectedColumns {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestFromDisplayRecord(t *testing.T) {
	rec := schema.DisplayRecord{
		Kind: schema.MutualKind, Day: schema.Wednesday, Start: 11, End: 12.5, Duration: 1.5,
		Label: "MUTUAL 1h 30m", Category: schema.MutualCategory,
	}
	got := FromDisplayRecord("2026-01-12", rec)
	assert.Equal(t, GapRecord{
		Week: "2026-01-12", Kind: "mutual", Day: "Wed", DayRank: 2,
		Start: 11, End: 12.5, DurationHours: 1.5, Label: "MUTUAL 1h 30m", Category: "Mutual",
	}, got)
}

func TestWriteGapRecordsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gaps.parquet")
	rows := []GapRecord{
		{Week: "2026-01-12", Kind: "mutual", Day: "Mon", Start: 8, End: 9, DurationHours: 1, Label: "MUTUAL 1h 0m", Category: "Mutual"},
		{Week: "2026-01-12", Person: "alice", Kind: "gap", Day: "Mon", Start: 10.5, End: 13, DurationHours: 2.5, Label: "2h 30m Gap", Category: "Gap"},
	}
	require.NoError(t, WriteGapRecordsParquet(rows, path))

	got, err := parquet.ReadFile[GapRecord](path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteGapRecordsParquetBadPath(t *testing.T) {
	err := WriteGapRecordsParquet(nil, filepath.Join(t.TempDir(), "missing", "gaps.parquet"))
	assert.Error(t, err)
}
