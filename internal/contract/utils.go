package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/fatih/color"
)

// Color variables for console output.
var (
	MutualColor   = color.New(color.FgGreen, color.Bold) // MutualColor marks windows everyone shares.
	GapColor      = color.New(color.FgCyan)              // GapColor marks personal free time.
	LectureColor  = color.New(color.FgBlue)
	TutorialColor = color.New(color.FgYellow)
	LabColor      = color.New(color.FgMagenta)
)

// GetColorLabel returns a colored label for console output (table).
func GetColorLabel(rec schema.DisplayRecord) string {
	switch {
	case rec.Kind == schema.MutualKind:
		return MutualColor.Sprint(rec.Label)
	case rec.Kind == schema.GapKind:
		return GapColor.Sprint(rec.Label)
	case rec.Category == "Lecture":
		return LectureColor.Sprint(rec.Label)
	case rec.Category == "Tutorial":
		return TutorialColor.Sprint(rec.Label)
	case rec.Category == "Lab":
		return LabColor.Sprint(rec.Label)
	default:
		return rec.Label
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".makan_cache.db"
	}
	return filepath.Join(homeDir, ".makan_cache.db")
}

// TruncateLabel truncates a label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the "..." and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
