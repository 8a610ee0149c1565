package outwriter

import (
	"fmt"
	"strings"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"
)

// LogQueryHeader prints a concise, 2-line header for each query.
func LogQueryHeader(cfg *contract.Config) {
	ids := make([]string, len(cfg.People))
	for i, p := range cfg.People {
		ids[i] = p.ID()
	}
	days := make([]string, len(cfg.Days))
	for i, d := range cfg.Days {
		days[i] = string(d)
	}
	week := "current"
	if !cfg.Week.IsZero() {
		week = cfg.Week.Format(contract.WeekLayout)
	}

	// Line 1: who and where from
	line1 := fmt.Sprintf("People: %s (Source: %s)", strings.Join(ids, ", "), cfg.Source)

	// Line 2: the week and the window being searched
	line2 := fmt.Sprintf("Week: %s (Window: %s, Days: %s)",
		week, schema.FormatSpan(cfg.Window.Start, cfg.Window.End), strings.Join(days, ","))

	if cfg.UseEmojis {
		fmt.Printf("🍜 %s\n📅 %s\n", line1, line2)
		return
	}
	fmt.Printf("%s\n%s\n", line1, line2)
}
