// Package display maps intervals to renderer-neutral display records.
package display

import (
	"fmt"
	"strings"

	"github.com/GarnettJZ/makan-apa/schema"
)

// Classifier derives a category such as "Lecture" from a module identifier.
// It returns "" when it cannot tell, and the formatter falls back to "Class".
type Classifier func(moduleID string) string

// ModuleCodeClassifier reads the last dash-separated segment of codes like
// "CT124-3-3-CSS-LAB" or "CT124-3-3-CSS-T".
func ModuleCodeClassifier(moduleID string) string {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(moduleID)), "-")
	if len(parts) < 2 {
		return ""
	}
	switch suffix := parts[len(parts)-1]; {
	case strings.HasPrefix(suffix, "LAB"):
		return "Lab"
	case strings.HasPrefix(suffix, "T"):
		return "Tutorial"
	case strings.HasPrefix(suffix, "L"):
		return "Lecture"
	}
	return ""
}

// Formatter builds display records. The zero value uses ModuleCodeClassifier.
type Formatter struct {
	Classifier Classifier
}

// Class formats a busy interval.
func (f Formatter) Class(iv schema.BusyInterval) schema.DisplayRecord {
	label := iv.Subject
	if label == "" {
		label = iv.ModuleID
	}
	return schema.DisplayRecord{
		Person:   iv.PersonID,
		Kind:     schema.ClassKind,
		Day:      iv.Day,
		Start:    iv.Start,
		End:      iv.End,
		Duration: iv.End - iv.Start,
		Label:    label,
		Category: f.category(iv.ModuleID),
	}
}

// Gap formats a personal free interval.
func (f Formatter) Gap(person string, iv schema.FreeInterval) schema.DisplayRecord {
	d := iv.End - iv.Start
	return schema.DisplayRecord{
		Person:   person,
		Kind:     schema.GapKind,
		Day:      iv.Day,
		Start:    iv.Start,
		End:      iv.End,
		Duration: d,
		Label:    GapLabel(d),
		Category: schema.GapCategory,
	}
}

// Mutual formats a shared free interval.
func (f Formatter) Mutual(iv schema.MutualInterval) schema.DisplayRecord {
	d := iv.End - iv.Start
	return schema.DisplayRecord{
		Kind:     schema.MutualKind,
		Day:      iv.Day,
		Start:    iv.Start,
		End:      iv.End,
		Duration: d,
		Label:    MutualLabel(d),
		Category: schema.MutualCategory,
	}
}

// Format dispatches on the interval type and kind.
// Busy intervals are always classes; free intervals are gaps unless kind is MutualKind.
func (f Formatter) Format(interval any, kind schema.Kind) (schema.DisplayRecord, error) {
	switch iv := interval.(type) {
	case schema.BusyInterval:
		return f.Class(iv), nil
	case schema.FreeInterval:
		if kind == schema.MutualKind {
			return f.Mutual(schema.MutualInterval{Day: iv.Day, Start: iv.Start, End: iv.End}), nil
		}
		return f.Gap("", iv), nil
	case schema.MutualInterval:
		return f.Mutual(iv), nil
	default:
		return schema.DisplayRecord{}, fmt.Errorf("cannot format %T as %s", interval, kind)
	}
}

func (f Formatter) category(moduleID string) string {
	classify := f.Classifier
	if classify == nil {
		classify = ModuleCodeClassifier
	}
	if c := classify(moduleID); c != "" {
		return c
	}
	return schema.FallbackCategory
}

// GapLabel renders a duration as "{H}h {M}m Gap".
func GapLabel(d float64) string {
	h, m := schema.SplitHours(d)
	return fmt.Sprintf("%dh %dm Gap", h, m)
}

// MutualLabel renders a duration as "MUTUAL {H}h {M}m".
func MutualLabel(d float64) string {
	h, m := schema.SplitHours(d)
	return fmt.Sprintf("MUTUAL %dh %dm", h, m)
}
