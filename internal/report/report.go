// Package report renders the end-of-run summary as an aligned table.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Summary carries the per-stage counts of a pipeline run.
type Summary struct {
	RunID string

	Extracted int
	Mapped    int
	Geocoded  int
	Deduped   int

	SchemaValid int
	SchemaTotal int

	Features int

	FlatPath string
	GeoPath  string
	Duration time.Duration
}

// Table renders the summary as a two-column table with display-width
// aware padding.
func (s *Summary) Table() string {
	rows := [][2]string{
		{"Run", s.RunID},
		{"Extracted items", fmt.Sprintf("%d", s.Extracted)},
		{"Mapped shops", fmt.Sprintf("%d", s.Mapped)},
		{"Geocoded", fmt.Sprintf("%d", s.Geocoded)},
		{"After dedupe", fmt.Sprintf("%d", s.Deduped)},
		{"Schema valid", fmt.Sprintf("%d/%d", s.SchemaValid, s.SchemaTotal)},
		{"Geo features", fmt.Sprintf("%d", s.Features)},
		{"Flat list", s.FlatPath},
		{"Feature collection", s.GeoPath},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}

	labelWidth := 0

	for _, row := range rows {
		if w := runewidth.StringWidth(row[0]); w > labelWidth {
			labelWidth = w
		}
	}

	var b strings.Builder

	for _, row := range rows {
		b.WriteString("| ")
		b.WriteString(row[0])
		b.WriteString(strings.Repeat(" ", labelWidth-runewidth.StringWidth(row[0])))
		b.WriteString(" | ")
		b.WriteString(row[1])
		b.WriteString(" |\n")
	}

	return b.String()
}
