// Package export renders a league roster in downloadable formats. Columns
// always mirror the league's full import header list, so a file exported
// here re-imports without edits.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// Writer renders a roster to w in one concrete format.
type Writer interface {
	Write(w io.Writer, specs []core.HeaderSpec, drivers []store.Driver) error
	ContentType() string
	Extension() string
}

// ForFormat selects a writer by format name. The empty string defaults to
// CSV so `?format=` and a missing parameter behave the same.
func ForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "", "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

// Filename builds the download name for a league export, e.g.
// "apex-sim-league-roster.csv".
func Filename(slug string, w Writer) string {
	if slug == "" {
		slug = "league"
	}
	return fmt.Sprintf("%s-roster.%s", slug, w.Extension())
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

// rosterRows flattens drivers into CSV-shaped rows under the full header.
// Platform cells come from the driver's identity map keyed by field name;
// drivers missing a platform get an empty cell.
func rosterRows(specs []core.HeaderSpec, drivers []store.Driver) [][]string {
	rows := make([][]string, 0, len(drivers)+1)
	rows = append(rows, core.FullHeaders(specs))

	for _, d := range drivers {
		row := make([]string, 0, len(specs)+3)
		row = append(row, d.Nickname, d.DiscordID)
		for _, s := range specs {
			row = append(row, d.PlatformIDs[s.Field])
		}
		number := ""
		if d.DriverNumber != nil {
			number = strconv.Itoa(*d.DriverNumber)
		}
		rows = append(rows, append(row, number))
	}
	return rows
}
