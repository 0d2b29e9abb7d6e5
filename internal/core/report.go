package core

import "fmt"

// FormatSummary renders an import result for display, one line per fact.
// Count lines appear only when their count is non-zero; a summary of all
// errors produces no count lines at all. Error messages are emitted
// verbatim, keyed by row, and never truncated.
func FormatSummary(s *ImportSummary) []string {
	if s == nil {
		return nil
	}

	var lines []string
	if s.SuccessCount > 0 {
		lines = append(lines, fmt.Sprintf("Imported %d %s.", s.SuccessCount, pluralDriver(s.SuccessCount)))
	}
	if s.SkippedCount > 0 {
		lines = append(lines, fmt.Sprintf("Skipped %d existing %s.", s.SkippedCount, pluralDriver(s.SkippedCount)))
	}
	for _, e := range s.Errors {
		lines = append(lines, fmt.Sprintf("Row %d: %s", e.Row, e.Message))
	}
	return lines
}

func pluralDriver(n int) string {
	if n == 1 {
		return "driver"
	}
	return "drivers"
}
