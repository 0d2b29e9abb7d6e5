package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Column alias sets recognized by Normalize, matched case-insensitively
// against trimmed header cells.
var (
	nicknameAliases = []string{"nickname", "name"}
	discordAliases  = []string{"discordid", "discord_id"}
)

// Normalize prepares roster CSV text for import by filling blank nickname
// cells from the Discord ID column. Rosters exported from Discord frequently
// carry a handle but no nickname; without the fallback those rows would fail
// the nickname requirement.
//
// The function locates a nickname column ("nickname" or "name") and a
// Discord column ("discordid" or "discord_id"), both case-insensitive. If
// either is missing the input is returned unchanged: normalization is
// best-effort and row validation downstream is authoritative. When both are
// present, each data row with an empty or whitespace-only nickname and a
// non-empty Discord cell gets the Discord value copied into the nickname
// cell. A non-empty nickname is never overwritten and no value is invented
// when both cells are empty. No other cell is altered.
//
// Blank and whitespace-only lines are dropped. The header line is emitted
// verbatim; data rows are re-serialized with standard CSV quoting and joined
// with "\n", no trailing newline.
//
// Normalize is a pure function. It returns an error only for syntactically
// broken CSV (an unterminated quote); guessing at broken quoting would
// corrupt cells silently, so it is rejected instead.
func Normalize(csvText string) (string, error) {
	r := csv.NewReader(strings.NewReader(csvText))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		// No header at all, nothing to normalize.
		return csvText, nil
	}
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	headerEnd := r.InputOffset()

	nickIdx := findColumn(header, nicknameAliases)
	discIdx := findColumn(header, discordAliases)
	if nickIdx < 0 || discIdx < 0 {
		return csvText, nil
	}

	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}

	kept := make([][]string, 0, len(records))
	for _, rec := range records {
		if isBlankRecord(rec) {
			continue
		}
		// Ragged short rows that miss either column are left alone here;
		// the importer reports their width separately.
		if nickIdx < len(rec) && discIdx < len(rec) {
			if strings.TrimSpace(rec[nickIdx]) == "" && strings.TrimSpace(rec[discIdx]) != "" {
				rec[nickIdx] = rec[discIdx]
			}
		}
		kept = append(kept, rec)
	}

	var rows strings.Builder
	w := csv.NewWriter(&rows)
	for _, rec := range kept {
		if err := w.Write(rec); err != nil {
			return "", fmt.Errorf("serialize csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("serialize csv: %w", err)
	}

	out := rawHeaderLine(csvText, headerEnd)
	if body := strings.TrimRight(rows.String(), "\n"); body != "" {
		out += "\n" + body
	}
	return out, nil
}

// cleanCSVText strips a leading UTF-8 BOM and replaces invalid byte
// sequences with the Unicode replacement character. Rosters saved from
// Windows spreadsheet tools show both problems, and the CSV parser
// downstream assumes clean UTF-8.
//
// Normalize itself stays byte-preserving, so cleaning runs once at the
// import entry point instead.
func cleanCSVText(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return s
}

// findColumn returns the index of the first header cell matching any of the
// aliases, or -1. Cells are trimmed and stripped of a UTF-8 BOM before
// comparing, since rosters exported from spreadsheet tools often carry one.
func findColumn(header []string, aliases []string) int {
	for i, cell := range header {
		name := strings.TrimSpace(strings.TrimPrefix(cell, "\uFEFF"))
		for _, alias := range aliases {
			if strings.EqualFold(name, alias) {
				return i
			}
		}
	}
	return -1
}

// isBlankRecord reports whether every cell is empty or whitespace.
// Covers both whitespace-only raw lines and rows of empty cells (",,").
func isBlankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// rawHeaderLine recovers the header's original text so it can be emitted
// verbatim, byte offset end marking where the reader finished the header
// record. Trailing line terminators and any blank lines the reader skipped
// before the header are removed.
func rawHeaderLine(input string, end int64) string {
	raw := strings.TrimRight(input[:end], "\r\n")
	lines := strings.Split(raw, "\n")
	for len(lines) > 1 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}
