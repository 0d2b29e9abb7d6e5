package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// Default limits applied when ImportLimits fields are zero.
const (
	DefaultMaxCSVBytes   = 2 << 20
	DefaultMaxImportRows = 2000

	// Driver numbers follow common sim-racing rules: 0-999 inclusive.
	MaxDriverNumber = 999
)

// Fatal import errors. These abort the whole submission; nothing is
// written and no per-row report is produced.
var (
	ErrEmptyCSV              = errors.New("csv is empty")
	ErrMissingNicknameColumn = errors.New("csv is missing a nickname column")
)

// ImportLimits bounds a single roster submission.
type ImportLimits struct {
	MaxBytes int
	MaxRows  int
}

func (l ImportLimits) withDefaults() ImportLimits {
	if l.MaxBytes <= 0 {
		l.MaxBytes = DefaultMaxCSVBytes
	}
	if l.MaxRows <= 0 {
		l.MaxRows = DefaultMaxImportRows
	}
	return l
}

// ImportPlan is the outcome of validating a roster CSV against a league.
// NewDrivers holds the rows that passed validation and did not match an
// existing driver; Summary reports everything row by row.
type ImportPlan struct {
	Summary    ImportSummary
	NewDrivers []store.Driver
	TotalRows  int
}

// rosterIndex answers "have we seen this identity before" for both the
// league's existing roster and the rows accepted earlier in the same file.
type rosterIndex struct {
	nicknames map[string]struct{}
	discord   map[string]struct{}
	platform  map[string]struct{}
}

func newRosterIndex() *rosterIndex {
	return &rosterIndex{
		nicknames: make(map[string]struct{}),
		discord:   make(map[string]struct{}),
		platform:  make(map[string]struct{}),
	}
}

func platformKey(field, value string) string {
	return field + "\x00" + strings.ToLower(value)
}

func (idx *rosterIndex) add(d store.Driver) {
	if d.Nickname != "" {
		idx.nicknames[strings.ToLower(d.Nickname)] = struct{}{}
	}
	if d.DiscordID != "" {
		idx.discord[strings.ToLower(d.DiscordID)] = struct{}{}
	}
	for field, value := range d.PlatformIDs {
		if value != "" {
			idx.platform[platformKey(field, value)] = struct{}{}
		}
	}
}

// matches reports whether the driver shares any identity (nickname,
// Discord ID or platform ID) with a previously indexed driver.
func (idx *rosterIndex) matches(d store.Driver) bool {
	if d.Nickname != "" {
		if _, ok := idx.nicknames[strings.ToLower(d.Nickname)]; ok {
			return true
		}
	}
	if d.DiscordID != "" {
		if _, ok := idx.discord[strings.ToLower(d.DiscordID)]; ok {
			return true
		}
	}
	for field, value := range d.PlatformIDs {
		if value == "" {
			continue
		}
		if _, ok := idx.platform[platformKey(field, value)]; ok {
			return true
		}
	}
	return false
}

// canonicalField reduces a header cell or field key to a comparable
// form: "PsnId", "psn_id" and " PSN_ID " all become "psnid".
func canonicalField(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "\uFEFF")
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", "")
}

// resolveColumns maps each spec field to its column index in the header,
// accepting both the snake_case key and its display form. Missing fields
// are simply absent from the result.
func resolveColumns(header []string, specs []HeaderSpec) map[string]int {
	byCanonical := make(map[string]int, len(header))
	for i, cell := range header {
		key := canonicalField(cell)
		if _, exists := byCanonical[key]; !exists {
			byCanonical[key] = i
		}
	}

	cols := make(map[string]int, len(specs))
	for _, spec := range specs {
		if i, ok := byCanonical[canonicalField(spec.Field)]; ok {
			cols[spec.Field] = i
		}
	}
	return cols
}

// PlanImport validates a roster CSV against a league and its existing
// drivers without writing anything. The input is normalized first, so a
// blank nickname with a Discord ID present is treated as valid.
//
// Row numbering in the summary counts the header as row 1; the first
// data row is row 2.
func PlanImport(csvText string, league store.League, existing []store.Driver, limits ImportLimits) (ImportPlan, error) {
	limits = limits.withDefaults()

	if len(csvText) > limits.MaxBytes {
		return ImportPlan{}, fmt.Errorf("csv data too large: %d bytes (limit %d)", len(csvText), limits.MaxBytes)
	}

	normalized, err := Normalize(cleanCSVText(csvText))
	if err != nil {
		return ImportPlan{}, err
	}

	r := csv.NewReader(strings.NewReader(normalized))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return ImportPlan{}, fmt.Errorf("parse csv: %w", err)
	}

	rows := records[:0:0]
	for _, rec := range records {
		if !isBlankRecord(rec) {
			rows = append(rows, rec)
		}
	}
	if len(rows) < 2 {
		return ImportPlan{}, ErrEmptyCSV
	}

	header, data := rows[0], rows[1:]
	if len(data) > limits.MaxRows {
		return ImportPlan{}, fmt.Errorf("too many rows: %d (limit %d)", len(data), limits.MaxRows)
	}

	nickCol := findColumn(header, nicknameAliases)
	if nickCol < 0 {
		return ImportPlan{}, ErrMissingNicknameColumn
	}
	discordCol := findColumn(header, discordAliases)

	platformSpecs := HeaderSpecsFor(league.Platforms)
	platformCols := resolveColumns(header, platformSpecs)
	numberCols := resolveColumns(header, []HeaderSpec{
		{Field: ColumnDriverNumber, Type: FieldTypeNumber},
	})
	numberCol, hasNumberCol := numberCols[ColumnDriverNumber]

	seen := newRosterIndex()
	for _, d := range existing {
		seen.add(d)
	}
	inFile := newRosterIndex()

	plan := ImportPlan{TotalRows: len(data)}
	addErr := func(row int, msg string) {
		plan.Summary.Errors = append(plan.Summary.Errors, ImportRowError{Row: row, Message: msg})
	}

	for i, rec := range data {
		rowNum := i + 2

		if len(rec) != len(header) {
			addErr(rowNum, fmt.Sprintf("expected %d columns, got %d", len(header), len(rec)))
			continue
		}

		cell := func(col int) string {
			return strings.TrimSpace(rec[col])
		}

		nickname := cell(nickCol)
		if nickname == "" {
			addErr(rowNum, "nickname is required")
			continue
		}

		d := store.Driver{
			LeagueID: league.ID,
			Nickname: nickname,
		}
		if discordCol >= 0 {
			d.DiscordID = cell(discordCol)
		}

		if hasNumberCol {
			raw := cell(numberCol)
			if raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil {
					addErr(rowNum, fmt.Sprintf("%s is not a number: %q", ColumnDriverNumber, raw))
					continue
				}
				if n < 0 || n > MaxDriverNumber {
					addErr(rowNum, fmt.Sprintf("driver number must be between 0 and %d", MaxDriverNumber))
					continue
				}
				d.DriverNumber = &n
			}
		}

		rowErr := ""
		for _, spec := range platformSpecs {
			col, ok := platformCols[spec.Field]
			if !ok {
				continue
			}
			value := NormalizeValue(spec.Field, rec[col])
			if value == "" {
				continue
			}
			if spec.Type == FieldTypeNumber {
				if _, err := strconv.ParseInt(value, 10, 64); err != nil {
					rowErr = fmt.Sprintf("%s is not a number: %q", DisplayName(spec.Field), value)
					break
				}
			}
			if d.PlatformIDs == nil {
				d.PlatformIDs = make(map[string]string)
			}
			d.PlatformIDs[spec.Field] = value
		}
		if rowErr != "" {
			addErr(rowNum, rowErr)
			continue
		}

		if seen.matches(d) {
			plan.Summary.SkippedCount++
			continue
		}
		if inFile.matches(d) {
			addErr(rowNum, fmt.Sprintf("duplicate driver %q in file", nickname))
			continue
		}

		inFile.add(d)
		plan.NewDrivers = append(plan.NewDrivers, d)
		plan.Summary.SuccessCount++
	}

	// Clients key the dialog's auto-dismiss on errors being an empty
	// array, so never serialize null here.
	if plan.Summary.Errors == nil {
		plan.Summary.Errors = []ImportRowError{}
	}
	return plan, nil
}

// Preview condenses a plan into counts plus a bounded error sample for
// the dry-run endpoint.
func (p ImportPlan) Preview() ImportPreview {
	errs := p.Summary.Errors
	if len(errs) > PreviewErrorSample {
		errs = errs[:PreviewErrorSample]
	}
	sample := make([]ImportRowError, len(errs))
	copy(sample, errs)

	return ImportPreview{
		TotalRows:   p.TotalRows,
		NewRows:     p.Summary.SuccessCount,
		SkippedRows: p.Summary.SkippedCount,
		ErrorRows:   len(p.Summary.Errors),
		Errors:      sample,
	}
}
