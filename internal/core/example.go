package core

import (
	"encoding/csv"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// fallbackExample is served when a league has no platform columns yet.
// The platform headers endpoint fills in asynchronously, so an empty spec
// list is a normal state, not an error.
const fallbackExample = "Nickname,DriverNumber\n" +
	"Max Power,27\n" +
	"Jane Doe,14\n" +
	"Alex Mercer,"

// DisplayName converts a snake_case field name to the PascalCase column
// label used in roster CSV headers: "psn_id" becomes "PsnId".
func DisplayName(field string) string {
	var b strings.Builder
	for _, part := range strings.Split(field, "_") {
		if part == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(strings.ToLower(part[size:]))
	}
	return b.String()
}

// FullHeaders returns the complete roster CSV header for a league:
// Nickname, DiscordID, the platform identity columns in league order, then
// DriverNumber.
func FullHeaders(specs []HeaderSpec) []string {
	headers := make([]string, 0, len(specs)+3)
	headers = append(headers, ColumnNickname, ColumnDiscordID)
	for _, s := range specs {
		headers = append(headers, DisplayName(s.Field))
	}
	return append(headers, ColumnDriverNumber)
}

// MinimalHeaders returns the smallest accepted header set: Nickname plus the
// platform identity columns.
func MinimalHeaders(specs []HeaderSpec) []string {
	headers := make([]string, 0, len(specs)+1)
	headers = append(headers, ColumnNickname)
	for _, s := range specs {
		headers = append(headers, DisplayName(s.Field))
	}
	return headers
}

// MinimalHeaderCSV renders MinimalHeaders as a single CSV line.
func MinimalHeaderCSV(specs []HeaderSpec) string {
	return writeCSVLines([][]string{MinimalHeaders(specs)})
}

// ExampleCSV builds the downloadable example roster for a league: the full
// header plus exactly three data rows demonstrating the accepted optionality
// patterns. Row one has nickname and Discord ID, row two only a Discord ID
// (the nickname fallback case), row three only a nickname and an empty
// driver number. Output is deterministic: the same specs always produce
// byte-identical text.
func ExampleCSV(specs []HeaderSpec) string {
	if len(specs) == 0 {
		return fallbackExample
	}

	rows := [][]string{
		FullHeaders(specs),
		exampleRow(specs, 1, "Max Power", "maxp#0117", "27"),
		exampleRow(specs, 2, "", "turbo#4455", "14"),
		exampleRow(specs, 3, "Jane Doe", "", ""),
	}
	return writeCSVLines(rows)
}

func exampleRow(specs []HeaderSpec, n int, nickname, discord, number string) []string {
	row := make([]string, 0, len(specs)+3)
	row = append(row, nickname, discord)
	for _, s := range specs {
		row = append(row, placeholder(s, n))
	}
	return append(row, number)
}

// placeholder produces a plausible cell value for one platform field.
// Number fields get digits so the example passes the importer's type check.
func placeholder(spec HeaderSpec, row int) string {
	if spec.Type == FieldTypeNumber {
		return strconv.Itoa(100000 + row)
	}
	return fmt.Sprintf("%s_%02d", spec.Field, row)
}

func writeCSVLines(rows [][]string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	for _, row := range rows {
		// Write to a strings.Builder cannot fail.
		_ = w.Write(row)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// ExampleCache memoizes ExampleCSV output keyed by a stable hash of the spec
// list. League pages request the example on every render; generation is
// cheap but the set of distinct spec lists is tiny, so caching keeps it at a
// map lookup.
type ExampleCache struct {
	mu      sync.Mutex
	entries map[uint64]string
}

// NewExampleCache returns an empty cache.
func NewExampleCache() *ExampleCache {
	return &ExampleCache{entries: make(map[uint64]string)}
}

// Example returns the memoized example roster for the given specs.
func (c *ExampleCache) Example(specs []HeaderSpec) string {
	key := hashSpecs(specs)

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		return v
	}
	v := ExampleCSV(specs)
	c.entries[key] = v
	return v
}

// Len returns the number of cached examples.
func (c *ExampleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all cached examples.
func (c *ExampleCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]string)
}

// hashSpecs builds a stable key over field, label and type of each spec.
// Cell values never enter the key, only the schema.
func hashSpecs(specs []HeaderSpec) uint64 {
	h := fnv.New64a()
	for _, s := range specs {
		h.Write([]byte(s.Field))
		h.Write([]byte{0})
		h.Write([]byte(s.Label))
		h.Write([]byte{0})
		h.Write([]byte(s.Type))
		h.Write([]byte{0x1e})
	}
	return h.Sum64()
}
