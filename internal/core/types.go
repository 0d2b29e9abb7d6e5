package core

import (
	"time"

	"github.com/google/uuid"
)

// FieldType classifies a platform identity column for example generation and
// row validation.
const (
	FieldTypeText   = "text"
	FieldTypeNumber = "number"
)

// HeaderSpec describes one platform identity column in a league's roster CSV.
// Field is the snake_case machine name ("psn_id"), Label the human name
// shown in the admin UI, Type one of FieldTypeText or FieldTypeNumber.
type HeaderSpec struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Platform defines a sim racing platform and the identity columns drivers on
// that platform carry. Platforms are registered once at init time via
// Register; a league references them by Key.
type Platform struct {
	// Key is the stable identifier stored on leagues ("psn", "iracing", ...).
	Key string

	// Label is the display name ("PlayStation Network").
	Label string

	// Headers are the identity columns, in roster CSV order.
	Headers []HeaderSpec

	// Normalizer optionally cleans a raw cell value for one of this
	// platform's fields before it is stored. Nil means store as-is (trimmed).
	Normalizer func(field, value string) string
}

// Fixed roster columns that frame the per-platform identity columns.
const (
	ColumnNickname     = "Nickname"
	ColumnDiscordID    = "DiscordID"
	ColumnDriverNumber = "DriverNumber"
)

// ImportRowError reports one rejected roster row. Row is 1-based counting the
// header line as row 1, so the first data row is row 2. Message is surfaced
// to the user verbatim.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary is the result of a roster import. Rows either create a
// driver (SuccessCount), match an existing driver and are skipped
// (SkippedCount), or fail validation (Errors). The JSON field names are the
// import API contract.
type ImportSummary struct {
	SuccessCount int              `json:"success_count"`
	SkippedCount int              `json:"skipped_count"`
	Errors       []ImportRowError `json:"errors"`
}

// Clean reports whether the import finished without row errors.
func (s *ImportSummary) Clean() bool {
	return s != nil && len(s.Errors) == 0
}

// ImportState is the lifecycle state of a league's import session.
type ImportState string

const (
	// StateIdle means no import is running and no result is pending.
	StateIdle ImportState = "idle"

	// StateImporting means an import is in flight; a second import for the
	// same league is rejected until it finishes.
	StateImporting ImportState = "importing"

	// StateSuccess means the import finished with zero row errors.
	// Success sessions dismiss themselves after a short delay.
	StateSuccess ImportState = "success"

	// StatePartialSuccess means some rows landed and some failed. The
	// session stays until acknowledged so the errors remain visible.
	StatePartialSuccess ImportState = "partial_success"

	// StateFailed means the import aborted before producing results, or
	// every row failed.
	StateFailed ImportState = "failed"
)

// SessionSnapshot is a point-in-time view of an import session, served by the
// import status endpoint.
type SessionSnapshot struct {
	ID         uuid.UUID      `json:"id"`
	LeagueID   uuid.UUID      `json:"league_id"`
	State      ImportState    `json:"state"`
	Summary    *ImportSummary `json:"summary,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// ImportPreview reports what an import would do without writing anything.
type ImportPreview struct {
	TotalRows   int              `json:"total_rows"`
	NewRows     int              `json:"new_rows"`
	SkippedRows int              `json:"skipped_rows"`
	ErrorRows   int              `json:"error_rows"`
	Errors      []ImportRowError `json:"errors"`
}

// PreviewErrorSample caps how many row errors a preview carries back.
const PreviewErrorSample = 20
