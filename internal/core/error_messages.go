// error_messages.go maps technical errors to user-facing messages.
//
// League admins are not developers: a pgx constraint violation or a csv
// tokenizer error means nothing to them, and leaking internals is worse than
// saying nothing. Every error that reaches a user passes through MapError,
// which scans an ordered pattern table and returns a fixed message, action
// and support code.
//
// Code ranges:
//
//	CSV001-CSV099   CSV parse and shape errors
//	VAL001-VAL099   field validation errors
//	IMP001-IMP099   import lifecycle errors
//	DB001-DB099     storage errors
//	NET001-NET099   network errors
//	SRV001          upstream server fault
//	AUTH001-AUTH099 authentication errors
//	LG001-LG099     entity lookup errors
//	RATE001         request throttling
//	ERR000          fallback for anything unmatched
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns sit before general ones. When a user
// reports ERR000, the original technical error is in the server logs keyed
// by request ID.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error substrings (case-insensitive) to user
// messages. First match wins: keep specific patterns before general ones.
var errorPatterns = []errorPattern{
	// =========================================================================
	// CSV parse and shape errors (CSV001-CSV005)
	// =========================================================================
	{
		pattern: "in quoted-field",
		msg: UserMessage{
			Message: "The CSV file appears to be malformed",
			Action:  "Check for an unclosed quote and re-export the file",
			Code:    "CSV001",
		},
	},
	{
		pattern: "in non-quoted-field",
		msg: UserMessage{
			Message: "The CSV file appears to be malformed",
			Action:  "Check for a stray quote and re-export the file",
			Code:    "CSV001",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "The CSV file appears to be malformed",
			Action:  "Check the file format and try again",
			Code:    "CSV001",
		},
	},
	{
		pattern: "csv is empty",
		msg: UserMessage{
			Message: "The CSV has no data rows",
			Action:  "Add at least one driver row below the header",
			Code:    "CSV002",
		},
	},
	{
		pattern: "missing a nickname column",
		msg: UserMessage{
			Message: "The CSV has no nickname column",
			Action:  "Add a Nickname column or download the example file",
			Code:    "CSV003",
		},
	},
	{
		pattern: "too many rows",
		msg: UserMessage{
			Message: "The CSV has more rows than a single import allows",
			Action:  "Split the roster into smaller files",
			Code:    "CSV004",
		},
	},
	{
		pattern: "csv data too large",
		msg: UserMessage{
			Message: "The CSV is too large to import",
			Action:  "Split the roster into smaller files",
			Code:    "CSV005",
		},
	},

	// =========================================================================
	// Field validation errors (VAL001-VAL003)
	// =========================================================================
	{
		pattern: "is not a number",
		msg: UserMessage{
			Message: "A number column contains a non-numeric value",
			Action:  "Remove letters and symbols from number columns",
			Code:    "VAL001",
		},
	},
	{
		pattern: "nickname is required",
		msg: UserMessage{
			Message: "A driver row is missing its nickname",
			Action:  "Fill in the Nickname column or provide a Discord ID",
			Code:    "VAL002",
		},
	},
	{
		pattern: "driver number must be",
		msg: UserMessage{
			Message: "A driver number is out of range",
			Action:  "Use a whole number between 1 and 999, or leave it empty",
			Code:    "VAL003",
		},
	},

	// =========================================================================
	// Import lifecycle errors (IMP001-IMP005)
	// =========================================================================
	{
		pattern: "import already in progress",
		msg: UserMessage{
			Message: "An import is already running for this league",
			Action:  "Wait for the current import to finish",
			Code:    "IMP001",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "The system is busy with other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "import session not found",
		msg: UserMessage{
			Message: "No import result is available for this league",
			Action:  "The result may have expired. Start a new import",
			Code:    "IMP003",
		},
	},
	{
		pattern: "import cancelled",
		msg: UserMessage{
			Message: "The import was cancelled",
			Action:  "Start a new import when ready",
			Code:    "IMP004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "IMP004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The import timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "IMP005",
		},
	},

	// =========================================================================
	// Storage errors (DB001-DB005)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "This driver already exists in the roster",
			Action:  "Review the roster for duplicate entries",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Review your data for duplicate values",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Review your data for duplicate values",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "A referenced record does not exist",
			Action:  "Make sure the league still exists and try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "failed to connect",
		msg: UserMessage{
			Message: "Unable to reach the database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "The database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},

	// =========================================================================
	// Network errors (NET001-NET003, SRV001)
	// Fixed phrasing, matched by the front-end's copy.
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the server. Please check your internet connection.",
			Action:  "Retry once your connection is back",
			Code:    "NET001",
		},
	},
	{
		pattern: "no such host",
		msg: UserMessage{
			Message: "Unable to connect to the server. Please check your internet connection.",
			Action:  "Retry once your connection is back",
			Code:    "NET001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The connection was interrupted",
			Action:  "Please try again",
			Code:    "NET002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Please try again",
			Code:    "NET003",
		},
	},
	{
		pattern: "internal server error",
		msg: UserMessage{
			Message: "A server error occurred. Please try again later.",
			Action:  "Contact your league admin if this keeps happening",
			Code:    "SRV001",
		},
	},
	{
		pattern: "status 500",
		msg: UserMessage{
			Message: "A server error occurred. Please try again later.",
			Action:  "Contact your league admin if this keeps happening",
			Code:    "SRV001",
		},
	},

	// =========================================================================
	// Authentication errors (AUTH001-AUTH002)
	// =========================================================================
	{
		pattern: "not authenticated",
		msg: UserMessage{
			Message: "You are not signed in",
			Action:  "Sign in with Discord and try again",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "session expired",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Sign in with Discord again",
			Code:    "AUTH002",
		},
	},

	// =========================================================================
	// Entity lookup errors (LG001-LG003)
	// =========================================================================
	{
		pattern: "league not found",
		msg: UserMessage{
			Message: "League not found",
			Action:  "Check the league and try again",
			Code:    "LG001",
		},
	},
	{
		pattern: "driver not found",
		msg: UserMessage{
			Message: "Driver not found",
			Action:  "The driver may have been removed. Refresh the roster",
			Code:    "LG002",
		},
	},
	{
		pattern: "unknown platform",
		msg: UserMessage{
			Message: "This platform is not supported",
			Action:  "Pick a platform from the supported list",
			Code:    "LG003",
		},
	},
	{
		pattern: "slug already in use",
		msg: UserMessage{
			Message: "That web address is already taken",
			Action:  "Pick a different slug for this league",
			Code:    "LG004",
		},
	},
	{
		pattern: "competition not found",
		msg: UserMessage{
			Message: "Competition not found",
			Action:  "Check the competition and try again",
			Code:    "LG005",
		},
	},
	{
		pattern: "season not found",
		msg: UserMessage{
			Message: "Season not found",
			Action:  "Check the season and try again",
			Code:    "LG006",
		},
	},

	// =========================================================================
	// Rate limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support checks the server logs for the original error when a user reports
// this code.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact your league admin",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches the known patterns case-insensitively and returns the first
// match; anything unmatched gets the generic ERR000 fallback.
//
//	err := errors.New("duplicate key violation")
//	msg := MapError(err)
//	// msg.Code == "DB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether an error matches a known pattern rather than
// falling through to ERR000. Callers use it to decide between showing the
// mapped message directly and logging the technical error first.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message. The
// technical error stays reachable for logging via Unwrap while Error()
// returns only the clean message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError wraps a technical error with its mapped user message.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
