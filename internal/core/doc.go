// Package core provides the business logic for league roster management.
//
// This package is the heart of the server, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Platforms: Registered via the registry, each sim racing platform
//     contributes header specs and value normalizers to roster CSVs.
//   - Service: The main entry point for all operations (leagues, rosters,
//     imports, site configuration).
//   - Import Sessions: Per-league state machines tracking an import from
//     start through success, partial success, or failure.
//   - Audit: Logging of all data modifications with severity levels.
//
// # Platform Registry
//
// Platforms are registered at init time using [Register]. Each [Platform]
// contributes the CSV columns a league using that platform expects:
//
//	core.Register(core.Platform{
//	    Key:   "psn",
//	    Label: "PlayStation Network",
//	    Headers: []HeaderSpec{
//	        {Field: "psn_id", Label: "PSN ID", Type: FieldTypeText},
//	    },
//	})
//
// # Roster Import
//
// Imports run synchronously within a single request. The flow is:
//
//  1. Client calls [Service.ImportRoster] with raw CSV text
//  2. The CSV is normalized: missing nicknames are filled from Discord IDs
//  3. Rows are validated against the league's platform header specs
//  4. Rows matching existing drivers are skipped, new drivers are inserted
//  5. The resulting [ImportSummary] is recorded on the league's session
//
// A league has at most one import running at a time, and a global limiter
// bounds concurrent imports across leagues.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CSV001-CSV005: CSV parse and shape errors (malformed, empty, too large)
//   - VAL001-VAL003: Validation errors (non-numeric values, missing nickname)
//   - IMP001-IMP005: Import lifecycle errors (in progress, cancelled, timeout)
//   - DB001-DB005: Database errors (duplicates, constraints, connections)
//   - LG001-LG006: Entity lookup errors (league, driver, platform, slug)
//
// # Audit Logging
//
// All data modifications are recorded in the audit log with severity levels:
//
//   - Low: Site configuration changes
//   - Medium: League, competition, season and driver edits
//   - High: Roster imports, league and driver deletions
//   - Critical: Roster resets
//
// Old audit entries are deleted automatically based on the configured
// retention policy.
package core
