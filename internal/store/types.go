package store

import (
	"time"

	"github.com/google/uuid"
)

// League visibility values.
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
)

// Competition status values.
const (
	CompetitionActive   = "active"
	CompetitionArchived = "archived"
)

// Season status values.
const (
	SeasonDraft    = "draft"
	SeasonActive   = "active"
	SeasonArchived = "archived"
)

// League is the top-level entity: one racing community with its own roster,
// competitions and branding. Platforms holds the ordered keys of the sim
// platforms the league races on; the roster CSV columns derive from it.
type League struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Platforms   []string  `json:"platforms"`
	Visibility  string    `json:"visibility"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Competition groups seasons under a league, typically one per game or car
// class ("F1 Division", "GT3 Endurance").
type Competition struct {
	ID        uuid.UUID `json:"id"`
	LeagueID  uuid.UUID `json:"league_id"`
	Name      string    `json:"name"`
	Game      string    `json:"game"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Season is one run of a competition. Ordinal orders seasons within their
// competition; Status is one of the Season* constants.
type Season struct {
	ID            uuid.UUID `json:"id"`
	CompetitionID uuid.UUID `json:"competition_id"`
	Name          string    `json:"name"`
	Ordinal       int       `json:"ordinal"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Driver is one roster member of a league. PlatformIDs maps platform field
// names ("psn_id") to the driver's identity on that platform. DriverNumber
// is nil when the driver has not claimed a number.
type Driver struct {
	ID           uuid.UUID         `json:"id"`
	LeagueID     uuid.UUID         `json:"league_id"`
	Nickname     string            `json:"nickname"`
	DiscordID    string            `json:"discord_id"`
	DriverNumber *int              `json:"driver_number"`
	PlatformIDs  map[string]string `json:"platform_ids"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// SiteConfig is the singleton public-site configuration.
type SiteConfig struct {
	SiteName      string    `json:"site_name"`
	Tagline       string    `json:"tagline"`
	WelcomeText   string    `json:"welcome_text"`
	ContactEmail  string    `json:"contact_email"`
	DiscordInvite string    `json:"discord_invite"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AuditEntry records one administrative action. LeagueID is nil for actions
// that are not scoped to a league (site config changes). Details carries a
// free-form JSON blob with action-specific context.
type AuditEntry struct {
	ID           uuid.UUID  `json:"id"`
	Action       string     `json:"action"`
	Severity     string     `json:"severity"`
	LeagueID     *uuid.UUID `json:"league_id,omitempty"`
	Actor        string     `json:"actor"`
	IPAddress    string     `json:"ip_address"`
	UserAgent    string     `json:"user_agent"`
	Details      string     `json:"details"`
	RowsAffected int        `json:"rows_affected"`
	CreatedAt    time.Time  `json:"created_at"`
}
