// Package store persists leagues, rosters and audit history.
//
// Store is the single data access interface; Postgres backs production and
// Memory backs tests and local development. Both enforce the same lookup
// errors so the service layer never branches on the backend.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Lookup and constraint errors shared by all backends. The messages are part
// of the user-facing error mapping, keep them stable.
var (
	ErrLeagueNotFound      = errors.New("league not found")
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrSeasonNotFound      = errors.New("season not found")
	ErrDriverNotFound      = errors.New("driver not found")
	ErrSlugTaken           = errors.New("league slug already in use")
)

// ListParams controls list queries: optional case-insensitive search,
// 1-based page, page size and a whitelisted sort column.
type ListParams struct {
	Search  string
	Page    int
	PerPage int
	Sort    string
	Order   string
}

// Defaults and bounds for list queries.
const (
	DefaultPerPage = 25
	MaxPerPage     = 100
)

// Clamp normalizes paging values in place: page floors at 1, per-page
// defaults to DefaultPerPage and caps at MaxPerPage, order falls back to
// "asc" unless explicitly "desc".
func (p *ListParams) Clamp() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if p.Order != "desc" {
		p.Order = "asc"
	}
}

// Offset returns the row offset for the current page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is one page of a list result plus the pagination envelope the API
// returns: items, total row count and derived page math.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

// NewPage assembles the pagination envelope for items counted against total.
func NewPage[T any](items []T, total int64, p ListParams) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if total > 0 {
		pages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: pages,
	}
}

// Store is the data access interface for the whole service.
type Store interface {
	// Leagues
	CreateLeague(ctx context.Context, l League) (League, error)
	GetLeague(ctx context.Context, id uuid.UUID) (League, error)
	GetLeagueBySlug(ctx context.Context, slug string) (League, error)
	ListLeagues(ctx context.Context, p ListParams) (Page[League], error)
	ListPublicLeagues(ctx context.Context) ([]League, error)
	UpdateLeague(ctx context.Context, l League) (League, error)
	DeleteLeague(ctx context.Context, id uuid.UUID) error

	// Competitions
	CreateCompetition(ctx context.Context, c Competition) (Competition, error)
	GetCompetition(ctx context.Context, id uuid.UUID) (Competition, error)
	ListCompetitions(ctx context.Context, leagueID uuid.UUID, p ListParams) (Page[Competition], error)
	UpdateCompetition(ctx context.Context, c Competition) (Competition, error)
	DeleteCompetition(ctx context.Context, id uuid.UUID) error

	// Seasons
	CreateSeason(ctx context.Context, s Season) (Season, error)
	GetSeason(ctx context.Context, id uuid.UUID) (Season, error)
	ListSeasons(ctx context.Context, competitionID uuid.UUID, p ListParams) (Page[Season], error)
	UpdateSeason(ctx context.Context, s Season) (Season, error)
	DeleteSeason(ctx context.Context, id uuid.UUID) error

	// Drivers
	CreateDriver(ctx context.Context, d Driver) (Driver, error)
	GetDriver(ctx context.Context, id uuid.UUID) (Driver, error)
	ListDrivers(ctx context.Context, leagueID uuid.UUID, p ListParams) (Page[Driver], error)
	DriversByLeague(ctx context.Context, leagueID uuid.UUID) ([]Driver, error)
	UpdateDriver(ctx context.Context, d Driver) (Driver, error)
	DeleteDriver(ctx context.Context, id uuid.UUID) error
	DeleteLeagueDrivers(ctx context.Context, leagueID uuid.UUID) (int64, error)

	// Site configuration
	GetSiteConfig(ctx context.Context) (SiteConfig, error)
	UpdateSiteConfig(ctx context.Context, c SiteConfig) (SiteConfig, error)

	// Audit history
	InsertAudit(ctx context.Context, e AuditEntry) error
	ListAudit(ctx context.Context, p ListParams) (Page[AuditEntry], error)
	DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close()
}

// DefaultSiteConfig is returned before an admin has saved any site settings.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		SiteName:    "Virtual Racing Leagues",
		Tagline:     "Organized sim racing for everyone",
		WelcomeText: "Welcome to our racing community.",
	}
}
