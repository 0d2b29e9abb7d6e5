package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool. Callers own the pool lifecycle;
// Close releases it.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS leagues (
	id UUID PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	platforms TEXT[] NOT NULL DEFAULT '{}',
	visibility TEXT NOT NULL DEFAULT 'public',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS competitions (
	id UUID PRIMARY KEY,
	league_id UUID NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	game TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS seasons (
	id UUID PRIMARY KEY,
	competition_id UUID NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	ordinal INTEGER NOT NULL DEFAULT 1,
	status TEXT NOT NULL DEFAULT 'draft',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS drivers (
	id UUID PRIMARY KEY,
	league_id UUID NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
	nickname TEXT NOT NULL,
	discord_id TEXT NOT NULL DEFAULT '',
	driver_number INTEGER,
	platform_ids JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS site_config (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	site_name TEXT NOT NULL,
	tagline TEXT NOT NULL DEFAULT '',
	welcome_text TEXT NOT NULL DEFAULT '',
	contact_email TEXT NOT NULL DEFAULT '',
	discord_invite TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_log (
	id UUID PRIMARY KEY,
	action TEXT NOT NULL,
	severity TEXT NOT NULL,
	league_id UUID,
	actor TEXT NOT NULL DEFAULT '',
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	details TEXT NOT NULL DEFAULT '',
	rows_affected INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_competitions_league_id ON competitions(league_id);
CREATE INDEX IF NOT EXISTS idx_seasons_competition_id ON seasons(competition_id);
CREATE INDEX IF NOT EXISTS idx_drivers_league_id ON drivers(league_id);
CREATE INDEX IF NOT EXISTS idx_drivers_nickname ON drivers(league_id, nickname);
CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
`

// Migrate creates the schema if it does not exist. Idempotent, safe to
// run on every startup.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func toPgUUIDPtr(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func fromPgUUID(u pgtype.UUID) uuid.UUID {
	if !u.Valid {
		return uuid.Nil
	}
	return uuid.UUID(u.Bytes)
}

func toPgInt4Ptr(n *int) pgtype.Int4 {
	if n == nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(*n), Valid: true}
}

func fromPgInt4(n pgtype.Int4) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// orderClause builds an ORDER BY from a whitelisted column map so user
// input never reaches the SQL text directly.
func orderClause(p ListParams, allowed map[string]string, fallback string) string {
	col, ok := allowed[p.Sort]
	if !ok {
		col = fallback
	}
	dir := "ASC"
	if p.Order == "desc" {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", col, dir)
}

// ---------------------------------------------------------------------------
// Leagues

const leagueColumns = "id, slug, name, description, platforms, visibility, created_at, updated_at"

func scanLeague(row pgx.Row) (League, error) {
	var (
		l  League
		id pgtype.UUID
	)
	err := row.Scan(&id, &l.Slug, &l.Name, &l.Description, &l.Platforms, &l.Visibility, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return League{}, err
	}
	l.ID = fromPgUUID(id)
	return l, nil
}

func (p *Postgres) CreateLeague(ctx context.Context, l League) (League, error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO leagues (id, slug, name, description, platforms, visibility)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+leagueColumns,
		toPgUUID(l.ID), l.Slug, l.Name, l.Description, l.Platforms, l.Visibility)

	created, err := scanLeague(row)
	if isUniqueViolation(err) {
		return League{}, ErrSlugTaken
	}
	if err != nil {
		return League{}, fmt.Errorf("insert league: %w", err)
	}
	return created, nil
}

func (p *Postgres) GetLeague(ctx context.Context, id uuid.UUID) (League, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE id = $1`, toPgUUID(id))
	l, err := scanLeague(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return League{}, ErrLeagueNotFound
	}
	if err != nil {
		return League{}, fmt.Errorf("get league: %w", err)
	}
	return l, nil
}

func (p *Postgres) GetLeagueBySlug(ctx context.Context, slug string) (League, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE slug = $1`, slug)
	l, err := scanLeague(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return League{}, ErrLeagueNotFound
	}
	if err != nil {
		return League{}, fmt.Errorf("get league by slug: %w", err)
	}
	return l, nil
}

func (p *Postgres) ListLeagues(ctx context.Context, params ListParams) (Page[League], error) {
	params.Clamp()

	where := ""
	args := []any{}
	if params.Search != "" {
		where = "WHERE name ILIKE $1 OR slug ILIKE $1"
		args = append(args, "%"+params.Search+"%")
	}

	var total int64
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leagues "+where, args...).Scan(&total); err != nil {
		return Page[League]{}, fmt.Errorf("count leagues: %w", err)
	}

	order := orderClause(params, map[string]string{
		"name":       "lower(name)",
		"slug":       "slug",
		"created_at": "created_at",
	}, "lower(name)")

	query := fmt.Sprintf("SELECT %s FROM leagues %s %s LIMIT $%d OFFSET $%d",
		leagueColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, params.PerPage, params.Offset())

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return Page[League]{}, fmt.Errorf("list leagues: %w", err)
	}
	defer rows.Close()

	var items []League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return Page[League]{}, fmt.Errorf("scan league: %w", err)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return Page[League]{}, fmt.Errorf("list leagues: %w", err)
	}
	return NewPage(items, total, params), nil
}

func (p *Postgres) ListPublicLeagues(ctx context.Context) ([]League, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+leagueColumns+` FROM leagues WHERE visibility = $1 ORDER BY lower(name)`,
		VisibilityPublic)
	if err != nil {
		return nil, fmt.Errorf("list public leagues: %w", err)
	}
	defer rows.Close()

	var items []League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("scan league: %w", err)
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (p *Postgres) UpdateLeague(ctx context.Context, l League) (League, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE leagues
		SET slug = $2, name = $3, description = $4, platforms = $5, visibility = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+leagueColumns,
		toPgUUID(l.ID), l.Slug, l.Name, l.Description, l.Platforms, l.Visibility)

	updated, err := scanLeague(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return League{}, ErrLeagueNotFound
	}
	if isUniqueViolation(err) {
		return League{}, ErrSlugTaken
	}
	if err != nil {
		return League{}, fmt.Errorf("update league: %w", err)
	}
	return updated, nil
}

func (p *Postgres) DeleteLeague(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM leagues WHERE id = $1`, toPgUUID(id))
	if err != nil {
		return fmt.Errorf("delete league: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeagueNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Competitions

const competitionColumns = "id, league_id, name, game, status, created_at, updated_at"

func scanCompetition(row pgx.Row) (Competition, error) {
	var (
		c        Competition
		id       pgtype.UUID
		leagueID pgtype.UUID
	)
	err := row.Scan(&id, &leagueID, &c.Name, &c.Game, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Competition{}, err
	}
	c.ID = fromPgUUID(id)
	c.LeagueID = fromPgUUID(leagueID)
	return c, nil
}

func (p *Postgres) CreateCompetition(ctx context.Context, c Competition) (Competition, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO competitions (id, league_id, name, game, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+competitionColumns,
		toPgUUID(c.ID), toPgUUID(c.LeagueID), c.Name, c.Game, c.Status)

	created, err := scanCompetition(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Competition{}, ErrLeagueNotFound
		}
		return Competition{}, fmt.Errorf("insert competition: %w", err)
	}
	return created, nil
}

func (p *Postgres) GetCompetition(ctx context.Context, id uuid.UUID) (Competition, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+competitionColumns+` FROM competitions WHERE id = $1`, toPgUUID(id))
	c, err := scanCompetition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Competition{}, ErrCompetitionNotFound
	}
	if err != nil {
		return Competition{}, fmt.Errorf("get competition: %w", err)
	}
	return c, nil
}

func (p *Postgres) ListCompetitions(ctx context.Context, leagueID uuid.UUID, params ListParams) (Page[Competition], error) {
	params.Clamp()

	where := "WHERE league_id = $1"
	args := []any{toPgUUID(leagueID)}
	if params.Search != "" {
		where += " AND (name ILIKE $2 OR game ILIKE $2)"
		args = append(args, "%"+params.Search+"%")
	}

	var total int64
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM competitions "+where, args...).Scan(&total); err != nil {
		return Page[Competition]{}, fmt.Errorf("count competitions: %w", err)
	}

	order := orderClause(params, map[string]string{
		"name":       "lower(name)",
		"created_at": "created_at",
	}, "lower(name)")

	query := fmt.Sprintf("SELECT %s FROM competitions %s %s LIMIT $%d OFFSET $%d",
		competitionColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, params.PerPage, params.Offset())

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return Page[Competition]{}, fmt.Errorf("list competitions: %w", err)
	}
	defer rows.Close()

	var items []Competition
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return Page[Competition]{}, fmt.Errorf("scan competition: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return Page[Competition]{}, fmt.Errorf("list competitions: %w", err)
	}
	return NewPage(items, total, params), nil
}

func (p *Postgres) UpdateCompetition(ctx context.Context, c Competition) (Competition, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE competitions
		SET name = $2, game = $3, status = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+competitionColumns,
		toPgUUID(c.ID), c.Name, c.Game, c.Status)

	updated, err := scanCompetition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Competition{}, ErrCompetitionNotFound
	}
	if err != nil {
		return Competition{}, fmt.Errorf("update competition: %w", err)
	}
	return updated, nil
}

func (p *Postgres) DeleteCompetition(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM competitions WHERE id = $1`, toPgUUID(id))
	if err != nil {
		return fmt.Errorf("delete competition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCompetitionNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Seasons

const seasonColumns = "id, competition_id, name, ordinal, status, created_at, updated_at"

func scanSeason(row pgx.Row) (Season, error) {
	var (
		s             Season
		id            pgtype.UUID
		competitionID pgtype.UUID
	)
	err := row.Scan(&id, &competitionID, &s.Name, &s.Ordinal, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Season{}, err
	}
	s.ID = fromPgUUID(id)
	s.CompetitionID = fromPgUUID(competitionID)
	return s, nil
}

func (p *Postgres) CreateSeason(ctx context.Context, s Season) (Season, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SeasonDraft
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO seasons (id, competition_id, name, ordinal, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+seasonColumns,
		toPgUUID(s.ID), toPgUUID(s.CompetitionID), s.Name, s.Ordinal, s.Status)

	created, err := scanSeason(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Season{}, ErrCompetitionNotFound
		}
		return Season{}, fmt.Errorf("insert season: %w", err)
	}
	return created, nil
}

func (p *Postgres) GetSeason(ctx context.Context, id uuid.UUID) (Season, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE id = $1`, toPgUUID(id))
	s, err := scanSeason(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Season{}, ErrSeasonNotFound
	}
	if err != nil {
		return Season{}, fmt.Errorf("get season: %w", err)
	}
	return s, nil
}

func (p *Postgres) ListSeasons(ctx context.Context, competitionID uuid.UUID, params ListParams) (Page[Season], error) {
	params.Clamp()

	where := "WHERE competition_id = $1"
	args := []any{toPgUUID(competitionID)}
	if params.Search != "" {
		where += " AND name ILIKE $2"
		args = append(args, "%"+params.Search+"%")
	}

	var total int64
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM seasons "+where, args...).Scan(&total); err != nil {
		return Page[Season]{}, fmt.Errorf("count seasons: %w", err)
	}

	order := orderClause(params, map[string]string{
		"name":       "lower(name)",
		"ordinal":    "ordinal",
		"created_at": "created_at",
	}, "ordinal")

	query := fmt.Sprintf("SELECT %s FROM seasons %s %s LIMIT $%d OFFSET $%d",
		seasonColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, params.PerPage, params.Offset())

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return Page[Season]{}, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var items []Season
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return Page[Season]{}, fmt.Errorf("scan season: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return Page[Season]{}, fmt.Errorf("list seasons: %w", err)
	}
	return NewPage(items, total, params), nil
}

func (p *Postgres) UpdateSeason(ctx context.Context, s Season) (Season, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE seasons
		SET name = $2, ordinal = $3, status = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+seasonColumns,
		toPgUUID(s.ID), s.Name, s.Ordinal, s.Status)

	updated, err := scanSeason(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Season{}, ErrSeasonNotFound
	}
	if err != nil {
		return Season{}, fmt.Errorf("update season: %w", err)
	}
	return updated, nil
}

func (p *Postgres) DeleteSeason(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM seasons WHERE id = $1`, toPgUUID(id))
	if err != nil {
		return fmt.Errorf("delete season: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSeasonNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Drivers

const driverColumns = "id, league_id, nickname, discord_id, driver_number, platform_ids, created_at, updated_at"

func scanDriver(row pgx.Row) (Driver, error) {
	var (
		d           Driver
		id          pgtype.UUID
		leagueID    pgtype.UUID
		number      pgtype.Int4
		platformIDs []byte
	)
	err := row.Scan(&id, &leagueID, &d.Nickname, &d.DiscordID, &number, &platformIDs, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Driver{}, err
	}
	d.ID = fromPgUUID(id)
	d.LeagueID = fromPgUUID(leagueID)
	d.DriverNumber = fromPgInt4(number)
	if len(platformIDs) > 0 {
		if err := json.Unmarshal(platformIDs, &d.PlatformIDs); err != nil {
			return Driver{}, fmt.Errorf("decode platform ids: %w", err)
		}
	}
	return d, nil
}

func (p *Postgres) CreateDriver(ctx context.Context, d Driver) (Driver, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	platformIDs, err := json.Marshal(d.PlatformIDs)
	if err != nil {
		return Driver{}, fmt.Errorf("encode platform ids: %w", err)
	}
	if d.PlatformIDs == nil {
		platformIDs = []byte("{}")
	}

	row := p.pool.QueryRow(ctx, `
		INSERT INTO drivers (id, league_id, nickname, discord_id, driver_number, platform_ids)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+driverColumns,
		toPgUUID(d.ID), toPgUUID(d.LeagueID), d.Nickname, d.DiscordID, toPgInt4Ptr(d.DriverNumber), platformIDs)

	created, err := scanDriver(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Driver{}, ErrLeagueNotFound
		}
		return Driver{}, fmt.Errorf("insert driver: %w", err)
	}
	return created, nil
}

func (p *Postgres) GetDriver(ctx context.Context, id uuid.UUID) (Driver, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, toPgUUID(id))
	d, err := scanDriver(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Driver{}, ErrDriverNotFound
	}
	if err != nil {
		return Driver{}, fmt.Errorf("get driver: %w", err)
	}
	return d, nil
}

func (p *Postgres) ListDrivers(ctx context.Context, leagueID uuid.UUID, params ListParams) (Page[Driver], error) {
	params.Clamp()

	where := "WHERE league_id = $1"
	args := []any{toPgUUID(leagueID)}
	if params.Search != "" {
		where += " AND (nickname ILIKE $2 OR discord_id ILIKE $2)"
		args = append(args, "%"+params.Search+"%")
	}

	var total int64
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM drivers "+where, args...).Scan(&total); err != nil {
		return Page[Driver]{}, fmt.Errorf("count drivers: %w", err)
	}

	order := orderClause(params, map[string]string{
		"nickname":      "lower(nickname)",
		"driver_number": "driver_number",
		"created_at":    "created_at",
	}, "lower(nickname)")

	query := fmt.Sprintf("SELECT %s FROM drivers %s %s LIMIT $%d OFFSET $%d",
		driverColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, params.PerPage, params.Offset())

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return Page[Driver]{}, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	var items []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return Page[Driver]{}, fmt.Errorf("scan driver: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return Page[Driver]{}, fmt.Errorf("list drivers: %w", err)
	}
	return NewPage(items, total, params), nil
}

func (p *Postgres) DriversByLeague(ctx context.Context, leagueID uuid.UUID) ([]Driver, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+driverColumns+` FROM drivers WHERE league_id = $1 ORDER BY lower(nickname)`,
		toPgUUID(leagueID))
	if err != nil {
		return nil, fmt.Errorf("drivers by league: %w", err)
	}
	defer rows.Close()

	var items []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (p *Postgres) UpdateDriver(ctx context.Context, d Driver) (Driver, error) {
	platformIDs, err := json.Marshal(d.PlatformIDs)
	if err != nil {
		return Driver{}, fmt.Errorf("encode platform ids: %w", err)
	}
	if d.PlatformIDs == nil {
		platformIDs = []byte("{}")
	}

	row := p.pool.QueryRow(ctx, `
		UPDATE drivers
		SET nickname = $2, discord_id = $3, driver_number = $4, platform_ids = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+driverColumns,
		toPgUUID(d.ID), d.Nickname, d.DiscordID, toPgInt4Ptr(d.DriverNumber), platformIDs)

	updated, err := scanDriver(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Driver{}, ErrDriverNotFound
	}
	if err != nil {
		return Driver{}, fmt.Errorf("update driver: %w", err)
	}
	return updated, nil
}

func (p *Postgres) DeleteDriver(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM drivers WHERE id = $1`, toPgUUID(id))
	if err != nil {
		return fmt.Errorf("delete driver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDriverNotFound
	}
	return nil
}

func (p *Postgres) DeleteLeagueDrivers(ctx context.Context, leagueID uuid.UUID) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM drivers WHERE league_id = $1`, toPgUUID(leagueID))
	if err != nil {
		return 0, fmt.Errorf("delete league drivers: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Site configuration

func (p *Postgres) GetSiteConfig(ctx context.Context) (SiteConfig, error) {
	var c SiteConfig
	err := p.pool.QueryRow(ctx, `
		SELECT site_name, tagline, welcome_text, contact_email, discord_invite, updated_at
		FROM site_config WHERE id = 1`).
		Scan(&c.SiteName, &c.Tagline, &c.WelcomeText, &c.ContactEmail, &c.DiscordInvite, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSiteConfig(), nil
	}
	if err != nil {
		return SiteConfig{}, fmt.Errorf("get site config: %w", err)
	}
	return c, nil
}

func (p *Postgres) UpdateSiteConfig(ctx context.Context, c SiteConfig) (SiteConfig, error) {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO site_config (id, site_name, tagline, welcome_text, contact_email, discord_invite, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE
		SET site_name = $1, tagline = $2, welcome_text = $3, contact_email = $4, discord_invite = $5, updated_at = now()
		RETURNING updated_at`,
		c.SiteName, c.Tagline, c.WelcomeText, c.ContactEmail, c.DiscordInvite).
		Scan(&c.UpdatedAt)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("update site config: %w", err)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Audit history

func (p *Postgres) InsertAudit(ctx context.Context, e AuditEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO audit_log (id, action, severity, league_id, actor, ip_address, user_agent, details, rows_affected, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		toPgUUID(e.ID), e.Action, e.Severity, toPgUUIDPtr(e.LeagueID),
		e.Actor, e.IPAddress, e.UserAgent, e.Details, e.RowsAffected, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (p *Postgres) ListAudit(ctx context.Context, params ListParams) (Page[AuditEntry], error) {
	params.Clamp()

	where := ""
	args := []any{}
	if params.Search != "" {
		where = "WHERE action ILIKE $1 OR actor ILIKE $1"
		args = append(args, "%"+params.Search+"%")
	}

	var total int64
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_log "+where, args...).Scan(&total); err != nil {
		return Page[AuditEntry]{}, fmt.Errorf("count audit entries: %w", err)
	}

	order := orderClause(params, map[string]string{
		"created_at": "created_at",
	}, "created_at")

	query := fmt.Sprintf(`SELECT id, action, severity, league_id, actor, ip_address, user_agent, details, rows_affected, created_at
		FROM audit_log %s %s LIMIT $%d OFFSET $%d`,
		where, order, len(args)+1, len(args)+2)
	args = append(args, params.PerPage, params.Offset())

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return Page[AuditEntry]{}, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var items []AuditEntry
	for rows.Next() {
		var (
			e        AuditEntry
			id       pgtype.UUID
			leagueID pgtype.UUID
		)
		err := rows.Scan(&id, &e.Action, &e.Severity, &leagueID, &e.Actor, &e.IPAddress, &e.UserAgent, &e.Details, &e.RowsAffected, &e.CreatedAt)
		if err != nil {
			return Page[AuditEntry]{}, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ID = fromPgUUID(id)
		if leagueID.Valid {
			lid := fromPgUUID(leagueID)
			e.LeagueID = &lid
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return Page[AuditEntry]{}, fmt.Errorf("list audit entries: %w", err)
	}
	return NewPage(items, total, params), nil
}

func (p *Postgres) DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
