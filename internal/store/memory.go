package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store for tests and local development.
// All methods copy on the way in and out, so callers can never mutate
// shared state through returned values.
type Memory struct {
	mu           sync.RWMutex
	leagues      map[uuid.UUID]League
	competitions map[uuid.UUID]Competition
	seasons      map[uuid.UUID]Season
	drivers      map[uuid.UUID]Driver
	audits       []AuditEntry
	siteConfig   *SiteConfig

	// now is swappable for tests that need deterministic timestamps.
	now func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		leagues:      make(map[uuid.UUID]League),
		competitions: make(map[uuid.UUID]Competition),
		seasons:      make(map[uuid.UUID]Season),
		drivers:      make(map[uuid.UUID]Driver),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func cloneLeague(l League) League {
	l.Platforms = append([]string(nil), l.Platforms...)
	return l
}

func cloneDriver(d Driver) Driver {
	if d.PlatformIDs != nil {
		ids := make(map[string]string, len(d.PlatformIDs))
		for k, v := range d.PlatformIDs {
			ids[k] = v
		}
		d.PlatformIDs = ids
	}
	if d.DriverNumber != nil {
		n := *d.DriverNumber
		d.DriverNumber = &n
	}
	return d
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// paginate clamps params, sorts items with less and returns one page.
// less receives the ascending comparison; the order flip happens here.
func paginate[T any](items []T, p *ListParams, less func(a, b T) bool) Page[T] {
	p.Clamp()

	sort.SliceStable(items, func(i, j int) bool {
		if p.Order == "desc" {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})

	total := int64(len(items))
	start := p.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return NewPage(items[start:end], total, *p)
}

// ---------------------------------------------------------------------------
// Leagues

func (m *Memory) CreateLeague(ctx context.Context, l League) (League, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.leagues {
		if existing.Slug == l.Slug {
			return League{}, ErrSlugTaken
		}
	}

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = m.now()
	l.UpdatedAt = l.CreatedAt
	m.leagues[l.ID] = cloneLeague(l)
	return cloneLeague(l), nil
}

func (m *Memory) GetLeague(ctx context.Context, id uuid.UUID) (League, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.leagues[id]
	if !ok {
		return League{}, ErrLeagueNotFound
	}
	return cloneLeague(l), nil
}

func (m *Memory) GetLeagueBySlug(ctx context.Context, slug string) (League, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.leagues {
		if l.Slug == slug {
			return cloneLeague(l), nil
		}
	}
	return League{}, ErrLeagueNotFound
}

func (m *Memory) ListLeagues(ctx context.Context, p ListParams) (Page[League], error) {
	m.mu.RLock()
	items := make([]League, 0, len(m.leagues))
	for _, l := range m.leagues {
		if p.Search != "" && !containsFold(l.Name, p.Search) && !containsFold(l.Slug, p.Search) {
			continue
		}
		items = append(items, cloneLeague(l))
	}
	m.mu.RUnlock()

	sortCol := p.Sort
	return paginate(items, &p, func(a, b League) bool {
		switch sortCol {
		case "slug":
			return a.Slug < b.Slug
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}), nil
}

func (m *Memory) ListPublicLeagues(ctx context.Context) ([]League, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []League
	for _, l := range m.leagues {
		if l.Visibility == VisibilityPublic {
			items = append(items, cloneLeague(l))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}

func (m *Memory) UpdateLeague(ctx context.Context, l League) (League, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.leagues[l.ID]
	if !ok {
		return League{}, ErrLeagueNotFound
	}
	for id, existing := range m.leagues {
		if id != l.ID && existing.Slug == l.Slug {
			return League{}, ErrSlugTaken
		}
	}

	l.CreatedAt = current.CreatedAt
	l.UpdatedAt = m.now()
	m.leagues[l.ID] = cloneLeague(l)
	return cloneLeague(l), nil
}

func (m *Memory) DeleteLeague(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leagues[id]; !ok {
		return ErrLeagueNotFound
	}
	delete(m.leagues, id)

	// Cascade, mirroring the foreign keys in the Postgres schema.
	for cid, c := range m.competitions {
		if c.LeagueID != id {
			continue
		}
		delete(m.competitions, cid)
		for sid, s := range m.seasons {
			if s.CompetitionID == cid {
				delete(m.seasons, sid)
			}
		}
	}
	for did, d := range m.drivers {
		if d.LeagueID == id {
			delete(m.drivers, did)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Competitions

func (m *Memory) CreateCompetition(ctx context.Context, c Competition) (Competition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leagues[c.LeagueID]; !ok {
		return Competition{}, ErrLeagueNotFound
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	m.competitions[c.ID] = c
	return c, nil
}

func (m *Memory) GetCompetition(ctx context.Context, id uuid.UUID) (Competition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.competitions[id]
	if !ok {
		return Competition{}, ErrCompetitionNotFound
	}
	return c, nil
}

func (m *Memory) ListCompetitions(ctx context.Context, leagueID uuid.UUID, p ListParams) (Page[Competition], error) {
	m.mu.RLock()
	var items []Competition
	for _, c := range m.competitions {
		if c.LeagueID != leagueID {
			continue
		}
		if p.Search != "" && !containsFold(c.Name, p.Search) && !containsFold(c.Game, p.Search) {
			continue
		}
		items = append(items, c)
	}
	m.mu.RUnlock()

	sortCol := p.Sort
	return paginate(items, &p, func(a, b Competition) bool {
		switch sortCol {
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}), nil
}

func (m *Memory) UpdateCompetition(ctx context.Context, c Competition) (Competition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.competitions[c.ID]
	if !ok {
		return Competition{}, ErrCompetitionNotFound
	}
	c.LeagueID = current.LeagueID
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = m.now()
	m.competitions[c.ID] = c
	return c, nil
}

func (m *Memory) DeleteCompetition(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.competitions[id]; !ok {
		return ErrCompetitionNotFound
	}
	delete(m.competitions, id)
	for sid, s := range m.seasons {
		if s.CompetitionID == id {
			delete(m.seasons, sid)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Seasons

func (m *Memory) CreateSeason(ctx context.Context, s Season) (Season, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.competitions[s.CompetitionID]; !ok {
		return Season{}, ErrCompetitionNotFound
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SeasonDraft
	}
	s.CreatedAt = m.now()
	s.UpdatedAt = s.CreatedAt
	m.seasons[s.ID] = s
	return s, nil
}

func (m *Memory) GetSeason(ctx context.Context, id uuid.UUID) (Season, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.seasons[id]
	if !ok {
		return Season{}, ErrSeasonNotFound
	}
	return s, nil
}

func (m *Memory) ListSeasons(ctx context.Context, competitionID uuid.UUID, p ListParams) (Page[Season], error) {
	m.mu.RLock()
	var items []Season
	for _, s := range m.seasons {
		if s.CompetitionID != competitionID {
			continue
		}
		if p.Search != "" && !containsFold(s.Name, p.Search) {
			continue
		}
		items = append(items, s)
	}
	m.mu.RUnlock()

	sortCol := p.Sort
	return paginate(items, &p, func(a, b Season) bool {
		switch sortCol {
		case "name":
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.Ordinal < b.Ordinal
		}
	}), nil
}

func (m *Memory) UpdateSeason(ctx context.Context, s Season) (Season, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.seasons[s.ID]
	if !ok {
		return Season{}, ErrSeasonNotFound
	}
	s.CompetitionID = current.CompetitionID
	s.CreatedAt = current.CreatedAt
	s.UpdatedAt = m.now()
	m.seasons[s.ID] = s
	return s, nil
}

func (m *Memory) DeleteSeason(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seasons[id]; !ok {
		return ErrSeasonNotFound
	}
	delete(m.seasons, id)
	return nil
}

// ---------------------------------------------------------------------------
// Drivers

func (m *Memory) CreateDriver(ctx context.Context, d Driver) (Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leagues[d.LeagueID]; !ok {
		return Driver{}, ErrLeagueNotFound
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = m.now()
	d.UpdatedAt = d.CreatedAt
	m.drivers[d.ID] = cloneDriver(d)
	return cloneDriver(d), nil
}

func (m *Memory) GetDriver(ctx context.Context, id uuid.UUID) (Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.drivers[id]
	if !ok {
		return Driver{}, ErrDriverNotFound
	}
	return cloneDriver(d), nil
}

func (m *Memory) ListDrivers(ctx context.Context, leagueID uuid.UUID, p ListParams) (Page[Driver], error) {
	m.mu.RLock()
	var items []Driver
	for _, d := range m.drivers {
		if d.LeagueID != leagueID {
			continue
		}
		if p.Search != "" && !containsFold(d.Nickname, p.Search) && !containsFold(d.DiscordID, p.Search) {
			continue
		}
		items = append(items, cloneDriver(d))
	}
	m.mu.RUnlock()

	sortCol := p.Sort
	return paginate(items, &p, func(a, b Driver) bool {
		switch sortCol {
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		case "driver_number":
			an, bn := -1, -1
			if a.DriverNumber != nil {
				an = *a.DriverNumber
			}
			if b.DriverNumber != nil {
				bn = *b.DriverNumber
			}
			return an < bn
		default:
			return strings.ToLower(a.Nickname) < strings.ToLower(b.Nickname)
		}
	}), nil
}

func (m *Memory) DriversByLeague(ctx context.Context, leagueID uuid.UUID) ([]Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []Driver
	for _, d := range m.drivers {
		if d.LeagueID == leagueID {
			items = append(items, cloneDriver(d))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Nickname) < strings.ToLower(items[j].Nickname)
	})
	return items, nil
}

func (m *Memory) UpdateDriver(ctx context.Context, d Driver) (Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.drivers[d.ID]
	if !ok {
		return Driver{}, ErrDriverNotFound
	}
	d.LeagueID = current.LeagueID
	d.CreatedAt = current.CreatedAt
	d.UpdatedAt = m.now()
	m.drivers[d.ID] = cloneDriver(d)
	return cloneDriver(d), nil
}

func (m *Memory) DeleteDriver(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.drivers[id]; !ok {
		return ErrDriverNotFound
	}
	delete(m.drivers, id)
	return nil
}

func (m *Memory) DeleteLeagueDrivers(ctx context.Context, leagueID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, d := range m.drivers {
		if d.LeagueID == leagueID {
			delete(m.drivers, id)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Site configuration

func (m *Memory) GetSiteConfig(ctx context.Context) (SiteConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.siteConfig == nil {
		return DefaultSiteConfig(), nil
	}
	return *m.siteConfig, nil
}

func (m *Memory) UpdateSiteConfig(ctx context.Context, c SiteConfig) (SiteConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.UpdatedAt = m.now()
	m.siteConfig = &c
	return c, nil
}

// ---------------------------------------------------------------------------
// Audit history

func (m *Memory) InsertAudit(ctx context.Context, e AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now()
	}
	m.audits = append(m.audits, e)
	return nil
}

func (m *Memory) ListAudit(ctx context.Context, p ListParams) (Page[AuditEntry], error) {
	m.mu.RLock()
	var items []AuditEntry
	for _, e := range m.audits {
		if p.Search != "" && !containsFold(e.Action, p.Search) && !containsFold(e.Actor, p.Search) {
			continue
		}
		items = append(items, e)
	}
	m.mu.RUnlock()

	return paginate(items, &p, func(a, b AuditEntry) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

func (m *Memory) DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.audits[:0]
	var n int64
	for _, e := range m.audits {
		if e.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.audits = kept
	return n, nil
}

// ---------------------------------------------------------------------------

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() {}
