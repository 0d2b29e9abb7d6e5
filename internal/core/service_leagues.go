package core

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/events"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// LeagueInput carries a create or update request for a league.
type LeagueInput struct {
	Name        string   `json:"name" validate:"required,min=3,max=80"`
	Slug        string   `json:"slug" validate:"omitempty,min=3,max=60"`
	Description string   `json:"description" validate:"max=2000"`
	Platforms   []string `json:"platforms"`
	Visibility  string   `json:"visibility" validate:"omitempty,oneof=public unlisted"`
}

func (in LeagueInput) toLeague() store.League {
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = store.VisibilityPublic
	}
	platforms := in.Platforms
	if platforms == nil {
		platforms = []string{}
	}
	return store.League{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		Platforms:   platforms,
		Visibility:  visibility,
	}
}

// CreateLeague validates the input and creates the league. An empty slug
// is derived from the name; platform keys must be registered.
func (s *Service) CreateLeague(ctx context.Context, input LeagueInput) (store.League, error) {
	if err := s.checkInput(input); err != nil {
		return store.League{}, err
	}
	if err := checkPlatforms(input.Platforms); err != nil {
		return store.League{}, err
	}

	league, err := s.store.CreateLeague(ctx, input.toLeague())
	if err != nil {
		return store.League{}, err
	}

	s.recordAudit(ctx, AuditParams{
		Action:   ActionLeagueCreate,
		LeagueID: &league.ID,
		Details:  map[string]any{"name": league.Name, "slug": league.Slug},
	})
	s.publish(ctx, events.Event{
		Type:     events.TypeLeagueCreated,
		LeagueID: league.ID,
		Payload:  map[string]any{"name": league.Name, "slug": league.Slug},
	})
	return league, nil
}

// League fetches one league by ID.
func (s *Service) League(ctx context.Context, id uuid.UUID) (store.League, error) {
	return s.store.GetLeague(ctx, id)
}

// LeagueBySlug fetches one league by its URL slug.
func (s *Service) LeagueBySlug(ctx context.Context, slug string) (store.League, error) {
	return s.store.GetLeagueBySlug(ctx, slug)
}

// Leagues returns a page of leagues for the admin list.
func (s *Service) Leagues(ctx context.Context, params store.ListParams) (store.Page[store.League], error) {
	return s.store.ListLeagues(ctx, params)
}

// PublicLeagues returns every publicly visible league, for the site index.
func (s *Service) PublicLeagues(ctx context.Context) ([]store.League, error) {
	leagues, err := s.store.ListPublicLeagues(ctx)
	if err != nil {
		return nil, err
	}
	if leagues == nil {
		leagues = []store.League{}
	}
	return leagues, nil
}

// UpdateLeague validates and applies changes to a league.
func (s *Service) UpdateLeague(ctx context.Context, id uuid.UUID, input LeagueInput) (store.League, error) {
	if err := s.checkInput(input); err != nil {
		return store.League{}, err
	}
	if err := checkPlatforms(input.Platforms); err != nil {
		return store.League{}, err
	}

	updated := input.toLeague()
	updated.ID = id
	league, err := s.store.UpdateLeague(ctx, updated)
	if err != nil {
		return store.League{}, err
	}

	s.recordAudit(ctx, AuditParams{
		Action:   ActionLeagueUpdate,
		LeagueID: &league.ID,
		Details:  map[string]any{"name": league.Name, "slug": league.Slug},
	})
	s.publish(ctx, events.Event{
		Type:     events.TypeLeagueUpdated,
		LeagueID: league.ID,
	})
	return league, nil
}

// DeleteLeague removes a league and everything under it: competitions,
// seasons, drivers.
func (s *Service) DeleteLeague(ctx context.Context, id uuid.UUID) error {
	league, err := s.store.GetLeague(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteLeague(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, AuditParams{
		Action:   ActionLeagueDelete,
		LeagueID: &id,
		Details:  map[string]any{"name": league.Name, "slug": league.Slug},
	})
	s.publish(ctx, events.Event{
		Type:     events.TypeLeagueDeleted,
		LeagueID: id,
	})
	return nil
}

// LeagueHeaderSpecs returns the identity columns for a league's enabled
// platforms. A league with no platforms yields an empty slice, not an
// error: the roster then carries only the fixed columns.
func (s *Service) LeagueHeaderSpecs(ctx context.Context, leagueID uuid.UUID) ([]HeaderSpec, error) {
	league, err := s.store.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	specs := HeaderSpecsFor(league.Platforms)
	if specs == nil {
		specs = []HeaderSpec{}
	}
	return specs, nil
}

// LeagueExample returns the example roster CSV for a league, or just the
// minimal header line when minimal is set.
func (s *Service) LeagueExample(ctx context.Context, leagueID uuid.UUID, minimal bool) (string, error) {
	league, err := s.store.GetLeague(ctx, leagueID)
	if err != nil {
		return "", err
	}
	specs := HeaderSpecsFor(league.Platforms)
	if minimal {
		return MinimalHeaderCSV(specs), nil
	}
	return s.examples.Example(specs), nil
}

// CompetitionInput carries a create or update request for a competition.
type CompetitionInput struct {
	Name   string `json:"name" validate:"required,min=2,max=120"`
	Game   string `json:"game" validate:"max=120"`
	Status string `json:"status" validate:"omitempty,oneof=active archived"`
}

// CreateCompetition adds a competition to a league.
func (s *Service) CreateCompetition(ctx context.Context, leagueID uuid.UUID, input CompetitionInput) (store.Competition, error) {
	if err := s.checkInput(input); err != nil {
		return store.Competition{}, err
	}
	status := input.Status
	if status == "" {
		status = store.CompetitionActive
	}

	comp, err := s.store.CreateCompetition(ctx, store.Competition{
		LeagueID: leagueID,
		Name:     strings.TrimSpace(input.Name),
		Game:     strings.TrimSpace(input.Game),
		Status:   status,
	})
	if err != nil {
		return store.Competition{}, err
	}

	s.recordAudit(ctx, AuditParams{
		Action:   ActionCompetitionCreate,
		LeagueID: &leagueID,
		Details:  map[string]any{"name": comp.Name},
	})
	return comp, nil
}

// Competition fetches one competition by ID.
func (s *Service) Competition(ctx context.Context, id uuid.UUID) (store.Competition, error) {
	return s.store.GetCompetition(ctx, id)
}

// Competitions returns a page of a league's competitions.
func (s *Service) Competitions(ctx context.Context, leagueID uuid.UUID, params store.ListParams) (store.Page[store.Competition], error) {
	return s.store.ListCompetitions(ctx, leagueID, params)
}

// UpdateCompetition validates and applies changes to a competition.
func (s *Service) UpdateCompetition(ctx context.Context, id uuid.UUID, input CompetitionInput) (store.Competition, error) {
	if err := s.checkInput(input); err != nil {
		return store.Competition{}, err
	}
	current, err := s.store.GetCompetition(ctx, id)
	if err != nil {
		return store.Competition{}, err
	}

	current.Name = strings.TrimSpace(input.Name)
	current.Game = strings.TrimSpace(input.Game)
	if input.Status != "" {
		current.Status = input.Status
	}

	comp, err := s.store.UpdateCompetition(ctx, current)
	if err != nil {
		return store.Competition{}, err
	}

	s.recordAudit(ctx, AuditParams{
		Action:   ActionCompetitionUpdate,
		LeagueID: &comp.LeagueID,
		Details:  map[string]any{"name": comp.Name},
	})
	return comp, nil
}

// DeleteCompetition removes a competition and its seasons.
func (s *Service) DeleteCompetition(ctx context.Context, id uuid.UUID) error {
	comp, err := s.store.GetCompetition(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCompetition(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, AuditParams{
		Action:   ActionCompetitionDelete,
		LeagueID: &comp.LeagueID,
		Details:  map[string]any{"name": comp.Name},
	})
	return nil
}

// SeasonInput carries a create or update request for a season.
type SeasonInput struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Ordinal int    `json:"ordinal" validate:"gte=0,lte=1000"`
	Status  string `json:"status" validate:"omitempty,oneof=draft active archived"`
}

// CreateSeason adds a season to a competition.
func (s *Service) CreateSeason(ctx context.Context, competitionID uuid.UUID, input SeasonInput) (store.Season, error) {
	if err := s.checkInput(input); err != nil {
		return store.Season{}, err
	}

	season, err := s.store.CreateSeason(ctx, store.Season{
		CompetitionID: competitionID,
		Name:          strings.TrimSpace(input.Name),
		Ordinal:       input.Ordinal,
		Status:        input.Status,
	})
	if err != nil {
		return store.Season{}, err
	}

	comp, err := s.store.GetCompetition(ctx, competitionID)
	if err == nil {
		s.recordAudit(ctx, AuditParams{
			Action:   ActionSeasonCreate,
			LeagueID: &comp.LeagueID,
			Details:  map[string]any{"name": season.Name},
		})
	}
	return season, nil
}

// Season fetches one season by ID.
func (s *Service) Season(ctx context.Context, id uuid.UUID) (store.Season, error) {
	return s.store.GetSeason(ctx, id)
}

// Seasons returns a page of a competition's seasons, ordered by ordinal
// unless the caller sorts otherwise.
func (s *Service) Seasons(ctx context.Context, competitionID uuid.UUID, params store.ListParams) (store.Page[store.Season], error) {
	return s.store.ListSeasons(ctx, competitionID, params)
}

// UpdateSeason validates and applies changes to a season.
func (s *Service) UpdateSeason(ctx context.Context, id uuid.UUID, input SeasonInput) (store.Season, error) {
	if err := s.checkInput(input); err != nil {
		return store.Season{}, err
	}
	current, err := s.store.GetSeason(ctx, id)
	if err != nil {
		return store.Season{}, err
	}

	current.Name = strings.TrimSpace(input.Name)
	current.Ordinal = input.Ordinal
	if input.Status != "" {
		current.Status = input.Status
	}

	season, err := s.store.UpdateSeason(ctx, current)
	if err != nil {
		return store.Season{}, err
	}

	comp, err := s.store.GetCompetition(ctx, season.CompetitionID)
	if err == nil {
		s.recordAudit(ctx, AuditParams{
			Action:   ActionSeasonUpdate,
			LeagueID: &comp.LeagueID,
			Details:  map[string]any{"name": season.Name},
		})
	}
	return season, nil
}

// DeleteSeason removes a season.
func (s *Service) DeleteSeason(ctx context.Context, id uuid.UUID) error {
	season, err := s.store.GetSeason(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSeason(ctx, id); err != nil {
		return err
	}

	comp, err := s.store.GetCompetition(ctx, season.CompetitionID)
	if err == nil {
		s.recordAudit(ctx, AuditParams{
			Action:   ActionSeasonDelete,
			LeagueID: &comp.LeagueID,
			Details:  map[string]any{"name": season.Name},
		})
	}
	return nil
}
