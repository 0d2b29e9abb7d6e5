package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/events"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// DriverInput carries a create or update request for a single driver.
// PlatformIDs is keyed by identity field ("psn_id"), not platform key.
type DriverInput struct {
	Nickname     string            `json:"nickname" validate:"required,max=80"`
	DiscordID    string            `json:"discord_id" validate:"max=120"`
	DriverNumber *int              `json:"driver_number" validate:"omitempty,gte=0,lte=999"`
	PlatformIDs  map[string]string `json:"platform_ids"`
}

// toDriver trims the input and keeps only identity fields valid for the
// league's enabled platforms.
func (in DriverInput) toDriver(league store.League) (store.Driver, error) {
	d := store.Driver{
		LeagueID:     league.ID,
		Nickname:     strings.TrimSpace(in.Nickname),
		DiscordID:    strings.TrimSpace(in.DiscordID),
		DriverNumber: in.DriverNumber,
	}

	if len(in.PlatformIDs) == 0 {
		return d, nil
	}

	allowed := make(map[string]HeaderSpec)
	for _, spec := range HeaderSpecsFor(league.Platforms) {
		allowed[spec.Field] = spec
	}

	for field, value := range in.PlatformIDs {
		value = NormalizeValue(field, value)
		if value == "" {
			continue
		}
		spec, ok := allowed[field]
		if !ok {
			return store.Driver{}, fmt.Errorf("unknown platform field: %q", field)
		}
		if spec.Type == FieldTypeNumber && !isDigits(value) {
			return store.Driver{}, fmt.Errorf("%s is not a number: %q", DisplayName(field), value)
		}
		if d.PlatformIDs == nil {
			d.PlatformIDs = make(map[string]string)
		}
		d.PlatformIDs[field] = value
	}
	return d, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CreateDriver adds a single driver to a league roster.
func (s *Service) CreateDriver(ctx context.Context, leagueID uuid.UUID, input DriverInput) (store.Driver, error) {
	if err := s.checkInput(input); err != nil {
		return store.Driver{}, err
	}
	league, err := s.store.GetLeague(ctx, leagueID)
	if err != nil {
		return store.Driver{}, err
	}

	d, err := input.toDriver(league)
	if err != nil {
		return store.Driver{}, err
	}

	driver, err := s.store.CreateDriver(ctx, d)
	if err != nil {
		return store.Driver{}, err
	}

	s.recordAudit(ctx, AuditParams{
		Action:   ActionDriverCreate,
		LeagueID: &leagueID,
		Details:  map[string]any{"nickname": driver.Nickname},
	})
	s.publish(ctx, events.Event{
		Type:     events.TypeDriverCreated,
		LeagueID: leagueID,
		Payload:  map[string]any{"nickname": driver.Nickname},
	})
	return driver, nil
}

// Driver fetches one driver by ID.
func (s *Service) Driver(ctx context.Context, id uuid.UUID) (store.Driver, error) {
	return s.store.GetDriver(ctx, id)
}

// Drivers returns a page of a league's roster.
func (s *Service) Drivers(ctx context.Context, leagueID uuid.UUID, params store.ListParams) (store.Page[store.Driver], error) {
	return s.store.ListDrivers(ctx, leagueID, params)
}

// Roster returns the complete roster, nickname order, for export and
// import duplicate checks.
func (s *Service) Roster(ctx context.Context, leagueID uuid.UUID) ([]store.Driver, error) {
	if _, err := s.store.GetLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	drivers, err := s.store.DriversByLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if drivers == nil {
		drivers = []store.Driver{}
	}
	return drivers, nil
}

// UpdateDriver validates and applies changes to a driver.
func (s *Service) UpdateDriver(ctx context.Context, id uuid.UUID, input DriverInput) (store.Driver, error) {
	if err := s.checkInput(input); err != nil {
		return store.Driver{}, err
	}
	current, err := s.store.GetDriver(ctx, id)
	if err != nil {
		return store.Driver{}, err
	}
	league, err := s.store.GetLeague(ctx, current.LeagueID)
	if err != nil {
		return store.Driver{}, err
	}

	updated, err := input.toDriver(league)
	if err != nil {
		return store.Driver{}, err
	}
	updated.ID = id

	driver, err := s.store.UpdateDriver(ctx, updated)
	if err != nil {
		return store.Driver{}, err
	}

	s.recordAudit(ctx, AuditParams{
		Action:   ActionDriverUpdate,
		LeagueID: &driver.LeagueID,
		Details:  map[string]any{"nickname": driver.Nickname},
	})
	s.publish(ctx, events.Event{
		Type:     events.TypeDriverUpdated,
		LeagueID: driver.LeagueID,
	})
	return driver, nil
}

// DeleteDriver removes one driver from a roster.
func (s *Service) DeleteDriver(ctx context.Context, id uuid.UUID) error {
	driver, err := s.store.GetDriver(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDriver(ctx, id); err != nil {
		return err
	}

	s.recordAudit(ctx, AuditParams{
		Action:   ActionDriverDelete,
		LeagueID: &driver.LeagueID,
		Details:  map[string]any{"nickname": driver.Nickname},
	})
	s.publish(ctx, events.Event{
		Type:     events.TypeDriverDeleted,
		LeagueID: driver.LeagueID,
		Payload:  map[string]any{"nickname": driver.Nickname},
	})
	return nil
}

// ResetRoster deletes every driver in a league and returns how many were
// removed. An import session in flight blocks the reset.
func (s *Service) ResetRoster(ctx context.Context, leagueID uuid.UUID) (int64, error) {
	if _, err := s.store.GetLeague(ctx, leagueID); err != nil {
		return 0, err
	}
	if snap := s.sessions.Snapshot(leagueID); snap.State == StateImporting {
		return 0, ErrImportInProgress
	}

	n, err := s.store.DeleteLeagueDrivers(ctx, leagueID)
	if err != nil {
		return 0, err
	}

	s.recordAudit(ctx, AuditParams{
		Action:       ActionRosterReset,
		LeagueID:     &leagueID,
		RowsAffected: int(n),
	})
	s.publish(ctx, events.Event{
		Type:     events.TypeRosterReset,
		LeagueID: leagueID,
		Payload:  map[string]any{"drivers_removed": n},
	})
	return n, nil
}
