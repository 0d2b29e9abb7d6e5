package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/events"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
)

// ImportRoster runs a roster import for a league: normalize, validate,
// skip rows matching existing drivers, insert the rest. The returned
// summary is also recorded on the league's import session so the status
// endpoint can replay it.
//
// One import per league at a time; ErrImportInProgress otherwise. The
// global limiter additionally bounds imports across all leagues.
func (s *Service) ImportRoster(ctx context.Context, leagueID uuid.UUID, csvText string) (ImportSummary, error) {
	log := logging.FromContext(ctx)

	league, err := s.store.GetLeague(ctx, leagueID)
	if err != nil {
		return ImportSummary{}, err
	}

	if _, err := s.sessions.Begin(leagueID); err != nil {
		return ImportSummary{}, err
	}
	// Fail the session on panic so the league is not stuck importing until
	// the TTL sweep; the HTTP recoverer still turns the panic into a 500.
	defer func() {
		if r := recover(); r != nil {
			_ = s.sessions.Fail(leagueID, "An unexpected error occurred. Please try again.")
			panic(r)
		}
	}()
	if err := s.limiter.Acquire(ctx); err != nil {
		s.sessions.Abandon(leagueID)
		return ImportSummary{}, err
	}
	defer s.limiter.Release()

	importCtx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	started := time.Now()

	existing, err := s.store.DriversByLeague(importCtx, leagueID)
	if err != nil {
		return ImportSummary{}, s.failImport(leagueID, err)
	}

	plan, err := PlanImport(csvText, league, existing, s.limits)
	if err != nil {
		return ImportSummary{}, s.failImport(leagueID, err)
	}

	for _, d := range plan.NewDrivers {
		if err := importCtx.Err(); err != nil {
			return ImportSummary{}, s.failImport(leagueID, err)
		}
		if _, err := s.store.CreateDriver(importCtx, d); err != nil {
			return ImportSummary{}, s.failImport(leagueID, err)
		}
	}

	if err := s.sessions.Complete(leagueID, plan.Summary); err != nil {
		log.Warn("import finished but session was gone", "league_id", leagueID, "error", err)
	}

	log.Info("roster import finished",
		"league_id", leagueID,
		"total_rows", plan.TotalRows,
		"imported", plan.Summary.SuccessCount,
		"skipped", plan.Summary.SkippedCount,
		"errors", len(plan.Summary.Errors),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	s.recordAudit(ctx, AuditParams{
		Action:       ActionRosterImport,
		LeagueID:     &leagueID,
		RowsAffected: plan.Summary.SuccessCount,
		Details: map[string]any{
			"total_rows": plan.TotalRows,
			"skipped":    plan.Summary.SkippedCount,
			"errors":     len(plan.Summary.Errors),
		},
	})
	s.publish(ctx, events.Event{
		Type:     events.TypeImportCompleted,
		LeagueID: leagueID,
		Payload: map[string]any{
			"success_count": plan.Summary.SuccessCount,
			"skipped_count": plan.Summary.SkippedCount,
			"error_count":   len(plan.Summary.Errors),
		},
	})

	return plan.Summary, nil
}

// failImport records a fatal import outcome on the session. Cancellation
// is the exception: a cancelled import leaves no failed session behind,
// it simply disappears.
func (s *Service) failImport(leagueID uuid.UUID, err error) error {
	if errors.Is(err, context.Canceled) {
		s.sessions.Abandon(leagueID)
		return err
	}
	_ = s.sessions.Fail(leagueID, FormatUserError(err))
	return err
}

// PreviewRoster validates a roster CSV without writing anything and
// reports what an import would do.
func (s *Service) PreviewRoster(ctx context.Context, leagueID uuid.UUID, csvText string) (ImportPreview, error) {
	league, err := s.store.GetLeague(ctx, leagueID)
	if err != nil {
		return ImportPreview{}, err
	}
	existing, err := s.store.DriversByLeague(ctx, leagueID)
	if err != nil {
		return ImportPreview{}, err
	}

	plan, err := PlanImport(csvText, league, existing, s.limits)
	if err != nil {
		return ImportPreview{}, err
	}
	return plan.Preview(), nil
}

// ImportSession returns the league's current import session snapshot.
func (s *Service) ImportSession(leagueID uuid.UUID) SessionSnapshot {
	return s.sessions.Snapshot(leagueID)
}

// AckImport acknowledges a finished import and clears its session.
func (s *Service) AckImport(leagueID uuid.UUID) error {
	return s.sessions.Ack(leagueID)
}
