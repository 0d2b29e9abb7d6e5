package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// AuditAction identifies what kind of administrative action happened.
type AuditAction string

const (
	ActionLeagueCreate      AuditAction = "league_create"
	ActionLeagueUpdate      AuditAction = "league_update"
	ActionLeagueDelete      AuditAction = "league_delete"
	ActionCompetitionCreate AuditAction = "competition_create"
	ActionCompetitionUpdate AuditAction = "competition_update"
	ActionCompetitionDelete AuditAction = "competition_delete"
	ActionSeasonCreate      AuditAction = "season_create"
	ActionSeasonUpdate      AuditAction = "season_update"
	ActionSeasonDelete      AuditAction = "season_delete"
	ActionDriverCreate      AuditAction = "driver_create"
	ActionDriverUpdate      AuditAction = "driver_update"
	ActionDriverDelete      AuditAction = "driver_delete"
	ActionRosterImport      AuditAction = "roster_import"
	ActionRosterReset       AuditAction = "roster_reset"
	ActionSiteConfigUpdate  AuditAction = "site_config_update"
)

// AuditSeverity ranks how disruptive an action is.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionRosterImport, ActionLeagueDelete, ActionDriverDelete:
		return SeverityHigh
	case ActionRosterReset:
		return SeverityCritical
	case ActionSiteConfigUpdate:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// AuditParams describes one action for the audit trail. Details, if
// non-nil, is serialized to JSON on the entry.
type AuditParams struct {
	Action       AuditAction
	LeagueID     *uuid.UUID
	RowsAffected int
	Details      map[string]any
}

// recordAudit writes an audit entry, pulling actor and request metadata
// from the context. Audit failures are logged, never propagated: the
// action itself already succeeded.
func (s *Service) recordAudit(ctx context.Context, params AuditParams) {
	entry := store.AuditEntry{
		Action:       string(params.Action),
		Severity:     string(determineSeverity(params.Action)),
		LeagueID:     params.LeagueID,
		Actor:        ActorFromContext(ctx),
		IPAddress:    IPAddressFromContext(ctx),
		UserAgent:    UserAgentFromContext(ctx),
		RowsAffected: params.RowsAffected,
		CreatedAt:    time.Now().UTC(),
	}
	if params.Details != nil {
		if blob, err := json.Marshal(params.Details); err == nil {
			entry.Details = string(blob)
		}
	}

	if err := s.store.InsertAudit(ctx, entry); err != nil {
		logging.FromContext(ctx).Warn("audit write failed",
			"action", params.Action,
			"error", err,
		)
	}
}

// AuditLog returns a page of audit entries, newest first unless the
// caller asks otherwise.
func (s *Service) AuditLog(ctx context.Context, params store.ListParams) (store.Page[store.AuditEntry], error) {
	if params.Sort == "" {
		params.Sort = "created_at"
		params.Order = "desc"
	}
	return s.store.ListAudit(ctx, params)
}
