package core

import (
	"context"
	"time"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
)

const (
	// DefaultSweepInterval is how often expired sessions and old audit
	// rows are cleaned up.
	DefaultSweepInterval = 5 * time.Minute

	// DefaultAuditRetention keeps roughly a quarter of audit history.
	DefaultAuditRetention = 90 * 24 * time.Hour
)

// Maintain runs periodic housekeeping until ctx is cancelled: expired
// import sessions are pruned and audit rows older than the retention
// window are deleted. Intended to run as a single background goroutine.
func (s *Service) Maintain(ctx context.Context, interval, auditRetention time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if auditRetention <= 0 {
		auditRetention = DefaultAuditRetention
	}

	log := logging.FromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned := s.PruneSessions()
			removed, err := s.PurgeAudit(ctx, auditRetention)
			if err != nil {
				log.Warn("audit purge failed", "error", err)
				continue
			}
			if pruned > 0 || removed > 0 {
				log.Info("maintenance sweep",
					"sessions_pruned", pruned,
					"audit_rows_removed", removed,
				)
			}
		}
	}
}
