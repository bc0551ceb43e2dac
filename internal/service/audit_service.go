package service

import (
	"context"

	"gambling-bot/internal/core/domain"
	"gambling-bot/internal/core/ports"

	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, audit entries are only written to the logger.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Log records an audit entry asynchronously (fire-and-forget).
func (s *auditService) Log(ctx context.Context, entry *domain.AuditLog) {
	go func() {
		event := s.log.Info().
			Str("audit_id", entry.ID.String()).
			Str("action", string(entry.Action)).
			Str("actor_id", entry.ActorID).
			Str("target_id", entry.TargetID).
			Str("currency", entry.Currency).
			Int64("amount", entry.Amount)
		if entry.Balance != nil {
			event = event.Int64("balance", *entry.Balance)
		}
		event.Msg("audit")

		if s.repo != nil {
			if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
				s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist audit log")
			}
		}
	}()
}
