package ports

import (
	"context"

	"gambling-bot/internal/core/domain"
)

//go:generate mockgen -destination=mocks/mock_repositories.go -package=mocks gambling-bot/internal/core/ports LedgerRepository,AuditRepository

// LedgerRepository persists the ledger aggregate (currency registry + wallets)
// as one unit. Load returns a ledger seeded with domain.DefaultCurrencies when
// nothing has been stored yet.
type LedgerRepository interface {
	Load(ctx context.Context) (*domain.Ledger, error)
	Save(ctx context.Context, ledger *domain.Ledger) error
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}
