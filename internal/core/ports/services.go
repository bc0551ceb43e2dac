package ports

import (
	"context"
	"time"

	"gambling-bot/internal/core/domain"
)

//go:generate mockgen -destination=mocks/mock_services.go -package=mocks gambling-bot/internal/core/ports LedgerService,AdminNotifier,CoinFlipper,AuditService,CooldownStore,EventDeduper,Dispatcher

// LedgerService owns the authoritative in-memory ledger and serializes every mutation.
// Each mutating call returns only after the new state has been persisted.
type LedgerService interface {
	Currencies() []string
	CreateCurrency(ctx context.Context, id string) error
	DeleteCurrency(ctx context.Context, id string) error

	EnsureWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	Wallet(ctx context.Context, userID string) (*domain.Wallet, error)
	Balance(ctx context.Context, userID, currency string) (int64, error)
	Adjust(ctx context.Context, userID, currency string, delta int64) (int64, error)
	// Settle resolves a stake of amount: the balance must cover it, then it
	// moves by +amount when won and -amount otherwise.
	Settle(ctx context.Context, userID, currency string, amount int64, won bool) (int64, error)
	// Withdraw debits amount and appends a withdrawal record in one mutation.
	Withdraw(ctx context.Context, userID, currency string, amount int64) (int64, error)
	RecordWithdrawal(ctx context.Context, userID string, amount int64, currency string) error
}

// AdminNotifier delivers a direct message to every administrator of a guild.
// Delivery is best-effort: per-recipient failures are not reported.
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, guildID, message string)
}

// CoinFlipper decides gamble outcomes. Win must be an unweighted 50/50 draw.
type CoinFlipper interface {
	Win() bool
}

// AuditService records ledger mutations without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// CooldownStore limits how often a user may run a command.
type CooldownStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*CooldownResult, error)
}

// CooldownResult holds the outcome of a cooldown check.
type CooldownResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// EventDeduper reports whether a platform event id is seen for the first time.
type EventDeduper interface {
	FirstSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}

// --- Command dispatch ---

// Invocation is an already-parsed command delivered by the platform adapter.
type Invocation struct {
	Name   string
	Args   []string
	Caller domain.Caller
	// Targets maps a raw <user> argument to the resolved user id and display name.
	Targets map[string]Target
}

// Target is a user referenced by a command argument.
type Target struct {
	UserID      string
	DisplayName string
}

// Reply is what a command hands back to the adapter for rendering.
type Reply struct {
	Title   string
	Text    string
	Fields  []ReplyField
	Success bool
}

// ReplyField is one name/value row of a structured reply.
type ReplyField struct {
	Name   string
	Value  string
	Inline bool
}

// Dispatcher routes invocations to command handlers. The bool is false when
// inv.Name is not a known command and nothing should be sent back.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv Invocation) (Reply, bool)
	Prefix() string
}
