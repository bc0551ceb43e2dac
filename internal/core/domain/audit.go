package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited ledger mutation.
type AuditAction string

const (
	AuditActionGambleWin      AuditAction = "GAMBLE_WIN"
	AuditActionGambleLoss     AuditAction = "GAMBLE_LOSS"
	AuditActionWithdraw       AuditAction = "WITHDRAW"
	AuditActionAddMoney       AuditAction = "ADD_MONEY"
	AuditActionReduceMoney    AuditAction = "REDUCE_MONEY"
	AuditActionCreateCurrency AuditAction = "CREATE_CURRENCY"
	AuditActionDeleteCurrency AuditAction = "DELETE_CURRENCY"
)

// AuditLog records a single ledger mutation.
type AuditLog struct {
	ID        uuid.UUID   `json:"id"`
	ActorID   string      `json:"actor_id"`
	TargetID  string      `json:"target_id,omitempty"`
	Action    AuditAction `json:"action"`
	Currency  string      `json:"currency"`
	Amount    int64       `json:"amount"`
	Balance   *int64      `json:"balance,omitempty"` // balance after the mutation
	GuildID   string      `json:"guild_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewAuditLog builds an entry stamped with a fresh id and the current UTC time.
func NewAuditLog(action AuditAction, actor Caller, targetID, currency string, amount int64) *AuditLog {
	return &AuditLog{
		ID:        uuid.New(),
		ActorID:   actor.UserID,
		TargetID:  targetID,
		Action:    action,
		Currency:  currency,
		Amount:    amount,
		GuildID:   actor.GuildID,
		CreatedAt: time.Now().UTC(),
	}
}

// WithBalance attaches the resulting balance.
func (a *AuditLog) WithBalance(balance int64) *AuditLog {
	a.Balance = &balance
	return a
}
