package service

import (
	"context"
	"fmt"
	"math"
	"sync"

	"gambling-bot/internal/core/domain"
	"gambling-bot/internal/core/ports"
	"gambling-bot/pkg/apperror"

	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService.
//
// It is the single writer for the ledger: every operation holds mu, stages its
// change on a clone, persists the clone and only then swaps it in. A failed save
// leaves the in-memory state exactly as it was.
type LedgerServiceImpl struct {
	mu     sync.Mutex
	repo   ports.LedgerRepository
	ledger *domain.Ledger
	log    zerolog.Logger
}

// NewLedgerService loads the persisted ledger and returns a service owning it.
func NewLedgerService(ctx context.Context, repo ports.LedgerRepository, log zerolog.Logger) (*LedgerServiceImpl, error) {
	ledger, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	log.Info().
		Strs("currencies", ledger.Currencies).
		Int("wallets", len(ledger.Wallets)).
		Msg("ledger loaded")

	return &LedgerServiceImpl{
		repo:   repo,
		ledger: ledger,
		log:    log,
	}, nil
}

// Currencies returns the registered currency identifiers in registry order.
func (s *LedgerServiceImpl) Currencies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Currencies.Clone()
}

// CreateCurrency registers id and backfills a zero balance into every wallet.
func (s *LedgerServiceImpl) CreateCurrency(ctx context.Context, id string) error {
	id = domain.NormalizeCurrency(id)
	if id == "" {
		return apperror.ErrUnknownCurrency()
	}

	err := s.mutate(ctx, func(l *domain.Ledger) (bool, error) {
		if !l.AddCurrency(id) {
			return false, apperror.ErrCurrencyExists()
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("currency", id).Msg("currency created")
	return nil
}

// DeleteCurrency unregisters id and removes it from every wallet.
func (s *LedgerServiceImpl) DeleteCurrency(ctx context.Context, id string) error {
	id = domain.NormalizeCurrency(id)

	err := s.mutate(ctx, func(l *domain.Ledger) (bool, error) {
		if !l.RemoveCurrency(id) {
			return false, apperror.ErrCurrencyNotFound()
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("currency", id).Msg("currency deleted")
	return nil
}

// EnsureWallet creates the user's wallet if needed and zero-fills registered currencies.
// It persists only when something changed.
func (s *LedgerServiceImpl) EnsureWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	var out *domain.Wallet
	err := s.mutate(ctx, func(l *domain.Ledger) (bool, error) {
		w, changed := l.EnsureWallet(userID)
		out = w.Clone()
		return changed, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Wallet returns a copy of the user's wallet without creating it.
func (s *LedgerServiceImpl) Wallet(_ context.Context, userID string) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.ledger.Wallets[userID]
	if !ok {
		return nil, apperror.ErrUserNotFound()
	}
	return w.Clone(), nil
}

// Balance returns the user's balance in currency.
func (s *LedgerServiceImpl) Balance(_ context.Context, userID, currency string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.ledger.Wallets[userID]
	if !ok {
		return 0, apperror.ErrUserNotFound()
	}
	balance, ok := w.Balances[domain.NormalizeCurrency(currency)]
	if !ok {
		return 0, apperror.ErrUnknownCurrency()
	}
	return balance, nil
}

// Adjust applies balance += delta with no bounds check and returns the new balance.
func (s *LedgerServiceImpl) Adjust(ctx context.Context, userID, currency string, delta int64) (int64, error) {
	currency = domain.NormalizeCurrency(currency)

	var balance int64
	err := s.mutate(ctx, func(l *domain.Ledger) (bool, error) {
		w, err := walletFor(l, userID, currency)
		if err != nil {
			return false, err
		}
		next, ok := checkedAdd(w.Balances[currency], delta)
		if !ok {
			return false, apperror.ErrInvalidAmount()
		}
		w.Balances[currency] = next
		balance = next
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("currency", currency).
		Int64("delta", delta).
		Int64("balance", balance).
		Msg("balance adjusted")

	return balance, nil
}

// Settle resolves a gamble stake. The balance must cover amount; the result is
// exactly old+amount when won and old-amount otherwise.
func (s *LedgerServiceImpl) Settle(ctx context.Context, userID, currency string, amount int64, won bool) (int64, error) {
	if amount <= 0 {
		return 0, apperror.ErrInvalidAmount()
	}
	currency = domain.NormalizeCurrency(currency)

	var balance int64
	err := s.mutate(ctx, func(l *domain.Ledger) (bool, error) {
		w, err := walletFor(l, userID, currency)
		if err != nil {
			return false, err
		}
		if w.Balances[currency] < amount {
			return false, apperror.ErrInsufficientFunds()
		}
		delta := -amount
		if won {
			delta = amount
		}
		next, ok := checkedAdd(w.Balances[currency], delta)
		if !ok {
			return false, apperror.ErrInvalidAmount()
		}
		w.Balances[currency] = next
		balance = next
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("currency", currency).
		Int64("amount", amount).
		Bool("won", won).
		Int64("balance", balance).
		Msg("gamble settled")

	return balance, nil
}

// Withdraw debits amount and appends a withdrawal record in a single persisted step.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, userID, currency string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperror.ErrInvalidAmount()
	}
	currency = domain.NormalizeCurrency(currency)

	var balance int64
	err := s.mutate(ctx, func(l *domain.Ledger) (bool, error) {
		w, err := walletFor(l, userID, currency)
		if err != nil {
			return false, err
		}
		if w.Balances[currency] < amount {
			return false, apperror.ErrInsufficientFunds()
		}
		w.Balances[currency] -= amount
		w.Withdrawals = append(w.Withdrawals, domain.Withdrawal{Amount: amount, Currency: currency})
		balance = w.Balances[currency]
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("currency", currency).
		Int64("amount", amount).
		Int64("balance", balance).
		Msg("withdrawal requested")

	return balance, nil
}

// RecordWithdrawal appends a withdrawal record without touching balances.
func (s *LedgerServiceImpl) RecordWithdrawal(ctx context.Context, userID string, amount int64, currency string) error {
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}
	currency = domain.NormalizeCurrency(currency)

	return s.mutate(ctx, func(l *domain.Ledger) (bool, error) {
		w, err := walletFor(l, userID, currency)
		if err != nil {
			return false, err
		}
		w.Withdrawals = append(w.Withdrawals, domain.Withdrawal{Amount: amount, Currency: currency})
		return true, nil
	})
}

// mutate runs fn against a staged copy and commits it once persisted.
// fn reports whether it changed anything; unchanged stages are dropped without a save.
func (s *LedgerServiceImpl) mutate(ctx context.Context, fn func(l *domain.Ledger) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.ledger.Clone()
	changed, err := fn(staged)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := s.repo.Save(ctx, staged); err != nil {
		s.log.Error().Err(err).Msg("failed to persist ledger")
		return apperror.ErrStorage(err)
	}

	s.ledger = staged
	return nil
}

// checkedAdd returns a+b, or false when the sum does not fit in an int64.
func checkedAdd(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// walletFor ensures userID's wallet inside a staged ledger and checks currency is registered.
func walletFor(l *domain.Ledger, userID, currency string) (*domain.Wallet, error) {
	if !l.Currencies.Contains(currency) {
		return nil, apperror.ErrUnknownCurrency()
	}
	w, _ := l.EnsureWallet(userID)
	return w, nil
}
