// Package memory keeps the ledger in process memory. It backs the "memory"
// storage driver and stands in for real storage in tests.
package memory

import (
	"context"
	"sync"

	"gambling-bot/internal/core/domain"
)

// LedgerStore implements ports.LedgerRepository without any durability.
type LedgerStore struct {
	mu     sync.RWMutex
	ledger *domain.Ledger
	saves  int
}

// NewLedgerStore creates an empty store. Load on an empty store yields the default registry.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

// NewLedgerStoreWith creates a store pre-populated with ledger.
func NewLedgerStoreWith(ledger *domain.Ledger) *LedgerStore {
	return &LedgerStore{ledger: ledger.Clone()}
}

// Load returns a copy of the stored ledger.
func (s *LedgerStore) Load(_ context.Context) (*domain.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ledger == nil {
		return domain.NewLedger(domain.DefaultCurrencies), nil
	}
	return s.ledger.Clone(), nil
}

// Save replaces the stored ledger with a copy of ledger.
func (s *LedgerStore) Save(_ context.Context, ledger *domain.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = ledger.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *LedgerStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Ping always succeeds.
func (s *LedgerStore) Ping(_ context.Context) error { return nil }

// Name returns the dependency name.
func (s *LedgerStore) Name() string { return "memory" }
