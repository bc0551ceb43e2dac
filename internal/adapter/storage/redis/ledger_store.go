package redis

import (
	"context"
	"fmt"

	"gambling-bot/internal/adapter/storage/document"
	"gambling-bot/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// LedgerStore implements ports.LedgerRepository on two Redis string keys that
// hold the same JSON documents the file backend writes.
type LedgerStore struct {
	client      *goredis.Client
	walletKey   string
	currencyKey string
}

// NewLedgerStore creates a Redis-backed ledger store. prefix namespaces the keys.
func NewLedgerStore(client *goredis.Client, prefix string) *LedgerStore {
	return &LedgerStore{
		client:      client,
		walletKey:   prefix + "user_data",
		currencyKey: prefix + "money_types",
	}
}

// Load reads both documents in one round trip.
func (s *LedgerStore) Load(ctx context.Context) (*domain.Ledger, error) {
	vals, err := s.client.MGet(ctx, s.walletKey, s.currencyKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ledger load: %w", err)
	}
	return document.Decode(asBytes(vals[0]), asBytes(vals[1]))
}

// Save writes both documents inside MULTI/EXEC so readers never see half an update.
func (s *LedgerStore) Save(ctx context.Context, ledger *domain.Ledger) error {
	walletDoc, currencyDoc, err := document.Encode(ledger)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.walletKey, walletDoc, 0)
		pipe.Set(ctx, s.currencyKey, currencyDoc, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis ledger save: %w", err)
	}
	return nil
}

// asBytes maps a missing MGET value (nil) to a nil document.
func asBytes(v any) []byte {
	str, ok := v.(string)
	if !ok {
		return nil
	}
	return []byte(str)
}
