// Package document encodes the ledger as the two JSON documents shared by the
// file and redis backends: the wallet document keyed by user id and the
// ordered currency list.
package document

import (
	"encoding/json"
	"fmt"

	"gambling-bot/internal/core/domain"
)

// Encode renders ledger as (wallet document, currency document).
func Encode(ledger *domain.Ledger) ([]byte, []byte, error) {
	wallets := make(map[string]*domain.Wallet, len(ledger.Wallets))
	for id, w := range ledger.Wallets {
		c := w.Clone()
		if c.Balances == nil {
			c.Balances = map[string]int64{}
		}
		wallets[id] = c
	}

	walletDoc, err := json.MarshalIndent(wallets, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode wallet document: %w", err)
	}

	currencies := []string(ledger.Currencies)
	if currencies == nil {
		currencies = []string{}
	}
	currencyDoc, err := json.MarshalIndent(currencies, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode currency document: %w", err)
	}
	return walletDoc, currencyDoc, nil
}

// Decode rebuilds a ledger. A nil currency document means "never written" and
// yields domain.DefaultCurrencies; a nil wallet document yields no wallets.
// The result is reconciled so a torn write between the two documents converges.
func Decode(walletDoc, currencyDoc []byte) (*domain.Ledger, error) {
	currencies := domain.DefaultCurrencies
	if currencyDoc != nil {
		var list []string
		if err := json.Unmarshal(currencyDoc, &list); err != nil {
			return nil, fmt.Errorf("decode currency document: %w", err)
		}
		currencies = list
	}
	ledger := domain.NewLedger(currencies)

	if walletDoc != nil {
		wallets := map[string]*domain.Wallet{}
		if err := json.Unmarshal(walletDoc, &wallets); err != nil {
			return nil, fmt.Errorf("decode wallet document: %w", err)
		}
		for id, w := range wallets {
			if w == nil {
				w = domain.NewWallet()
			}
			if w.Balances == nil {
				w.Balances = map[string]int64{}
			}
			ledger.Wallets[id] = w
		}
	}

	ledger.Reconcile()
	return ledger, nil
}
