package domain

// Ledger is the single aggregate persisted as one unit: the currency registry
// plus every wallet, keyed by user id.
type Ledger struct {
	Currencies Registry
	Wallets    map[string]*Wallet
}

// NewLedger creates a ledger seeded with the given currencies.
func NewLedger(currencies []string) *Ledger {
	reg := make(Registry, 0, len(currencies))
	for _, c := range currencies {
		reg.Add(c)
	}
	return &Ledger{
		Currencies: reg,
		Wallets:    make(map[string]*Wallet),
	}
}

// EnsureWallet returns the wallet for userID, creating it if needed and
// zero-filling every registered currency. The bool is true when the ledger changed.
func (l *Ledger) EnsureWallet(userID string) (*Wallet, bool) {
	if l.Wallets == nil {
		l.Wallets = make(map[string]*Wallet)
	}
	w, ok := l.Wallets[userID]
	created := !ok
	if created {
		w = NewWallet()
		l.Wallets[userID] = w
	}
	added := w.Sync(l.Currencies)
	return w, created || added
}

// AddCurrency registers id and backfills a zero balance into every wallet.
// It returns false if id is already registered.
func (l *Ledger) AddCurrency(id string) bool {
	if !l.Currencies.Add(id) {
		return false
	}
	id = NormalizeCurrency(id)
	for _, w := range l.Wallets {
		if _, ok := w.Balances[id]; !ok {
			w.Balances[id] = 0
		}
	}
	return true
}

// RemoveCurrency unregisters id and drops it from every wallet.
// It returns false if id was not registered.
func (l *Ledger) RemoveCurrency(id string) bool {
	if !l.Currencies.Remove(id) {
		return false
	}
	id = NormalizeCurrency(id)
	for _, w := range l.Wallets {
		delete(w.Balances, id)
	}
	return true
}

// Reconcile makes every wallet match the registry exactly: missing currencies
// are zero-filled and unregistered ones dropped. Backends whose two documents
// can be torn by a crash run this after loading. It returns true if anything changed.
func (l *Ledger) Reconcile() bool {
	changed := false
	for _, w := range l.Wallets {
		if w.Sync(l.Currencies) {
			changed = true
		}
		for c := range w.Balances {
			if !l.Currencies.Contains(c) {
				delete(w.Balances, c)
				changed = true
			}
		}
		if w.Withdrawals == nil {
			w.Withdrawals = []Withdrawal{}
		}
	}
	return changed
}

// Clone returns a deep copy so a mutation can be staged and discarded if persisting fails.
func (l *Ledger) Clone() *Ledger {
	out := &Ledger{
		Currencies: l.Currencies.Clone(),
		Wallets:    make(map[string]*Wallet, len(l.Wallets)),
	}
	for id, w := range l.Wallets {
		out.Wallets[id] = w.Clone()
	}
	return out
}
