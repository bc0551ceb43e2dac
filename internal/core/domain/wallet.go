package domain

// Withdrawal is an append-only notice that a user asked for a payout.
// It is never marked approved or fulfilled.
type Withdrawal struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"type"`
}

// Wallet holds one user's balances and withdrawal history.
// Balances may be negative: neither admin reductions nor gamble losses enforce a floor.
type Wallet struct {
	Balances    map[string]int64 `json:"wallet"`
	Withdrawals []Withdrawal     `json:"withdraws"`
}

// NewWallet creates an empty wallet.
func NewWallet() *Wallet {
	return &Wallet{
		Balances:    make(map[string]int64),
		Withdrawals: []Withdrawal{},
	}
}

// Sync adds a zero balance for every registry currency the wallet lacks.
// Stale entries are left alone. It returns true if anything was added.
func (w *Wallet) Sync(reg Registry) bool {
	if w.Balances == nil {
		w.Balances = make(map[string]int64)
	}
	added := false
	for _, c := range reg {
		if _, ok := w.Balances[c]; !ok {
			w.Balances[c] = 0
			added = true
		}
	}
	return added
}

// Clone returns a deep copy.
func (w *Wallet) Clone() *Wallet {
	out := &Wallet{
		Balances:    make(map[string]int64, len(w.Balances)),
		Withdrawals: make([]Withdrawal, len(w.Withdrawals)),
	}
	for k, v := range w.Balances {
		out.Balances[k] = v
	}
	copy(out.Withdrawals, w.Withdrawals)
	return out
}
