package postgres

import (
	"context"
	"fmt"
	"sort"

	"gambling-bot/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements ports.LedgerRepository on normalized tables.
// Save rewrites the whole ledger in one transaction, so the registry and the
// wallets can never disagree.
type LedgerRepo struct {
	pool Pool
	tx   *Transactor
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool, tx: NewTransactor(pool)}
}

// Load reads the ledger. Before the first Save it returns the default registry.
func (r *LedgerRepo) Load(ctx context.Context) (*domain.Ledger, error) {
	var saved bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ledger_meta)`).Scan(&saved); err != nil {
		return nil, fmt.Errorf("check ledger meta: %w", err)
	}
	if !saved {
		return domain.NewLedger(domain.DefaultCurrencies), nil
	}

	currencies, err := r.currencies(ctx)
	if err != nil {
		return nil, err
	}
	ledger := domain.NewLedger(currencies)

	if err := r.loadUsers(ctx, ledger); err != nil {
		return nil, err
	}
	if err := r.loadBalances(ctx, ledger); err != nil {
		return nil, err
	}
	if err := r.loadWithdrawals(ctx, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (r *LedgerRepo) currencies(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM currencies ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan currencies: %w", err)
	}
	return ids, nil
}

func (r *LedgerRepo) loadUsers(ctx context.Context, ledger *domain.Ledger) error {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM users`)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("scan users: %w", err)
	}
	for _, id := range ids {
		ledger.Wallets[id] = domain.NewWallet()
	}
	return nil
}

func (r *LedgerRepo) loadBalances(ctx context.Context, ledger *domain.Ledger) error {
	rows, err := r.pool.Query(ctx, `SELECT user_id, currency, balance FROM balances`)
	if err != nil {
		return fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, currency string
		var balance int64
		if err := rows.Scan(&userID, &currency, &balance); err != nil {
			return fmt.Errorf("scan balance: %w", err)
		}
		wallet(ledger, userID).Balances[currency] = balance
	}
	return rows.Err()
}

func (r *LedgerRepo) loadWithdrawals(ctx context.Context, ledger *domain.Ledger) error {
	rows, err := r.pool.Query(ctx, `SELECT user_id, amount, currency FROM withdrawals ORDER BY user_id, seq`)
	if err != nil {
		return fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var wd domain.Withdrawal
		if err := rows.Scan(&userID, &wd.Amount, &wd.Currency); err != nil {
			return fmt.Errorf("scan withdrawal: %w", err)
		}
		w := wallet(ledger, userID)
		w.Withdrawals = append(w.Withdrawals, wd)
	}
	return rows.Err()
}

// Save replaces the stored ledger with ledger.
func (r *LedgerRepo) Save(ctx context.Context, ledger *domain.Ledger) error {
	users := make([]string, 0, len(ledger.Wallets))
	for id := range ledger.Wallets {
		users = append(users, id)
	}
	sort.Strings(users)

	var currencyRows, userRows, balanceRows, withdrawalRows [][]any
	for i, c := range ledger.Currencies {
		currencyRows = append(currencyRows, []any{i, c})
	}
	for _, id := range users {
		w := ledger.Wallets[id]
		userRows = append(userRows, []any{id})
		for c, bal := range w.Balances {
			balanceRows = append(balanceRows, []any{id, c, bal})
		}
		for seq, wd := range w.Withdrawals {
			withdrawalRows = append(withdrawalRows, []any{id, seq, wd.Amount, wd.Currency})
		}
	}

	return r.tx.WithinTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE withdrawals, balances, users, currencies`); err != nil {
			return fmt.Errorf("truncate ledger: %w", err)
		}

		copies := []struct {
			table   string
			columns []string
			rows    [][]any
		}{
			{"currencies", []string{"position", "id"}, currencyRows},
			{"users", []string{"user_id"}, userRows},
			{"balances", []string{"user_id", "currency", "balance"}, balanceRows},
			{"withdrawals", []string{"user_id", "seq", "amount", "currency"}, withdrawalRows},
		}
		for _, c := range copies {
			if len(c.rows) == 0 {
				continue
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{c.table}, c.columns, pgx.CopyFromRows(c.rows)); err != nil {
				return fmt.Errorf("copy %s: %w", c.table, err)
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO ledger_meta (id, saved_at) VALUES (1, now())
			 ON CONFLICT (id) DO UPDATE SET saved_at = EXCLUDED.saved_at`); err != nil {
			return fmt.Errorf("touch ledger meta: %w", err)
		}
		return nil
	})
}

func wallet(ledger *domain.Ledger, userID string) *domain.Wallet {
	w, ok := ledger.Wallets[userID]
	if !ok {
		w = domain.NewWallet()
		ledger.Wallets[userID] = w
	}
	return w
}
